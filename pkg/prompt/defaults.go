package prompt

// Default templates for different providers
// These can be overridden via configuration

// getDefaultTemplate returns a fresh copy of the built-in template for kind.
// The same wording works for all providers currently.
func getDefaultTemplate(provider string, kind Kind) *Template {
	d, ok := defaults[kind]
	if !ok {
		return &Template{Name: string(kind), Content: ""}
	}
	return &Template{
		Name:    string(kind) + "-default",
		System:  d.system,
		Content: projectBlock + d.content,
		JSON:    d.json,
	}
}

type defaultTemplate struct {
	system  string
	content string
	json    bool
}

const systemJSON = `당신은 IT 외주 개발 견적서를 작성하는 전문 컨설턴트입니다. 요청된 JSON 형식으로만 응답하세요. 금액은 "1,500,000원"처럼 원 단위 문자열로 작성합니다.`

const systemProse = `당신은 IT 외주 개발 견적서를 작성하는 전문 컨설턴트입니다. 정중하고 간결한 한국어 비즈니스 문체로 작성하세요. 인사말이나 부연 설명 없이 본문만 출력합니다.`

// projectBlock is prepended to every project-scoped template.
const projectBlock = `{{if .ProjectName}}[프로젝트 정보]
- 프로젝트명: {{.ProjectName}}
- 프로젝트 설명: {{.ProjectDescription}}
- 고객사: {{.ClientName}}
{{if .BudgetText}}- 예산: {{.BudgetText}}{{if .Budget}} ({{.Budget}}, VAT 별도){{end}}
{{end}}{{if .Timeline}}- 희망 일정: {{.Timeline}}
{{end}}{{if .AdditionalRequirements}}- 추가 요구사항: {{.AdditionalRequirements}}
{{end}}{{if .Instructions}}- 작성 지침: {{.Instructions}}
{{end}}{{if .Attachment}}
[참고 자료]
{{.Attachment}}
{{end}}
{{end}}`

var defaults = map[Kind]defaultTemplate{
	CostTable: {
		system: systemJSON,
		json:   true,
		content: `[요청]
개발 비용 내역을 정확히 {{.Rows}}개 항목으로 작성하세요.
{{if .Budget}}모든 항목 금액의 합계가 {{.Budget}}이 되도록 배분하세요.
{{else}}예산이 정해지지 않았으므로 프로젝트 규모에 맞는 금액을 제안하세요.
{{end}}반드시 테스트/QA 항목을 하나 포함하고 category를 "QA"로 지정하세요.
category는 Planning, Frontend, Backend, AI/ML, Integration, Feature, Database, QA 중 하나입니다.

{"items": [{"label": "기획 및 분석", "detail": "요구사항 정의", "category": "Planning", "amount": "3,000,000원"}]}`,
	},
	DetailedCostTable: {
		system: systemJSON,
		json:   true,
		content: `[요청]
상세 견적서용 비용 내역을 정확히 {{.Rows}}개 항목으로 작성하세요. 각 항목에는 세부 내용(detail)을 한 줄로 적습니다.
{{if .Budget}}모든 항목 금액의 합계가 {{.Budget}}이 되도록 배분하세요.
{{end}}반드시 테스트/QA 항목을 하나 포함하고 category를 "QA"로 지정하세요.

{"items": [{"label": "UI/UX 설계", "detail": "화면 설계서 및 디자인 시안", "category": "Frontend", "amount": "4,000,000원"}]}`,
	},
	Overview: {
		system: systemProse,
		content: `[요청]
이 프로젝트의 개요를 2~3문장으로 작성하세요.`,
	},
	DetailedOverview: {
		system: systemProse,
		content: `[요청]
이 프로젝트의 목적을 100자 이내의 한 문장으로 작성하세요.`,
	},
	Timeline: {
		system: systemJSON,
		json:   true,
		content: `[요청]
프로젝트 진행 일정을 정확히 7단계로 작성하세요. 첫 단계는 {{.StartDate}} 이후에 시작해야 합니다. 기간은 연도 없이 "MM/DD ~ MM/DD" 형식입니다.

{"stages": [{"label": "요구사항 분석", "content": "요구사항 정의 및 기능 명세", "period": "{{.StartDate}} ~ 11/05"}]}`,
	},
	Packages: {
		system: systemJSON,
		json:   true,
		content: `[요청]
기본형, 표준형, 프리미엄형 3가지 패키지를 제안하세요. 표준형 가격은 {{.Total}}(VAT 포함)입니다.
{{if .Packages}}고객이 지정한 패키지 예산: {{.Packages}}
{{end}}각 패키지에는 4~6개의 주요 기능을 나열합니다. 상위 패키지는 하위 패키지의 기능을 모두 포함합니다.

{"packages": [{"name": "basic", "title": "기본형", "price": "10,000,000원", "features": ["핵심 기능 개발"]}]}`,
	},
	Closing: {
		system: systemProse,
		content: `[요청]
견적서 마지막에 들어갈 맺음말을 2~3문장으로 작성하세요. 총 견적 금액은 {{.Total}}(VAT 포함)입니다. Markdown 강조는 사용할 수 있습니다.`,
	},
	ScopePeriod: {
		system: systemJSON,
		json:   true,
		content: `[요청]
개발 범위와 기간을 4단계로 작성하세요. 첫 단계는 {{.StartDate}} 이후에 시작합니다. 기간은 "MM/DD ~ MM/DD" 형식이며 totalPeriod에는 전체 기간을 적습니다.

{"stages": [{"label": "1단계 설계", "content": "요구사항 분석 및 설계", "period": "{{.StartDate}} ~ 11/15"}], "totalPeriod": "약 12주"}`,
	},
	DetailedSchedule: {
		system: systemJSON,
		json:   true,
		content: `[요청]
세부 작업 일정을 정확히 11개 작업으로 작성하세요. 같은 단계(stage)에 속한 작업은 연속으로 배치합니다. 첫 작업은 {{.StartDate}} 이후에 시작하며 기간은 "MM/DD ~ MM/DD" 형식입니다.

{"tasks": [{"stage": "설계", "task": "요구사항 정의", "period": "{{.StartDate}} ~ 11/01"}]}`,
	},
	Deliverables: {
		system: systemJSON,
		json:   true,
		content: `[요청]
프로젝트 산출물 목록을 5~8개 작성하세요.

{"deliverables": [{"category": "설계", "item": "요구사항 정의서", "format": "PDF"}]}`,
	},
	PhasePlan: {
		system: systemJSON,
		json:   true,
		content: `[요청]
프로젝트를 정확히 3개의 단계(Phase)로 나누어 계획하세요. 각 단계에는 10~15개의 개발 범위(scope), 4~6개의 기술 스택(techStack), 예상 금액(estimate), 기간(period), 우선순위(priority, 1이 가장 높음)를 적습니다.
{{if .SubTotal}}세 단계 금액의 합계는 {{.SubTotal}}(VAT 별도)입니다.
{{end}}notes에는 단계별 진행 시 유의사항을 Markdown 목록으로 적습니다.

{"phases": [{"name": "Phase 1 MVP", "summary": "핵심 기능 구축", "scope": ["회원가입"], "techStack": ["React"], "estimate": "10,000,000원", "period": "2개월", "priority": 1}], "notes": "- 각 단계 종료 시 검수를 진행합니다."}`,
	},
	ExtractInfo: {
		system: systemJSON,
		json:   true,
		content: `[요청]
다음 고객 요청 자료에서 견적서 작성에 필요한 정보를 추출하세요. 자료에 없는 값은 빈 문자열로 둡니다. 예산이 한글 숫자("오백만원")로 적혀 있으면 "5,000,000원"처럼 숫자로 바꿉니다. 패키지별 예산이 있으면 packageBudgets에 원 단위 숫자로 적습니다.

[자료]
{{.RawText}}

{"projectName": "", "projectDescription": "", "clientName": "", "budget": "", "timeline": "", "additionalRequirements": "", "packageBudgets": {"basic": 0, "standard": 0, "premium": 0}}`,
	},
	Edit: {
		system: `당신은 HTML 견적서 편집 도우미입니다. 요청된 수정만 반영한 전체 HTML 문서를 출력하세요. 설명이나 Markdown 코드 블록 없이 HTML만 출력합니다. data-region 속성은 유지합니다.`,
		content: `[수정 요청]
{{.Instruction}}

[현재 견적서 HTML]
{{.HTML}}`,
	},
}
