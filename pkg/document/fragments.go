package document

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/schedule"
)

// MaintenanceTerms is the fixed post-delivery support list.
var MaintenanceTerms = []string{
	"무상 하자보수: 개발 완료 후 계약기간만큼",
	"긴급 지원: 24시간 이내 대응",
	"시스템 모니터링",
	"오류 수정",
	"안정화 지원",
}

// ClosingTerms is the fixed boilerplate before any generated remarks.
var ClosingTerms = []string{
	"본 견적서의 유효기간은 발행일로부터 30일입니다.",
	"세부 범위와 일정은 착수 전 협의를 통해 조정될 수 있습니다.",
}

var categoryLabels = map[estimate.Category]string{
	estimate.CategoryPlanning:    "기획",
	estimate.CategoryFrontend:    "프론트엔드",
	estimate.CategoryBackend:     "백엔드",
	estimate.CategoryAIML:        "AI/ML",
	estimate.CategoryIntegration: "연동",
	estimate.CategoryFeature:     "기능 개발",
	estimate.CategoryDatabase:    "데이터베이스",
	estimate.CategoryQA:          "테스트/QA",
}

func categoryLabel(c estimate.Category) string {
	if l, ok := categoryLabels[c]; ok {
		return l
	}
	return string(c)
}

var funcs = template.FuncMap{
	"won":      currency.Format,
	"category": categoryLabel,
	"period":   schedule.FormatStage,
	"short":    schedule.FormatShort,
	"tier":     func(t estimate.TierName) string { return t.DisplayName() },
	"join":     strings.Join,
	"inc":      func(i int) int { return i + 1 },
}

var fragments = template.Must(template.New("fragments").Funcs(funcs).Parse(`
{{define "cost-table"}}{{range .}}<tr><td>{{.Label}}</td><td>{{category .Category}}</td><td class="amount">{{won .Amount}}</td></tr>
{{end}}{{end}}

{{define "detailed-cost-table"}}{{range .}}<tr><td>{{.Label}}</td><td>{{.Detail}}</td><td class="amount">{{won .Amount}}</td></tr>
{{end}}{{end}}

{{define "cost-summary"}}<tr class="subtotal"><th>Sub Total</th><td class="amount">{{won .SubTotal}}</td></tr>
<tr class="vat"><th>VAT (10%)</th><td class="amount">{{won .VAT}}</td></tr>
<tr class="total"><th>Total</th><td class="amount">{{won .Total}}</td></tr>
{{end}}

{{define "packages"}}{{range .}}<div class="package package-{{.Name}}">
<h3>{{tier .Name}}{{if .Title}} <small>{{.Title}}</small>{{end}}</h3>
<p class="price">{{won .Price}}</p>
<ul>{{range .Features}}<li>{{.}}</li>{{end}}</ul>
</div>
{{end}}{{end}}

{{define "timeline"}}{{range .}}<tr><td>{{.Label}}</td><td>{{.Content}}</td><td>{{period .}}</td></tr>
{{end}}{{end}}

{{define "scope-period"}}{{range .Stages}}<tr><td>{{.Label}}</td><td>{{.Content}}</td><td>{{short .}}</td></tr>
{{end}}<tr class="total"><th colspan="2">전체 기간</th><td>{{.Total}}</td></tr>
{{end}}

{{define "detailed-schedule"}}{{range .}}<tr>{{if .Span}}<td rowspan="{{.Span}}">{{.Stage}}</td>{{end}}<td>{{.Task}}</td><td>{{.Period}}</td></tr>
{{end}}{{end}}

{{define "payment-terms"}}{{range .Installments}}<tr><td>{{.Label}}</td><td>{{.Ratio}}</td><td class="amount">{{won .Amount}}</td><td>{{.When}}</td></tr>
{{end}}{{if .ShowTotal}}<tr class="total"><th colspan="2">합계 (V.A.T 포함)</th><td class="amount">{{won .Total}}</td><td></td></tr>
{{end}}{{end}}

{{define "phases"}}{{range $i, $p := .}}<section class="phase">
<h3>{{$p.Name}}{{if $p.Priority}} <span class="priority">우선순위 {{$p.Priority}}</span>{{end}}</h3>
{{if $p.Summary}}<p class="summary">{{$p.Summary}}</p>{{end}}
<ul class="scope">{{range $p.Scope}}<li>{{.}}</li>{{end}}</ul>
<p class="tech-stack">{{join $p.TechStack ", "}}</p>
<p class="estimate">{{won $p.Estimate}}{{if $p.Period}} · {{$p.Period}}{{end}}</p>
</section>
{{end}}{{end}}

{{define "bundles"}}{{range .}}<tr><td>{{.Name}}</td><td>{{join .Phases " + "}}</td><td class="amount">{{won .SubTotal}}</td><td class="amount">{{won .Price}}</td></tr>
{{end}}{{end}}

{{define "deliverables"}}{{range .}}<tr><td>{{.Category}}</td><td>{{.Item}}</td><td>{{.Format}}</td></tr>
{{end}}{{end}}

{{define "maintenance"}}<ul>{{range .}}<li>{{.}}</li>{{end}}</ul>{{end}}

{{define "closing"}}{{range .Terms}}<p>{{.}}</p>
{{end}}{{if .Remarks}}<div class="remarks">{{.Remarks}}</div>{{end}}{{end}}

{{define "notes"}}{{.}}{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

type scheduleRow struct {
	Stage  string
	Span   int // rows covered by this stage cell, 0 when merged into the one above
	Task   string
	Period string
}

// groupTasks collapses consecutive equal stage labels into one rowspan cell.
func groupTasks(tasks []estimate.ResolvedStage) []scheduleRow {
	rows := make([]scheduleRow, len(tasks))
	for i, t := range tasks {
		rows[i] = scheduleRow{Stage: t.Label, Task: t.Content, Period: schedule.FormatShort(t)}
	}
	for i := 0; i < len(rows); {
		j := i + 1
		for j < len(rows) && rows[j].Stage == rows[i].Stage {
			j++
		}
		rows[i].Span = j - i
		i = j
	}
	return rows
}

type paymentData struct {
	Installments []estimate.Installment
	ShowTotal    bool
	Total        int64
}

type scopeData struct {
	Stages []estimate.ResolvedStage
	Total  string
}

type closingData struct {
	Terms   []string
	Remarks template.HTML
}
