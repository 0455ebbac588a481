// Package estimate holds the data model shared by every stage of estimate
// generation. Values are created fresh per generation request and discarded
// once the document text is produced.
package estimate

import (
	"fmt"
	"strings"
	"time"
)

// Category tags a cost line item.
type Category string

const (
	CategoryPlanning    Category = "Planning"
	CategoryFrontend    Category = "Frontend"
	CategoryBackend     Category = "Backend"
	CategoryAIML        Category = "AI/ML"
	CategoryIntegration Category = "Integration"
	CategoryFeature     Category = "Feature"
	CategoryDatabase    Category = "Database"
	CategoryQA          Category = "QA"
)

var knownCategories = []Category{
	CategoryPlanning,
	CategoryFrontend,
	CategoryBackend,
	CategoryAIML,
	CategoryIntegration,
	CategoryFeature,
	CategoryDatabase,
	CategoryQA,
}

// ParseCategory maps a provider-supplied type string onto a known category.
// Unknown tags are kept verbatim.
func ParseCategory(s string) Category {
	trimmed := strings.TrimSpace(s)
	compact := strings.ToLower(strings.NewReplacer("/", "", "-", "", " ", "").Replace(trimmed))
	for _, c := range knownCategories {
		if compact == strings.ToLower(strings.ReplaceAll(string(c), "/", "")) {
			return c
		}
	}
	switch {
	case strings.Contains(compact, "test"), strings.Contains(compact, "qa"):
		return CategoryQA
	case compact == "ai", compact == "ml":
		return CategoryAIML
	}
	return Category(trimmed)
}

// InferCategory guesses a category from a free-text label. It is used for the
// detailed cost table, whose rows carry no type column.
func InferCategory(label string) Category {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "테스트"), strings.Contains(l, "qa"), strings.Contains(l, "검수"):
		return CategoryQA
	case strings.Contains(l, "기획"), strings.Contains(l, "분석"), strings.Contains(l, "planning"):
		return CategoryPlanning
	case strings.Contains(l, "디자인"), strings.Contains(l, "프론트"), strings.Contains(l, "ui"):
		return CategoryFrontend
	case strings.Contains(l, "ai"), strings.Contains(l, "인공지능"):
		return CategoryAIML
	case strings.Contains(l, "백엔드"), strings.Contains(l, "서버"), strings.Contains(l, "api"):
		return CategoryBackend
	case strings.Contains(l, "데이터베이스"), strings.Contains(l, "db"):
		return CategoryDatabase
	case strings.Contains(l, "연동"), strings.Contains(l, "통합"), strings.Contains(l, "배포"):
		return CategoryIntegration
	}
	return CategoryFeature
}

// LineItem is one row of a cost table. Amount is in won.
type LineItem struct {
	Label    string   `json:"label"`
	Detail   string   `json:"detail,omitempty"`
	Category Category `json:"category"`
	Amount   int64    `json:"amount"`
}

// Total sums the amounts of a line item set.
func Total(items []LineItem) int64 {
	var sum int64
	for _, it := range items {
		sum += it.Amount
	}
	return sum
}

// Budget is the client's budget expression and its resolved value.
type Budget struct {
	RawText  string `json:"rawText"`
	Amount   int64  `json:"amount"`
	Resolved bool   `json:"resolved"`
}

// PackageBudgets holds client-specified prices per tier. Zero means unset.
type PackageBudgets struct {
	Basic    int64 `json:"basic,omitempty"`
	Standard int64 `json:"standard,omitempty"`
	Premium  int64 `json:"premium,omitempty"`
}

// IsZero reports whether no tier price was specified.
func (b PackageBudgets) IsZero() bool {
	return b.Basic == 0 && b.Standard == 0 && b.Premium == 0
}

// ProjectInfo is everything the client told us about the project.
type ProjectInfo struct {
	Name                   string         `json:"projectName"`
	Description            string         `json:"projectDescription"`
	Client                 string         `json:"clientName"`
	Budget                 string         `json:"budget"`
	Timeline               string         `json:"timeline"`
	AdditionalRequirements string         `json:"additionalRequirements"`
	Instructions           string         `json:"instructions"`
	Attachment             string         `json:"attachment"`
	PackageBudgets         PackageBudgets `json:"packageBudgets"`
}

const (
	DefaultProjectName = "프로젝트"
	DefaultClientName  = "고객사"
)

// DisplayName returns the project name, or a default when it is empty or "null".
func (p ProjectInfo) DisplayName() string {
	return orDefault(p.Name, DefaultProjectName)
}

// DisplayClient returns the client name, or a default when it is empty or "null".
func (p ProjectInfo) DisplayClient() string {
	return orDefault(p.Client, DefaultClientName)
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return def
	}
	return s
}

// Validate checks the fields required before any generation starts.
func (p ProjectInfo) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "project name")
	}
	if strings.TrimSpace(p.Description) == "" {
		missing = append(missing, "project description")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// TierName identifies a package tier.
type TierName string

const (
	TierBasic    TierName = "basic"
	TierStandard TierName = "standard"
	TierPremium  TierName = "premium"
)

// DisplayName returns the Korean label used in documents.
func (t TierName) DisplayName() string {
	switch t {
	case TierBasic:
		return "기본형"
	case TierStandard:
		return "표준형"
	case TierPremium:
		return "프리미엄형"
	}
	return string(t)
}

// PackageTier is one priced package option.
type PackageTier struct {
	Name     TierName `json:"name"`
	Title    string   `json:"title"`
	Price    int64    `json:"price"`
	Features []string `json:"features"`
}

// RelativePeriod is a provider-proposed "MM/DD ~ MM/DD" period with no year.
type RelativePeriod struct {
	StartMonth int `json:"startMonth"`
	StartDay   int `json:"startDay"`
	EndMonth   int `json:"endMonth"`
	EndDay     int `json:"endDay"`
}

// Stage is a schedule entry before years are attached. For detailed
// schedules Label is the stage name and Content is the task.
type Stage struct {
	Label   string         `json:"label"`
	Content string         `json:"content"`
	Period  RelativePeriod `json:"period"`
	// Raw holds the period text when it could not be parsed.
	Raw string `json:"raw,omitempty"`
}

// ResolvedStage is a stage with absolute dates attached.
type ResolvedStage struct {
	Label   string    `json:"label"`
	Content string    `json:"content"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Raw     string    `json:"raw,omitempty"`
}

// Phase is one block of a phase-based plan.
type Phase struct {
	Name      string   `json:"name"`
	Summary   string   `json:"summary"`
	Scope     []string `json:"scope"`
	TechStack []string `json:"techStack"`
	Estimate  int64    `json:"estimate"`
	Period    string   `json:"period"`
	Priority  int      `json:"priority"`
}

// Installment is one row of the payment terms.
type Installment struct {
	Label  string `json:"label"`
	Ratio  string `json:"ratio"`
	Amount int64  `json:"amount"`
	When   string `json:"when"`
}

// Bundle is a priced combination of consecutive phases.
type Bundle struct {
	Name     string   `json:"name"`
	Phases   []string `json:"phases"`
	SubTotal int64    `json:"subTotal"`
	Price    int64    `json:"price"`
}

// Deliverable is one output handed over at the end of the project.
type Deliverable struct {
	Category string `json:"category"`
	Item     string `json:"item"`
	Format   string `json:"format"`
}
