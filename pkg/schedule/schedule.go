// Package schedule attaches absolute years to provider-proposed "MM/DD"
// periods and formats schedule text for documents.
package schedule

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

// DefaultLeadDays is the minimum gap between today and the first stage.
const DefaultLeadDays = 7

// DefaultProjectMonths is used when the client's timeline names no month count.
const DefaultProjectMonths = 6

// Negotiable is displayed when the client left the timeline open.
const Negotiable = "협의"

var (
	periodPattern = regexp.MustCompile(`^\s*(\d{1,2})\s*/\s*(\d{1,2})\s*[~\-–]\s*(\d{1,2})\s*/\s*(\d{1,2})\s*$`)
	monthsPattern = regexp.MustCompile(`(\d+)\s*개월`)
)

// ParsePeriod parses "10/21 ~ 11/3".
func ParsePeriod(s string) (estimate.RelativePeriod, error) {
	m := periodPattern.FindStringSubmatch(s)
	if m == nil {
		return estimate.RelativePeriod{}, fmt.Errorf("invalid period %q: expected MM/DD ~ MM/DD", s)
	}
	n := make([]int, 4)
	for i := range n {
		n[i], _ = strconv.Atoi(m[i+1])
	}
	p := estimate.RelativePeriod{StartMonth: n[0], StartDay: n[1], EndMonth: n[2], EndDay: n[3]}
	if p.StartMonth < 1 || p.StartMonth > 12 || p.EndMonth < 1 || p.EndMonth > 12 {
		return estimate.RelativePeriod{}, fmt.Errorf("invalid period %q: month out of range", s)
	}
	if p.StartDay < 1 || p.StartDay > 31 || p.EndDay < 1 || p.EndDay > 31 {
		return estimate.RelativePeriod{}, fmt.Errorf("invalid period %q: day out of range", s)
	}
	return p, nil
}

// NewStage builds a stage from provider output. An unparseable period is
// kept as Raw and displayed verbatim.
func NewStage(label, content, period string) estimate.Stage {
	st := estimate.Stage{Label: label, Content: content}
	p, err := ParsePeriod(period)
	if err != nil {
		st.Raw = strings.TrimSpace(period)
		return st
	}
	st.Period = p
	return st
}

// Resolver attaches years to relative stage periods.
type Resolver struct {
	LeadDays int
	Now      func() time.Time
}

// NewResolver creates a resolver using the wall clock.
func NewResolver(leadDays int) *Resolver {
	if leadDays <= 0 {
		leadDays = DefaultLeadDays
	}
	return &Resolver{LeadDays: leadDays, Now: time.Now}
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// LeadDate is the earliest allowed start for the first stage.
func (r *Resolver) LeadDate() time.Time {
	now := r.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return today.AddDate(0, 0, r.LeadDays)
}

// Resolve attaches absolute dates to stages.
//
// The first stage is read in the current year and moved to the lead date if
// it would start earlier. Later stages take the first stage's year, plus one
// when their start month is before the first stage's start month. Each end
// rolls to the next year when it precedes its own start in month/day terms.
// Order between stages is not enforced.
func (r *Resolver) Resolve(stages []estimate.Stage) []estimate.ResolvedStage {
	out := make([]estimate.ResolvedStage, 0, len(stages))
	if len(stages) == 0 {
		return out
	}

	lead := r.LeadDate()
	loc := lead.Location()

	var firstYear int
	var firstMonth time.Month
	haveFirst := false

	for _, st := range stages {
		rs := estimate.ResolvedStage{Label: st.Label, Content: st.Content, Raw: st.Raw}
		if st.Raw != "" {
			out = append(out, rs)
			continue
		}
		p := st.Period

		var start time.Time
		if !haveFirst {
			start = time.Date(r.now().Year(), time.Month(p.StartMonth), p.StartDay, 0, 0, 0, 0, loc)
			if start.Before(lead) {
				start = lead
			}
			firstYear, firstMonth = start.Year(), start.Month()
			haveFirst = true
		} else {
			year := firstYear
			if time.Month(p.StartMonth) < firstMonth {
				year++
			}
			start = time.Date(year, time.Month(p.StartMonth), p.StartDay, 0, 0, 0, 0, loc)
		}

		endYear := start.Year()
		if endBeforeStart(start, p.EndMonth, p.EndDay) {
			endYear++
		}
		end := time.Date(endYear, time.Month(p.EndMonth), p.EndDay, 0, 0, 0, 0, loc)

		rs.Start, rs.End = start, end
		out = append(out, rs)
	}
	return out
}

func endBeforeStart(start time.Time, endMonth, endDay int) bool {
	m := time.Month(endMonth)
	return m < start.Month() || (m == start.Month() && endDay < start.Day())
}

// TotalDuration is the overall length of a resolved schedule.
type TotalDuration struct {
	Weeks    int  `json:"weeks"`
	Months   int  `json:"months"`
	Fallback bool `json:"fallback"`
}

// String renders "약 N주 (M개월)".
func (d TotalDuration) String() string {
	return fmt.Sprintf("약 %d주 (%d개월)", d.Weeks, d.Months)
}

// Duration measures first start to last end. When that span is zero or
// negative, or no dates resolved, it falls back to two weeks per stage.
func Duration(stages []estimate.ResolvedStage) TotalDuration {
	var first, last *estimate.ResolvedStage
	for i := range stages {
		if stages[i].Start.IsZero() {
			continue
		}
		if first == nil {
			first = &stages[i]
		}
		last = &stages[i]
	}

	if first != nil {
		days := int(math.Round(last.End.Sub(first.Start).Hours() / 24))
		if days > 0 {
			return TotalDuration{
				Weeks:  int(math.Ceil(float64(days) / 7)),
				Months: max(1, int(math.Round(float64(days)/30))),
			}
		}
	}

	weeks := len(stages) * 2
	return TotalDuration{
		Weeks:    weeks,
		Months:   max(1, int(math.Round(float64(weeks*7)/30))),
		Fallback: true,
	}
}

// FormatDate renders "2026년 10월 26일".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d년 %02d월 %02d일", t.Year(), int(t.Month()), t.Day())
}

// FormatRange renders "A ~ B".
func FormatRange(start, end time.Time) string {
	return FormatDate(start) + " ~ " + FormatDate(end)
}

// FormatStage renders a resolved stage's period, or its raw text.
func FormatStage(s estimate.ResolvedStage) string {
	if s.Start.IsZero() {
		return s.Raw
	}
	return FormatRange(s.Start, s.End)
}

// FormatShort renders "10/26 ~ 11/03" for compact table cells.
func FormatShort(s estimate.ResolvedStage) string {
	if s.Start.IsZero() {
		return s.Raw
	}
	return fmt.Sprintf("%d/%02d ~ %d/%02d", int(s.Start.Month()), s.Start.Day(), int(s.End.Month()), s.End.Day())
}

// ProjectPeriod computes the headline project period: start is the lead date,
// end is start plus the month count named in timeline ("3개월"), or
// DefaultProjectMonths when none is named. A timeline of "협의" is displayed
// as is.
func (r *Resolver) ProjectPeriod(timeline string) string {
	if strings.TrimSpace(timeline) == Negotiable {
		return Negotiable
	}
	start := r.LeadDate()
	months := DefaultProjectMonths
	if m := monthsPattern.FindStringSubmatch(timeline); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			months = n
		}
	} else if strings.TrimSpace(timeline) != "" {
		return Negotiable
	}
	return FormatRange(start, start.AddDate(0, months, 0))
}

// Span returns the first start to last end of a resolved schedule as a
// display range, or "" when nothing resolved.
func Span(stages []estimate.ResolvedStage) string {
	var first, last *estimate.ResolvedStage
	for i := range stages {
		if stages[i].Start.IsZero() {
			continue
		}
		if first == nil {
			first = &stages[i]
		}
		last = &stages[i]
	}
	if first == nil {
		return ""
	}
	return FormatRange(first.Start, last.End)
}
