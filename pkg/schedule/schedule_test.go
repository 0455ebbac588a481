package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsanders/estimate-ai/pkg/estimate"
)

func fixedResolver(y int, m time.Month, d int) *Resolver {
	now := time.Date(y, m, d, 15, 30, 0, 0, time.UTC)
	return &Resolver{LeadDays: DefaultLeadDays, Now: func() time.Time { return now }}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stage(label, period string) estimate.Stage {
	return NewStage(label, label+" content", period)
}

func TestParsePeriod(t *testing.T) {
	t.Run("valid forms", func(t *testing.T) {
		for _, s := range []string{"10/21 ~ 11/3", "10/21~11/3", " 10/21 - 11/3 ", "10 / 21 ~ 11 / 3"} {
			p, err := ParsePeriod(s)
			require.NoError(t, err, s)
			assert.Equal(t, estimate.RelativePeriod{StartMonth: 10, StartDay: 21, EndMonth: 11, EndDay: 3}, p)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, s := range []string{"", "3주", "13/01 ~ 14/01", "10/0 ~ 10/5", "2026-10-21"} {
			_, err := ParsePeriod(s)
			assert.Error(t, err, s)
		}
	})

	t.Run("new stage keeps raw text", func(t *testing.T) {
		st := NewStage("1단계", "기획", "약 2주")
		assert.Equal(t, "약 2주", st.Raw)
	})
}

func TestResolve_LeadTime(t *testing.T) {
	r := fixedResolver(2026, time.October, 19)

	t.Run("first stage proposed today moves to lead date", func(t *testing.T) {
		out := r.Resolve([]estimate.Stage{stage("1단계", "10/19 ~ 11/2")})
		require.Len(t, out, 1)
		assert.Equal(t, date(2026, time.October, 26), out[0].Start)
		assert.Equal(t, date(2026, time.November, 2), out[0].End)
	})

	t.Run("first stage after lead date is kept", func(t *testing.T) {
		out := r.Resolve([]estimate.Stage{stage("1단계", "11/1 ~ 11/20")})
		assert.Equal(t, date(2026, time.November, 1), out[0].Start)
		assert.Equal(t, date(2026, time.November, 20), out[0].End)
	})

	t.Run("moved first stage keeps the end year rule", func(t *testing.T) {
		out := r.Resolve([]estimate.Stage{
			stage("1단계", "3/1 ~ 3/20"),
			stage("2단계", "3/21 ~ 4/10"),
		})
		require.Len(t, out, 2)
		assert.Equal(t, date(2026, time.October, 26), out[0].Start)
		assert.Equal(t, date(2027, time.March, 20), out[0].End)
		assert.Equal(t, date(2027, time.March, 21), out[1].Start)
		assert.Equal(t, date(2027, time.April, 10), out[1].End)
	})

	t.Run("moved stage ending before the lead date rolls its end", func(t *testing.T) {
		out := r.Resolve([]estimate.Stage{stage("1단계", "10/20 ~ 10/25")})
		assert.Equal(t, date(2026, time.October, 26), out[0].Start)
		assert.Equal(t, date(2027, time.October, 25), out[0].End)
	})
}

func TestResolve_YearRollover(t *testing.T) {
	r := fixedResolver(2026, time.October, 1)

	out := r.Resolve([]estimate.Stage{
		stage("1단계", "11/01 ~ 11/30"),
		stage("2단계", "12/01 ~ 01/15"),
		stage("3단계", "02/01 ~ 02/28"),
	})

	require.Len(t, out, 3)
	assert.Equal(t, 2026, out[0].Start.Year())
	assert.Equal(t, date(2026, time.December, 1), out[1].Start)
	assert.Equal(t, date(2027, time.January, 15), out[1].End, "end month before start month rolls over")
	assert.Equal(t, out[0].Start.Year()+1, out[2].Start.Year())
	assert.Equal(t, date(2027, time.February, 28), out[2].End)
}

func TestResolve_LateDecember(t *testing.T) {
	r := fixedResolver(2026, time.December, 28)

	out := r.Resolve([]estimate.Stage{
		stage("1단계", "12/29 ~ 1/10"),
		stage("2단계", "1/11 ~ 1/31"),
	})

	assert.Equal(t, date(2027, time.January, 4), out[0].Start)
	assert.Equal(t, date(2027, time.January, 10), out[0].End)
	assert.Equal(t, date(2027, time.January, 11), out[1].Start)
}

func TestResolve_NoMonotonicityEnforced(t *testing.T) {
	r := fixedResolver(2026, time.October, 1)

	out := r.Resolve([]estimate.Stage{
		stage("1단계", "11/01 ~ 11/30"),
		stage("2단계", "11/10 ~ 11/20"),
	})

	assert.True(t, out[1].Start.Before(out[0].End), "overlapping proposals are kept as proposed")
}

func TestResolve_RawStage(t *testing.T) {
	r := fixedResolver(2026, time.October, 1)

	out := r.Resolve([]estimate.Stage{
		stage("1단계", "2주"),
		stage("2단계", "11/01 ~ 11/30"),
	})

	assert.True(t, out[0].Start.IsZero())
	assert.Equal(t, "2주", FormatStage(out[0]))
	assert.Equal(t, date(2026, time.November, 1), out[1].Start)
	assert.Empty(t, r.Resolve(nil))
}

func TestDuration(t *testing.T) {
	t.Run("span", func(t *testing.T) {
		d := Duration([]estimate.ResolvedStage{
			{Start: date(2026, time.November, 1), End: date(2026, time.November, 30)},
			{Start: date(2026, time.December, 1), End: date(2027, time.January, 31)},
		})
		assert.False(t, d.Fallback)
		assert.Equal(t, 13, d.Weeks)
		assert.Equal(t, 3, d.Months)
		assert.Equal(t, "약 13주 (3개월)", d.String())
	})

	t.Run("negative span falls back", func(t *testing.T) {
		d := Duration([]estimate.ResolvedStage{
			{Start: date(2026, time.November, 1), End: date(2026, time.November, 30)},
			{Start: date(2026, time.October, 1), End: date(2026, time.October, 1)},
			{Start: date(2026, time.October, 1), End: date(2026, time.October, 1)},
		})
		assert.True(t, d.Fallback)
		assert.Equal(t, 6, d.Weeks)
	})

	t.Run("no dates falls back", func(t *testing.T) {
		d := Duration([]estimate.ResolvedStage{{Raw: "2주"}, {Raw: "3주"}})
		assert.True(t, d.Fallback)
		assert.Equal(t, 4, d.Weeks)
		assert.Equal(t, 1, d.Months)
	})
}

func TestFormatting(t *testing.T) {
	s := estimate.ResolvedStage{Start: date(2026, time.October, 26), End: date(2026, time.November, 3)}
	assert.Equal(t, "2026년 10월 26일", FormatDate(s.Start))
	assert.Equal(t, "2026년 10월 26일 ~ 2026년 11월 03일", FormatStage(s))
	assert.Equal(t, "10/26 ~ 11/03", FormatShort(s))
	assert.Equal(t, "2026년 10월 26일 ~ 2026년 11월 03일", Span([]estimate.ResolvedStage{{Raw: "x"}, s}))
	assert.Equal(t, "", Span(nil))
}

func TestProjectPeriod(t *testing.T) {
	r := fixedResolver(2026, time.October, 19)

	assert.Equal(t, "2026년 10월 26일 ~ 2027년 01월 26일", r.ProjectPeriod("3개월"))
	assert.Equal(t, "2026년 10월 26일 ~ 2027년 04월 26일", r.ProjectPeriod(""))
	assert.Equal(t, Negotiable, r.ProjectPeriod("협의"))
	assert.Equal(t, Negotiable, r.ProjectPeriod("빠르게"))
}
