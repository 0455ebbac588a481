// Package currency parses and formats Korean won amounts.
package currency

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

// VATRate is the fixed surcharge applied to a pre-tax subtotal.
const VATRate = 0.1

const (
	unitTenThousand = "만원"
	unitThousand    = "천원"
)

var (
	digitRun     = regexp.MustCompile(`\d+`)
	signedAmount = regexp.MustCompile(`-?\s*\d[\d,]*`)
)

// Normalize parses a free-form budget expression such as "50만원",
// "약 1000만원" or "500000" into won. It only understands digit runs with an
// optional unit suffix; spelled-out numerals are left to the completion
// provider. ok is false when the text holds no digits.
func Normalize(raw string) (int64, bool) {
	match := digitRun.FindString(raw)
	if match == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}

	var multiplier int64 = 1
	switch {
	case strings.Contains(raw, unitTenThousand):
		multiplier = 10000
	case strings.Contains(raw, unitThousand):
		multiplier = 1000
	}
	if n > math.MaxInt64/multiplier {
		return 0, false
	}
	return n * multiplier, true
}

// NewBudget builds a Budget from the client's budget text.
func NewBudget(raw string) estimate.Budget {
	amount, ok := Normalize(raw)
	return estimate.Budget{RawText: raw, Amount: amount, Resolved: ok}
}

// ParseAmount reads an amount string produced by the completion provider,
// e.g. "1,500,000원" or "-500,000". The sign is kept so callers can repair
// negative proposals. Unparseable input yields 0.
func ParseAmount(s string) int64 {
	match := signedAmount.FindString(s)
	if match == "" {
		return 0
	}
	negative := strings.HasPrefix(match, "-")
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, match)
	if digits == "" {
		return 0
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	if negative {
		return -n
	}
	return n
}

// ParsePrice reads a user-entered price such as "1500만원" or
// "15,000,000원". Unit forms go through Normalize, grouped digits through
// ParseAmount. Negative or unparseable input yields 0.
func ParsePrice(s string) int64 {
	if strings.Contains(s, unitTenThousand) || strings.Contains(s, unitThousand) {
		n, _ := Normalize(s)
		return n
	}
	return max(ParseAmount(s), 0)
}

// Group renders n with thousands separators: 1500000 -> "1,500,000".
func Group(n int64) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Format renders an amount the way estimates display it: "1,500,000원".
func Format(n int64) string {
	return Group(n) + "원"
}

// VAT returns the surcharge for a subtotal, rounded half away from zero.
func VAT(subTotal int64) int64 {
	return Round(float64(subTotal) * VATRate)
}

// Round rounds a float amount to the nearest won.
func Round(f float64) int64 {
	return int64(math.Round(f))
}

// Breakdown is a subtotal with its VAT and grand total.
type Breakdown struct {
	SubTotal int64 `json:"subTotal"`
	VAT      int64 `json:"vat"`
	Total    int64 `json:"total"`
}

// NewBreakdown computes VAT and the grand total for a subtotal.
func NewBreakdown(subTotal int64) Breakdown {
	vat := VAT(subTotal)
	return Breakdown{SubTotal: subTotal, VAT: vat, Total: subTotal + vat}
}
