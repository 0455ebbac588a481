// Package pricing derives package tiers, payment installments and phase
// bundles from a computed grand total.
package pricing

import (
	"fmt"
	"strings"

	"github.com/tsanders/estimate-ai/pkg/currency"
	"github.com/tsanders/estimate-ai/pkg/estimate"
	"github.com/tsanders/estimate-ai/pkg/reconcile"
)

// Ratios used when a tier price is missing or out of order.
const (
	BasicRatio   = 0.45
	PremiumRatio = 1.75

	// DepositRatio is the fixed first payment of a phase-based estimate.
	DepositRatio = 0.30
)

var tierOrder = []estimate.TierName{estimate.TierBasic, estimate.TierStandard, estimate.TierPremium}

// ClassifyTier maps a provider package title ("표준형 패키지", "Premium") to a
// tier. ok is false when the title names no tier.
func ClassifyTier(title string) (estimate.TierName, bool) {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "프리미엄"), strings.Contains(t, "premium"):
		return estimate.TierPremium, true
	case strings.Contains(t, "표준"), strings.Contains(t, "standard"):
		return estimate.TierStandard, true
	case strings.Contains(t, "기본"), strings.Contains(t, "basic"):
		return estimate.TierBasic, true
	}
	return "", false
}

// PinTiers returns exactly three tiers ordered basic, standard, premium.
//
// Tiers are matched by name, then by position. Client-specified budgets
// override generated prices. When grandTotal is known the standard tier is
// pinned to it. Prices that break basic < standard < premium are replaced
// with fixed ratios of the standard price.
func PinTiers(tiers []estimate.PackageTier, grandTotal int64, overrides estimate.PackageBudgets) []estimate.PackageTier {
	byName := make(map[estimate.TierName]estimate.PackageTier, 3)
	var unnamed []estimate.PackageTier
	for _, t := range tiers {
		name := t.Name
		if name == "" {
			if n, ok := ClassifyTier(t.Title); ok {
				name = n
			}
		}
		if _, taken := byName[name]; name == "" || taken {
			unnamed = append(unnamed, t)
			continue
		}
		t.Name = name
		byName[name] = t
	}
	for _, name := range tierOrder {
		if _, ok := byName[name]; ok || len(unnamed) == 0 {
			continue
		}
		t := unnamed[0]
		unnamed = unnamed[1:]
		t.Name = name
		byName[name] = t
	}

	out := make([]estimate.PackageTier, 3)
	for i, name := range tierOrder {
		t := byName[name]
		t.Name = name
		if t.Title == "" {
			t.Title = name.DisplayName() + " 패키지"
		}
		out[i] = t
	}
	basic, standard, premium := &out[0], &out[1], &out[2]

	if overrides.Basic > 0 {
		basic.Price = overrides.Basic
	}
	if overrides.Standard > 0 {
		standard.Price = overrides.Standard
	}
	if overrides.Premium > 0 {
		premium.Price = overrides.Premium
	}
	if grandTotal > 0 {
		standard.Price = grandTotal
	}

	if standard.Price <= 0 {
		switch {
		case basic.Price > 0:
			standard.Price = currency.Round(float64(basic.Price) / BasicRatio)
		case premium.Price > 0:
			standard.Price = currency.Round(float64(premium.Price) / PremiumRatio)
		}
	}
	if standard.Price <= 0 {
		return out
	}

	if basic.Price <= 0 || basic.Price >= standard.Price {
		basic.Price = currency.Round(float64(standard.Price) * BasicRatio)
	}
	if premium.Price <= standard.Price {
		premium.Price = currency.Round(float64(standard.Price) * PremiumRatio)
	}
	return out
}

// SplitPayments is the flat contract/balance split used by the standard and
// detailed documents. Each half is round(total/2), as displayed.
func SplitPayments(total int64) []estimate.Installment {
	half := currency.Round(float64(total) / 2)
	return []estimate.Installment{
		{Label: "계약금", Ratio: "50%", Amount: half, When: "계약 체결 시"},
		{Label: "잔금", Ratio: "50%", Amount: half, When: "최종 개발 완료 및 검수 후"},
	}
}

// PhaseInstallments splits total into a fixed 30% deposit followed by one
// payment per phase, proportional to each phase's estimate. Payments are
// rounded on the running total, so none is negative and they sum to total
// exactly.
func PhaseInstallments(total int64, phases []estimate.Phase) []estimate.Installment {
	deposit := currency.Round(float64(total) * DepositRatio)
	out := []estimate.Installment{{
		Label:  "계약금",
		Ratio:  "30%",
		Amount: deposit,
		When:   "계약 체결 시",
	}}
	if len(phases) == 0 {
		out[0].Amount = total
		out[0].Ratio = "100%"
		return out
	}

	rest := total - deposit
	weights := make([]int64, len(phases))
	var weightSum int64
	for i, p := range phases {
		weights[i] = max(p.Estimate, 0)
		weightSum += weights[i]
	}
	if weightSum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		weightSum = int64(len(weights))
	}

	var cumWeight, assigned int64
	for i, p := range phases {
		cumWeight += weights[i]
		upTo := rest
		if i < len(phases)-1 {
			upTo = currency.Round(float64(rest) * float64(cumWeight) / float64(weightSum))
		}
		amount := upTo - assigned
		assigned = upTo
		out = append(out, estimate.Installment{
			Label:  fmt.Sprintf("%d차 중도금", i+1),
			Ratio:  percent(amount, total),
			Amount: amount,
			When:   phaseLabel(p, i) + " 완료 및 검수 후",
		})
	}
	if n := len(out); n > 1 {
		out[n-1].Label = "잔금"
	}
	return out
}

// ScalePhases rescales phase estimates so they sum to subTotal. A zero
// subTotal leaves them as proposed (negatives clamped).
func ScalePhases(subTotal int64, phases []estimate.Phase) []estimate.Phase {
	amounts := make([]int64, len(phases))
	for i, p := range phases {
		amounts[i] = p.Estimate
	}
	scaled := reconcile.Scale(subTotal, amounts)

	out := make([]estimate.Phase, len(phases))
	for i, p := range phases {
		p.Estimate = scaled[i]
		out[i] = p
	}
	return out
}

// PhaseBundles builds the cumulative bundles Phase 1, Phase 1+2, ... with
// VAT-inclusive prices.
func PhaseBundles(phases []estimate.Phase) []estimate.Bundle {
	out := make([]estimate.Bundle, 0, len(phases))
	var sub int64
	var names []string
	for i, p := range phases {
		sub += p.Estimate
		names = append(names, phaseLabel(p, i))
		nums := make([]string, i+1)
		for k := range nums {
			nums[k] = fmt.Sprint(k + 1)
		}
		out = append(out, estimate.Bundle{
			Name:     "Phase " + strings.Join(nums, "+"),
			Phases:   append([]string(nil), names...),
			SubTotal: sub,
			Price:    currency.NewBreakdown(sub).Total,
		})
	}
	return out
}

func phaseLabel(p estimate.Phase, i int) string {
	if strings.TrimSpace(p.Name) != "" {
		return p.Name
	}
	return fmt.Sprintf("Phase %d", i+1)
}

func percent(part, whole int64) string {
	if whole <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", float64(part)*100/float64(whole))
}
