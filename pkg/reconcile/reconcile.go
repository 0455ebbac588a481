// Package reconcile repairs provider-proposed cost tables so that amounts are
// non-negative, the protected category meets its floor and the set sums to the
// target subtotal exactly.
package reconcile

import (
	"math"
	"sort"

	"github.com/tsanders/estimate-ai/pkg/estimate"
)

// Step names recorded on each Adjustment.
const (
	StepClampNegative  = "clamp-negative"
	StepProtectedFloor = "protected-floor"
	StepRedistribute   = "redistribute"
	StepRescale        = "rescale"
	StepEvenSplit      = "even-split"
	StepItemMinimum    = "item-minimum"
	StepResidue        = "residue"
)

// Config holds the reconciler's tunables.
type Config struct {
	ProtectedCategory estimate.Category `yaml:"protected-category"` // category subject to the floor
	ProtectedFloor    int64             `yaml:"protected-floor"`    // floor when the budget is sufficient
	SmallFloor        int64             `yaml:"small-floor"`        // lowest floor for small budgets
	PerItemMinimum    int64             `yaml:"per-item-minimum"`   // minimum per non-protected item
	ProtectedShare    float64           `yaml:"protected-share"`    // suggested protected share of the target
}

// DefaultConfig returns the standard QA floor rules.
func DefaultConfig() Config {
	return Config{
		ProtectedCategory: estimate.CategoryQA,
		ProtectedFloor:    1000000,
		SmallFloor:        10000,
		PerItemMinimum:    500000,
		ProtectedShare:    0.1,
	}
}

// Adjustment records one change made to an item.
type Adjustment struct {
	Step  string `json:"step"`
	Index int    `json:"index"`
	Label string `json:"label"`
	From  int64  `json:"from"`
	To    int64  `json:"to"`
}

// Result is a reconciled item set.
type Result struct {
	Items       []estimate.LineItem `json:"items"`
	Adjustments []Adjustment        `json:"adjustments"`
	Total       int64               `json:"total"`
}

// Changed reports whether any item was modified.
func (r Result) Changed() bool {
	return len(r.Adjustments) > 0
}

// Reconciler applies Config to item sets.
type Reconciler struct {
	config Config
}

// New creates a reconciler. Zero-valued fields fall back to DefaultConfig.
func New(config Config) *Reconciler {
	def := DefaultConfig()
	if config.ProtectedCategory == "" {
		config.ProtectedCategory = def.ProtectedCategory
	}
	if config.ProtectedFloor <= 0 {
		config.ProtectedFloor = def.ProtectedFloor
	}
	if config.SmallFloor <= 0 {
		config.SmallFloor = def.SmallFloor
	}
	if config.PerItemMinimum <= 0 {
		config.PerItemMinimum = def.PerItemMinimum
	}
	if config.ProtectedShare <= 0 {
		config.ProtectedShare = def.ProtectedShare
	}
	return &Reconciler{config: config}
}

// Threshold is the subtotal at or above which a budget counts as sufficient
// for n items.
func (r *Reconciler) Threshold(n int) int64 {
	return int64(n) * r.config.PerItemMinimum
}

// Floor is the protected category's minimum for a target and item count.
// It never exceeds the target.
func (r *Reconciler) Floor(target int64, n int) int64 {
	var floor int64
	if target >= r.Threshold(n) {
		floor = r.config.ProtectedFloor
	} else {
		floor = max(r.config.SmallFloor, round(float64(target)*r.config.ProtectedShare))
	}
	return min(floor, target)
}

// Reconcile repairs items against target. A target of zero means the
// generator chose the scale: only negatives are clamped and the total is
// whatever the items sum to. The input slice is not modified.
//
// For target > 0 the result sums to target exactly, every amount is >= 0 and
// the protected item meets its floor. Reconciling a result again with the
// same target changes nothing.
func (r *Reconciler) Reconcile(target int64, items []estimate.LineItem) Result {
	rc := &run{items: append([]estimate.LineItem(nil), items...)}

	for i := range rc.items {
		if rc.items[i].Amount < 0 {
			rc.set(StepClampNegative, i, 0)
		}
	}

	if target <= 0 || len(rc.items) == 0 {
		return rc.result()
	}

	n := len(rc.items)
	p := r.protectedIndex(rc.items)
	others := otherIndexes(n, p)
	sufficient := target >= r.Threshold(n)

	if p >= 0 {
		floor := r.Floor(target, n)
		if cur := rc.items[p].Amount; cur < floor || cur > target {
			final := min(max(round(float64(target)*r.config.ProtectedShare), floor), target)
			rc.set(StepProtectedFloor, p, final)
			rc.rescale(StepRedistribute, others, target-final)
		}
	}

	remaining := target - rc.protected(p)
	if rc.sum(others) != remaining {
		if sufficient {
			for _, i := range others {
				if rc.items[i].Amount < r.config.PerItemMinimum {
					rc.set(StepItemMinimum, i, r.config.PerItemMinimum)
				}
			}
		} else {
			rc.rescale(StepRescale, others, remaining)
		}
	}

	rc.settle(target, p, others)
	return rc.result()
}

func (r *Reconciler) protectedIndex(items []estimate.LineItem) int {
	for i, it := range items {
		if it.Category == r.config.ProtectedCategory {
			return i
		}
	}
	return -1
}

func otherIndexes(n, protected int) []int {
	idx := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if i != protected {
			idx = append(idx, i)
		}
	}
	return idx
}

type run struct {
	items       []estimate.LineItem
	adjustments []Adjustment
}

func (rc *run) set(step string, i int, amount int64) {
	if amount < 0 {
		amount = 0
	}
	if rc.items[i].Amount == amount {
		return
	}
	rc.adjustments = append(rc.adjustments, Adjustment{
		Step:  step,
		Index: i,
		Label: rc.items[i].Label,
		From:  rc.items[i].Amount,
		To:    amount,
	})
	rc.items[i].Amount = amount
}

func (rc *run) sum(idx []int) int64 {
	var s int64
	for _, i := range idx {
		s += rc.items[i].Amount
	}
	return s
}

func (rc *run) protected(p int) int64 {
	if p < 0 {
		return 0
	}
	return rc.items[p].Amount
}

// rescale scales idx proportionally to their current positive amounts so they
// approach target. Rounding residue is left for settle. When every amount is
// zero the target is split evenly, the division remainder going one unit
// each to the first items.
func (rc *run) rescale(step string, idx []int, target int64) {
	if len(idx) == 0 {
		return
	}
	target = max(target, 0)
	current := rc.sum(idx)
	if current <= 0 {
		share := target / int64(len(idx))
		extra := target % int64(len(idx))
		for k, i := range idx {
			amount := share
			if int64(k) < extra {
				amount++
			}
			rc.set(StepEvenSplit, i, amount)
		}
		return
	}
	ratio := float64(target) / float64(current)
	for _, i := range idx {
		rc.set(step, i, round(float64(rc.items[i].Amount)*ratio))
	}
}

// settle applies any remaining difference to the largest non-protected item.
// A shortfall larger than that item cascades to the next largest so the sum
// is always exact. Without non-protected items the protected item absorbs it.
func (rc *run) settle(target int64, p int, others []int) {
	diff := target - Total(rc.items)
	if diff == 0 {
		return
	}
	if len(others) == 0 {
		rc.set(StepResidue, p, rc.items[p].Amount+diff)
		return
	}

	order := append([]int(nil), others...)
	sort.SliceStable(order, func(a, b int) bool {
		return rc.items[order[a]].Amount > rc.items[order[b]].Amount
	})

	if diff > 0 {
		rc.set(StepResidue, order[0], rc.items[order[0]].Amount+diff)
		return
	}
	for _, i := range order {
		if diff == 0 {
			break
		}
		take := min(rc.items[i].Amount, -diff)
		rc.set(StepResidue, i, rc.items[i].Amount-take)
		diff += take
	}
}

func (rc *run) result() Result {
	return Result{Items: rc.items, Adjustments: rc.adjustments, Total: Total(rc.items)}
}

// Total sums item amounts.
func Total(items []estimate.LineItem) int64 {
	return estimate.Total(items)
}

// Scale rescales amounts proportionally so they sum to target exactly. Every
// result is >= 0; the largest entry absorbs rounding residue. Zero or empty
// inputs are split evenly.
func Scale(target int64, amounts []int64) []int64 {
	items := make([]estimate.LineItem, len(amounts))
	for i, a := range amounts {
		items[i] = estimate.LineItem{Amount: max(a, 0)}
	}
	rc := &run{items: items}
	idx := otherIndexes(len(items), -1)
	if target > 0 {
		rc.rescale(StepRescale, idx, target)
		rc.settle(target, -1, idx)
	}

	out := make([]int64, len(items))
	for i, it := range rc.items {
		out[i] = it.Amount
	}
	return out
}

func round(f float64) int64 {
	return int64(math.Round(f))
}
