package pricing

import (
	"errors"
	"time"

	"github.com/jimmyjeon420-png/baln-sub003/internal/model"
)

var ErrUnknownFeature = errors.New("unknown feature type")

// FreePeriod is a globally configured window during which every feature cost
// is forced to zero and real-money purchases are rejected. It is injected
// into the engine so pricing stays testable against a fixed clock; a zero
// value disables the window.
type FreePeriod struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (p FreePeriod) Contains(t time.Time) bool {
	if p.Start.IsZero() || p.End.IsZero() {
		return false
	}
	return !t.Before(p.Start) && t.Before(p.End)
}

// Tariff maps each feature to its base cost in credits.
type Tariff map[model.FeatureType]int

// DefaultTariff is the built-in feature price table.
func DefaultTariff() Tariff {
	return Tariff{
		model.FeatureSpendingReport: 5,
		model.FeatureBudgetPlan:     10,
		model.FeatureAdvisorChat:    2,
	}
}

// Quote is the priced outcome of one prospective feature invocation.
type Quote struct {
	OriginalCost    int  `json:"original_cost"`
	DiscountedCost  int  `json:"discounted_cost"`
	DiscountPercent int  `json:"discount_percent"`
	IsFree          bool `json:"is_free"`
}

// Engine computes effective feature costs. It is pure: no I/O, and the same
// inputs always produce the same quote.
type Engine struct {
	tariff     Tariff
	discounts  map[model.Tier]int
	freePeriod FreePeriod
}

func NewEngine(tariff Tariff, freePeriod FreePeriod) *Engine {
	return &Engine{
		tariff: tariff,
		discounts: map[model.Tier]int{
			model.TierBasic:    0,
			model.TierSilver:   5,
			model.TierGold:     10,
			model.TierPlatinum: 20,
			model.TierDiamond:  30,
		},
		freePeriod: freePeriod,
	}
}

// Quote prices one invocation of feature for the given tier at instant now.
func (e *Engine) Quote(feature model.FeatureType, tier model.Tier, now time.Time) (Quote, error) {
	base, ok := e.tariff[feature]
	if !ok {
		return Quote{}, ErrUnknownFeature
	}

	if e.freePeriod.Contains(now) {
		return Quote{
			OriginalCost:    base,
			DiscountedCost:  0,
			DiscountPercent: 100,
			IsFree:          true,
		}, nil
	}

	pct := e.DiscountPercent(tier)
	return Quote{
		OriginalCost:    base,
		DiscountedCost:  roundHalfUpPercent(base, 100-pct),
		DiscountPercent: pct,
	}, nil
}

// DiscountPercent returns the discount for a tier, falling back to the BASIC
// rate for anything outside the table.
func (e *Engine) DiscountPercent(tier model.Tier) int {
	if pct, ok := e.discounts[tier]; ok {
		return pct
	}
	return e.discounts[model.TierBasic]
}

// FreePeriodActive reports whether the global free window covers now.
func (e *Engine) FreePeriodActive(now time.Time) bool {
	return e.freePeriod.Contains(now)
}

// roundHalfUpPercent computes amount*pct/100 rounded half up, in integer
// arithmetic so 4.5 becomes 5 rather than the banker's 4.
func roundHalfUpPercent(amount, pct int) int {
	return (amount*pct + 50) / 100
}
