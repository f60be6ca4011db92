package analytics

import (
	"math"
	"sort"
)

const (
	classALimit = 80.0
	classBLimit = 95.0
	epsilon     = 1e-9
)

// ClassifyABC sorts by m descending (stable) and labels each item by the
// cumulative share of the value it closes: up to 80% is A, up to 95% is B,
// the rest is C. Negative values count as zero.
//
// One exception to the cumulative rule: the top item is A whenever its value
// is positive, even when it alone closes more than 80%. A positive set
// always has an A item and classes never improve down the ranking.
func ClassifyABC(items []Item, m Metric) []Item {
	out := clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		return m.Value(out[i]) > m.Value(out[j])
	})

	total := 0.0
	for _, it := range out {
		total += math.Max(m.Value(it), 0)
	}

	n := len(out)
	cum := 0.0
	for i := range out {
		v := math.Max(m.Value(out[i]), 0)
		cum += v
		out[i].Rank = i + 1
		out[i].Score = RankScore(i+1, n)

		if total <= 0 {
			out[i].SharePct = 0
			out[i].CumulativePct = 0
			out[i].Class = ClassC
			continue
		}
		out[i].SharePct = v * 100 / total
		out[i].CumulativePct = cum * 100 / total

		switch {
		case i == 0 && v > 0: // excepción: el primero siempre es A
			out[i].Class = ClassA
		case out[i].CumulativePct <= classALimit+epsilon:
			out[i].Class = ClassA
		case out[i].CumulativePct <= classBLimit+epsilon:
			out[i].Class = ClassB
		default:
			out[i].Class = ClassC
		}
	}
	return out
}

// RankScore maps a 1-based rank onto 0..100 linearly by position.
func RankScore(rank, n int) float64 {
	if n <= 0 || rank < 1 {
		return 0
	}
	return math.Max(0, 100-float64(rank-1)*100/float64(n))
}

// ClassifyEquilibrium computes the break-even volume of each item and
// compares it with the quantity sold projected onto the reporting period.
// Fixed costs are estimated as fixedRate of revenue.
func ClassifyEquilibrium(items []Item, fixedRate, nearRatio, factor float64) []Item {
	out := clone(items)
	for i := range out {
		it := &out[i]
		it.FixedCost = it.Revenue * fixedRate
		it.ProjectedUnits = it.Quantity * factor
		it.BreakEvenUnits = 0
		it.BreakEvenRevenue = 0

		if it.UnitContribution <= 0 {
			if it.Quantity == 0 {
				it.Equilibrium = Deficit
			} else {
				it.Equilibrium = NegativeMargin
			}
			continue
		}

		it.BreakEvenUnits = it.FixedCost / it.UnitContribution
		it.BreakEvenRevenue = it.BreakEvenUnits * it.AvgPrice
		switch {
		case it.ProjectedUnits >= it.BreakEvenUnits:
			it.Equilibrium = Profitable
		case it.ProjectedUnits >= it.BreakEvenUnits*nearRatio:
			it.Equilibrium = NearBreakEven
		default:
			it.Equilibrium = Deficit
		}
	}
	return out
}

// ClassifyTier labels items by net margin: Alta >= 20, Media >= 10,
// Baja >= 0, Pérdida otherwise.
func ClassifyTier(items []Item) []Item {
	out := clone(items)
	for i := range out {
		switch m := out[i].NetMarginPct; {
		case out[i].Revenue == 0 && out[i].Cost == 0:
			out[i].Tier = TierLow
		case m >= 20:
			out[i].Tier = TierHigh
		case m >= 10:
			out[i].Tier = TierMedium
		case m >= 0:
			out[i].Tier = TierLow
		default:
			out[i].Tier = TierLoss
		}
	}
	return out
}

// BusinessBreakEven is the break-even point of the whole business.
type BusinessBreakEven struct {
	Revenue           float64 `json:"revenue"`
	VariableCost      float64 `json:"variable_cost"`
	FixedCost         float64 `json:"fixed_cost"`
	ContributionRatio float64 `json:"contribution_ratio"`
	BreakEvenRevenue  float64 `json:"break_even_revenue"`
	SafetyMarginPct   float64 `json:"safety_margin_pct"`
	Reached           bool    `json:"reached"`
}

func ComputeBusinessBreakEven(items []Item, fixedRate float64) BusinessBreakEven {
	var b BusinessBreakEven
	for _, it := range items {
		b.Revenue += it.Revenue
		b.VariableCost += it.Cost
	}
	b.FixedCost = b.Revenue * fixedRate
	b.ContributionRatio = ratio(b.Revenue-b.VariableCost, b.Revenue)
	if b.ContributionRatio <= 0 {
		return b
	}
	b.BreakEvenRevenue = b.FixedCost / b.ContributionRatio
	b.SafetyMarginPct = pct(b.Revenue-b.BreakEvenRevenue, b.Revenue)
	b.Reached = b.Revenue >= b.BreakEvenRevenue
	return b
}
