package analytics

import "sort"

// Composite weights for the "mixto" ABC metric.
const (
	weightProfit   = 50.0
	weightRevenue  = 30.0
	weightRotation = 20.0
)

// Rank sorts a copy of items by m descending, keeping the input order on
// ties, and keeps the first topN. topN <= 0 keeps everything.
func Rank(items []Item, m Metric, topN int) []Item {
	out := clone(items)
	sort.SliceStable(out, func(i, j int) bool {
		return m.Value(out[i]) > m.Value(out[j])
	})
	return Top(out, topN)
}

func Top(items []Item, topN int) []Item {
	if topN > 0 && len(items) > topN {
		return items[:topN]
	}
	return items
}

// ApplyComposite scores each item 0..100 as 50% profit + 30% revenue + 20%
// rotation, each normalised against the maximum of the whole candidate set.
// Run it before truncating so the scale does not depend on topN.
func ApplyComposite(items []Item) []Item {
	out := clone(items)
	var maxProfit, maxRevenue, maxRotation float64
	for _, it := range out {
		if it.GrossProfit > maxProfit {
			maxProfit = it.GrossProfit
		}
		if it.Revenue > maxRevenue {
			maxRevenue = it.Revenue
		}
		if it.Rotation > maxRotation {
			maxRotation = it.Rotation
		}
	}
	for i := range out {
		out[i].Composite = weightProfit*normalize(out[i].GrossProfit, maxProfit) +
			weightRevenue*normalize(out[i].Revenue, maxRevenue) +
			weightRotation*normalize(out[i].Rotation, maxRotation)
	}
	return out
}

func normalize(v, peak float64) float64 {
	if peak <= 0 || v <= 0 {
		return 0
	}
	return v / peak
}
