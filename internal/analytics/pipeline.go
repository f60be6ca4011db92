package analytics

// Result is the immutable output of one analysis run.
type Result struct {
	Criteria   Criteria           `json:"-"`
	Items      []Item             `json:"items"`
	Candidates int                `json:"candidates"`
	Totals     Totals             `json:"totals"`
	Business   *BusinessBreakEven `json:"business,omitempty"`
	Insights   []string           `json:"insights"`
}

// RunABC: calculate, score the composite over every candidate, classify,
// then truncate to TopN.
func RunABC(snap Snapshot, crit Criteria, rates Rates) Result {
	items := Calculate(snap, crit, rates.OperatingCost)
	items = ApplyComposite(items)
	classified := ClassifyABC(items, crit.Metric)

	return Result{
		Criteria:   crit,
		Items:      Top(clone(classified), crit.TopN),
		Candidates: len(classified),
		Totals:     Summarize(classified),
		Insights:   ABCInsights(classified, crit.Metric, rates.ParetoThreshold),
	}
}

func RunProfitability(snap Snapshot, crit Criteria, rates Rates) Result {
	items := ClassifyTier(Calculate(snap, crit, rates.OperatingCost))
	ranked := Rank(items, crit.Metric, 0)

	return Result{
		Criteria:   crit,
		Items:      Top(clone(ranked), crit.TopN),
		Candidates: len(ranked),
		Totals:     Summarize(ranked),
		Insights:   ProfitabilityInsights(ranked, crit.Metric),
	}
}

func RunBreakEven(snap Snapshot, crit Criteria, rates Rates) Result {
	factor := PeriodFactor(crit.Period, crit.From, crit.To)
	items := Calculate(snap, crit, rates.OperatingCost)
	items = ClassifyEquilibrium(items, rates.FixedCost, rates.NearBreakEven, factor)
	ranked := Rank(items, crit.Metric, 0)
	business := ComputeBusinessBreakEven(ranked, rates.BusinessFixedCost)

	return Result{
		Criteria:   crit,
		Items:      Top(clone(ranked), crit.TopN),
		Candidates: len(ranked),
		Totals:     Summarize(ranked),
		Business:   &business,
		Insights:   BreakEvenInsights(ranked, business),
	}
}
