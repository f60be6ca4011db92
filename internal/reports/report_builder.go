package reports

import (
	"fmt"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/export"
)

func money(v float64) string {
	return export.Format(export.Money, v)
}

func periodLabel(crit analytics.Criteria) string {
	return fmt.Sprintf("Del %s al %s · %s · %s",
		crit.From.Format("02/01/2006"), crit.To.Format("02/01/2006"),
		crit.Dimension.Label(), crit.Metric.Label())
}

// buildReport lays out an analysis result as an exportable table.
func buildReport(a Analysis, res analytics.Result) export.Report {
	crit := res.Criteria
	r := export.Report{
		Title:    fmt.Sprintf("%s por %s", a.Title, crit.Dimension.Label()),
		Period:   periodLabel(crit),
		Insights: res.Insights,
	}
	key := export.Column{Header: crit.Dimension.Label(), Kind: export.Text}

	switch a.Name {
	case ABC.Name:
		r.Columns = []export.Column{
			key,
			{Header: "#", Kind: export.Number},
			{Header: "Ventas", Kind: export.Money},
			{Header: "Utilidad bruta", Kind: export.Money},
			{Header: "Cantidad", Kind: export.Number},
			{Header: "Rotación", Kind: export.Number},
			{Header: "Participación", Kind: export.Percent},
			{Header: "Acumulado", Kind: export.Percent},
			{Header: "Clase", Kind: export.Text},
			{Header: "Puntaje", Kind: export.Number},
		}
		if crit.Metric == analytics.MetricComposite {
			r.Columns = append(r.Columns, export.Column{Header: "Índice mixto", Kind: export.Number})
		}
		for _, it := range res.Items {
			row := []any{it.Key, it.Rank, it.Revenue, it.GrossProfit, it.Quantity, it.Rotation,
				it.SharePct, it.CumulativePct, string(it.Class), it.Score}
			if crit.Metric == analytics.MetricComposite {
				row = append(row, it.Composite)
			}
			r.Rows = append(r.Rows, row)
		}

	case Profitability.Name:
		r.Columns = []export.Column{
			key,
			{Header: "Ventas", Kind: export.Money},
			{Header: "Costo", Kind: export.Money},
			{Header: "Utilidad bruta", Kind: export.Money},
			{Header: "Costo operativo", Kind: export.Money},
			{Header: "Utilidad neta", Kind: export.Money},
			{Header: "Margen bruto", Kind: export.Percent},
			{Header: "Margen neto", Kind: export.Percent},
			{Header: "ROI", Kind: export.Percent},
			{Header: "Costo-beneficio", Kind: export.Number},
			{Header: "Rentabilidad", Kind: export.Text},
		}
		for _, it := range res.Items {
			r.Rows = append(r.Rows, []any{it.Key, it.Revenue, it.Cost, it.GrossProfit, it.OperatingCost,
				it.NetProfit, it.GrossMarginPct, it.NetMarginPct, it.ROI, it.CostBenefit, string(it.Tier)})
		}

	case BreakEven.Name:
		r.Columns = []export.Column{
			key,
			{Header: "Ventas", Kind: export.Money},
			{Header: "Cantidad", Kind: export.Number},
			{Header: "Precio prom.", Kind: export.Money},
			{Header: "Costo prom.", Kind: export.Money},
			{Header: "Contribución", Kind: export.Money},
			{Header: "Costo fijo", Kind: export.Money},
			{Header: "Equilibrio (uds)", Kind: export.Number},
			{Header: "Equilibrio ($)", Kind: export.Money},
			{Header: "Proyectado", Kind: export.Number},
			{Header: "Estado", Kind: export.Text},
		}
		for _, it := range res.Items {
			r.Rows = append(r.Rows, []any{it.Key, it.Revenue, it.Quantity, it.AvgPrice, it.AvgCost,
				it.UnitContribution, it.FixedCost, it.BreakEvenUnits, it.BreakEvenRevenue, it.ProjectedUnits,
				string(it.Equilibrium)})
		}
	}

	t := res.Totals
	r.Summary = []export.Pair{
		{Label: "Elementos analizados", Value: fmt.Sprintf("%d", res.Candidates)},
		{Label: "Ventas", Value: money(t.Revenue)},
		{Label: "Utilidad bruta", Value: money(t.GrossProfit)},
		{Label: "Utilidad neta", Value: money(t.NetProfit)},
		{Label: "Margen neto", Value: export.Format(export.Percent, t.NetMarginPct)},
	}
	if b := res.Business; b != nil && b.ContributionRatio > 0 {
		r.Summary = append(r.Summary,
			export.Pair{Label: "Equilibrio del negocio", Value: money(b.BreakEvenRevenue)},
			export.Pair{Label: "Margen de seguridad", Value: export.Format(export.Percent, b.SafetyMarginPct)},
		)
	}
	return r
}
