package analytics

import (
	"fmt"
	"strings"
)

// Metric selects the value an analysis ranks by. Each module accepts its
// own subset, see ABCMetrics, ProfitabilityMetrics and BreakEvenMetrics.
type Metric int

const (
	MetricRevenue Metric = iota
	MetricProfit
	MetricRotation
	MetricComposite
	MetricGrossMargin
	MetricNetMargin
	MetricROI
	MetricTotalProfit
	MetricCostBenefit
)

var (
	ABCMetrics           = []Metric{MetricRevenue, MetricProfit, MetricRotation, MetricComposite}
	ProfitabilityMetrics = []Metric{MetricGrossMargin, MetricNetMargin, MetricROI, MetricTotalProfit, MetricCostBenefit}
	BreakEvenMetrics     = []Metric{MetricRevenue, MetricProfit, MetricGrossMargin}
)

var metricNames = map[string]Metric{
	"revenue":         MetricRevenue,
	"ventas":          MetricRevenue,
	"ingresos":        MetricRevenue,
	"profit":          MetricProfit,
	"utilidad":        MetricProfit,
	"ganancia":        MetricProfit,
	"rotation":        MetricRotation,
	"rotacion":        MetricRotation,
	"rotación":        MetricRotation,
	"composite":       MetricComposite,
	"mixto":           MetricComposite,
	"gross_margin":    MetricGrossMargin,
	"margin_gross":    MetricGrossMargin,
	"margen_bruto":    MetricGrossMargin,
	"net_margin":      MetricNetMargin,
	"margin_net":      MetricNetMargin,
	"margen_neto":     MetricNetMargin,
	"roi":             MetricROI,
	"total_profit":    MetricTotalProfit,
	"utilidad_total":  MetricTotalProfit,
	"cost_benefit":    MetricCostBenefit,
	"costo_beneficio": MetricCostBenefit,
}

// ParseMetric resolves a metric name against the allowed set. An empty name
// yields def.
func ParseMetric(s string, allowed []Metric, def Metric) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	m, ok := metricNames[s]
	if !ok {
		return def, fmt.Errorf("métrica desconocida: %q", s)
	}
	for _, a := range allowed {
		if a == m {
			return m, nil
		}
	}
	return def, fmt.Errorf("métrica %q no disponible para este análisis", s)
}

func (m Metric) Value(it Item) float64 {
	switch m {
	case MetricProfit:
		return it.GrossProfit
	case MetricRotation:
		return it.Rotation
	case MetricComposite:
		return it.Composite
	case MetricGrossMargin:
		return it.GrossMarginPct
	case MetricNetMargin:
		return it.NetMarginPct
	case MetricROI:
		return it.ROI
	case MetricTotalProfit:
		return it.NetProfit
	case MetricCostBenefit:
		return it.CostBenefit
	default:
		return it.Revenue
	}
}

// String is the wire name; ParseMetric accepts it back.
func (m Metric) String() string {
	switch m {
	case MetricProfit:
		return "profit"
	case MetricRotation:
		return "rotation"
	case MetricComposite:
		return "composite"
	case MetricGrossMargin:
		return "gross_margin"
	case MetricNetMargin:
		return "net_margin"
	case MetricROI:
		return "roi"
	case MetricTotalProfit:
		return "total_profit"
	case MetricCostBenefit:
		return "cost_benefit"
	default:
		return "revenue"
	}
}

func (m Metric) Label() string {
	switch m {
	case MetricProfit:
		return "utilidad bruta"
	case MetricRotation:
		return "rotación"
	case MetricComposite:
		return "índice mixto"
	case MetricGrossMargin:
		return "margen bruto"
	case MetricNetMargin:
		return "margen neto"
	case MetricROI:
		return "ROI"
	case MetricTotalProfit:
		return "utilidad neta"
	case MetricCostBenefit:
		return "relación costo-beneficio"
	default:
		return "ventas"
	}
}

// Format renders a metric value for insight text.
func (m Metric) Format(v float64) string {
	switch m {
	case MetricRevenue, MetricProfit, MetricTotalProfit:
		return money(v)
	case MetricGrossMargin, MetricNetMargin, MetricROI:
		return fmt.Sprintf("%.1f%%", v)
	case MetricComposite:
		return fmt.Sprintf("%.1f pts", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}

func money(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("$%.2f", v)
}
