package reports

import (
	"strings"
	"time"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/config"

	"github.com/gofiber/fiber/v2"
)

const dateLayout = "2006-01-02"

var timeNow = time.Now

// Analysis describes one of the analysis screens: which metrics it accepts
// and which pipeline it runs.
type Analysis struct {
	Name          string
	Title         string
	Metrics       []analytics.Metric
	DefaultMetric analytics.Metric
	Run           func(analytics.Snapshot, analytics.Criteria, analytics.Rates) analytics.Result
}

var (
	ABC = Analysis{
		Name:          "abc",
		Title:         "Análisis ABC",
		Metrics:       analytics.ABCMetrics,
		DefaultMetric: analytics.MetricRevenue,
		Run:           analytics.RunABC,
	}
	Profitability = Analysis{
		Name:          "profitability",
		Title:         "Análisis de rentabilidad",
		Metrics:       analytics.ProfitabilityMetrics,
		DefaultMetric: analytics.MetricNetMargin,
		Run:           analytics.RunProfitability,
	}
	BreakEven = Analysis{
		Name:          "break-even",
		Title:         "Punto de equilibrio",
		Metrics:       analytics.BreakEvenMetrics,
		DefaultMetric: analytics.MetricRevenue,
		Run:           analytics.RunBreakEven,
	}
)

var analyses = map[string]Analysis{
	ABC.Name:           ABC,
	Profitability.Name: Profitability,
	BreakEven.Name:     BreakEven,
}

func lookup(c *fiber.Ctx) (Analysis, error) {
	a, ok := analyses[strings.ToLower(c.Params("kind"))]
	if !ok {
		return Analysis{}, fiber.NewError(fiber.StatusNotFound, "Análisis desconocido (abc | profitability | break-even)")
	}
	return a, nil
}

func ratesFrom(cfg *config.Config) analytics.Rates {
	return analytics.Rates{
		OperatingCost:     cfg.Analysis.OperatingCostRate,
		FixedCost:         cfg.Analysis.FixedCostRate,
		BusinessFixedCost: cfg.Analysis.BusinessFixedCostRate,
		NearBreakEven:     cfg.Analysis.NearBreakEvenRatio,
		ParetoThreshold:   cfg.Analysis.ParetoThreshold,
	}
}

// parseRange reads ?from=&to= as local dates. to covers its whole day.
// Missing values default to the current month up to today.
func parseRange(c *fiber.Ctx, now time.Time) (time.Time, time.Time, error) {
	loc := now.Location()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	if s := strings.TrimSpace(c.Query("from")); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "from inválido (YYYY-MM-DD)")
		}
		from = d
	}
	if s := strings.TrimSpace(c.Query("to")); s != "" {
		d, err := time.ParseInLocation(dateLayout, s, loc)
		if err != nil {
			return from, to, fiber.NewError(fiber.StatusBadRequest, "to inválido (YYYY-MM-DD)")
		}
		to = d
	}
	if to.Before(from) {
		return from, to, fiber.NewError(fiber.StatusBadRequest, "La fecha final es anterior a la inicial")
	}
	return from, to.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "si", "sí", "yes":
		return true
	}
	return false
}

// parseCriteria builds the immutable criteria of one run. Dates, dimension,
// metric and period must be valid; free-text numbers fall back to defaults.
func parseCriteria(c *fiber.Ctx, cfg *config.Config, a Analysis, now time.Time) (analytics.Criteria, error) {
	var crit analytics.Criteria

	from, to, err := parseRange(c, now)
	if err != nil {
		return crit, err
	}
	dim, err := analytics.ParseDimension(c.Query("dimension"))
	if err != nil {
		return crit, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	metric, err := analytics.ParseMetric(c.Query("metric"), a.Metrics, a.DefaultMetric)
	if err != nil {
		return crit, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		return crit, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	top, _ := analytics.ParseIntOrDefault(c.Query("top"), cfg.Analysis.DefaultTopN)
	if top < 0 {
		top = cfg.Analysis.DefaultTopN
	}
	minMargin, hasMargin := analytics.ParseFloatOrDefault(c.Query("min_margin"), 0)
	minRevenue, hasRevenue := analytics.ParseFloatOrDefault(c.Query("min_revenue"), 0)

	crit = analytics.Criteria{
		From:          from,
		To:            to,
		Dimension:     dim,
		Metric:        metric,
		TopN:          top,
		Period:        period,
		IncludeIdle:   parseBool(c.Query("include_idle")),
		Categories:    analytics.SplitList(c.Query("categories")),
		Suppliers:     analytics.SplitList(c.Query("suppliers")),
		MinMarginPct:  minMargin,
		HasMinMargin:  hasMargin,
		MinRevenue:    minRevenue,
		HasMinRevenue: hasRevenue,
	}
	return crit, nil
}
