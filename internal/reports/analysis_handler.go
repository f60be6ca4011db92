package reports

import (
	"context"
	"fmt"
	"log"
	"time"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/config"
	"pos-analytics/internal/database"
	"pos-analytics/internal/snapshot"

	"github.com/gofiber/fiber/v2"
)

type AnalysisResponse struct {
	Analysis       string                       `json:"analysis"`
	From           string                       `json:"from"`
	To             string                       `json:"to"`
	Dimension      string                       `json:"dimension"`
	DimensionLabel string                       `json:"dimension_label"`
	Metric         string                       `json:"metric"`
	MetricLabel    string                       `json:"metric_label"`
	Period         string                       `json:"period"`
	Top            int                          `json:"top"`
	Candidates     int                          `json:"candidates"`
	Items          []analytics.Item             `json:"items"`
	Totals         analytics.Totals             `json:"totals"`
	Business       *analytics.BusinessBreakEven `json:"business,omitempty"`
	Insights       []string                     `json:"insights"`
}

// run loads a fresh snapshot and executes the pipeline of a. Every call
// recomputes from the store.
func run(c *fiber.Ctx, cfg *config.Config, a Analysis) (analytics.Result, error) {
	crit, err := parseCriteria(c, cfg, a, timeNow())
	if err != nil {
		return analytics.Result{}, err
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), cfg.QueryTimeout)
	defer cancel()

	start := time.Now()
	snap, err := snapshot.Load(ctx, database.DB, crit.From, crit.To)
	if err != nil {
		log.Printf("[analysis.%s] error al cargar datos: %v", a.Name, err)
		return analytics.Result{}, fiber.NewError(fiber.StatusInternalServerError, "No se pudieron cargar los datos de ventas")
	}

	res, err := execute(a, snap, crit, ratesFrom(cfg))
	if err != nil {
		log.Printf("[analysis.%s] %v", a.Name, err)
		return analytics.Result{}, fiber.NewError(fiber.StatusInternalServerError, "El análisis no pudo completarse")
	}

	log.Printf("[analysis.%s] %d de %d elementos (%s, %s, %d ventas) en %s",
		a.Name, len(res.Items), res.Candidates, crit.Dimension, crit.Metric, len(snap.Sales), time.Since(start).Round(time.Millisecond))
	return res, nil
}

// execute turns a panic inside a pipeline into an error.
func execute(a Analysis, snap analytics.Snapshot, crit analytics.Criteria, rates analytics.Rates) (res analytics.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pánico en el análisis: %v", r)
		}
	}()
	return a.Run(snap, crit, rates), nil
}

func toAnalysisResponse(a Analysis, res analytics.Result) AnalysisResponse {
	crit := res.Criteria
	items := res.Items
	if items == nil {
		items = []analytics.Item{}
	}
	return AnalysisResponse{
		Analysis:       a.Name,
		From:           crit.From.Format(dateLayout),
		To:             crit.To.Format(dateLayout),
		Dimension:      crit.Dimension.String(),
		DimensionLabel: crit.Dimension.Label(),
		Metric:         crit.Metric.String(),
		MetricLabel:    crit.Metric.Label(),
		Period:         crit.Period.String(),
		Top:            crit.TopN,
		Candidates:     res.Candidates,
		Items:          items,
		Totals:         res.Totals,
		Business:       res.Business,
		Insights:       res.Insights,
	}
}

// GET /api/analysis/:kind?from=2024-03-01&to=2024-03-31&dimension=product&metric=revenue&top=20
func AnalysisHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := lookup(c)
		if err != nil {
			return err
		}
		res, err := run(c, cfg, a)
		if err != nil {
			return err
		}
		return c.JSON(toAnalysisResponse(a, res))
	}
}
