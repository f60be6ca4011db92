package dashboard

import (
	"fmt"
	"time"

	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type SalesChartPoint struct {
	Label    string          `json:"label"` // fecha / inicio de semana / inicio de mes
	Cash     decimal.Decimal `json:"cash"`
	Card     decimal.Decimal `json:"card"`
	Transfer decimal.Decimal `json:"transfer"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

type SalesChartResponse struct {
	Period      string            `json:"period"` // daily | weekly | monthly
	From        string            `json:"from"`
	To          string            `json:"to"`
	Points      []SalesChartPoint `json:"points"`
	GrandTotals SalesChartPoint   `json:"grand_totals"`
}

// bucketStart returns the start of the daily, weekly (Monday) or monthly
// bucket that holds t.
func bucketStart(period string, t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	switch period {
	case "weekly":
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return day
	}
}

func nextBucket(period string, t time.Time) time.Time {
	switch period {
	case "weekly":
		return t.AddDate(0, 0, 7)
	case "monthly":
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// buildChart spreads completed sales over count buckets ending at the bucket
// that holds now. Empty buckets are kept so the chart has no gaps.
func buildChart(period string, count int, now time.Time, sales []models.Sale) SalesChartResponse {
	last := bucketStart(period, now)
	start := last
	for i := 1; i < count; i++ {
		switch period {
		case "weekly":
			start = start.AddDate(0, 0, -7)
		case "monthly":
			start = start.AddDate(0, -1, 0)
		default:
			start = start.AddDate(0, 0, -1)
		}
	}
	end := nextBucket(period, last)

	points := make([]SalesChartPoint, 0, count)
	index := make(map[time.Time]int, count)
	for b := start; b.Before(end); b = nextBucket(period, b) {
		index[b] = len(points)
		points = append(points, SalesChartPoint{Label: b.Format("2006-01-02")})
	}

	grand := SalesChartPoint{Label: "total"}
	for _, s := range sales {
		if s.State != models.SaleCompleted {
			continue
		}
		i, ok := index[bucketStart(period, s.Date.In(now.Location()))]
		if !ok {
			continue
		}
		p := &points[i]
		p.Cash = p.Cash.Add(s.PaidCash)
		p.Card = p.Card.Add(s.PaidCard)
		p.Transfer = p.Transfer.Add(s.PaidTransfer)
		p.Total = p.Total.Add(s.Total)
		p.Count++

		grand.Cash = grand.Cash.Add(s.PaidCash)
		grand.Card = grand.Card.Add(s.PaidCard)
		grand.Transfer = grand.Transfer.Add(s.PaidTransfer)
		grand.Total = grand.Total.Add(s.Total)
		grand.Count++
	}

	return SalesChartResponse{
		Period:      period,
		From:        start.Format("2006-01-02"),
		To:          end.AddDate(0, 0, -1).Format("2006-01-02"),
		Points:      points,
		GrandTotals: grand,
	}
}

// GET /api/dashboard/sales-chart?period=daily&count=7
func SalesChartHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		period := c.Query("period", "daily") // daily | weekly | monthly
		countStr := c.Query("count", "")

		var count int
		if countStr == "" {
			switch period {
			case "weekly":
				count = 8
			case "monthly":
				count = 12
			default:
				period = "daily"
				count = 7
			}
		} else {
			if _, err := fmt.Sscan(countStr, &count); err != nil || count <= 0 || count > 366 {
				return fiber.NewError(fiber.StatusBadRequest, "count inválido")
			}
		}
		if period != "weekly" && period != "monthly" {
			period = "daily"
		}

		now := time.Now()
		chart := buildChart(period, count, now, nil)
		from, _ := time.ParseInLocation("2006-01-02", chart.From, now.Location())

		var sales []models.Sale
		if err := database.DB.
			Where("state = ? AND date >= ?", models.SaleCompleted, from.UTC()).
			Order("date asc").
			Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Error al agrupar las ventas")
		}

		return c.JSON(buildChart(period, count, now, sales))
	}
}
