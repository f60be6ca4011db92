package dashboard

import (
	"testing"
	"time"

	"pos-analytics/internal/models"

	"github.com/shopspring/decimal"
)

func sale(at time.Time, state models.SaleState, cash, card int64) models.Sale {
	return models.Sale{
		Date: at, State: state,
		PaidCash: decimal.NewFromInt(cash), PaidCard: decimal.NewFromInt(card),
		Total: decimal.NewFromInt(cash + card),
	}
}

func TestBuildChartDaily(t *testing.T) {
	// miércoles
	now := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)
	sales := []models.Sale{
		sale(now.Add(-2*time.Hour), models.SaleCompleted, 100, 50),
		sale(now.AddDate(0, 0, -2), models.SaleCompleted, 30, 0),
		sale(now.AddDate(0, 0, -2), models.SaleCancelled, 999, 0),
		sale(now.AddDate(0, 0, -10), models.SaleCompleted, 500, 0),
	}

	chart := buildChart("daily", 7, now, sales)
	if len(chart.Points) != 7 || chart.From != "2024-05-09" || chart.To != "2024-05-15" {
		t.Fatalf("points = %d, from = %s, to = %s", len(chart.Points), chart.From, chart.To)
	}
	last := chart.Points[6]
	if last.Label != "2024-05-15" || last.Cash.String() != "100" || last.Card.String() != "50" || last.Count != 1 {
		t.Errorf("today = %+v", last)
	}
	if chart.Points[4].Total.String() != "30" {
		t.Errorf("2 days ago = %+v", chart.Points[4])
	}
	if chart.GrandTotals.Total.String() != "180" || chart.GrandTotals.Count != 2 {
		t.Errorf("grand totals = %+v", chart.GrandTotals)
	}
}

func TestBuildChartWeeklyStartsOnMonday(t *testing.T) {
	now := time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC)
	chart := buildChart("weekly", 2, now, []models.Sale{
		sale(time.Date(2024, 5, 13, 9, 0, 0, 0, time.UTC), models.SaleCompleted, 10, 0),
		sale(time.Date(2024, 5, 12, 9, 0, 0, 0, time.UTC), models.SaleCompleted, 20, 0),
	})
	if len(chart.Points) != 2 || chart.Points[0].Label != "2024-05-06" || chart.Points[1].Label != "2024-05-13" {
		t.Fatalf("points = %+v", chart.Points)
	}
	if chart.Points[0].Total.String() != "20" || chart.Points[1].Total.String() != "10" {
		t.Errorf("weekly totals = %s / %s", chart.Points[0].Total, chart.Points[1].Total)
	}
}

func TestBuildChartMonthly(t *testing.T) {
	now := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)
	chart := buildChart("monthly", 3, now, nil)
	if chart.From != "2024-01-01" || chart.To != "2024-03-31" || len(chart.Points) != 3 {
		t.Errorf("monthly = %+v", chart)
	}
}
