package reports

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/config"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var may10 = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// seed: Arroz 10x80 (costo 40), Leche 5x30 (costo 20), Pan 2x25 (costo 20),
// más una venta cancelada y una fuera de rango.
func seed(t *testing.T) (*fiber.App, *config.Config) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	database.DB = db
	timeNow = func() time.Time { return may10 }
	t.Cleanup(func() { timeNow = time.Now })

	cat := models.Category{Name: "Abarrotes"}
	user := models.User{Name: "Caja 1", Email: "caja@test", PasswordHash: "x", Role: models.RoleAdmin}
	for _, v := range []any{&cat, &user} {
		if err := db.Create(v).Error; err != nil {
			t.Fatal(err)
		}
	}

	type line struct {
		name             string
		qty, price, cost float64
		stock            float64
	}
	lines := []line{
		{"Arroz", 10, 80, 40, 20},
		{"Leche", 5, 30, 20, 3},
		{"Pan", 2, 25, 20, 0},
	}
	for i, l := range lines {
		p := models.Product{
			Name: l.name, CategoryID: &cat.ID, Stock: d(l.stock),
			Price: d(l.price), Cost: d(l.cost), Active: true,
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatal(err)
		}
		sub := l.qty * l.price
		s := models.Sale{
			Code: p.Name, Date: may10.Add(time.Duration(i) * time.Hour), UserID: user.ID,
			State: models.SaleCompleted, Total: d(sub), Subtotal: d(sub), PaidCash: d(sub),
			Items: []models.SaleItem{{
				ProductID: p.ID, ProductName: p.Name, Quantity: d(l.qty), UnitPrice: d(l.price),
				UnitCost: d(l.cost), Subtotal: d(sub), GrossProfit: d((l.price - l.cost) * l.qty),
			}},
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}
	for _, s := range []models.Sale{
		{Code: "cancelada", Date: may10, UserID: user.ID, State: models.SaleCancelled, Total: d(999)},
		{Code: "abril", Date: may10.AddDate(0, -1, 0), UserID: user.ID, State: models.SaleCompleted, Total: d(500)},
	} {
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}

	cfg := &config.Config{
		ExportDir:    t.TempDir(),
		QueryTimeout: 5 * time.Second,
		Analysis:     config.DefaultAnalysis(),
	}
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, user.ID)
		c.Locals(auth.CtxUserNameKey, user.Name)
		c.Locals(auth.CtxUserRoleKey, user.Role)
		return c.Next()
	})
	app.Get("/analysis/:kind", AnalysisHandler(cfg))
	app.Get("/analysis/:kind/export", AnalysisExportHandler(cfg))
	app.Get("/reports/sales", SalesReportHandler(cfg))
	app.Get("/reports/stock", StockReportHandler(cfg))
	return app, cfg
}

func get(t *testing.T, app *fiber.App, path string, out any) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode == fiber.StatusOK {
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("decode %s: %v (%s)", path, err, raw)
		}
	}
	return resp.StatusCode
}

func TestAnalysisABC(t *testing.T) {
	app, _ := seed(t)

	var res AnalysisResponse
	code := get(t, app, "/analysis/abc?from=2024-05-01&to=2024-05-31&top=0", &res)
	if code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Candidates != 3 || len(res.Items) != 3 {
		t.Fatalf("candidates = %d, items = %d", res.Candidates, len(res.Items))
	}
	want := []struct {
		key   string
		class analytics.Class
	}{{"Arroz", analytics.ClassA}, {"Leche", analytics.ClassB}, {"Pan", analytics.ClassC}}
	for i, w := range want {
		if res.Items[i].Key != w.key || res.Items[i].Class != w.class {
			t.Errorf("item %d = %s/%s, want %s/%s", i, res.Items[i].Key, res.Items[i].Class, w.key, w.class)
		}
	}
	if res.Totals.Revenue != 1000 {
		t.Errorf("revenue = %v, want 1000 (cancelled and April sales excluded)", res.Totals.Revenue)
	}
	if res.Dimension != "product" || res.Metric != "revenue" || res.From != "2024-05-01" || res.To != "2024-05-31" {
		t.Errorf("criteria echo = %+v", res)
	}
	if len(res.Insights) == 0 {
		t.Error("no insights")
	}

	var top AnalysisResponse
	get(t, app, "/analysis/abc?from=2024-05-01&to=2024-05-31&top=1", &top)
	if len(top.Items) != 1 || top.Candidates != 3 || top.Totals.Revenue != 1000 {
		t.Errorf("top=1: items = %d, candidates = %d, revenue = %v", len(top.Items), top.Candidates, top.Totals.Revenue)
	}
}

func TestAnalysisDefaultsToCurrentMonth(t *testing.T) {
	app, _ := seed(t)
	var res AnalysisResponse
	if code := get(t, app, "/analysis/profitability", &res); code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.From != "2024-05-01" || res.To != "2024-05-10" || res.Metric != "net_margin" {
		t.Errorf("from = %s, to = %s, metric = %s", res.From, res.To, res.Metric)
	}
	for _, it := range res.Items {
		if it.Tier == "" {
			t.Errorf("%s without tier", it.Key)
		}
	}
}

func TestAnalysisBreakEven(t *testing.T) {
	app, _ := seed(t)
	var res AnalysisResponse
	if code := get(t, app, "/analysis/break-even?from=2024-05-01&to=2024-05-31", &res); code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if res.Business == nil || res.Business.Revenue != 1000 {
		t.Fatalf("business = %+v", res.Business)
	}
	for _, it := range res.Items {
		if it.Equilibrium == "" {
			t.Errorf("%s without equilibrium state", it.Key)
		}
	}
}

func TestAnalysisBadRequests(t *testing.T) {
	app, _ := seed(t)
	cases := map[string]int{
		"/analysis/pareto":                              fiber.StatusNotFound,
		"/analysis/abc?metric=roi":                      fiber.StatusBadRequest,
		"/analysis/abc?dimension=color":                 fiber.StatusBadRequest,
		"/analysis/break-even?period=quincenal":         fiber.StatusBadRequest,
		"/analysis/abc?from=2024-05-31&to=2024-05-01":   fiber.StatusBadRequest,
		"/analysis/abc?from=31/05/2024":                 fiber.StatusBadRequest,
		"/analysis/abc/export?format=csv":               fiber.StatusBadRequest,
		"/analysis/abc?top=abc&min_margin=x&dimension=": fiber.StatusOK,
	}
	for path, want := range cases {
		if code := get(t, app, path, nil); code != want {
			t.Errorf("%s: status = %d, want %d", path, code, want)
		}
	}
}

func TestAnalysisExport(t *testing.T) {
	app, cfg := seed(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/analysis/abc/export?format=xlsx&from=2024-05-01&to=2024-05-31", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".xlsx") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	body, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(body, []byte("PK")) {
		t.Errorf("body is not an xlsx file (%d bytes)", len(body))
	}

	// el archivo temporal no se queda en disco
	entries, err := os.ReadDir(cfg.ExportDir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("export dir: %v, %d files left", err, len(entries))
	}

	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition"))
	if err != nil {
		t.Fatal(err)
	}
	var logs []models.AuditLog
	database.DB.Where("entity_type = ? AND action = ?", "report", models.AuditActionExport).Find(&logs)
	if len(logs) != 1 || !strings.Contains(logs[0].Description, params["filename"]) {
		t.Errorf("audit = %+v", logs)
	}
}

func TestSalesReport(t *testing.T) {
	app, _ := seed(t)
	var r SalesReport
	if code := get(t, app, "/reports/sales?from=2024-05-01&to=2024-05-31", &r); code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if r.Count != 3 || r.Total.String() != "1000" || r.GrossProfit.String() != "460" {
		t.Errorf("count = %d, total = %s, profit = %s", r.Count, r.Total, r.GrossProfit)
	}
	if r.ByState[models.SaleCancelled] != 1 || r.ByState[models.SalePending] != 0 {
		t.Errorf("by state = %v", r.ByState)
	}
	if len(r.Days) != 1 || r.Days[0].Date != "2024-05-10" || r.AverageTicket.String() != "333.33" {
		t.Errorf("days = %+v, average = %s", r.Days, r.AverageTicket)
	}
	if len(r.Cashiers) != 1 || r.Cashiers[0].Name != "Caja 1" {
		t.Errorf("cashiers = %+v", r.Cashiers)
	}
}

func TestSummarizeSalesEmpty(t *testing.T) {
	r := summarizeSales(nil)
	if r.Count != 0 || !r.AverageTicket.IsZero() || len(r.Days) != 0 || r.Days == nil {
		t.Errorf("empty = %+v", r)
	}
}

func TestStockReport(t *testing.T) {
	app, _ := seed(t)

	var r StockReport
	if code := get(t, app, "/reports/stock", &r); code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	// umbral por defecto 5: Leche (3) y Pan (0)
	if r.Products != 3 || r.LowStock != 2 {
		t.Errorf("products = %d, low = %d", r.Products, r.LowStock)
	}
	// 20*40 + 3*20 + 0
	if r.ValueAtCost.String() != "860" || r.ValueAtSale.String() != "1690" {
		t.Errorf("value at cost = %s, at price = %s", r.ValueAtCost, r.ValueAtSale)
	}

	var low StockReport
	get(t, app, "/reports/stock?low_stock=0&only_low=true", &low)
	if low.Products != 1 || low.Rows[0].Name != "Pan" {
		t.Errorf("only low = %+v", low.Rows)
	}

	if code := get(t, app, "/reports/stock?low_stock=-1", nil); code != fiber.StatusBadRequest {
		t.Errorf("negative threshold status = %d", code)
	}
}

func TestBuildReportColumns(t *testing.T) {
	snap := analytics.Snapshot{
		Products: []analytics.Product{{ID: 1, Name: "Arroz", Category: "Abarrotes", Active: true}},
		Sales: []analytics.Sale{{ID: 1, Date: may10, Completed: true, Lines: []analytics.Line{
			{ProductID: 1, Name: "Arroz", Quantity: 2, UnitPrice: 10, UnitCost: 6, Subtotal: 20},
		}}},
	}
	crit := analytics.Criteria{From: may10.AddDate(0, 0, -9), To: may10, Metric: analytics.MetricComposite}

	for _, a := range []Analysis{ABC, Profitability, BreakEven} {
		c := crit
		if a.Name != ABC.Name {
			c.Metric = a.DefaultMetric
		}
		r := buildReport(a, a.Run(snap, c, analytics.DefaultRates()))
		if len(r.Columns) > 12 {
			t.Errorf("%s: %d columns", a.Name, len(r.Columns))
		}
		if len(r.Rows) != 1 || len(r.Rows[0]) != len(r.Columns) {
			t.Errorf("%s: ragged rows %v", a.Name, r.Rows)
		}
		if !strings.Contains(r.Title, "Producto") {
			t.Errorf("%s: title %q", a.Name, r.Title)
		}
	}
}
