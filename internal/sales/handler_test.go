package sales

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func setup(t *testing.T) (*fiber.App, models.Product) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	database.DB = db

	user := models.User{Name: "Caja 1", Email: "caja1@test", PasswordHash: "x", Role: models.RoleCashier}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	p := models.Product{
		Name: "Queso", Stock: decimal.NewFromInt(5), Price: decimal.NewFromInt(116),
		Cost: decimal.NewFromInt(70), TaxPct: decimal.NewFromInt(16), Active: true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
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
	app.Post("/sales", CreateSaleHandler())
	app.Get("/sales/:id", GetSaleHandler())
	app.Post("/sales/:id/cancel", CancelSaleHandler())
	app.Post("/sales/:id/complete", CompleteSaleHandler())
	return app, p
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	out := map[string]any{}
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

func stockOf(t *testing.T, id uint) string {
	t.Helper()
	var p models.Product
	if err := database.DB.First(&p, id).Error; err != nil {
		t.Fatal(err)
	}
	return p.Stock.String()
}

func TestCreateSale(t *testing.T) {
	app, p := setup(t)

	code, body := do(t, app, "POST", "/sales", `{"items":[{"product_id":1,"quantity":2}]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("status %d: %v", code, body)
	}
	if body["total"] != "232" || body["tax"] != "32" || body["subtotal"] != "200" {
		t.Errorf("totals = %v / %v / %v", body["total"], body["tax"], body["subtotal"])
	}
	if body["paid_cash"] != "232" {
		t.Errorf("paid_cash = %v, want the total", body["paid_cash"])
	}
	items := body["items"].([]any)
	line := items[0].(map[string]any)
	if line["gross_profit"] != "92" || line["unit_cost"] != "70" {
		t.Errorf("line = %v", line)
	}
	if got := stockOf(t, p.ID); got != "3" {
		t.Errorf("stock = %s, want 3", got)
	}
}

func TestCreateSaleRejects(t *testing.T) {
	app, p := setup(t)

	cases := []struct {
		name string
		body string
	}{
		{"no items", `{"items":[]}`},
		{"stock", `{"items":[{"product_id":1,"quantity":6}]}`},
		{"zero qty", `{"items":[{"product_id":1,"quantity":0}]}`},
		{"fraction", `{"items":[{"product_id":1,"quantity":1.5}]}`},
		{"unknown product", `{"items":[{"product_id":99,"quantity":1}]}`},
		{"short payment", `{"items":[{"product_id":1,"quantity":1}],"paid_card":50}`},
		{"bad state", `{"items":[{"product_id":1,"quantity":1}],"state":"cancelled"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			code, body := do(t, app, "POST", "/sales", c.body)
			if code != fiber.StatusBadRequest {
				t.Errorf("status %d: %v", code, body)
			}
		})
	}
	if got := stockOf(t, p.ID); got != "5" {
		t.Errorf("stock changed by rejected sales: %s", got)
	}
}

func TestCancelSaleRestoresStock(t *testing.T) {
	app, p := setup(t)

	code, body := do(t, app, "POST", "/sales", `{"items":[{"product_id":1,"quantity":4}]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("status %d: %v", code, body)
	}
	if got := stockOf(t, p.ID); got != "1" {
		t.Fatalf("stock after sale = %s", got)
	}

	code, body = do(t, app, "POST", "/sales/1/cancel", "")
	if code != fiber.StatusOK || body["state"] != string(models.SaleCancelled) {
		t.Fatalf("cancel: %d %v", code, body)
	}
	if got := stockOf(t, p.ID); got != "5" {
		t.Errorf("stock after cancel = %s, want 5", got)
	}

	if code, _ := do(t, app, "POST", "/sales/1/cancel", ""); code != fiber.StatusConflict {
		t.Errorf("second cancel status = %d", code)
	}

	var logs int64
	database.DB.Model(&models.AuditLog{}).Where("entity_type = ? AND action = ?", "sale", models.AuditActionCancel).Count(&logs)
	if logs != 1 {
		t.Errorf("cancel audit entries = %d", logs)
	}
}

func TestCreateSaleStoresDateInUTC(t *testing.T) {
	app, _ := setup(t)

	code, body := do(t, app, "POST", "/sales", `{"date":"2024-05-10T23:30:00-05:00","items":[{"product_id":1,"quantity":1}]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("status %d: %v", code, body)
	}

	// 04:30Z del día 11: debe entrar en un rango UTC de ese día
	from := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	var n int64
	database.DB.Model(&models.Sale{}).
		Where("date >= ? AND date <= ?", from, from.Add(24*time.Hour-time.Second)).
		Count(&n)
	if n != 1 {
		t.Errorf("sales on 2024-05-11 UTC = %d, want 1", n)
	}

	var sale models.Sale
	if err := database.DB.First(&sale).Error; err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, 5, 11, 4, 30, 0, 0, time.UTC); !sale.Date.Equal(want) {
		t.Errorf("date = %v, want %v", sale.Date, want)
	}
}

func TestPendingSale(t *testing.T) {
	app, p := setup(t)

	code, body := do(t, app, "POST", "/sales", `{"state":"pending","items":[{"product_id":1,"quantity":2}]}`)
	if code != fiber.StatusCreated {
		t.Fatalf("status %d: %v", code, body)
	}
	if got := stockOf(t, p.ID); got != "5" {
		t.Fatalf("pending sale moved stock: %s", got)
	}

	code, body = do(t, app, "POST", "/sales/1/complete", "")
	if code != fiber.StatusOK || body["state"] != string(models.SaleCompleted) {
		t.Fatalf("complete: %d %v", code, body)
	}
	if got := stockOf(t, p.ID); got != "3" {
		t.Errorf("stock after completing = %s", got)
	}
	if code, _ := do(t, app, "POST", "/sales/1/complete", ""); code != fiber.StatusConflict {
		t.Errorf("second complete status = %d", code)
	}
}

func TestLineTax(t *testing.T) {
	cases := []struct {
		amount, pct, want string
	}{
		{"116", "16", "16"},
		{"100", "0", "0"},
		{"10", "21", "1.74"},
	}
	for _, c := range cases {
		got := lineTax(decimal.RequireFromString(c.amount), decimal.RequireFromString(c.pct))
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("lineTax(%s, %s) = %s, want %s", c.amount, c.pct, got, c.want)
		}
	}
}
