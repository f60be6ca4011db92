package inventory

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

func setup(t *testing.T) (*fiber.App, models.User) {
	t.Helper()
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	database.DB = db

	user := models.User{Name: "Admin", Email: "admin@test", PasswordHash: "x", Role: models.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
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
	app.Get("/products", ListProductsHandler())
	app.Post("/products", CreateProductHandler())
	app.Put("/products/:id", UpdateProductHandler())
	app.Delete("/products/:id", DeleteProductHandler())
	app.Post("/categories", CreateCategoryHandler())
	app.Post("/stock-counts", CreateStockCountHandler())
	app.Get("/stock-counts", ListStockCountsHandler())
	return app, user
}

func send(t *testing.T, app *fiber.App, method, path, body string, out any) int {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	if out != nil {
		_ = json.Unmarshal(raw, out)
	}
	return resp.StatusCode
}

func lastLog(t *testing.T, entity string) models.AuditLog {
	t.Helper()
	var l models.AuditLog
	if err := database.DB.Where("entity_type = ?", entity).Order("id desc").First(&l).Error; err != nil {
		t.Fatalf("no audit entry for %s: %v", entity, err)
	}
	return l
}

func TestCreateProduct(t *testing.T) {
	app, _ := setup(t)

	var cat map[string]any
	if code := send(t, app, "POST", "/categories", `{"name":"Lácteos"}`, &cat); code != fiber.StatusCreated {
		t.Fatalf("category status = %d", code)
	}

	var p ProductResponse
	code := send(t, app, "POST", "/products",
		`{"name":"Queso","category_id":1,"stock":"4","price":"116","cost":"70","tax_pct":"16"}`, &p)
	if code != fiber.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if p.PriceNoTax.String() != "100" || p.Category != "Lácteos" || !p.Active {
		t.Errorf("product = %+v", p)
	}

	cases := map[string]string{
		"duplicate":        `{"name":"queso"}`,
		"empty name":       `{"name":"  "}`,
		"negative price":   `{"name":"Pan","price":"-1"}`,
		"unknown category": `{"name":"Pan","category_id":99}`,
	}
	for name, body := range cases {
		if code := send(t, app, "POST", "/products", body, nil); code != fiber.StatusBadRequest {
			t.Errorf("%s: status = %d", name, code)
		}
	}
}

func TestUpdateProductUndo(t *testing.T) {
	app, user := setup(t)
	send(t, app, "POST", "/products", `{"name":"Leche","price":"30","cost":"20"}`, nil)

	var p ProductResponse
	if code := send(t, app, "PUT", "/products/1", `{"price":"35"}`, &p); code != fiber.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if p.Price.String() != "35" {
		t.Errorf("price = %s", p.Price)
	}

	entry := lastLog(t, audit.EntityProduct)
	if entry.Action != models.AuditActionUpdate {
		t.Fatalf("last action = %s", entry.Action)
	}
	if err := audit.UndoLog(entry.ID, user.ID, user.Name); err != nil {
		t.Fatalf("undo: %v", err)
	}
	var got models.Product
	database.DB.First(&got, 1)
	if got.Price.String() != "30" {
		t.Errorf("price after undo = %s", got.Price)
	}
	if err := audit.UndoLog(entry.ID, user.ID, user.Name); err != audit.ErrAlreadyUndone {
		t.Errorf("second undo err = %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	app, user := setup(t)
	send(t, app, "POST", "/products", `{"name":"Pan","price":"5"}`, nil)
	send(t, app, "POST", "/products", `{"name":"Arroz","price":"25"}`, nil)

	sale := models.Sale{
		Code: "t1", UserID: user.ID, State: models.SaleCompleted,
		Items: []models.SaleItem{{ProductID: 2, Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(25)}},
	}
	if err := database.DB.Create(&sale).Error; err != nil {
		t.Fatal(err)
	}

	if code := send(t, app, "DELETE", "/products/1", "", nil); code != fiber.StatusNoContent {
		t.Errorf("delete unused status = %d", code)
	}
	var out map[string]any
	if code := send(t, app, "DELETE", "/products/2", "", &out); code != fiber.StatusOK || out["deactivated"] != true {
		t.Errorf("delete with sales = %d %v", code, out)
	}

	var active []ProductResponse
	send(t, app, "GET", "/products", "", &active)
	var all []ProductResponse
	send(t, app, "GET", "/products?active=all", "", &all)
	if len(active) != 0 || len(all) != 1 || all[0].Active {
		t.Errorf("active = %+v, all = %+v", active, all)
	}
}

func TestStockCount(t *testing.T) {
	app, user := setup(t)
	send(t, app, "POST", "/products", `{"name":"Azúcar","stock":"10","price":"30"}`, nil)

	var sc StockCountResponse
	code := send(t, app, "POST", "/stock-counts", `{"product_id":1,"quantity":"7","date":"2024-05-10","note":"conteo mensual"}`, &sc)
	if code != fiber.StatusCreated {
		t.Fatalf("status = %d", code)
	}
	if sc.Previous.String() != "10" || sc.Counted.String() != "7" || sc.Difference.String() != "-3" || sc.Date != "2024-05-10" {
		t.Errorf("count = %+v", sc)
	}

	var p models.Product
	database.DB.First(&p, 1)
	if p.Stock.String() != "7" {
		t.Errorf("stock = %s", p.Stock)
	}

	for name, body := range map[string]string{
		"negative":   `{"product_id":1,"quantity":"-1"}`,
		"fractional": `{"product_id":1,"quantity":"1.5"}`,
		"unknown":    `{"product_id":9,"quantity":"1"}`,
		"bad date":   `{"product_id":1,"quantity":"1","date":"10/05/2024"}`,
	} {
		if code := send(t, app, "POST", "/stock-counts", body, nil); code != fiber.StatusBadRequest {
			t.Errorf("%s: status = %d", name, code)
		}
	}

	var list []StockCountResponse
	send(t, app, "GET", "/stock-counts?product_id=1&from=2024-05-01&to=2024-05-10", "", &list)
	if len(list) != 1 || list[0].ProductName != "Azúcar" {
		t.Errorf("list = %+v", list)
	}

	if err := audit.UndoLog(lastLog(t, audit.EntityStockCount).ID, user.ID, user.Name); err != nil {
		t.Fatalf("undo: %v", err)
	}
	database.DB.First(&p, 1)
	var n int64
	database.DB.Model(&models.StockCount{}).Count(&n)
	if p.Stock.String() != "10" || n != 0 {
		t.Errorf("after undo stock = %s, counts = %d", p.Stock, n)
	}
}
