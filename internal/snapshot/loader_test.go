package snapshot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/shopspring/decimal"
)

func TestLoad(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}

	cat := models.Category{Name: "Bebidas"}
	sup := models.Supplier{Name: "Distribuidora Norte"}
	client := models.Client{Name: "Ana"}
	user := models.User{Name: "Caja", Email: "caja@test", PasswordHash: "x", Role: models.RoleCashier}
	for _, v := range []any{&cat, &sup, &client, &user} {
		if err := db.Create(v).Error; err != nil {
			t.Fatal(err)
		}
	}
	prod := models.Product{
		Name: "Refresco", CategoryID: &cat.ID, SupplierID: &sup.ID,
		Stock: decimal.NewFromInt(12), Price: decimal.NewFromInt(20), Cost: decimal.NewFromInt(12), Active: true,
	}
	if err := db.Create(&prod).Error; err != nil {
		t.Fatal(err)
	}

	base := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	mk := func(code string, at time.Time, state models.SaleState, clientID *uint) {
		s := models.Sale{
			Code: code, Date: at, UserID: user.ID, ClientID: clientID, State: state,
			Items: []models.SaleItem{{
				ProductID: prod.ID, ProductName: prod.Name,
				Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(20), UnitCost: decimal.NewFromInt(12),
				Subtotal: decimal.NewFromInt(40), GrossProfit: decimal.NewFromInt(16),
			}},
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}
	mk("b", base.Add(time.Hour), models.SaleCompleted, nil)
	mk("a", base, models.SaleCompleted, &client.ID)
	mk("c", base.Add(2*time.Hour), models.SaleCancelled, nil)
	mk("old", base.AddDate(0, -1, 0), models.SaleCompleted, nil)

	snap, err := Load(context.Background(), db, base.Add(-time.Minute), base.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(snap.Products) != 1 {
		t.Fatalf("products = %d", len(snap.Products))
	}
	p := snap.Products[0]
	if p.Category != "Bebidas" || p.Supplier != "Distribuidora Norte" || p.Stock != 12 || p.Cost != 12 {
		t.Errorf("product = %+v", p)
	}

	if len(snap.Sales) != 3 {
		t.Fatalf("sales in range = %d, want 3", len(snap.Sales))
	}
	if !snap.Sales[0].Date.Equal(base) || snap.Sales[0].Client != "Ana" {
		t.Errorf("first sale = %+v", snap.Sales[0])
	}
	if snap.Sales[2].Completed {
		t.Error("cancelled sale marked completed")
	}
	l := snap.Sales[0].Lines[0]
	if l.Quantity != 2 || l.Subtotal != 40 || l.UnitCost != 12 || l.Name != "Refresco" {
		t.Errorf("line = %+v", l)
	}
}

func TestLoadComparesDatesAcrossOffsets(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{Name: "Caja", Email: "caja@test", PasswordHash: "x", Role: models.RoleCashier}
	if err := db.Create(&user).Error; err != nil {
		t.Fatal(err)
	}

	bogota := time.FixedZone("-05", -5*3600)
	for code, at := range map[string]time.Time{
		"inside":  time.Date(2024, 5, 10, 23, 30, 0, 0, bogota), // 2024-05-11 04:30Z
		"outside": time.Date(2024, 5, 11, 20, 0, 0, 0, bogota),  // 2024-05-12 01:00Z
	} {
		s := models.Sale{Code: code, Date: at, UserID: user.ID, State: models.SaleCompleted}
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}

	from := time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)
	snap, err := Load(context.Background(), db, from, from.Add(24*time.Hour-time.Second))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap.Sales) != 1 {
		t.Fatalf("sales in range = %d, want 1", len(snap.Sales))
	}
	if want := time.Date(2024, 5, 11, 4, 30, 0, 0, time.UTC); !snap.Sales[0].Date.Equal(want) {
		t.Errorf("date = %v, want %v", snap.Sales[0].Date, want)
	}
}

func TestLoadKeepsSameNameClientsApart(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	user := models.User{Name: "Caja", Email: "caja@test", PasswordHash: "x", Role: models.RoleCashier}
	a := models.Client{Name: "Juan Pérez", Document: "A1"}
	b := models.Client{Name: "Juan Pérez", Document: "B2"}
	prod := models.Product{Name: "Café", Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(6), Active: true}
	for _, v := range []any{&user, &a, &b, &prod} {
		if err := db.Create(v).Error; err != nil {
			t.Fatal(err)
		}
	}
	at := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	for i, id := range []uint{a.ID, b.ID} {
		clientID := id
		s := models.Sale{
			Code: fmt.Sprintf("s%d", i), Date: at, UserID: user.ID, ClientID: &clientID, State: models.SaleCompleted,
			Items: []models.SaleItem{{
				ProductID: prod.ID, ProductName: prod.Name,
				Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10), UnitCost: decimal.NewFromInt(6),
				Subtotal: decimal.NewFromInt(10), GrossProfit: decimal.NewFromInt(4),
			}},
		}
		if err := db.Create(&s).Error; err != nil {
			t.Fatal(err)
		}
	}

	snap, err := Load(context.Background(), db, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	items := analytics.Calculate(snap, analytics.Criteria{Dimension: analytics.ByClient}, 0.12)
	if len(items) != 2 {
		t.Fatalf("items = %+v, want one per client", items)
	}
	for _, it := range items {
		if it.Revenue != 10 || it.Sales != 1 {
			t.Errorf("%s = revenue %v, sales %d", it.Key, it.Revenue, it.Sales)
		}
	}
	if items[0].Key != "Juan Pérez (A1)" || items[1].Key != "Juan Pérez (B2)" {
		t.Errorf("keys = %q, %q", items[0].Key, items[1].Key)
	}
}

func TestLoadCancelledContext(t *testing.T) {
	db, err := database.OpenMemory(t.Name())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, db, time.Time{}, time.Time{}); err == nil {
		t.Error("expected an error with a cancelled context")
	}
}
