// Package snapshot reads products and sales from the store into the
// read-only analytics.Snapshot one analysis run works on.
package snapshot

import (
	"context"
	"fmt"
	"time"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/models"

	"gorm.io/gorm"
)

// Load reads every product and the sales dated in [from, to]. A zero bound
// leaves that side open. Bounds are compared in UTC, the zone sale dates are
// stored in. Cancelled and pending sales are loaded too; the
// calculator decides what counts.
func Load(ctx context.Context, db *gorm.DB, from, to time.Time) (analytics.Snapshot, error) {
	snap := analytics.Snapshot{From: from, To: to}

	var products []models.Product
	if err := db.WithContext(ctx).
		Preload("Category").
		Preload("Supplier").
		Order("id asc").
		Find(&products).Error; err != nil {
		return snap, fmt.Errorf("cargar productos: %w", err)
	}

	q := db.WithContext(ctx).
		Preload("Client").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
	if !from.IsZero() {
		q = q.Where("date >= ?", from.UTC())
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to.UTC())
	}

	var sales []models.Sale
	if err := q.Order("date asc, id asc").Find(&sales).Error; err != nil {
		return snap, fmt.Errorf("cargar ventas: %w", err)
	}

	snap.Products = make([]analytics.Product, 0, len(products))
	for _, p := range products {
		snap.Products = append(snap.Products, toProduct(p))
	}
	snap.Sales = make([]analytics.Sale, 0, len(sales))
	for _, s := range sales {
		snap.Sales = append(snap.Sales, toSale(s))
	}
	return snap, nil
}

func toProduct(p models.Product) analytics.Product {
	out := analytics.Product{
		ID:     p.ID,
		Name:   p.Name,
		Stock:  p.Stock.InexactFloat64(),
		Price:  p.Price.InexactFloat64(),
		Cost:   p.Cost.InexactFloat64(),
		Active: p.Active,
	}
	if p.Category != nil {
		out.Category = p.Category.Name
	}
	if p.Supplier != nil {
		out.Supplier = p.Supplier.Name
	}
	return out
}

func toSale(s models.Sale) analytics.Sale {
	out := analytics.Sale{
		ID:        s.ID,
		Date:      s.Date,
		Completed: s.State == models.SaleCompleted,
		Lines:     make([]analytics.Line, 0, len(s.Items)),
	}
	if s.ClientID != nil {
		out.ClientID = *s.ClientID
	}
	if s.Client != nil {
		out.Client = s.Client.Name
		out.ClientDoc = s.Client.Document
	}
	for _, it := range s.Items {
		out.Lines = append(out.Lines, analytics.Line{
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity.InexactFloat64(),
			UnitPrice: it.UnitPrice.InexactFloat64(),
			UnitCost:  it.UnitCost.InexactFloat64(),
			Subtotal:  it.Subtotal.InexactFloat64(),
		})
	}
	return out
}
