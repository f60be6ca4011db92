package reports

import (
	"fmt"
	"strings"

	"pos-analytics/internal/analytics"
	"pos-analytics/internal/config"
	"pos-analytics/internal/database"
	"pos-analytics/internal/export"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type StockRow struct {
	ProductID   uint            `json:"product_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Supplier    string          `json:"supplier"`
	Stock       decimal.Decimal `json:"stock"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
	ValueAtCost decimal.Decimal `json:"value_at_cost"`
	ValueAtSale decimal.Decimal `json:"value_at_price"`
	LowStock    bool            `json:"low_stock"`
}

type StockReport struct {
	Threshold   decimal.Decimal `json:"low_stock_threshold"`
	Products    int             `json:"products"`
	LowStock    int             `json:"low_stock"`
	Units       decimal.Decimal `json:"units"`
	ValueAtCost decimal.Decimal `json:"value_at_cost"`
	ValueAtSale decimal.Decimal `json:"value_at_price"`
	Rows        []StockRow      `json:"rows"`
}

// summarizeStock values each product at cost and at price. A product is
// low on stock when its stock is at or below threshold.
func summarizeStock(products []models.Product, threshold decimal.Decimal, onlyLow bool) StockReport {
	r := StockReport{Threshold: threshold, Rows: []StockRow{}}
	for _, p := range products {
		row := StockRow{
			ProductID:   p.ID,
			Name:        p.Name,
			Stock:       p.Stock,
			Cost:        p.Cost,
			Price:       p.Price,
			ValueAtCost: p.Stock.Mul(p.Cost).Round(2),
			ValueAtSale: p.Stock.Mul(p.Price).Round(2),
			LowStock:    p.Stock.LessThanOrEqual(threshold),
		}
		if p.Category != nil {
			row.Category = p.Category.Name
		}
		if p.Supplier != nil {
			row.Supplier = p.Supplier.Name
		}
		if onlyLow && !row.LowStock {
			continue
		}

		r.Products++
		if row.LowStock {
			r.LowStock++
		}
		r.Units = r.Units.Add(row.Stock)
		r.ValueAtCost = r.ValueAtCost.Add(row.ValueAtCost)
		r.ValueAtSale = r.ValueAtSale.Add(row.ValueAtSale)
		r.Rows = append(r.Rows, row)
	}
	return r
}

func stockExport(r StockReport) export.Report {
	rep := export.Report{
		Title:  "Reporte de inventario",
		Period: "Existencia baja: " + r.Threshold.String() + " o menos",
		Columns: []export.Column{
			{Header: "Producto", Kind: export.Text},
			{Header: "Categoría", Kind: export.Text},
			{Header: "Proveedor", Kind: export.Text},
			{Header: "Existencia", Kind: export.Number},
			{Header: "Costo", Kind: export.Money},
			{Header: "Precio", Kind: export.Money},
			{Header: "Valor a costo", Kind: export.Money},
			{Header: "Valor a precio", Kind: export.Money},
			{Header: "Baja", Kind: export.Text},
		},
	}
	for _, row := range r.Rows {
		low := ""
		if row.LowStock {
			low = "Sí"
		}
		rep.Rows = append(rep.Rows, []any{row.Name, row.Category, row.Supplier, row.Stock.InexactFloat64(),
			row.Cost.InexactFloat64(), row.Price.InexactFloat64(), row.ValueAtCost.InexactFloat64(),
			row.ValueAtSale.InexactFloat64(), low})
	}
	rep.Summary = []export.Pair{
		{Label: "Productos", Value: export.Format(export.Number, r.Products)},
		{Label: "Con existencia baja", Value: export.Format(export.Number, r.LowStock)},
		{Label: "Valor a costo", Value: money(r.ValueAtCost.InexactFloat64())},
		{Label: "Valor a precio", Value: money(r.ValueAtSale.InexactFloat64())},
	}
	return rep
}

// GET /api/reports/stock?low_stock=5&only_low=true&category_id=&supplier_id=&format=
func StockReportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		threshold, _ := analytics.ParseFloatOrDefault(c.Query("low_stock"), cfg.Analysis.LowStockThreshold)
		if threshold < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "low_stock no puede ser negativo")
		}

		q := database.DB.WithContext(c.UserContext()).
			Preload("Category").
			Preload("Supplier").
			Where("active = ?", true).
			Order("name asc")
		if s := strings.TrimSpace(c.Query("category_id")); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "category_id inválido")
			}
			q = q.Where("category_id = ?", id)
		}
		if s := strings.TrimSpace(c.Query("supplier_id")); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "supplier_id inválido")
			}
			q = q.Where("supplier_id = ?", id)
		}

		var products []models.Product
		if err := q.Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo cargar el inventario")
		}

		r := summarizeStock(products, decimal.NewFromFloat(threshold), parseBool(c.Query("only_low")))

		if c.Query("format") == "" {
			return c.JSON(r)
		}
		format, err := exportFormat(c)
		if err != nil {
			return err
		}
		return sendExport(c, cfg, stockExport(r), format)
	}
}
