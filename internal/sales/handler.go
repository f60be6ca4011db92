package sales

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleLineRequest struct {
	ProductID uint             `json:"product_id"`
	Quantity  decimal.Decimal  `json:"quantity"`
	UnitPrice *decimal.Decimal `json:"unit_price"` // por defecto el precio del producto
}

type CreateSaleRequest struct {
	ClientID     *uint             `json:"client_id"`
	Date         string            `json:"date"`  // RFC3339, por defecto ahora
	State        models.SaleState  `json:"state"` // completed | pending
	Items        []SaleLineRequest `json:"items"`
	PaidCash     decimal.Decimal   `json:"paid_cash"`
	PaidCard     decimal.Decimal   `json:"paid_card"`
	PaidTransfer decimal.Decimal   `json:"paid_transfer"`
	Commission   decimal.Decimal   `json:"commission"`
}

type SaleItemResponse struct {
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	TaxPct      decimal.Decimal `json:"tax_pct"`
}

type SaleResponse struct {
	ID           uint               `json:"id"`
	Code         string             `json:"code"`
	Date         string             `json:"date"`
	ClientID     *uint              `json:"client_id"`
	Client       string             `json:"client"`
	UserID       uint               `json:"user_id"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Tax          decimal.Decimal    `json:"tax"`
	Total        decimal.Decimal    `json:"total"`
	PaidCash     decimal.Decimal    `json:"paid_cash"`
	PaidCard     decimal.Decimal    `json:"paid_card"`
	PaidTransfer decimal.Decimal    `json:"paid_transfer"`
	Commission   decimal.Decimal    `json:"commission"`
	State        models.SaleState   `json:"state"`
	Items        []SaleItemResponse `json:"items,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func toSaleResponse(s models.Sale) SaleResponse {
	res := SaleResponse{
		ID:           s.ID,
		Code:         s.Code,
		Date:         s.Date.Format(time.RFC3339),
		ClientID:     s.ClientID,
		UserID:       s.UserID,
		Subtotal:     s.Subtotal,
		Tax:          s.Tax,
		Total:        s.Total,
		PaidCash:     s.PaidCash,
		PaidCard:     s.PaidCard,
		PaidTransfer: s.PaidTransfer,
		Commission:   s.Commission,
		State:        s.State,
	}
	if s.Client != nil {
		res.Client = s.Client.Name
	}
	for _, it := range s.Items {
		res.Items = append(res.Items, SaleItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			UnitCost:    it.UnitCost,
			Subtotal:    it.Subtotal,
			GrossProfit: it.GrossProfit,
			TaxPct:      it.TaxPct,
		})
	}
	return res
}

// buildItem prices one line from the product. Prices include tax.
func buildItem(p models.Product, qty decimal.Decimal, price *decimal.Decimal) models.SaleItem {
	unitPrice := p.Price
	if price != nil {
		unitPrice = *price
	}
	return models.SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		Quantity:    qty,
		UnitPrice:   unitPrice,
		UnitCost:    p.Cost,
		Subtotal:    unitPrice.Mul(qty).Round(2),
		GrossProfit: unitPrice.Sub(p.Cost).Mul(qty).Round(2),
		TaxPct:      p.TaxPct,
	}
}

// lineTax is the tax contained in a tax-included amount.
func lineTax(amount, taxPct decimal.Decimal) decimal.Decimal {
	if taxPct.IsZero() {
		return decimal.Zero
	}
	base := amount.Div(decimal.NewFromInt(1).Add(taxPct.Div(hundred)))
	return amount.Sub(base).Round(2)
}

// applyStock moves stock for every line: sign -1 on sale, +1 on cancel.
func applyStock(tx *gorm.DB, items []models.SaleItem, sign int64, check bool) error {
	for _, it := range items {
		var p models.Product
		if err := tx.First(&p, "id = ?", it.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Producto %d no encontrado", it.ProductID))
		}
		next := p.Stock.Add(it.Quantity.Mul(decimal.NewFromInt(sign)))
		if check && next.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Stock insuficiente de %s (disponible %s)", p.Name, p.Stock.String()))
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", next).Error; err != nil {
			return err
		}
	}
	return nil
}

// POST /api/sales
func CreateSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateSaleRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "La venta no tiene productos")
		}
		if body.State == "" {
			body.State = models.SaleCompleted
		}
		if body.State != models.SaleCompleted && body.State != models.SalePending {
			return fiber.NewError(fiber.StatusBadRequest, "Estado inválido (completed | pending)")
		}
		for _, v := range []decimal.Decimal{body.PaidCash, body.PaidCard, body.PaidTransfer, body.Commission} {
			if v.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Los importes no pueden ser negativos")
			}
		}

		date := time.Now()
		if s := strings.TrimSpace(body.Date); s != "" {
			d, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Fecha inválida (RFC3339)")
			}
			date = d
		}

		if body.ClientID != nil {
			var n int64
			database.DB.Model(&models.Client{}).Where("id = ?", *body.ClientID).Count(&n)
			if n == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "El cliente no existe")
			}
		}

		sale := models.Sale{
			Code:         uuid.NewString(),
			Date:         date,
			ClientID:     body.ClientID,
			UserID:       userID,
			PaidCash:     body.PaidCash,
			PaidCard:     body.PaidCard,
			PaidTransfer: body.PaidTransfer,
			Commission:   body.Commission,
			State:        body.State,
		}

		for _, line := range body.Items {
			if !line.Quantity.IsPositive() {
				return fiber.NewError(fiber.StatusBadRequest, "La cantidad debe ser mayor que cero")
			}
			if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "El precio no puede ser negativo")
			}
			var p models.Product
			if err := database.DB.First(&p, "id = ?", line.ProductID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Producto %d no encontrado", line.ProductID))
			}
			if !p.Active {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s está inactivo", p.Name))
			}
			if !p.SoldByWeight && !line.Quantity.Equal(line.Quantity.Truncate(0)) {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("%s se vende por pieza", p.Name))
			}

			it := buildItem(p, line.Quantity, line.UnitPrice)
			sale.Items = append(sale.Items, it)
			sale.Total = sale.Total.Add(it.Subtotal)
			sale.Tax = sale.Tax.Add(lineTax(it.Subtotal, it.TaxPct))
		}
		sale.Subtotal = sale.Total.Sub(sale.Tax)

		paid := sale.PaidCash.Add(sale.PaidCard).Add(sale.PaidTransfer)
		if paid.IsZero() {
			sale.PaidCash = sale.Total
		} else if sale.State == models.SaleCompleted && paid.LessThan(sale.Total) {
			return fiber.NewError(fiber.StatusBadRequest,
				fmt.Sprintf("Pago insuficiente: %s de %s", paid.StringFixed(2), sale.Total.StringFixed(2)))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if sale.State == models.SaleCompleted {
				if err := applyStock(tx, sale.Items, -1, true); err != nil {
					return err
				}
			}
			return tx.Create(&sale).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar la venta")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntitySale,
			EntityID:    sale.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Venta %s por %s", sale.Code, sale.Total.StringFixed(2)),
			After:       toSaleResponse(sale),
		})

		return c.Status(fiber.StatusCreated).JSON(toSaleResponse(sale))
	}
}

// GET /api/sales?from=2024-01-01&to=2024-01-31&state=completed&client_id=3
func ListSalesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Sale{}).Preload("Client")

		if s := c.Query("from"); s != "" {
			from, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from inválido (YYYY-MM-DD)")
			}
			dbq = dbq.Where("date >= ?", from.UTC())
		}
		if s := c.Query("to"); s != "" {
			to, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to inválido (YYYY-MM-DD)")
			}
			dbq = dbq.Where("date < ?", to.AddDate(0, 0, 1).UTC())
		}
		if s := c.Query("state"); s != "" {
			dbq = dbq.Where("state = ?", s)
		}
		if s := c.Query("client_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "client_id inválido")
			}
			dbq = dbq.Where("client_id = ?", id)
		}

		var sales []models.Sale
		if err := dbq.Order("date DESC, id DESC").Limit(500).Find(&sales).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las ventas")
		}

		res := make([]SaleResponse, 0, len(sales))
		for _, s := range sales {
			res = append(res, toSaleResponse(s))
		}
		return c.JSON(res)
	}
}

// GET /api/sales/:id
func GetSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sale models.Sale
		if err := database.DB.Preload("Client").Preload("Items").First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}
		return c.JSON(toSaleResponse(sale))
	}
}

// POST /api/sales/:id/complete
// Cierra una venta pendiente y descuenta el stock.
func CompleteSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return changeState(c, models.SalePending, models.SaleCompleted)
	}
}

// POST /api/sales/:id/cancel
func CancelSaleHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return changeState(c, "", models.SaleCancelled)
	}
}

// changeState moves a sale to next. A non-empty from restricts the current
// state. Stock follows the move in the same transaction.
func changeState(c *fiber.Ctx, from, next models.SaleState) error {
	userID, userName, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var sale models.Sale
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&sale, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Venta no encontrada")
		}
		if sale.State == models.SaleCancelled {
			return fiber.NewError(fiber.StatusConflict, "La venta ya está cancelada")
		}
		if from != "" && sale.State != from {
			return fiber.NewError(fiber.StatusConflict, fmt.Sprintf("La venta no está en estado %s", from))
		}

		switch {
		case next == models.SaleCancelled && sale.State == models.SaleCompleted:
			if err := applyStock(tx, sale.Items, 1, false); err != nil {
				return err
			}
		case next == models.SaleCompleted:
			if err := applyStock(tx, sale.Items, -1, true); err != nil {
				return err
			}
		}

		sale.State = next
		return tx.Model(&models.Sale{}).Where("id = ?", sale.ID).Update("state", next).Error
	})
	if err != nil {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return fe
		}
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la venta")
	}

	action := models.AuditActionUpdate
	if next == models.SaleCancelled {
		action = models.AuditActionCancel
	}
	_ = audit.WriteLog(audit.LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  audit.EntitySale,
		EntityID:    sale.ID,
		Action:      action,
		Description: fmt.Sprintf("Venta %s: %s", sale.Code, next),
		After:       toSaleResponse(sale),
	})

	return c.JSON(toSaleResponse(sale))
}
