package inventory

import (
	"fmt"
	"strings"
	"time"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateStockCountRequest struct {
	Date      string          `json:"date"` // "2024-05-10", vacío = hoy
	ProductID uint            `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"` // existencia contada
	Note      string          `json:"note"`
}

type StockCountResponse struct {
	ID          uint            `json:"id"`
	ProductID   uint            `json:"product_id"`
	ProductName string          `json:"product_name"`
	Date        string          `json:"date"`
	Previous    decimal.Decimal `json:"previous"`
	Counted     decimal.Decimal `json:"counted"`
	Difference  decimal.Decimal `json:"difference"`
	Note        string          `json:"note"`
	CreatedAt   string          `json:"created_at"`
}

func toStockCountResponse(sc models.StockCount) StockCountResponse {
	return StockCountResponse{
		ID:          sc.ID,
		ProductID:   sc.ProductID,
		ProductName: sc.Product.Name,
		Date:        sc.Date.Format("2006-01-02"),
		Previous:    sc.Previous,
		Counted:     sc.Counted,
		Difference:  sc.Counted.Sub(sc.Previous),
		Note:        sc.Note,
		CreatedAt:   sc.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/admin/stock-counts
// Registra un conteo físico y ajusta la existencia del producto.
func CreateStockCountHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateStockCountRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		if body.ProductID == 0 || body.Quantity.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "product_id es obligatorio y quantity no puede ser negativa")
		}

		d := time.Now()
		if s := strings.TrimSpace(body.Date); s != "" {
			d, err = time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "La fecha debe tener formato 'YYYY-MM-DD'")
			}
		}

		var product models.Product
		if err := database.DB.First(&product, "id = ?", body.ProductID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Producto no encontrado")
		}
		if !product.SoldByWeight && !body.Quantity.Equal(body.Quantity.Truncate(0)) {
			return fiber.NewError(fiber.StatusBadRequest, "El producto no se vende por peso, la cantidad debe ser entera")
		}

		count := models.StockCount{
			ProductID: product.ID,
			UserID:    userID,
			Date:      d,
			Previous:  product.Stock,
			Counted:   body.Quantity,
			Note:      strings.TrimSpace(body.Note),
		}
		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&count).Error; err != nil {
				return err
			}
			return tx.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", body.Quantity).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo registrar el conteo")
		}
		count.Product = product

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityStockCount,
			EntityID:    count.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Conteo de inventario: %s %s -> %s", product.Name, count.Previous, count.Counted),
			After:       count,
		})

		return c.Status(fiber.StatusCreated).JSON(toStockCountResponse(count))
	}
}

// GET /api/stock-counts?product_id=1&from=2024-05-01&to=2024-05-31
func ListStockCountsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := database.DB.Preload("Product").Order("date desc, id desc")

		if s := c.Query("product_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "product_id inválido")
			}
			q = q.Where("product_id = ?", id)
		}
		if s := c.Query("from"); s != "" {
			d, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from inválido (YYYY-MM-DD)")
			}
			q = q.Where("date >= ?", d.UTC())
		}
		if s := c.Query("to"); s != "" {
			d, err := time.ParseInLocation("2006-01-02", s, time.Local)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to inválido (YYYY-MM-DD)")
			}
			q = q.Where("date < ?", d.AddDate(0, 0, 1).UTC())
		}

		var counts []models.StockCount
		if err := q.Limit(500).Find(&counts).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los conteos")
		}

		res := make([]StockCountResponse, 0, len(counts))
		for _, sc := range counts {
			res = append(res, toStockCountResponse(sc))
		}
		return c.JSON(res)
	}
}
