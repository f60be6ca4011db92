package inventory

import (
	"fmt"
	"strings"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProductResponse struct {
	ID           uint            `json:"id"`
	Name         string          `json:"name"`
	Code         string          `json:"code"`
	CategoryID   *uint           `json:"category_id"`
	Category     string          `json:"category"`
	SupplierID   *uint           `json:"supplier_id"`
	Supplier     string          `json:"supplier"`
	Stock        decimal.Decimal `json:"stock"`
	Price        decimal.Decimal `json:"price"`
	PriceNoTax   decimal.Decimal `json:"price_no_tax"`
	Cost         decimal.Decimal `json:"cost"`
	TaxPct       decimal.Decimal `json:"tax_pct"`
	SoldByWeight bool            `json:"sold_by_weight"`
	Active       bool            `json:"active"`
}

type CreateProductRequest struct {
	Name         string           `json:"name"`
	Code         string           `json:"code"`
	CategoryID   *uint            `json:"category_id"`
	SupplierID   *uint            `json:"supplier_id"`
	Stock        decimal.Decimal  `json:"stock"`
	Price        decimal.Decimal  `json:"price"`
	Cost         decimal.Decimal  `json:"cost"`
	TaxPct       decimal.Decimal  `json:"tax_pct"`
	PriceNoTax   *decimal.Decimal `json:"price_no_tax"` // si falta se calcula con TaxPct
	SoldByWeight bool             `json:"sold_by_weight"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name"`
	Code         *string          `json:"code"`
	CategoryID   *uint            `json:"category_id"`
	SupplierID   *uint            `json:"supplier_id"`
	Stock        *decimal.Decimal `json:"stock"`
	Price        *decimal.Decimal `json:"price"`
	Cost         *decimal.Decimal `json:"cost"`
	TaxPct       *decimal.Decimal `json:"tax_pct"`
	SoldByWeight *bool            `json:"sold_by_weight"`
	Active       *bool            `json:"active"`
}

var hundred = decimal.NewFromInt(100)

// priceWithoutTax: price / (1 + tax/100)
func priceWithoutTax(price, taxPct decimal.Decimal) decimal.Decimal {
	if taxPct.IsZero() {
		return price
	}
	return price.Div(decimal.NewFromInt(1).Add(taxPct.Div(hundred))).Round(2)
}

func toProductResponse(p models.Product) ProductResponse {
	res := ProductResponse{
		ID:           p.ID,
		Name:         p.Name,
		Code:         p.Code,
		CategoryID:   p.CategoryID,
		SupplierID:   p.SupplierID,
		Stock:        p.Stock,
		Price:        p.Price,
		PriceNoTax:   p.PriceNoTax,
		Cost:         p.Cost,
		TaxPct:       p.TaxPct,
		SoldByWeight: p.SoldByWeight,
		Active:       p.Active,
	}
	if p.Category != nil {
		res.Category = p.Category.Name
	}
	if p.Supplier != nil {
		res.Supplier = p.Supplier.Name
	}
	return res
}

func validateAmounts(values ...decimal.Decimal) error {
	for _, v := range values {
		if v.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "Los importes no pueden ser negativos")
		}
	}
	return nil
}

func checkRefs(categoryID, supplierID *uint) error {
	if categoryID != nil {
		var n int64
		database.DB.Model(&models.Category{}).Where("id = ?", *categoryID).Count(&n)
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "La categoría no existe")
		}
	}
	if supplierID != nil {
		var n int64
		database.DB.Model(&models.Supplier{}).Where("id = ?", *supplierID).Count(&n)
		if n == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El proveedor no existe")
		}
	}
	return nil
}

// GET /api/products?category_id=1&supplier_id=2&active=true&q=refresco
func ListProductsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Product{}).Preload("Category").Preload("Supplier")

		if s := c.Query("category_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "category_id inválido")
			}
			dbq = dbq.Where("category_id = ?", id)
		}
		if s := c.Query("supplier_id"); s != "" {
			var id uint
			if _, err := fmt.Sscan(s, &id); err != nil || id == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "supplier_id inválido")
			}
			dbq = dbq.Where("supplier_id = ?", id)
		}
		switch c.Query("active", "true") {
		case "false":
			dbq = dbq.Where("active = ?", false)
		case "all":
		default:
			dbq = dbq.Where("active = ?", true)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
		}

		var products []models.Product
		if err := dbq.Order("name asc").Find(&products).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los productos")
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, toProductResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/admin/products
func CreateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Code = strings.TrimSpace(body.Code)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre es obligatorio")
		}
		if err := validateAmounts(body.Stock, body.Price, body.Cost, body.TaxPct); err != nil {
			return err
		}
		if err := checkRefs(body.CategoryID, body.SupplierID); err != nil {
			return err
		}

		var exist int64
		database.DB.Model(&models.Product{}).Where("LOWER(name) = ?", strings.ToLower(body.Name)).Count(&exist)
		if exist > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Ya existe un producto con ese nombre")
		}

		p := models.Product{
			Name:         body.Name,
			Code:         body.Code,
			CategoryID:   body.CategoryID,
			SupplierID:   body.SupplierID,
			Stock:        body.Stock,
			Price:        body.Price,
			Cost:         body.Cost,
			TaxPct:       body.TaxPct,
			PriceNoTax:   priceWithoutTax(body.Price, body.TaxPct),
			SoldByWeight: body.SoldByWeight,
			Active:       true,
		}
		if body.PriceNoTax != nil {
			p.PriceNoTax = *body.PriceNoTax
		}

		if err := database.DB.Create(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el producto")
		}
		database.DB.Preload("Category").Preload("Supplier").First(&p, p.ID)

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Producto creado: %s", p.Name),
			After:       p,
		})

		return c.Status(fiber.StatusCreated).JSON(toProductResponse(p))
	}
}

// PUT /api/admin/products/:id
func UpdateProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}
		before := p

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		if body.Name != nil {
			name := strings.TrimSpace(*body.Name)
			if name == "" {
				return fiber.NewError(fiber.StatusBadRequest, "El nombre no puede estar vacío")
			}
			var exist int64
			database.DB.Model(&models.Product{}).
				Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), p.ID).
				Count(&exist)
			if exist > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Ya existe un producto con ese nombre")
			}
			p.Name = name
		}
		if body.Code != nil {
			p.Code = strings.TrimSpace(*body.Code)
		}
		if err := checkRefs(body.CategoryID, body.SupplierID); err != nil {
			return err
		}
		if body.CategoryID != nil {
			p.CategoryID = body.CategoryID
		}
		if body.SupplierID != nil {
			p.SupplierID = body.SupplierID
		}
		for _, v := range []*decimal.Decimal{body.Stock, body.Price, body.Cost, body.TaxPct} {
			if v != nil && v.IsNegative() {
				return fiber.NewError(fiber.StatusBadRequest, "Los importes no pueden ser negativos")
			}
		}
		if body.Stock != nil {
			p.Stock = *body.Stock
		}
		if body.Price != nil {
			p.Price = *body.Price
		}
		if body.Cost != nil {
			p.Cost = *body.Cost
		}
		if body.TaxPct != nil {
			p.TaxPct = *body.TaxPct
		}
		if body.Price != nil || body.TaxPct != nil {
			p.PriceNoTax = priceWithoutTax(p.Price, p.TaxPct)
		}
		if body.SoldByWeight != nil {
			p.SoldByWeight = *body.SoldByWeight
		}
		if body.Active != nil {
			p.Active = *body.Active
		}

		p.Category, p.Supplier = nil, nil
		if err := database.DB.Save(&p).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar el producto")
		}
		database.DB.Preload("Category").Preload("Supplier").First(&p, p.ID)

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Producto actualizado: %s", p.Name),
			Before:      before,
			After:       p,
		})

		return c.JSON(toProductResponse(p))
	}
}

// DELETE /api/admin/products/:id
// Un producto con ventas sólo se desactiva para no perder el histórico.
func DeleteProductHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var p models.Product
		if err := database.DB.First(&p, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Producto no encontrado")
		}

		var refs int64
		database.DB.Model(&models.SaleItem{}).Where("product_id = ?", p.ID).Count(&refs)

		if refs > 0 {
			before := p
			p.Active = false
			if err := database.DB.Model(&p).Update("active", false).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "No se pudo desactivar el producto")
			}
			_ = audit.WriteLog(audit.LogOptions{
				UserID:      userID,
				UserName:    userName,
				EntityType:  audit.EntityProduct,
				EntityID:    p.ID,
				Action:      models.AuditActionUpdate,
				Description: fmt.Sprintf("Producto desactivado (tiene ventas): %s", p.Name),
				Before:      before,
				After:       p,
			})
			return c.JSON(fiber.Map{"deactivated": true})
		}

		if err := database.DB.Delete(&models.Product{}, "id = ?", p.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar el producto")
		}
		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityProduct,
			EntityID:    p.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Producto eliminado: %s", p.Name),
			Before:      p,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}
