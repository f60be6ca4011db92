package inventory

import (
	"strings"

	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

type CategoryResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Products  int64  `json:"products"`
	CreatedAt string `json:"created_at"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
}

type SupplierResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Products  int64  `json:"products"`
	CreatedAt string `json:"created_at"`
}

type CreateSupplierRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// productCounts maps a foreign key column to the number of products per id.
func productCounts(column string) (map[uint]int64, error) {
	type row struct {
		ID    uint
		Total int64
	}
	var rows []row
	if err := database.DB.Model(&models.Product{}).
		Select(column + " AS id, COUNT(*) AS total").
		Where(column + " IS NOT NULL").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Total
	}
	return out, nil
}

// ----------------------------------------
// CATEGORÍAS
// ----------------------------------------

// GET /api/categories
func ListCategoriesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.Category
		if err := database.DB.Order("name asc").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las categorías")
		}
		counts, err := productCounts("category_id")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las categorías")
		}

		res := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			res = append(res, CategoryResponse{
				ID:        cat.ID,
				Name:      cat.Name,
				Products:  counts[cat.ID],
				CreatedAt: cat.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/admin/categories
func CreateCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateCategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre de la categoría es obligatorio")
		}

		var exist int64
		database.DB.Model(&models.Category{}).Where("LOWER(name) = ?", strings.ToLower(body.Name)).Count(&exist)
		if exist > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "La categoría ya existe")
		}

		cat := models.Category{Name: body.Name}
		if err := database.DB.Create(&cat).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear la categoría")
		}

		return c.Status(fiber.StatusCreated).JSON(CategoryResponse{
			ID:        cat.ID,
			Name:      cat.Name,
			CreatedAt: cat.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}

// DELETE /api/admin/categories/:id
func DeleteCategoryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")

		var count int64
		database.DB.Model(&models.Product{}).Where("category_id = ?", id).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "La categoría tiene productos, reasígnelos primero")
		}

		if err := database.DB.Delete(&models.Category{}, "id = ?", id).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la categoría")
		}

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// ----------------------------------------
// PROVEEDORES
// ----------------------------------------

// GET /api/suppliers
func ListSuppliersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := database.DB.Order("name asc").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los proveedores")
		}
		counts, err := productCounts("supplier_id")
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los proveedores")
		}

		res := make([]SupplierResponse, 0, len(suppliers))
		for _, s := range suppliers {
			res = append(res, SupplierResponse{
				ID:        s.ID,
				Name:      s.Name,
				Phone:     s.Phone,
				Products:  counts[s.ID],
				CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}
		return c.JSON(res)
	}
}

// POST /api/admin/suppliers
func CreateSupplierHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateSupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		body.Name = strings.TrimSpace(body.Name)
		body.Phone = strings.TrimSpace(body.Phone)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre del proveedor es obligatorio")
		}

		var exist int64
		database.DB.Model(&models.Supplier{}).Where("LOWER(name) = ?", strings.ToLower(body.Name)).Count(&exist)
		if exist > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "El proveedor ya existe")
		}

		s := models.Supplier{Name: body.Name, Phone: body.Phone}
		if err := database.DB.Create(&s).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el proveedor")
		}

		return c.Status(fiber.StatusCreated).JSON(SupplierResponse{
			ID:        s.ID,
			Name:      s.Name,
			Phone:     s.Phone,
			CreatedAt: s.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
}
