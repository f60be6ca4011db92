package sales

import (
	"strings"

	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ClientRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

type ClientResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
}

// GET /api/clients?q=ana
func ListClientsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Client{})
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			dbq = dbq.Where("LOWER(name) LIKE ? OR document LIKE ?", like, like)
		}

		var clients []models.Client
		if err := dbq.Order("name asc").Find(&clients).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar los clientes")
		}

		res := make([]ClientResponse, 0, len(clients))
		for _, cl := range clients {
			res = append(res, ClientResponse{ID: cl.ID, Name: cl.Name, Document: cl.Document, Phone: cl.Phone})
		}
		return c.JSON(res)
	}
}

// POST /api/clients
func CreateClientHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ClientRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		body.Name = strings.TrimSpace(body.Name)
		body.Document = strings.ToUpper(strings.TrimSpace(body.Document))
		body.Phone = strings.TrimSpace(body.Phone)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "El nombre del cliente es obligatorio")
		}

		if body.Document != "" {
			var exist int64
			database.DB.Model(&models.Client{}).Where("document = ?", body.Document).Count(&exist)
			if exist > 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Ya existe un cliente con ese documento")
			}
		}

		cl := models.Client{Name: body.Name, Document: body.Document, Phone: body.Phone}
		if err := database.DB.Create(&cl).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo crear el cliente")
		}

		return c.Status(fiber.StatusCreated).JSON(ClientResponse{ID: cl.ID, Name: cl.Name, Document: cl.Document, Phone: cl.Phone})
	}
}
