package scale

import (
	"errors"
	"fmt"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/database"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

type ScaleConfigRequest struct {
	Name        string `json:"name"`
	Port        string `json:"port"`
	BaudRate    int    `json:"baud_rate"`
	DataBits    int    `json:"data_bits"`
	Parity      string `json:"parity"`
	StopBits    string `json:"stop_bits"`
	Handshake   string `json:"handshake"`
	Command     string `json:"command"`
	WeightRegex string `json:"weight_regex"`
	ReadTimeout int    `json:"read_timeout_ms"`
	Active      *bool  `json:"active"`
}

type ScaleConfigResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Port        string `json:"port"`
	BaudRate    int    `json:"baud_rate"`
	DataBits    int    `json:"data_bits"`
	Parity      string `json:"parity"`
	StopBits    string `json:"stop_bits"`
	Handshake   string `json:"handshake"`
	Command     string `json:"command"`
	WeightRegex string `json:"weight_regex"`
	ReadTimeout int    `json:"read_timeout_ms"`
	Active      bool   `json:"active"`
}

type ParseRequest struct {
	Raw     string `json:"raw"`
	Pattern string `json:"pattern"` // opcional, prueba un patrón sin guardarlo
}

func toResponse(sc models.ScaleConfig) ScaleConfigResponse {
	return ScaleConfigResponse{
		ID:          sc.ID,
		Name:        sc.Name,
		Port:        sc.Port,
		BaudRate:    sc.BaudRate,
		DataBits:    sc.DataBits,
		Parity:      sc.Parity,
		StopBits:    sc.StopBits,
		Handshake:   sc.Handshake,
		Command:     sc.Command,
		WeightRegex: sc.WeightRegex,
		ReadTimeout: sc.ReadTimeout,
		Active:      sc.Active,
	}
}

func (r ScaleConfigRequest) apply(sc *models.ScaleConfig) {
	sc.Name = r.Name
	sc.Port = r.Port
	sc.BaudRate = r.BaudRate
	sc.DataBits = r.DataBits
	sc.Parity = r.Parity
	sc.StopBits = r.StopBits
	sc.Handshake = r.Handshake
	sc.Command = r.Command
	sc.WeightRegex = r.WeightRegex
	sc.ReadTimeout = r.ReadTimeout
	if r.Active != nil {
		sc.Active = *r.Active
	}
}

func nameTaken(name string, exceptID uint) bool {
	var n int64
	database.DB.Model(&models.ScaleConfig{}).Where("name = ? AND id <> ?", name, exceptID).Count(&n)
	return n > 0
}

// GET /api/scale-configs
func ListScaleConfigsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var configs []models.ScaleConfig
		if err := database.DB.Order("name asc").Find(&configs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudieron listar las básculas")
		}
		res := make([]ScaleConfigResponse, 0, len(configs))
		for _, sc := range configs {
			res = append(res, toResponse(sc))
		}
		return c.JSON(res)
	}
}

// GET /api/scale-configs/:id
func GetScaleConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sc models.ScaleConfig
		if err := database.DB.First(&sc, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Báscula no encontrada")
		}
		return c.JSON(toResponse(sc))
	}
}

// POST /api/admin/scale-configs
func CreateScaleConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body ScaleConfigRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}

		sc := models.ScaleConfig{Active: true}
		body.apply(&sc)
		Normalize(&sc)
		if err := Validate(sc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if nameTaken(sc.Name, 0) {
			return fiber.NewError(fiber.StatusBadRequest, "Ya existe una báscula con ese nombre")
		}

		if err := database.DB.Create(&sc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo guardar la báscula")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityScaleConfig,
			EntityID:    sc.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Báscula creada: %s (%s)", sc.Name, sc.Port),
			After:       sc,
		})

		return c.Status(fiber.StatusCreated).JSON(toResponse(sc))
	}
}

// PUT /api/admin/scale-configs/:id
func UpdateScaleConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var sc models.ScaleConfig
		if err := database.DB.First(&sc, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Báscula no encontrada")
		}
		before := sc

		var body ScaleConfigRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		body.apply(&sc)
		Normalize(&sc)
		if err := Validate(sc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if nameTaken(sc.Name, sc.ID) {
			return fiber.NewError(fiber.StatusBadRequest, "Ya existe una báscula con ese nombre")
		}

		if err := database.DB.Save(&sc).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo actualizar la báscula")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityScaleConfig,
			EntityID:    sc.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Báscula actualizada: %s", sc.Name),
			Before:      before,
			After:       sc,
		})

		return c.JSON(toResponse(sc))
	}
}

// DELETE /api/admin/scale-configs/:id
func DeleteScaleConfigHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, userName, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var sc models.ScaleConfig
		if err := database.DB.First(&sc, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Báscula no encontrada")
		}
		if err := database.DB.Delete(&models.ScaleConfig{}, "id = ?", sc.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "No se pudo eliminar la báscula")
		}

		_ = audit.WriteLog(audit.LogOptions{
			UserID:      userID,
			UserName:    userName,
			EntityType:  audit.EntityScaleConfig,
			EntityID:    sc.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Báscula eliminada: %s", sc.Name),
			Before:      sc,
		})

		return c.SendStatus(fiber.StatusNoContent)
	}
}

// POST /api/scale-configs/:id/parse
// Aplica el patrón de la báscula (o uno de prueba) a una respuesta cruda.
func ParseWeightHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var sc models.ScaleConfig
		if err := database.DB.First(&sc, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Báscula no encontrada")
		}

		var body ParseRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Datos inválidos")
		}
		pattern := sc.WeightRegex
		if body.Pattern != "" {
			pattern = body.Pattern
		}

		w, err := ExtractWeight(pattern, body.Raw)
		if err != nil {
			if errors.Is(err, ErrNoMatch) {
				return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
			}
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"weight":  w,
			"pattern": pattern,
		})
	}
}
