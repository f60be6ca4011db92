package reports

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/config"
	"pos-analytics/internal/export"
	"pos-analytics/internal/models"

	"github.com/gofiber/fiber/v2"
)

func exportFormat(c *fiber.Ctx) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(c.Query("format", "xlsx"))); f {
	case "xlsx", "excel":
		return "xlsx", nil
	case "pdf":
		return "pdf", nil
	default:
		return "", fiber.NewError(fiber.StatusBadRequest, "Formato inválido (xlsx | pdf)")
	}
}

// sendExport writes r under cfg.ExportDir, records the export in the audit
// trail and sends the file as an attachment. The file is removed once read;
// ExportDir only holds files while a request builds them.
func sendExport(c *fiber.Ctx, cfg *config.Config, r export.Report, format string) error {
	userID, userName, err := auth.CurrentUser(c)
	if err != nil {
		return err
	}

	var path string
	switch format {
	case "pdf":
		path, err = export.WritePDF(cfg.ExportDir, r)
	default:
		path, err = export.WriteExcel(cfg.ExportDir, r)
	}
	if err != nil {
		log.Printf("[reports.export] %s: %v", r.Title, err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo generar el archivo")
	}

	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if rmErr := os.Remove(path); rmErr != nil {
		log.Printf("[reports.export] no se pudo borrar %s: %v", name, rmErr)
	}
	if err != nil {
		log.Printf("[reports.export] %s: %v", name, err)
		return fiber.NewError(fiber.StatusInternalServerError, "No se pudo leer el archivo")
	}

	_ = audit.WriteLog(audit.LogOptions{
		UserID:      userID,
		UserName:    userName,
		EntityType:  audit.EntityReport,
		Action:      models.AuditActionExport,
		Description: fmt.Sprintf("Reporte exportado: %s (%s)", r.Title, name),
		After:       fiber.Map{"file": name, "rows": len(r.Rows), "period": r.Period},
	})

	c.Attachment(name)
	return c.Send(data)
}

// GET /api/analysis/:kind/export?format=xlsx|pdf&...
// Acepta los mismos filtros que la consulta del análisis.
func AnalysisExportHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		a, err := lookup(c)
		if err != nil {
			return err
		}
		format, err := exportFormat(c)
		if err != nil {
			return err
		}
		res, err := run(c, cfg, a)
		if err != nil {
			return err
		}
		return sendExport(c, cfg, buildReport(a, res), format)
	}
}
