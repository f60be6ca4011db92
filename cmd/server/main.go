package main

import (
	"log"
	"strings"

	"pos-analytics/internal/audit"
	"pos-analytics/internal/auth"
	"pos-analytics/internal/config"
	"pos-analytics/internal/dashboard"
	"pos-analytics/internal/database"
	"pos-analytics/internal/inventory"
	"pos-analytics/internal/models"
	"pos-analytics/internal/reports"
	"pos-analytics/internal/sales"
	"pos-analytics/internal/scale"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Println("Error inesperado:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error inesperado del servidor",
			})
		},
	})

	app.Use(recover.New())
	if !cfg.Production {
		app.Use(logger.New())
	}

	// CORS: orígenes separados por coma
	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:  strings.Join(corsOrigins, ","),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		ExposeHeaders: "Content-Disposition",
	}))

	api := app.Group("/api")

	// Auth pública
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Solo administradores
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", auth.CreateUserHandler())
	adminRoutes.Get("/users", auth.ListUsersHandler())

	adminRoutes.Post("/products", inventory.CreateProductHandler())
	adminRoutes.Put("/products/:id", inventory.UpdateProductHandler())
	adminRoutes.Delete("/products/:id", inventory.DeleteProductHandler())
	adminRoutes.Post("/categories", inventory.CreateCategoryHandler())
	adminRoutes.Delete("/categories/:id", inventory.DeleteCategoryHandler())
	adminRoutes.Post("/suppliers", inventory.CreateSupplierHandler())
	adminRoutes.Post("/stock-counts", inventory.CreateStockCountHandler())

	adminRoutes.Post("/scale-configs", scale.CreateScaleConfigHandler())
	adminRoutes.Put("/scale-configs/:id", scale.UpdateScaleConfigHandler())
	adminRoutes.Delete("/scale-configs/:id", scale.DeleteScaleConfigHandler())

	adminRoutes.Get("/audit-logs", audit.ListAuditLogsHandler())
	adminRoutes.Post("/audit-logs/:id/undo", audit.UndoAuditLogHandler())

	// Catálogo
	protected.Get("/products", inventory.ListProductsHandler())
	protected.Get("/categories", inventory.ListCategoriesHandler())
	protected.Get("/suppliers", inventory.ListSuppliersHandler())
	protected.Get("/stock-counts", inventory.ListStockCountsHandler())

	// Ventas
	protected.Get("/clients", sales.ListClientsHandler())
	protected.Post("/clients", sales.CreateClientHandler())
	protected.Post("/sales", sales.CreateSaleHandler())
	protected.Get("/sales", sales.ListSalesHandler())
	protected.Get("/sales/:id", sales.GetSaleHandler())
	protected.Post("/sales/:id/complete", sales.CompleteSaleHandler())
	protected.Post("/sales/:id/cancel", sales.CancelSaleHandler())

	protected.Get("/dashboard/sales-chart", dashboard.SalesChartHandler())

	// Básculas
	protected.Get("/scale-configs", scale.ListScaleConfigsHandler())
	protected.Get("/scale-configs/:id", scale.GetScaleConfigHandler())
	protected.Post("/scale-configs/:id/parse", scale.ParseWeightHandler())

	// Análisis y reportes
	analysis := protected.Group("/analysis", auth.RequireRole(models.RoleAdmin))
	analysis.Get("/:kind", reports.AnalysisHandler(cfg))
	analysis.Get("/:kind/export", reports.AnalysisExportHandler(cfg))

	reportRoutes := protected.Group("/reports", auth.RequireRole(models.RoleAdmin))
	reportRoutes.Get("/sales", reports.SalesReportHandler(cfg))
	reportRoutes.Get("/stock", reports.StockReportHandler(cfg))

	log.Println("Servidor escuchando en el puerto:", cfg.HTTPPort)
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}
}
