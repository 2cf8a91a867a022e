package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktrack-api/internal/application/report"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SubmitReport *report.SubmitReportUseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	reports := api.Group("/reports")
	reportHandler := NewReportHandler(deps.SubmitReport)
	reports.Post("/", reportHandler.Submit)
}
