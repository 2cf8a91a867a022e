package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stocktrack-api/internal/application/dto"
	"github.com/jhoicas/stocktrack-api/internal/application/report"
	"github.com/jhoicas/stocktrack-api/internal/domain"
)

// ReportHandler maneja la recepción de reportes de stock.
type ReportHandler struct {
	uc *report.SubmitReportUseCase
}

// NewReportHandler construye el handler.
func NewReportHandler(uc *report.SubmitReportUseCase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Submit procesa un reporte de stock completo: todo o nada. Devuelve 201 si el
// ledger aplicó el reporte, 400 si algún fragmento es inválido, 404 si la
// ubicación o algún producto no existen.
func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitReportRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if in.Location == "" || len(in.Fragments) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "location y fragments son obligatorios"})
	}

	var at time.Time
	if in.Timestamp != nil {
		at = *in.Timestamp
	}

	err := h.uc.SubmitReport(c.Context(), in.Location, in.Fragments, at)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fragmento de reporte inválido"})
		}
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "ubicación o producto no encontrado"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "reporte procesado"})
}
