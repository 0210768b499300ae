package handlers

import (
	"errors"

	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler handles report endpoints
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// Build handles report generation
// @Summary Build report
// @Description Build a report by type: financial-summary, dues-compliance or payments
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param type path string true "Report type"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /reports/{type} [get]
func (h *ReportHandler) Build(c *fiber.Ctx) error {
	report, err := h.reportService.Build(c.Context(), &services.ReportInput{
		Type: c.Params("type"),
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnknownReportType):
			return response.BadRequest(c, "Unknown report type")
		case errors.Is(err, services.ErrInvalidDateRange):
			return response.BadRequest(c, "Invalid date range, use YYYY-MM-DD")
		default:
			return response.InternalServerError(c, "Failed to build report")
		}
	}

	return response.Success(c, "Report built successfully", report)
}
