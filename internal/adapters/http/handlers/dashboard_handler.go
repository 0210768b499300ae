package handlers

import (
	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// Admin handles the organization-wide dashboard
// @Summary Admin dashboard
// @Description Aggregated counts, collected totals and outstanding balances across the organization
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	data, err := h.dashboardService.GetAdminDashboard(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}

// Member handles the per-member dashboard
// @Summary Member dashboard
// @Description The authenticated member's balances, totals and recent activity
// @Tags Dashboard
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /dashboard/me [get]
func (h *DashboardHandler) Member(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetMemberDashboard(c.Context(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to build dashboard")
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
