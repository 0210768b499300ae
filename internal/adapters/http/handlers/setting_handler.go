package handlers

import (
	"errors"

	"coopfin-backend/internal/core/services"
	"coopfin-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SettingHandler handles organization settings endpoints
type SettingHandler struct {
	settingService *services.SettingService
}

// NewSettingHandler creates a new setting handler
func NewSettingHandler(settingService *services.SettingService) *SettingHandler {
	return &SettingHandler{settingService: settingService}
}

// UpdateSettingsRequest represents settings update request body
type UpdateSettingsRequest struct {
	NotifyOnApproval   *bool `json:"notify_on_approval"`
	NotifyOnRejection  *bool `json:"notify_on_rejection"`
	NotifyOnAssignment *bool `json:"notify_on_assignment"`
	ReminderHour       *int  `json:"reminder_hour"`
}

// Get handles fetching settings
// @Summary Get settings
// @Description Get the organization's notification and reminder settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /settings [get]
func (h *SettingHandler) Get(c *fiber.Ctx) error {
	setting, err := h.settingService.Get(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to get settings")
	}

	return response.Success(c, "Settings retrieved successfully", fiber.Map{"settings": setting})
}

// Update handles settings updates
// @Summary Update settings
// @Description Update the organization's notification and reminder settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body UpdateSettingsRequest true "Settings data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /settings [put]
func (h *SettingHandler) Update(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	setting, err := h.settingService.Update(c.Context(), &services.UpdateSettingsInput{
		NotifyOnApproval:   req.NotifyOnApproval,
		NotifyOnRejection:  req.NotifyOnRejection,
		NotifyOnAssignment: req.NotifyOnAssignment,
		ReminderHour:       req.ReminderHour,
	}, userID)
	if err != nil {
		if errors.Is(err, services.ErrInvalidReminderHour) {
			return response.BadRequest(c, "Reminder hour must be between 0 and 23")
		}
		return response.InternalServerError(c, "Failed to update settings")
	}

	return response.Success(c, "Settings updated successfully", fiber.Map{"settings": setting})
}
