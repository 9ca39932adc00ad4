package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Andy54411/taskilo-payout-backend/internal/models"
	"github.com/Andy54411/taskilo-payout-backend/internal/storage"
)

// AdminHandler handles support-staff operations
type AdminHandler struct {
	store storage.Store
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(store storage.Store) *AdminHandler {
	return &AdminHandler{
		store: store,
	}
}

var listableStatuses = map[string]bool{
	models.StatusPending:  true,
	models.StatusCodeSent: true,
	models.StatusVerified: true,
	models.StatusFailed:   true,
	models.StatusExpired:  true,
}

// ListVerifications lists verification records by status for support staff.
// The model's JSON shape already withholds the raw IBAN and the secret code.
func (h *AdminHandler) ListVerifications(c *fiber.Ctx) error {
	status := c.Query("status", models.StatusCodeSent)
	if !listableStatuses[status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown status",
		})
	}

	verifications, err := h.store.ListVerificationsByStatus(status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch verifications",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"verifications": verifications,
		"count":         len(verifications),
	})
}
