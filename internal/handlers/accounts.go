package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Andy54411/taskilo-payout-backend/internal/bankid"
	"github.com/Andy54411/taskilo-payout-backend/internal/middleware"
	"github.com/Andy54411/taskilo-payout-backend/internal/services"
)

// AccountsHandler exposes the read-only payout account views
type AccountsHandler struct {
	service *services.VerificationService
}

// NewAccountsHandler creates a new accounts handler
func NewAccountsHandler(service *services.VerificationService) *AccountsHandler {
	return &AccountsHandler{
		service: service,
	}
}

// CheckVerified reports whether an account identity is verified for the
// calling company. The IBAN travels in the body so it never lands in access
// logs.
func (h *AccountsHandler) CheckVerified(c *fiber.Ctx) error {
	var req struct {
		IBAN string `json:"iban"`
	}
	if err := c.BodyParser(&req); err != nil || req.IBAN == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "IBAN is required",
		})
	}
	if err := bankid.Validate(req.IBAN); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	verified, err := h.service.IsVerified(middleware.CompanyID(c), req.IBAN)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to check account",
		})
	}

	return c.JSON(fiber.Map{
		"verified": verified,
	})
}

// ListVerified returns the company's verified payout accounts
func (h *AccountsHandler) ListVerified(c *fiber.Ctx) error {
	accounts, err := h.service.ListVerifiedAccounts(middleware.CompanyID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list accounts",
		})
	}

	return c.JSON(fiber.Map{
		"accounts": accounts,
		"count":    len(accounts),
	})
}
