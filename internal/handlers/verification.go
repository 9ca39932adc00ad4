package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Andy54411/taskilo-payout-backend/internal/middleware"
	"github.com/Andy54411/taskilo-payout-backend/internal/models"
	"github.com/Andy54411/taskilo-payout-backend/internal/services"
)

// VerificationHandler handles bank verification requests
type VerificationHandler struct {
	service *services.VerificationService
}

// NewVerificationHandler creates a new verification handler
func NewVerificationHandler(service *services.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		service: service,
	}
}

// Initiate starts a verification cycle for a payout account
func (h *VerificationHandler) Initiate(c *fiber.Ctx) error {
	var req models.BankVerificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.service.Initiate(c.Context(), middleware.CompanyID(c), &req)
	if err != nil {
		return verificationError(c, err)
	}

	// Idempotent short-circuits are successes, not failures.
	if result.AlreadyVerified || result.AlreadyPending {
		return c.JSON(result)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// VerifyCode checks a code the account holder read off their statement
func (h *VerificationHandler) VerifyCode(c *fiber.Ctx) error {
	var req struct {
		Code string `json:"code"`
	}
	if err := c.BodyParser(&req); err != nil || req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Verification code is required",
		})
	}

	result, err := h.service.VerifyCode(c.Context(), middleware.CompanyID(c), c.Params("id"), req.Code)
	if err != nil {
		var mismatch *services.CodeMismatchError
		if errors.As(err, &mismatch) {
			return c.JSON(fiber.Map{
				"verified":           false,
				"remaining_attempts": mismatch.RemainingAttempts,
			})
		}
		return verificationError(c, err)
	}

	return c.JSON(result)
}

// Resend expires the current cycle and dispatches a fresh probe
func (h *VerificationHandler) Resend(c *fiber.Ctx) error {
	result, err := h.service.Resend(c.Context(), middleware.CompanyID(c), c.Params("id"))
	if err != nil {
		return verificationError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// verificationError maps service errors onto HTTP responses. Not-found and
// foreign-owner lookups answer the same to avoid probing for record ids.
func verificationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrRecordNotFound), errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Verification not found",
		})
	case errors.Is(err, services.ErrCodeExpired):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error":  "Verification code expired",
			"action": "resend",
		})
	case errors.Is(err, services.ErrAttemptsExhausted):
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error":  "Too many incorrect attempts",
			"action": "resend",
		})
	case errors.Is(err, services.ErrDispatchFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Could not send the verification transfer, please try again",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Verification failed",
		})
	}
}
