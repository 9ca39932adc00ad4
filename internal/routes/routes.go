package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Andy54411/taskilo-payout-backend/internal/handlers"
	"github.com/Andy54411/taskilo-payout-backend/internal/middleware"
	"github.com/Andy54411/taskilo-payout-backend/internal/services"
	"github.com/Andy54411/taskilo-payout-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, store storage.Store, verificationService *services.VerificationService) {
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	accountsHandler := handlers.NewAccountsHandler(verificationService)
	adminHandler := handlers.NewAdminHandler(store)

	// API routes, all scoped to the authenticated company
	api := app.Group("/api", middleware.CompanyAuth())

	verifications := api.Group("/bank-verifications")
	verifications.Post("/", verificationHandler.Initiate)
	verifications.Post("/:id/verify", verificationHandler.VerifyCode)
	verifications.Post("/:id/resend", verificationHandler.Resend)

	accounts := api.Group("/bank-accounts")
	accounts.Get("/", accountsHandler.ListVerified)
	accounts.Post("/check", accountsHandler.CheckVerified)

	// Admin routes for support staff
	admin := app.Group("/admin", middleware.CompanyAuth(), middleware.AdminOnly())
	admin.Get("/verifications", adminHandler.ListVerifications)
}
