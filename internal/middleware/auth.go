package middleware

import (
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CompanyClaims carries the authenticated company identity issued by the
// account platform.
type CompanyClaims struct {
	CompanyID string `json:"company_id"`
	Admin     bool   `json:"admin,omitempty"`
	jwt.RegisteredClaims
}

// CompanyAuth validates the bearer token and stores the calling company's id
// in the request context. Every verification operation is scoped to this id.
func CompanyAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := parseClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing or invalid authorization token",
			})
		}

		c.Locals("companyID", claims.CompanyID)
		c.Locals("isAdmin", claims.Admin)
		return c.Next()
	}
}

// AdminOnly requires the admin claim on top of CompanyAuth.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isAdmin, _ := c.Locals("isAdmin").(bool)
		if !isAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		return c.Next()
	}
}

// CompanyID returns the authenticated company id set by CompanyAuth.
func CompanyID(c *fiber.Ctx) string {
	id, _ := c.Locals("companyID").(string)
	return id
}

func parseClaims(c *fiber.Ctx) (*CompanyClaims, error) {
	authHeader := strings.TrimSpace(c.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, jwt.ErrTokenMalformed
	}

	claims := &CompanyClaims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
		// Accept HMAC only.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid || claims.CompanyID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
