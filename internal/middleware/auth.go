package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/services"
	"github.com/lucverne/bistro-api/internal/types"
	"gorm.io/gorm"
)

// AuthAdmin validates that the request carries an admin token
func AuthAdmin(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, db, secret, true, "orders.authorization.admin")
	}
}

// AuthUser validates that the request carries a valid user token
func AuthUser(db *gorm.DB, secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return authorize(c, db, secret, false, "orders.authorization.user")
	}
}

// authorize performs the authorization check: bearer token extraction, token
// validation, user lookup, and the role gate. The authenticated user is
// stored in context for handlers.
func authorize(c *fiber.Ctx, db *gorm.DB, secret string, adminOnly bool, errorType string) error {
	token := bearerToken(c)
	if token == "" {
		return &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: "Authorization token missing",
			Type:    errorType,
		}
	}

	claims, err := services.ParseToken(token, secret)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: fmt.Sprintf("Invalid token: %v", err),
			Type:    errorType,
		}
	}

	user, err := services.GetUser(db, claims.UserID)
	if err != nil {
		return &types.CustomError{
			Code:    fiber.StatusUnauthorized,
			Message: "User no longer exists",
			Type:    errorType,
		}
	}

	if adminOnly && !user.IsAdmin() {
		return &types.CustomError{
			Code:    fiber.StatusForbidden,
			Message: "Admin privileges required",
			Type:    errorType,
		}
	}

	c.Locals("user", user)
	c.Locals("claims", claims)

	return c.Next()
}

// bearerToken extracts the token from the Authorization header
func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// CurrentUser returns the authenticated user stored by the auth middleware
func CurrentUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	return nil
}
