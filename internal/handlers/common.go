package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/middleware"
	"github.com/lucverne/bistro-api/internal/models"
	"github.com/lucverne/bistro-api/internal/utils"
)

// paramID parses a numeric path parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// queryInt parses an integer query parameter with a fallback
func queryInt(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// requestUser returns the authenticated user or writes a 401. A nil user
// here means a route was registered without its auth middleware.
func requestUser(c *fiber.Ctx, errorType string) (*models.User, error) {
	user := middleware.CurrentUser(c)
	if user == nil {
		return nil, utils.ErrorResponse(c, "Authentication required", fiber.StatusUnauthorized, errorType)
	}
	return user, nil
}
