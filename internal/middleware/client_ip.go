package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lucverne/bistro-api/internal/geoip"
)

// ClientIP resolves the request's client IP and stores it in context. Behind
// a proxy the first X-Forwarded-For entry wins. In demo mode each tracked
// request instead draws the next address from the rotation, so the dashboard
// cycles through distinct cities without real traffic.
func ClientIP(demoMode bool, rotation *geoip.Rotation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var ip string
		if demoMode && rotation != nil {
			ip = rotation.NextIP()
		} else {
			ip = geoip.ClientIP(c.Get(fiber.HeaderXForwardedFor), c.IP())
		}

		c.Locals("clientIP", ip)

		return c.Next()
	}
}

// RequestIP returns the client IP stored by the ClientIP middleware
func RequestIP(c *fiber.Ctx) string {
	if ip, ok := c.Locals("clientIP").(string); ok && ip != "" {
		return ip
	}
	return c.IP()
}
