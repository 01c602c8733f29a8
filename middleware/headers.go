package middleware

import "github.com/gofiber/fiber/v2"

// APIHeaders sets response headers for the JSON API. Availability answers
// change as soon as someone registers, so nothing may be cached.
func APIHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
		c.Set(fiber.HeaderXFrameOptions, "DENY")
		c.Set(fiber.HeaderReferrerPolicy, "no-referrer")
		c.Set("X-Permitted-Cross-Domain-Policies", "none")
		c.Set(fiber.HeaderCacheControl, "no-store")

		// Remove potentially revealing headers
		c.Set(fiber.HeaderServer, "")
		c.Set(fiber.HeaderXPoweredBy, "")

		return c.Next()
	}
}
