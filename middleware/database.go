package middleware

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yourusername/namecheck/db"
)

// DBPing checks the database connection before availability queries run.
// If the connection is lost, it attempts to reconnect.
func DBPing() fiber.Handler {
	return DBPingWith(db.Ping, db.Reconnect, 2*time.Second)
}

// DBPingWith is DBPing with explicit ping and reconnect functions.
func DBPingWith(ping func(context.Context) error, reconnect func() error, timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()

		if err := ping(ctx); err != nil {
			log.Printf("db ping failed (%v), reconnecting", err)
			if reconErr := reconnect(); reconErr != nil {
				log.Printf("db reconnect failed: %v", reconErr)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "Service temporarily unavailable",
				})
			}
			log.Println("db reconnected")
		}
		return c.Next()
	}
}
