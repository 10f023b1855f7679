// Package middleware holds route middleware shared by the admin surface.
package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"gorm.io/gorm"

	"inkwell/internal/users"
)

// RequireAdmin rejects requests whose session user is not an admin. Must run
// after the session middleware so the session cookie is already validated.
func RequireAdmin(db *gorm.DB, logger *slog.Logger, session *cartridge.SessionManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, authenticated := session.GetUserID(c)
		if !authenticated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}

		user, err := users.FindByID(db, userID)
		if err != nil {
			logger.Error("Failed to load session user", slog.Any("error", err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
		}
		if !user.Admin {
			logger.Debug("Non-admin user denied admin route",
				slog.Uint64("userId", uint64(userID)),
				slog.String("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
		}

		return c.Next()
	}
}
