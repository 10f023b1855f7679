package http

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"
	"github.com/karloscodes/cartridge/crypto"

	"inkwell/internal/users"
)

// ProcessLoginAction handles the JSON login request and sets the session
// cookie on success.
func ProcessLoginAction(ctx *cartridge.Context) error {
	var params struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.BodyParser(&params); err != nil || params.Email == "" || params.Password == "" {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Email and password are required"})
	}

	user, err := users.FindByEmail(ctx.DB(), params.Email)

	// Verify against a dummy hash when the user does not exist so response
	// time does not reveal whether the email is registered.
	var passwordValid bool
	if err != nil {
		ctx.Logger.Debug("User not found during login", slog.String("email", params.Email))
		dummyHash := "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy" // bcrypt hash of "dummy"
		crypto.VerifyPassword(dummyHash, params.Password)
	} else {
		passwordValid = crypto.VerifyPassword(user.EncryptedPassword, params.Password)
	}

	if !passwordValid {
		return ctx.Status(http.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid email or password"})
	}

	if err := ctx.Session.SetSession(ctx.Ctx, user.ID); err != nil {
		ctx.Logger.Error("Failed to set session", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Login failed"})
	}

	ctx.Logger.Debug("Login successful",
		slog.String("email", params.Email),
		slog.Int("userId", int(user.ID)))
	return ctx.JSON(fiber.Map{"success": true, "userId": user.ID, "admin": user.Admin})
}

// LogoutAction clears the session.
func LogoutAction(ctx *cartridge.Context) error {
	ctx.Session.ClearSession(ctx.Ctx)
	return ctx.JSON(fiber.Map{"success": true})
}
