// Package v1 holds the public JSON API handlers.
package v1

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"inkwell/internal/views"
)

const (
	msgViewTracked    = "View tracked"
	msgViewSuppressed = "View already counted"
	errInvalidPostID  = "Invalid post id"
)

// TrackViewParams is the optional JSON body of a track-view request. Both
// identity fields may be absent; the client IP then carries deduplication.
type TrackViewParams struct {
	SessionID string `json:"sessionId"`
	UserID    uint   `json:"userId"`
	Referrer  string `json:"referrer"`
}

// TrackViewHandler records one view of a post. Tracking is best-effort: a
// suppressed duplicate still answers 200 so clients never special-case it.
func TrackViewHandler(ctx *cartridge.Context) error {
	postID, err := ctx.ParamsInt("id")
	if err != nil || postID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": errInvalidPostID,
		})
	}

	var params TrackViewParams
	// An empty or malformed body is fine, tracking falls back to IP identity.
	if err := ctx.BodyParser(&params); err != nil {
		ctx.Logger.Debug("track-view body not parsed", slog.Any("error", err))
	}

	referrer := params.Referrer
	if referrer == "" {
		referrer = ctx.Get("Referer")
	}

	userAgent := ctx.Get("User-Agent")
	if forwardedUA := ctx.Get("X-Forwarded-User-Agent"); forwardedUA != "" {
		userAgent = forwardedUA
	}

	input := &views.RecordViewInput{
		PostID:    uint(postID),
		SessionID: params.SessionID,
		UserID:    params.UserID,
		IPAddress: getClientIP(ctx.Ctx),
		UserAgent: userAgent,
		Referrer:  referrer,
	}

	recorded, err := views.RecordView(ctx.DBManager, ctx.Logger, input)
	if err != nil {
		ctx.Logger.Error("Failed to record view", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to track view",
		})
	}

	message := msgViewTracked
	if !recorded {
		message = msgViewSuppressed
	}
	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}
