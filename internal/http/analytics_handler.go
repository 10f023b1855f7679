// Package http holds the authenticated JSON handlers for the author and
// admin dashboards.
package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"inkwell/internal/analytics"
	"inkwell/internal/posts"
	"inkwell/internal/timefilter"
	"inkwell/internal/users"
)

const defaultPostsPerPage = 10

// PostAnalyticsAction serves GET /blogs/:id/analytics. Authors can only
// read analytics for their own posts; admins can read any post's.
func PostAnalyticsAction(ctx *cartridge.Context) error {
	postID, err := ctx.ParamsInt("id")
	if err != nil || postID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid post id"})
	}

	db := ctx.DB()
	filter := timefilter.ParseFilter(ctx.Query("timeFilter"))

	post, err := posts.GetPostByID(db, uint(postID))
	if err != nil {
		var notFound *posts.PostNotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(http.StatusNotFound).JSON(fiber.Map{"error": "Post not found"})
		}
		ctx.Logger.Error("Failed to load post", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load post"})
	}

	if !canAccessUser(ctx, post.UserID) {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	result, err := analytics.ForPost(db, ctx.Logger, post.ID, filter, time.Now().UTC())
	if err != nil {
		ctx.Logger.Error("Failed to compute post analytics",
			slog.Int("postId", postID), slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute analytics"})
	}

	result.Breakdowns = presentBreakdowns(result.Breakdowns)
	return ctx.JSON(result)
}

// AuthorAnalyticsAction serves GET /users/:id/blogs/analytics: aggregate
// stats across every post the author owns plus a paginated post list.
func AuthorAnalyticsAction(ctx *cartridge.Context) error {
	userID, err := ctx.ParamsInt("id")
	if err != nil || userID <= 0 {
		return ctx.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "Invalid user id"})
	}

	if !canAccessUser(ctx, uint(userID)) {
		return ctx.Status(http.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	}

	filter := timefilter.ParseFilter(ctx.Query("timeFilter"))

	page := ctx.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	perPage := ctx.QueryInt("perPage", defaultPostsPerPage)
	if perPage < 1 || perPage > 100 {
		perPage = defaultPostsPerPage
	}

	listFilters := posts.PostFilters{
		Search: ctx.Query("search"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}

	result, err := analytics.ForAuthor(ctx.DB(), ctx.Logger, uint(userID), filter, listFilters, time.Now().UTC())
	if err != nil {
		ctx.Logger.Error("Failed to compute author analytics",
			slog.Int("userId", userID), slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute analytics"})
	}

	result.Breakdowns = presentBreakdowns(result.Breakdowns)
	return ctx.JSON(result)
}

// canAccessUser reports whether the session user is ownerID or an admin.
func canAccessUser(ctx *cartridge.Context, ownerID uint) bool {
	sessionUserID, authenticated := ctx.Session.GetUserID(ctx.Ctx)
	if !authenticated {
		return false
	}
	if sessionUserID == ownerID {
		return true
	}

	user, err := users.FindByID(ctx.DB(), sessionUserID)
	if err != nil {
		return false
	}
	return user.Admin
}
