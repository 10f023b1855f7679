package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/karloscodes/cartridge"

	"inkwell/internal/analytics"
	"inkwell/internal/timefilter"
)

// AdminAnalyticsAction serves GET /admin/analytics: site-wide totals plus
// period comparisons for the requested timeFilter.
func AdminAnalyticsAction(ctx *cartridge.Context) error {
	filter := timefilter.ParseFilter(ctx.Query("timeFilter"))

	result, err := analytics.ForAdmin(ctx.DB(), ctx.Logger, filter, time.Now().UTC())
	if err != nil {
		ctx.Logger.Error("Failed to compute admin analytics", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute analytics"})
	}

	return ctx.JSON(result)
}

// AdminTrendsAction serves GET /admin/analytics/trends: four zero-filled
// series (views, likes, new users, new subscribers) for the requested range.
func AdminTrendsAction(ctx *cartridge.Context) error {
	chartRange := timefilter.ParseRange(ctx.Query("range"))

	result, err := analytics.ForAdminTrends(ctx.DB(), ctx.Logger, chartRange, time.Now().UTC())
	if err != nil {
		ctx.Logger.Error("Failed to compute admin trends", slog.Any("error", err))
		return ctx.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to compute trends"})
	}

	return ctx.JSON(result)
}
