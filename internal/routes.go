package internal

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/karloscodes/cartridge"
	cartridgemiddleware "github.com/karloscodes/cartridge/middleware"

	v1 "inkwell/api/v1"
	"inkwell/internal/config"
	"inkwell/internal/http"
	"inkwell/internal/http/middleware"
)

// publicCORSConfig is the permissive CORS setup shared by the public
// tracking endpoints, which are called cross-origin from blog pages.
var publicCORSConfig = &cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept, Authorization, Referrer, User-Agent",
}

// SetupSession configures session management on the server.
func SetupSession(srv *cartridge.Server) {
	cfg := config.GetConfig()
	sessionMgr := cartridge.NewSessionManager(cartridge.SessionConfig{
		CookieName: cfg.AppName + "_session",
		Secret:     cfg.GetSessionSecret(),
		TTL:        time.Duration(cfg.GetLoginSessionTimeout()) * time.Second,
		Secure:     cfg.IsProduction(),
		LoginPath:  "/api/v1/login",
	})
	srv.SetSession(sessionMgr)
}

// MountAppRoutes mounts all application routes using cartridge's route API.
func MountAppRoutes(srv *cartridge.Server) {
	SetupSession(srv)

	cfg := config.GetConfig()
	sessionMgr := srv.Session()
	db := srv.GetDBManager().GetConnection()
	logger := srv.GetLogger()

	// Rate limiting only applies in production; in development and test it
	// would interfere with rapid repeated requests.
	conditionalRateLimiter := func(limiter fiber.Handler) fiber.Handler {
		return func(c *fiber.Ctx) error {
			if cfg.IsProduction() {
				return limiter(c)
			}
			return c.Next()
		}
	}

	// 70 req/min per IP for view tracking, enough for legitimate traffic
	// while capping abuse.
	publicRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(70),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// 10 req/min on login to slow brute force attempts.
	authRateLimiter := conditionalRateLimiter(cartridgemiddleware.RateLimiter(
		cartridgemiddleware.WithMax(10),
		cartridgemiddleware.WithDuration(time.Minute),
	))

	// Tracking is called by browser fetches and by server-side blog
	// renderers alike, so the browser-only Sec-Fetch-Site check is off
	// for this route.
	publicAPIConfig := &cartridge.RouteConfig{
		EnableCORS:         true,
		WriteConcurrency:   false,
		EnableSecFetchSite: cartridge.Bool(false),
		CustomMiddleware:   []fiber.Handler{publicRateLimiter},
		CORSConfig:         publicCORSConfig,
	}

	loginConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{authRateLimiter},
	}

	authedConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{sessionMgr.Middleware()},
	}

	adminConfig := &cartridge.RouteConfig{
		CustomMiddleware: []fiber.Handler{
			sessionMgr.Middleware(),
			middleware.RequireAdmin(db, logger, sessionMgr),
		},
	}

	// === HEALTH ===
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// === PUBLIC TRACKING ===
	srv.Post("/blogs/:id/track-view", v1.TrackViewHandler, publicAPIConfig)
	srv.Options("/blogs/:id/track-view", func(ctx *cartridge.Context) error {
		return ctx.SendStatus(fiber.StatusNoContent)
	}, publicAPIConfig)

	// === AUTHENTICATION ===
	srv.Post("/api/v1/login", http.ProcessLoginAction, loginConfig)
	srv.Post("/api/v1/logout", http.LogoutAction, authedConfig)

	// === AUTHOR ANALYTICS ===
	srv.Get("/blogs/:id/analytics", http.PostAnalyticsAction, authedConfig)
	srv.Get("/users/:id/blogs/analytics", http.AuthorAnalyticsAction, authedConfig)

	// === ADMIN ANALYTICS ===
	srv.Get("/admin/analytics", http.AdminAnalyticsAction, adminConfig)
	srv.Get("/admin/analytics/trends", http.AdminTrendsAction, adminConfig)
}
