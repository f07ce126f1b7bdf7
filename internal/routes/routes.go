package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/handlers"
	"github.com/ronsenministries/community-backend/internal/middleware"
	"github.com/ronsenministries/community-backend/internal/models"
	"github.com/ronsenministries/community-backend/internal/modules"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	settingsHandler *handlers.SettingsHandler,
	mods []modules.Module,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Health)

	// Site settings (public read)
	api.Get("/settings", settingsHandler.GetAll)

	// Auth — public, with a stricter limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/google", authHandler.GoogleSignIn)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/reset-password", authHandler.ResetPassword)
	auth.Post("/reset-password/complete", authHandler.CompleteReset)

	// Session-holder routes get JWT applied individually so the middleware
	// never touches the public surface.
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Get("/auth/me", middleware.JWTProtected(cfg), authHandler.Me)
	api.Post("/forum/guidelines/ack", middleware.JWTProtected(cfg), authHandler.AcknowledgeGuidelines)

	// Admin back-office: valid session plus a fresh admin-role check per
	// request.
	admin := api.Group("/admin",
		middleware.JWTProtected(cfg),
		middleware.RequireRole(db, cfg, models.RoleAdmin),
	)
	admin.Put("/settings", settingsHandler.Set)
	admin.Delete("/settings/:key", settingsHandler.Delete)

	// Module routes. Each module mounts into the public surface, the
	// session-protected group, and (if it has one) the admin panel.
	protected := api.Group("/p", middleware.JWTProtected(cfg))
	for _, m := range mods {
		m.RegisterRoutes(api, protected, db, cfg)
		if am, ok := m.(modules.AdminModule); ok {
			am.RegisterAdminRoutes(admin, db, cfg)
		}
	}
}
