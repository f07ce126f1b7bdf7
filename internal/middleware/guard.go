package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/models"
	"github.com/ronsenministries/community-backend/internal/session"
	"gorm.io/gorm"
)

// RequireRole gates a route on an exact role match. The role is re-read from
// the profile row on every request, never cached from the token, so a role
// change takes effect on the next request. A mismatch answers 403 without
// describing the protected resource.
//
// Short-circuits before the role read:
//  1. X-Admin-Token header matching the configured operator token
//  2. the config-based admin email allow-list (admin routes only)
func RequireRole(db *gorm.DB, cfg *config.Config, role string) fiber.Handler {
	adminEmails := cfg.AdminEmailList()

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && role == models.RoleAdmin {
			if c.Get("X-Admin-Token") == cfg.AdminToken {
				return c.Next()
			}
		}

		userID, err := session.UserID(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized", Redirect: cfg.LoginURL,
			})
		}

		if role == models.RoleAdmin {
			email := session.Email(c)
			for _, admin := range adminEmails {
				if admin == email {
					return c.Next()
				}
			}
		}

		// Fresh profile read per request; a store failure degrades to no
		// access rather than a 500.
		var user models.User
		if err := db.Select("role").First(&user, "id = ?", userID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				slog.Error("role lookup failed", "user_id", userID.String(), "error", err)
			}
			return forbidden(c)
		}

		if user.Role != role {
			return forbidden(c)
		}
		return c.Next()
	}
}

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
		Error: true, Message: "Forbidden", Redirect: "/unauthorized",
	})
}
