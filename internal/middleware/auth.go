package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
)

// JWTProtected rejects requests without a valid session. The 401 body carries
// the login entry point so clients redirect there instead of guessing.
// Protected content is never rendered for an unresolved or anonymous session.
func JWTProtected(cfg *config.Config) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:    true,
				Message:  "Unauthorized: invalid or expired token",
				Redirect: cfg.LoginURL,
			})
		},
	})
}
