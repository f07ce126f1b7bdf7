package modules

import (
	"github.com/gofiber/fiber/v2"
	"github.com/ronsenministries/community-backend/internal/config"
	"gorm.io/gorm"
)

// Module defines the interface every site module implements (forum, blog,
// programs, gallery, testimonials, events, volunteers).
type Module interface {
	// ID returns the unique module identifier.
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts the module's routes. public has no auth
	// middleware; protected requires a valid session.
	RegisterRoutes(public fiber.Router, protected fiber.Router, db *gorm.DB, cfg *config.Config)
}

// AdminModule extends Module with admin-only route registration. The admin
// group has both JWT and role middleware applied.
type AdminModule interface {
	Module

	RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, cfg *config.Config)
}
