package forum

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/notify"
	"github.com/ronsenministries/community-backend/internal/services"
	"gorm.io/gorm"
)

type Module struct {
	rdb      *redis.Client
	hub      *Hub
	notifier *notify.Publisher
	filter   *services.ModerationService
}

func New(rdb *redis.Client, hub *Hub, notifier *notify.Publisher, filter *services.ModerationService) *Module {
	return &Module{rdb: rdb, hub: hub, notifier: notifier, filter: filter}
}

func (m *Module) ID() string { return "forum" }

func (m *Module) Models() []interface{} {
	return []interface{}{
		&Topic{},
		&Reply{},
		&Report{},
	}
}

func (m *Module) service(db *gorm.DB, cfg *config.Config) *Service {
	return NewService(db, m.rdb, m.hub, m.notifier, m.filter, markerTTL(cfg))
}

func (m *Module) RegisterRoutes(public fiber.Router, protected fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(m.service(db, cfg), m.hub)

	// Feed is readable without a session.
	public.Get("/forum/topics", h.GetFeed)
	public.Get("/forum/topics/stream", h.StreamFeed)
	public.Get("/forum/categories", h.GetCategories)
	public.Get("/forum/topics/:id", h.GetTopic)
	public.Get("/forum/topics/:id/replies", h.ListReplies)

	// Posting, liking and reporting require a session.
	protected.Post("/forum/topics", h.CreateTopic)
	protected.Post("/forum/topics/:id/replies", h.CreateReply)
	protected.Post("/forum/topics/:id/like", h.Like)
	protected.Post("/forum/topics/:id/report", h.Report)
	protected.Get("/forum/likes", h.ListLiked)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, cfg *config.Config) {
	h := NewHandler(m.service(db, cfg), m.hub)

	admin.Get("/forum/reports", h.ListReports)
	admin.Put("/forum/reports/:id", h.ActionReport)
	admin.Put("/forum/topics/:id/sticky", h.SetSticky)
}

// markerTTL bounds session-scoped like/report markers to the session's
// maximum lifetime.
func markerTTL(cfg *config.Config) time.Duration {
	if cfg.JWTRefreshExpiry > 0 {
		return cfg.JWTRefreshExpiry
	}
	return 168 * time.Hour
}
