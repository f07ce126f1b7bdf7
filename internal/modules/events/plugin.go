package events

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"gorm.io/gorm"
)

// Event is an upcoming or past community event.
type Event struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Location    string         `gorm:"size:200" json:"location"`
	ImageURL    string         `gorm:"size:500" json:"image_url,omitempty"`
	StartsAt    time.Time      `gorm:"index;not null" json:"starts_at"`
	EndsAt      *time.Time     `json:"ends_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ID() string { return "events" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Event{}}
}

func (m *Module) RegisterRoutes(public fiber.Router, _ fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	public.Get("/events", h.list)
	public.Get("/events/:id", h.get)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	admin.Post("/events", h.create)
	admin.Put("/events/:id", h.update)
	admin.Delete("/events/:id", h.remove)
}

type handler struct {
	db *gorm.DB
}

type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Location    string     `json:"location"`
	ImageURL    string     `json:"image_url"`
	StartsAt    *time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// list returns upcoming events by default; ?past=true flips to history.
func (h *handler) list(c *fiber.Ctx) error {
	var items []Event
	query := h.db.Order("starts_at ASC").Where("starts_at >= ?", time.Now())
	if c.Query("past") == "true" {
		query = h.db.Order("starts_at DESC").Where("starts_at < ?", time.Now())
	}
	if err := query.Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch events",
		})
	}
	return c.JSON(fiber.Map{"events": items})
}

func (h *handler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid event ID",
		})
	}
	var event Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Event not found",
		})
	}
	return c.JSON(event)
}

func (h *handler) create(c *fiber.Ctx) error {
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Title == "" || req.StartsAt == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Title and starts_at are required",
		})
	}

	event := Event{
		ID:          uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
		StartsAt:    *req.StartsAt,
		EndsAt:      req.EndsAt,
	}
	if err := h.db.Create(&event).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create event",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

func (h *handler) update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid event ID",
		})
	}
	var event Event
	if err := h.db.First(&event, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Event not found",
		})
	}
	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.StartsAt != nil {
		updates["starts_at"] = *req.StartsAt
	}
	if req.EndsAt != nil {
		updates["ends_at"] = req.EndsAt
	}
	if err := h.db.Model(&event).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update event",
		})
	}
	h.db.First(&event, "id = ?", id)
	return c.JSON(event)
}

func (h *handler) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid event ID",
		})
	}
	if err := h.db.Where("id = ?", id).Delete(&Event{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete event",
		})
	}
	return c.JSON(fiber.Map{"message": "Event deleted successfully"})
}
