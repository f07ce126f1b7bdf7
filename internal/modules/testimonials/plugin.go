package testimonials

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/session"
	"gorm.io/gorm"
)

// Testimonial is a community member's story. Submissions are held until
// an administrator approves them for the public site.
type Testimonial struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Author    string         `gorm:"size:100;not null" json:"author"`
	AuthorID  uuid.UUID      `gorm:"type:uuid;index" json:"-"`
	Role      string         `gorm:"size:100" json:"role,omitempty"`
	Quote     string         `gorm:"type:text;not null" json:"quote"`
	Approved  bool           `gorm:"default:false;index" json:"approved"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ID() string { return "testimonials" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Testimonial{}}
}

func (m *Module) RegisterRoutes(public fiber.Router, protected fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	public.Get("/testimonials", h.listApproved)
	protected.Post("/testimonials", h.submit)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	admin.Get("/testimonials/pending", h.listPending)
	admin.Put("/testimonials/:id/approve", h.approve)
	admin.Delete("/testimonials/:id", h.remove)
}

type handler struct {
	db *gorm.DB
}

func (h *handler) listApproved(c *fiber.Ctx) error {
	var items []Testimonial
	if err := h.db.Where("approved = true").Order("created_at DESC").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch testimonials",
		})
	}
	return c.JSON(fiber.Map{"testimonials": items})
}

func (h *handler) submit(c *fiber.Ctx) error {
	var req struct {
		Quote string `json:"quote"`
		Role  string `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Quote) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Quote is required",
		})
	}

	authorID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid session",
		})
	}

	item := Testimonial{
		ID:       uuid.New(),
		Author:   session.DisplayName(c),
		AuthorID: authorID,
		Role:     strings.TrimSpace(req.Role),
		Quote:    strings.TrimSpace(req.Quote),
	}
	if err := h.db.Create(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to submit testimonial",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

func (h *handler) listPending(c *fiber.Ctx) error {
	var items []Testimonial
	if err := h.db.Where("approved = false").Order("created_at ASC").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch testimonials",
		})
	}
	return c.JSON(fiber.Map{"testimonials": items})
}

func (h *handler) approve(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid testimonial ID",
		})
	}
	result := h.db.Model(&Testimonial{}).Where("id = ?", id).Update("approved", true)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to approve testimonial",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Testimonial not found",
		})
	}
	return c.JSON(fiber.Map{"approved": true})
}

func (h *handler) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid testimonial ID",
		})
	}
	if err := h.db.Where("id = ?", id).Delete(&Testimonial{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete testimonial",
		})
	}
	return c.JSON(fiber.Map{"message": "Testimonial deleted successfully"})
}
