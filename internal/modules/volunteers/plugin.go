package volunteers

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/notify"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusDeclined = "declined"
)

// Application is a volunteer sign-up from the public site.
type Application struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string         `gorm:"size:100;not null" json:"name"`
	Email     string         `gorm:"size:255;not null;index" json:"email"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty"`
	Areas     datatypes.JSON `gorm:"type:jsonb" json:"areas,omitempty"`
	Message   string         `gorm:"type:text" json:"message,omitempty"`
	Status    string         `gorm:"size:20;default:'pending';index" json:"status"`
	AdminNote string         `gorm:"size:500" json:"admin_note,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

type Module struct {
	notifier *notify.Publisher
}

func New(notifier *notify.Publisher) *Module {
	return &Module{notifier: notifier}
}

func (m *Module) ID() string { return "volunteers" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Application{}}
}

// Applications come from the public site; no account is required.
func (m *Module) RegisterRoutes(public fiber.Router, _ fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db, notifier: m.notifier}
	public.Post("/volunteers/apply", h.apply)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db, notifier: m.notifier}
	admin.Get("/volunteers", h.list)
	admin.Put("/volunteers/:id", h.decide)
}

type handler struct {
	db       *gorm.DB
	notifier *notify.Publisher
}

func (h *handler) apply(c *fiber.Ctx) error {
	var req struct {
		Name    string   `json:"name"`
		Email   string   `json:"email"`
		Phone   string   `json:"phone"`
		Areas   []string `json:"areas"`
		Message string   `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Name and email are required",
		})
	}

	areas, _ := json.Marshal(req.Areas)
	app := Application{
		ID:      uuid.New(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   strings.TrimSpace(req.Phone),
		Areas:   datatypes.JSON(areas),
		Message: strings.TrimSpace(req.Message),
		Status:  StatusPending,
	}
	if err := h.db.Create(&app).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to submit application",
		})
	}

	h.notifier.VolunteerApplied(app.Name, app.Email, req.Areas)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Application received. We'll be in touch soon.",
		"id":      app.ID,
	})
}

func (h *handler) list(c *fiber.Ctx) error {
	var apps []Application
	query := h.db.Order("created_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Find(&apps).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch applications",
		})
	}
	return c.JSON(fiber.Map{"applications": apps})
}

func (h *handler) decide(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid application ID",
		})
	}
	var req struct {
		Status    string `json:"status"`
		AdminNote string `json:"admin_note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Status != StatusAccepted && req.Status != StatusDeclined && req.Status != StatusPending {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Status must be pending, accepted, or declined",
		})
	}

	result := h.db.Model(&Application{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":     req.Status,
		"admin_note": req.AdminNote,
	})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update application",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Application not found",
		})
	}
	return c.JSON(fiber.Map{"status": req.Status})
}
