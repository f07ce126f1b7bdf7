package programs

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"gorm.io/gorm"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ID() string { return "programs" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Program{}}
}

func (m *Module) RegisterRoutes(public fiber.Router, _ fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	public.Get("/programs", h.list)
	public.Get("/programs/:id", h.get)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	admin.Post("/programs", h.create)
	admin.Put("/programs/:id", h.update)
	admin.Delete("/programs/:id", h.remove)
}

type handler struct {
	db *gorm.DB
}

func (h *handler) list(c *fiber.Ctx) error {
	var items []Program
	query := h.db.Order("created_at DESC")
	if c.Query("category") != "" {
		query = query.Where("category = ?", c.Query("category"))
	}
	if err := query.Where("active = true").Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch programs",
		})
	}
	views := make([]View, len(items))
	for i, p := range items {
		views[i] = viewOf(p)
	}
	return c.JSON(fiber.Map{"programs": views})
}

func (h *handler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid program ID",
		})
	}
	var p Program
	if err := h.db.First(&p, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Program not found",
		})
	}
	return c.JSON(viewOf(p))
}

type programRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	ImageURL     string `json:"image_url"`
	GoalAmount   int64  `json:"goal_amount"`
	RaisedAmount int64  `json:"raised_amount"`
	Active       *bool  `json:"active"`
}

func (h *handler) create(c *fiber.Ctx) error {
	var req programRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Title is required",
		})
	}

	p := Program{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		ImageURL:     req.ImageURL,
		GoalAmount:   req.GoalAmount,
		RaisedAmount: req.RaisedAmount,
		Active:       true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}
	if err := h.db.Create(&p).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create program",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(viewOf(p))
}

func (h *handler) update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid program ID",
		})
	}
	var p Program
	if err := h.db.First(&p, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Program not found",
		})
	}
	var req programRequest
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
	if req.Category != "" {
		updates["category"] = req.Category
	}
	if req.ImageURL != "" {
		updates["image_url"] = req.ImageURL
	}
	if req.GoalAmount > 0 {
		updates["goal_amount"] = req.GoalAmount
	}
	if req.RaisedAmount >= 0 {
		updates["raised_amount"] = req.RaisedAmount
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if err := h.db.Model(&p).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update program",
		})
	}
	if err := h.db.First(&p, "id = ?", id).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to reload program",
		})
	}
	return c.JSON(viewOf(p))
}

func (h *handler) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid program ID",
		})
	}
	if err := h.db.Where("id = ?", id).Delete(&Program{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete program",
		})
	}
	return c.JSON(fiber.Map{"message": "Program deleted successfully"})
}
