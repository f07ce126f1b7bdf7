package blog

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/session"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Module struct{}

func New() *Module { return &Module{} }

func (m *Module) ID() string { return "blog" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Post{}}
}

func (m *Module) RegisterRoutes(public fiber.Router, _ fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	public.Get("/blog/posts", h.listPublished)
	public.Get("/blog/posts/:slug", h.getBySlug)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db}
	admin.Get("/blog/posts", h.listAll)
	admin.Post("/blog/posts", h.create)
	admin.Put("/blog/posts/:id", h.update)
	admin.Put("/blog/posts/:id/publish", h.setPublished)
	admin.Delete("/blog/posts/:id", h.remove)
}

type handler struct {
	db *gorm.DB
}

type postRequest struct {
	Title    string   `json:"title"`
	Excerpt  string   `json:"excerpt"`
	Body     string   `json:"body"`
	CoverURL string   `json:"cover_url"`
	Tags     []string `json:"tags"`
}

func (h *handler) listPublished(c *fiber.Ctx) error {
	var posts []Post
	query := h.db.Where("published = true").Order("published_at DESC")
	if tag := c.Query("tag"); tag != "" {
		query = query.Where("tags @> ?", tagsJSON([]string{tag}))
	}
	if err := query.Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch posts",
		})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *handler) getBySlug(c *fiber.Ctx) error {
	var post Post
	err := h.db.Where("slug = ? AND published = true", c.Params("slug")).First(&post).Error
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Post not found",
		})
	}
	return c.JSON(post)
}

func (h *handler) listAll(c *fiber.Ctx) error {
	var posts []Post
	if err := h.db.Order("created_at DESC").Find(&posts).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch posts",
		})
	}
	return c.JSON(fiber.Map{"posts": posts})
}

func (h *handler) create(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Title == "" || req.Body == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Title and body are required",
		})
	}

	authorID, _ := session.UserID(c)
	post := Post{
		ID:       uuid.New(),
		Title:    req.Title,
		Slug:     slugify(req.Title),
		Excerpt:  req.Excerpt,
		Body:     req.Body,
		CoverURL: req.CoverURL,
		Author:   session.DisplayName(c),
		AuthorID: authorID,
		Tags:     tagsJSON(req.Tags),
	}

	if err := h.db.Create(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			post.Slug = post.Slug + "-" + uuid.NewString()[:8]
			err = h.db.Create(&post).Error
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to create post",
			})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *handler) update(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid post ID",
		})
	}
	var post Post
	if err := h.db.First(&post, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Post not found",
		})
	}
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Excerpt != "" {
		updates["excerpt"] = req.Excerpt
	}
	if req.Body != "" {
		updates["body"] = req.Body
	}
	if req.CoverURL != "" {
		updates["cover_url"] = req.CoverURL
	}
	if req.Tags != nil {
		updates["tags"] = tagsJSON(req.Tags)
	}
	if err := h.db.Model(&post).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update post",
		})
	}
	h.db.First(&post, "id = ?", id)
	return c.JSON(post)
}

func (h *handler) setPublished(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid post ID",
		})
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	updates := map[string]interface{}{"published": req.Published}
	if req.Published {
		now := time.Now()
		updates["published_at"] = &now
	}
	result := h.db.Model(&Post{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update post",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Post not found",
		})
	}
	return c.JSON(fiber.Map{"published": req.Published})
}

func (h *handler) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid post ID",
		})
	}
	if err := h.db.Where("id = ?", id).Delete(&Post{}).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete post",
		})
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func tagsJSON(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	return datatypes.JSON(raw)
}
