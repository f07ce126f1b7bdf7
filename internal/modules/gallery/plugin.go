package gallery

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/config"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/storage"
	"gorm.io/gorm"
)

const presignExpiry = 1 * time.Hour

type Module struct {
	store storage.ObjectStore
}

// New builds the gallery module. store may be nil when object storage is
// not configured; uploads then return 503 and listings omit URLs.
func New(store storage.ObjectStore) *Module {
	return &Module{store: store}
}

func (m *Module) ID() string { return "gallery" }

func (m *Module) Models() []interface{} {
	return []interface{}{&Item{}}
}

func (m *Module) RegisterRoutes(public fiber.Router, _ fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db, store: m.store}
	public.Get("/gallery", h.list)
}

func (m *Module) RegisterAdminRoutes(admin fiber.Router, db *gorm.DB, _ *config.Config) {
	h := &handler{db: db, store: m.store}
	admin.Post("/gallery", h.upload)
	admin.Delete("/gallery/:id", h.remove)
}

type handler struct {
	db    *gorm.DB
	store storage.ObjectStore
}

func (h *handler) list(c *fiber.Ctx) error {
	var items []Item
	query := h.db.Order("created_at DESC")
	if album := c.Query("album"); album != "" {
		query = query.Where("album = ?", album)
	}
	if err := query.Find(&items).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch gallery",
		})
	}

	views := make([]ItemView, len(items))
	for i, item := range items {
		views[i] = ItemView{Item: item}
		if h.store != nil {
			url, err := h.store.PresignGet(c.Context(), item.ObjectKey, presignExpiry)
			if err != nil {
				slog.Warn("gallery presign failed", "key", item.ObjectKey, "error", err)
				continue
			}
			views[i].URL = url
		}
	}
	return c.JSON(fiber.Map{"items": views})
}

func (h *handler) upload(c *fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
			Error: true, Message: "Object storage is not configured",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to read file",
		})
	}
	defer src.Close()

	id := uuid.New()
	key := fmt.Sprintf("gallery/%s%s", id, filepath.Ext(file.Filename))
	contentType := file.Header.Get("Content-Type")

	if err := h.store.Put(c.Context(), key, src, file.Size, contentType); err != nil {
		slog.Error("gallery upload failed", "key", key, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to store file",
		})
	}

	item := Item{
		ID:          id,
		Title:       c.FormValue("title", file.Filename),
		Description: c.FormValue("description"),
		Album:       c.FormValue("album"),
		ObjectKey:   key,
		ContentType: contentType,
		SizeBytes:   file.Size,
	}
	if err := h.db.Create(&item).Error; err != nil {
		// Roll back the orphaned object; the DB row is the source of truth.
		_ = h.store.Delete(c.Context(), key)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save gallery item",
		})
	}

	url, _ := h.store.PresignGet(c.Context(), key, presignExpiry)
	return c.Status(fiber.StatusCreated).JSON(ItemView{Item: item, URL: url})
}

func (h *handler) remove(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid item ID",
		})
	}
	var item Item
	if err := h.db.First(&item, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Gallery item not found",
		})
	}
	if err := h.db.Delete(&item).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete gallery item",
		})
	}
	if h.store != nil {
		if err := h.store.Delete(c.Context(), item.ObjectKey); err != nil {
			slog.Warn("gallery object delete failed", "key", item.ObjectKey, "error", err)
		}
	}
	return c.JSON(fiber.Map{"message": "Gallery item deleted successfully"})
}
