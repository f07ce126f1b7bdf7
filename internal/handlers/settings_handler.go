package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsHandler serves site-wide key/value settings. Reads are public;
// writes are admin-only.
type SettingsHandler struct {
	db *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

func (h *SettingsHandler) GetAll(c *fiber.Ctx) error {
	var settings []models.SiteSetting
	if err := h.db.Find(&settings).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch settings",
		})
	}

	out := make(map[string]fiber.Map, len(settings))
	for _, s := range settings {
		out[s.Key] = fiber.Map{"value": s.Value, "type": s.Type}
	}
	return c.JSON(fiber.Map{"settings": out})
}

func (h *SettingsHandler) Set(c *fiber.Ctx) error {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	req.Key = strings.TrimSpace(req.Key)
	if req.Key == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Key is required",
		})
	}
	if req.Type == "" {
		req.Type = "string"
	}

	setting := models.SiteSetting{Key: req.Key, Value: req.Value, Type: req.Type}
	err := h.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to save setting",
		})
	}
	return c.JSON(fiber.Map{"key": setting.Key, "value": setting.Value, "type": setting.Type})
}

func (h *SettingsHandler) Delete(c *fiber.Ctx) error {
	key := c.Params("key")
	result := h.db.Where("key = ?", key).Delete(&models.SiteSetting{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to delete setting",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Setting not found",
		})
	}
	return c.JSON(fiber.Map{"message": "Setting deleted successfully"})
}
