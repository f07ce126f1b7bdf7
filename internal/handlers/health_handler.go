package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/ronsenministries/community-backend/internal/dto"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewHealthHandler(db *gorm.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	resp := dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        "ok",
		Redis:     "ok",
	}

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.Ping() != nil {
		resp.Status = "degraded"
		resp.DB = "unreachable"
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(c.Context()).Err(); err != nil {
			resp.Status = "degraded"
			resp.Redis = "unreachable"
		}
	} else {
		resp.Redis = "disabled"
	}

	status := fiber.StatusOK
	if resp.Status != "ok" {
		status = fiber.StatusServiceUnavailable
	}
	return c.Status(status).JSON(resp)
}
