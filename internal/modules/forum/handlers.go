package forum

import (
	"bufio"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ronsenministries/community-backend/internal/dto"
	"github.com/ronsenministries/community-backend/internal/session"
)

type Handler struct {
	service *Service
	hub     *Hub
}

func NewHandler(service *Service, hub *Hub) *Handler {
	return &Handler{service: service, hub: hub}
}

// GetFeed returns one page of the current feed snapshot. Search and category
// narrow the held snapshot in memory; an empty result is a normal response,
// not an error.
func (h *Handler) GetFeed(c *fiber.Ctx) error {
	snap, err := h.service.LoadSnapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load topics",
		})
	}

	search := c.Query("search", "")
	category := c.Query("category", "")
	page, _ := strconv.Atoi(c.Query("page", "1"))

	filtered := FilterTopics(snap.Topics, search, category)

	return c.JSON(fiber.Map{
		"topics":       Paginate(filtered, page),
		"total":        len(filtered),
		"page":         page,
		"page_size":    PageSize,
		"generated_at": snap.GeneratedAt,
	})
}

// StreamFeed serves the live feed over server-sent events. Each event is a
// full snapshot replacement. The subscription is released when the client
// disconnects; a failed stream leaves the REST snapshot untouched.
func (h *Handler) StreamFeed(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	initial, err := h.service.LoadSnapshot()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to load topics",
		})
	}

	ch, cancel := h.hub.Subscribe()

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		if !writeSnapshotEvent(w, initial) {
			return
		}
		for snap := range ch {
			if !writeSnapshotEvent(w, snap) {
				return
			}
		}
	})
	return nil
}

func writeSnapshotEvent(w *bufio.Writer, snap Snapshot) bool {
	payload, err := json.Marshal(snap)
	if err != nil {
		return false
	}
	if _, err := w.WriteString("event: snapshot\ndata: " + string(payload) + "\n\n"); err != nil {
		return false
	}
	return w.Flush() == nil
}

func (h *Handler) GetCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": Categories})
}

func (h *Handler) GetTopic(c *fiber.Ctx) error {
	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	topic, err := h.service.GetTopic(topicID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Topic not found",
		})
	}
	return c.JSON(topic)
}

type createTopicRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
}

func (h *Handler) CreateTopic(c *fiber.Ctx) error {
	author, err := sessionAuthor(c)
	if err != nil {
		return unauthorized(c)
	}

	var req createTopicRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	topic, err := h.service.CreateTopic(c.Context(), author, req.Title, req.Content, req.Category)
	if err != nil {
		if errors.Is(err, ErrMissingFields) || errors.Is(err, ErrInvalidCategory) || errors.Is(err, ErrContentRejected) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to create topic",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(topic)
}

type createReplyRequest struct {
	Content string `json:"content"`
}

func (h *Handler) CreateReply(c *fiber.Ctx) error {
	author, err := sessionAuthor(c)
	if err != nil {
		return unauthorized(c)
	}

	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	var req createReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	reply, err := h.service.CreateReply(c.Context(), author, topicID, req.Content)
	if err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(reply)
}

func (h *Handler) ListReplies(c *fiber.Ctx) error {
	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	replies, err := h.service.ListReplies(topicID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch replies",
		})
	}
	return c.JSON(fiber.Map{"replies": replies})
}

// Like toggles the caller's like on a topic and reports the new state.
func (h *Handler) Like(c *fiber.Ctx) error {
	_, err := sessionAuthor(c)
	if err != nil {
		return unauthorized(c)
	}

	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	liked, err := h.service.ToggleLike(c.Context(), sessionKey(c), topicID)
	if err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update like",
		})
	}

	return c.JSON(fiber.Map{"liked": liked})
}

// ListLiked returns the topic ids this session has liked, so a reloading
// client can restore its markers (they expire with the session).
func (h *Handler) ListLiked(c *fiber.Ctx) error {
	if _, err := sessionAuthor(c); err != nil {
		return unauthorized(c)
	}

	liked, err := h.service.Liked(c.Context(), sessionKey(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch likes",
		})
	}
	return c.JSON(fiber.Map{"liked": liked})
}

func (h *Handler) Report(c *fiber.Ctx) error {
	author, err := sessionAuthor(c)
	if err != nil {
		return unauthorized(c)
	}

	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	var req dto.CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	report, err := h.service.ReportTopic(c.Context(), sessionKey(c), author, topicID, req.Reason)
	if err != nil {
		if errors.Is(err, ErrAlreadyReported) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "You already reported this topic",
			})
		}
		if errors.Is(err, ErrTopicNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(report)
}

func (h *Handler) ListReports(c *fiber.Ctx) error {
	status := c.Query("status", "")
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	if limit > 100 {
		limit = 100
	}

	reports, total, err := h.service.ListReports(status, limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch reports",
		})
	}

	return c.JSON(fiber.Map{
		"reports": reports,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

func (h *Handler) ActionReport(c *fiber.Ctx) error {
	reportID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid report ID",
		})
	}

	var req dto.ActionReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.service.ActionReport(c.Context(), reportID, req.Status, req.AdminNote); err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.JSON(fiber.Map{"message": "Report updated successfully"})
}

type setStickyRequest struct {
	IsSticky bool `json:"is_sticky"`
}

func (h *Handler) SetSticky(c *fiber.Ctx) error {
	topicID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid topic ID",
		})
	}

	var req setStickyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	if err := h.service.SetSticky(c.Context(), topicID, req.IsSticky); err != nil {
		if errors.Is(err, ErrTopicNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to update topic",
		})
	}

	return c.JSON(fiber.Map{"message": "Topic updated successfully"})
}

func sessionAuthor(c *fiber.Ctx) (Author, error) {
	userID, err := session.UserID(c)
	if err != nil {
		return Author{}, err
	}
	return Author{
		ID:   userID,
		Name: session.DisplayName(c),
	}, nil
}

// sessionKey scopes like/report markers. It falls back to the user id when
// the token predates session ids.
func sessionKey(c *fiber.Ctx) string {
	if sid := session.SessionKey(c); sid != "" {
		return sid
	}
	if userID, err := session.UserID(c); err == nil {
		return userID.String()
	}
	return ""
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error: true, Message: "Unauthorized",
	})
}
