package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ronsenministries/community-backend/internal/notify"
	"github.com/ronsenministries/community-backend/internal/services"
	"gorm.io/gorm"
)

var (
	ErrTopicNotFound   = errors.New("topic not found")
	ErrReportNotFound  = errors.New("report not found")
	ErrInvalidCategory = errors.New("unknown topic category")
	ErrMissingFields   = errors.New("title, content and category are required")
	ErrAlreadyReported = errors.New("you already reported this topic")
	ErrContentRejected = errors.New("content rejected by moderation")
)

// Author is the session identity snapshot copied onto topics and replies.
type Author struct {
	ID     uuid.UUID
	Name   string
	Avatar string
}

// Service owns topic persistence, the live feed, and the like/report actions.
//
// Like markers and report dedup sets live in Redis keyed by session, not by
// user: they die with the session, so the same user can re-like or re-report
// from a fresh login. Only the aggregate counters and the report records
// themselves are durable.
type Service struct {
	db        *gorm.DB
	rdb       *redis.Client
	hub       *Hub
	notifier  *notify.Publisher
	filter    *services.ModerationService
	markerTTL time.Duration
}

func NewService(db *gorm.DB, rdb *redis.Client, hub *Hub, notifier *notify.Publisher, filter *services.ModerationService, markerTTL time.Duration) *Service {
	return &Service{
		db:        db,
		rdb:       rdb,
		hub:       hub,
		notifier:  notifier,
		filter:    filter,
		markerTTL: markerTTL,
	}
}

// LoadSnapshot reads the most recent FeedLimit topics (store-side limit,
// ordered by last activity) and applies the display sort.
func (s *Service) LoadSnapshot() (Snapshot, error) {
	var topics []Topic
	err := s.db.Order("last_activity DESC").Limit(FeedLimit).Find(&topics).Error
	if err != nil {
		return Snapshot{}, fmt.Errorf("load feed: %w", err)
	}
	return newSnapshot(topics), nil
}

// publishSnapshot pushes the current feed state to all subscribers. Failures
// only cost freshness; the REST snapshot stays available.
func (s *Service) publishSnapshot(ctx context.Context) {
	snap, err := s.LoadSnapshot()
	if err != nil {
		return
	}
	s.hub.Publish(ctx, snap)
}

// CreateTopic validates and appends a new topic. There is no optimistic
// insert: the creator sees the topic on the next feed push.
func (s *Service) CreateTopic(ctx context.Context, author Author, title, content, category string) (*Topic, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	category = strings.TrimSpace(category)

	if title == "" || content == "" || category == "" {
		return nil, ErrMissingFields
	}
	if !validCategory(category) {
		return nil, ErrInvalidCategory
	}
	if ok, reason := s.filter.FilterContent(title + " " + content); !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, s.filter.GetRejectionMessage(reason))
	}

	now := time.Now()
	topic := Topic{
		ID:           uuid.New(),
		Title:        title,
		Content:      content,
		Category:     category,
		Author:       author.Name,
		AuthorID:     author.ID,
		AuthorAvatar: author.Avatar,
		IsSticky:     false,
		LastActivity: now,
		CreatedAt:    now,
	}

	if err := s.db.Create(&topic).Error; err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}

	s.notifier.TopicCreated(topic.ID.String(), topic.Title, topic.Author)
	s.publishSnapshot(ctx)
	return &topic, nil
}

// GetTopic loads a single topic and bumps its view counter.
func (s *Service) GetTopic(topicID uuid.UUID) (*Topic, error) {
	var topic Topic
	if err := s.db.First(&topic, "id = ?", topicID).Error; err != nil {
		return nil, ErrTopicNotFound
	}
	s.db.Model(&Topic{}).Where("id = ?", topicID).
		Update("views", gorm.Expr("views + 1"))
	topic.Views++
	return &topic, nil
}

// ToggleLike flips the session-local liked marker and moves the persisted
// counter by one in the matching direction. The counter update is an atomic
// SQL expression, so two sessions toggling concurrently both land. Returns
// whether the topic is liked by this session after the call.
func (s *Service) ToggleLike(ctx context.Context, sessionKey string, topicID uuid.UUID) (bool, error) {
	var topic Topic
	if err := s.db.First(&topic, "id = ?", topicID).Error; err != nil {
		return false, ErrTopicNotFound
	}

	key := likedKey(sessionKey)
	member := topicID.String()

	liked, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, fmt.Errorf("like marker read: %w", err)
	}

	if liked {
		if err := s.rdb.SRem(ctx, key, member).Err(); err != nil {
			return true, fmt.Errorf("like marker remove: %w", err)
		}
		if err := s.db.Model(&Topic{}).Where("id = ?", topicID).
			Update("likes", gorm.Expr("GREATEST(likes - 1, 0)")).Error; err != nil {
			// Counter never moved; restore the marker so the session's view
			// stays in step and the next toggle runs the same branch again.
			s.rdb.SAdd(ctx, key, member)
			s.rdb.Expire(ctx, key, s.markerTTL)
			return true, fmt.Errorf("unlike: %w", err)
		}
	} else {
		if err := s.rdb.SAdd(ctx, key, member).Err(); err != nil {
			return false, fmt.Errorf("like marker add: %w", err)
		}
		s.rdb.Expire(ctx, key, s.markerTTL)
		if err := s.db.Model(&Topic{}).Where("id = ?", topicID).
			Update("likes", gorm.Expr("likes + 1")).Error; err != nil {
			s.rdb.SRem(ctx, key, member)
			return false, fmt.Errorf("like: %w", err)
		}
	}

	s.publishSnapshot(ctx)
	return !liked, nil
}

// Liked reports which of the given topics the session has liked.
func (s *Service) Liked(ctx context.Context, sessionKey string) (map[string]bool, error) {
	members, err := s.rdb.SMembers(ctx, likedKey(sessionKey)).Result()
	if err != nil {
		return nil, fmt.Errorf("like marker list: %w", err)
	}
	out := make(map[string]bool, len(members))
	for _, m := range members {
		out[m] = true
	}
	return out, nil
}

// ReportTopic appends a pending report. The session-scoped dedup set
// short-circuits repeats within one session; the store itself keeps every
// record, so the same user can file duplicates across sessions.
func (s *Service) ReportTopic(ctx context.Context, sessionKey string, reporter Author, topicID uuid.UUID, reason string) (*Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.New("reason is required")
	}

	var topic Topic
	if err := s.db.First(&topic, "id = ?", topicID).Error; err != nil {
		return nil, ErrTopicNotFound
	}

	key := reportedKey(sessionKey)
	member := topicID.String()

	already, err := s.rdb.SIsMember(ctx, key, member).Result()
	if err != nil {
		return nil, fmt.Errorf("report marker read: %w", err)
	}
	if already {
		return nil, ErrAlreadyReported
	}

	report := Report{
		ID:           uuid.New(),
		TopicID:      topicID,
		ReporterID:   reporter.ID,
		ReporterName: reporter.Name,
		Reason:       strings.TrimSpace(reason),
		Status:       ReportPending,
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("create report: %w", err)
	}

	// Marker is written after the append; a failure here only weakens dedup.
	if err := s.rdb.SAdd(ctx, key, member).Err(); err == nil {
		s.rdb.Expire(ctx, key, s.markerTTL)
	}

	s.notifier.ReportFiled(topicID.String(), reporter.Name, report.Reason)
	return &report, nil
}

// CreateReply appends a reply, bumps the reply counter and refreshes the
// topic's last activity, which reorders the feed.
func (s *Service) CreateReply(ctx context.Context, author Author, topicID uuid.UUID, content string) (*Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, errors.New("content is required")
	}
	if ok, reason := s.filter.FilterContent(content); !ok {
		return nil, fmt.Errorf("%w: %s", ErrContentRejected, s.filter.GetRejectionMessage(reason))
	}

	var topic Topic
	if err := s.db.First(&topic, "id = ?", topicID).Error; err != nil {
		return nil, ErrTopicNotFound
	}

	reply := Reply{
		ID:           uuid.New(),
		TopicID:      topicID,
		Content:      content,
		Author:       author.Name,
		AuthorID:     author.ID,
		AuthorAvatar: author.Avatar,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reply).Error; err != nil {
			return err
		}
		return tx.Model(&Topic{}).Where("id = ?", topicID).
			Updates(map[string]interface{}{
				"replies":       gorm.Expr("replies + 1"),
				"last_activity": time.Now(),
			}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create reply: %w", err)
	}

	s.publishSnapshot(ctx)
	return &reply, nil
}

func (s *Service) ListReplies(topicID uuid.UUID) ([]Reply, error) {
	var replies []Reply
	err := s.db.Where("topic_id = ?", topicID).Order("created_at ASC").Find(&replies).Error
	return replies, err
}

// ListReports returns the moderation queue, newest first.
func (s *Service) ListReports(status string, limit, offset int) ([]Report, int64, error) {
	var reports []Report
	var total int64

	query := s.db.Model(&Report{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	query.Count(&total)

	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reports).Error; err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// ActionReport resolves a report. Actioning soft-deletes the topic and
// republishes the feed without it.
func (s *Service) ActionReport(ctx context.Context, reportID uuid.UUID, status, adminNote string) error {
	validStatuses := map[string]bool{ReportReviewed: true, ReportActioned: true, ReportDismissed: true}
	if !validStatuses[status] {
		return errors.New("invalid status: must be reviewed, actioned, or dismissed")
	}

	var report Report
	if err := s.db.First(&report, "id = ?", reportID).Error; err != nil {
		return ErrReportNotFound
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&report).Updates(map[string]interface{}{
			"status":     status,
			"admin_note": adminNote,
		}).Error; err != nil {
			return err
		}
		if status == ReportActioned {
			return tx.Where("id = ?", report.TopicID).Delete(&Topic{}).Error
		}
		return nil
	})
	if err != nil {
		return err
	}

	if status == ReportActioned {
		s.publishSnapshot(ctx)
	}
	return nil
}

// SetSticky pins or unpins a topic.
func (s *Service) SetSticky(ctx context.Context, topicID uuid.UUID, sticky bool) error {
	result := s.db.Model(&Topic{}).Where("id = ?", topicID).Update("is_sticky", sticky)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTopicNotFound
	}
	s.publishSnapshot(ctx)
	return nil
}

func likedKey(sessionKey string) string {
	return "forum:liked:" + sessionKey
}

func reportedKey(sessionKey string) string {
	return "forum:reported:" + sessionKey
}
