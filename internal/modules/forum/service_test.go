package forum

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/ronsenministries/community-backend/internal/services"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newServiceTest(t *testing.T) (*Service, sqlmock.Sqlmock, *redis.Client) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	hub := NewHub(rdb)
	t.Cleanup(hub.Close)

	svc := NewService(gdb, rdb, hub, nil, services.NewModerationService(), time.Hour)
	return svc, mock, rdb
}

func topicRow(id uuid.UUID, likes int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "title", "content", "category", "author", "author_id", "is_sticky", "likes", "views", "replies", "last_activity", "created_at"}).
		AddRow(id.String(), "Food drive", "Helpers wanted", "volunteering", "Ruth", uuid.New().String(), false, likes, 0, 0, now, now)
}

func TestCreateTopicValidation(t *testing.T) {
	svc, _, _ := newServiceTest(t)
	author := Author{ID: uuid.New(), Name: "Ruth"}

	tests := []struct {
		name     string
		title    string
		content  string
		category string
		wantErr  error
	}{
		{"empty title", "", "body", "general", ErrMissingFields},
		{"whitespace content", "title", "   ", "general", ErrMissingFields},
		{"missing category", "title", "body", "", ErrMissingFields},
		{"unknown category", "title", "body", "not-a-category", ErrInvalidCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTopic(context.Background(), author, tt.title, tt.content, tt.category)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateTopicModeration(t *testing.T) {
	svc, _, _ := newServiceTest(t)
	author := Author{ID: uuid.New(), Name: "Ruth"}

	_, err := svc.CreateTopic(context.Background(), author, "Check this", "visit http://cheap-deals.example now", "general")
	if !errors.Is(err, ErrContentRejected) {
		t.Errorf("err = %v, want ErrContentRejected", err)
	}
}

func TestToggleLike(t *testing.T) {
	svc, mock, rdb := newServiceTest(t)
	topicID := uuid.New()
	ctx := context.Background()

	// Toggle on: read topic, bump counter, republish the feed.
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 0))
	mock.ExpectExec(`UPDATE "forum_topics"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 1))

	liked, err := svc.ToggleLike(ctx, "sess-1", topicID)
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !liked {
		t.Fatal("expected liked after first toggle")
	}

	if member, _ := rdb.SIsMember(ctx, likedKey("sess-1"), topicID.String()).Result(); !member {
		t.Error("like marker not set for session")
	}

	// Toggle off: marker removed, counter decremented.
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 1))
	mock.ExpectExec(`UPDATE "forum_topics"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 0))

	liked, err = svc.ToggleLike(ctx, "sess-1", topicID)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if liked {
		t.Fatal("expected unliked after second toggle")
	}

	if member, _ := rdb.SIsMember(ctx, likedKey("sess-1"), topicID.String()).Result(); member {
		t.Error("like marker still set after unlike")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestToggleLikeCounterFailureRollsBackMarker(t *testing.T) {
	svc, mock, rdb := newServiceTest(t)
	topicID := uuid.New()
	ctx := context.Background()

	// Like path: the counter write fails, so the marker set during the
	// toggle must be removed again. Otherwise the next toggle would
	// decrement a like that was never counted.
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 0))
	mock.ExpectExec(`UPDATE "forum_topics"`).WillReturnError(errors.New("db down"))

	if _, err := svc.ToggleLike(ctx, "sess-1", topicID); err == nil {
		t.Fatal("expected error when counter update fails")
	}
	if member, _ := rdb.SIsMember(ctx, likedKey("sess-1"), topicID.String()).Result(); member {
		t.Error("like marker left set after failed counter update")
	}

	// Unlike path: the marker was removed optimistically and must be
	// restored when the decrement fails.
	if err := rdb.SAdd(ctx, likedKey("sess-2"), topicID.String()).Err(); err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 1))
	mock.ExpectExec(`UPDATE "forum_topics"`).WillReturnError(errors.New("db down"))

	if _, err := svc.ToggleLike(ctx, "sess-2", topicID); err == nil {
		t.Fatal("expected error when counter update fails")
	}
	if member, _ := rdb.SIsMember(ctx, likedKey("sess-2"), topicID.String()).Result(); !member {
		t.Error("like marker not restored after failed decrement")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestToggleLikeUnknownTopic(t *testing.T) {
	svc, mock, _ := newServiceTest(t)

	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnError(gorm.ErrRecordNotFound)

	_, err := svc.ToggleLike(context.Background(), "sess-1", uuid.New())
	if !errors.Is(err, ErrTopicNotFound) {
		t.Errorf("err = %v, want ErrTopicNotFound", err)
	}
}

func TestReportTopicSessionDedup(t *testing.T) {
	svc, mock, rdb := newServiceTest(t)
	topicID := uuid.New()
	ctx := context.Background()

	// Marker already present for this session; the store is never written.
	if err := rdb.SAdd(ctx, reportedKey("sess-1"), topicID.String()).Err(); err != nil {
		t.Fatal(err)
	}
	mock.ExpectQuery(`SELECT (.+) FROM "forum_topics"`).WillReturnRows(topicRow(topicID, 0))

	_, err := svc.ReportTopic(ctx, "sess-1", Author{ID: uuid.New(), Name: "Dan"}, topicID, "spam")
	if !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("err = %v, want ErrAlreadyReported", err)
	}

	// A different session is not deduplicated by sess-1's marker.
	if member, _ := rdb.SIsMember(ctx, reportedKey("sess-2"), topicID.String()).Result(); member {
		t.Error("marker leaked across sessions")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestReportTopicRequiresReason(t *testing.T) {
	svc, _, _ := newServiceTest(t)

	_, err := svc.ReportTopic(context.Background(), "sess-1", Author{ID: uuid.New()}, uuid.New(), "   ")
	if err == nil {
		t.Fatal("expected error for blank reason")
	}
}

func TestLiked(t *testing.T) {
	svc, _, rdb := newServiceTest(t)
	ctx := context.Background()

	a, b := uuid.NewString(), uuid.NewString()
	rdb.SAdd(ctx, likedKey("sess-9"), a, b)

	got, err := svc.Liked(ctx, "sess-9")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || !got[a] || !got[b] {
		t.Errorf("Liked = %v, want markers for %s and %s", got, a, b)
	}

	empty, err := svc.Liked(ctx, "fresh-session")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("fresh session has %d markers, want 0", len(empty))
	}
}
