package forum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Topic is a forum thread. Sticky topics sort ahead of everything else;
// among non-sticky topics the most recent activity wins. Topics are never
// hard-deleted in user flows; moderation soft-deletes.
type Topic struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Category     string         `gorm:"size:50;not null;index" json:"category"`
	Author       string         `gorm:"size:100;not null" json:"author"`
	AuthorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorAvatar string         `gorm:"size:500" json:"author_avatar,omitempty"`
	IsSticky     bool           `gorm:"default:false;index" json:"is_sticky"`
	Likes        int            `gorm:"default:0" json:"likes"`
	Views        int            `gorm:"default:0" json:"views"`
	Replies      int            `gorm:"default:0" json:"replies"`
	LastActivity time.Time      `gorm:"not null;index" json:"last_activity"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Topic) TableName() string { return "forum_topics" }

// Reply belongs to a topic; creating one bumps the topic's reply counter and
// last_activity, which drives the feed sort.
type Reply struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TopicID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"topic_id"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Author       string         `gorm:"size:100;not null" json:"author"`
	AuthorID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"author_id"`
	AuthorAvatar string         `gorm:"size:500" json:"author_avatar,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Reply) TableName() string { return "forum_replies" }

// Report is an append-only moderation record. The store performs no
// deduplication; repeat-report protection is session-scoped only.
type Report struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TopicID      uuid.UUID `gorm:"type:uuid;not null;index" json:"topic_id"`
	ReporterID   uuid.UUID `gorm:"type:uuid;not null;index" json:"reporter_id"`
	ReporterName string    `gorm:"size:100" json:"reporter_name"`
	Reason       string    `gorm:"not null;size:500" json:"reason"`
	Status       string    `gorm:"not null;default:'pending';size:50" json:"status"`
	AdminNote    string    `gorm:"size:1000" json:"admin_note,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Report) TableName() string { return "forum_reports" }

// Report statuses. New reports are always pending.
const (
	ReportPending   = "pending"
	ReportReviewed  = "reviewed"
	ReportActioned  = "actioned"
	ReportDismissed = "dismissed"
)

// Categories is the fixed set of topic tags.
var Categories = []string{
	"general", "prayer-requests", "testimonies",
	"events", "volunteering", "announcements",
}

func validCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}
