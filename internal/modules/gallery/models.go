package gallery

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Item is an uploaded photo or video shown in the public gallery. The
// binary lives in object storage under ObjectKey; URLs are presigned at
// read time and never stored.
type Item struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"size:200" json:"title"`
	Description string         `gorm:"size:500" json:"description,omitempty"`
	Album       string         `gorm:"size:100;index" json:"album,omitempty"`
	ObjectKey   string         `gorm:"size:300;not null" json:"-"`
	ContentType string         `gorm:"size:100" json:"content_type"`
	SizeBytes   int64          `json:"size_bytes"`
	CreatedAt   time.Time      `json:"created_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// ItemView adds the time-limited download URL.
type ItemView struct {
	Item
	URL string `json:"url,omitempty"`
}
