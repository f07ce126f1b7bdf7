package blog

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Post struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string         `gorm:"size:200;not null" json:"title"`
	Slug        string         `gorm:"size:220;uniqueIndex;not null" json:"slug"`
	Excerpt     string         `gorm:"size:500" json:"excerpt"`
	Body        string         `gorm:"type:text" json:"body"`
	CoverURL    string         `gorm:"size:500" json:"cover_url,omitempty"`
	Author      string         `gorm:"size:100" json:"author"`
	AuthorID    uuid.UUID      `gorm:"type:uuid;index" json:"author_id"`
	Tags        datatypes.JSON `gorm:"type:jsonb" json:"tags,omitempty"`
	Published   bool           `gorm:"default:false;index" json:"published"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// slugify turns a title into a URL slug. Collisions get a short random
// suffix appended by the service.
func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "post"
	}
	return s
}
