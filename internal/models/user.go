package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role values attached to a user profile. The set is extensible; access
// checks compare by exact string match.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the profile document for an authenticated identity. Exactly one
// row exists per identity; EnsureProfile creates missing rows lazily.
type User struct {
	ID                      uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Email                   string         `gorm:"not null;size:255;uniqueIndex" json:"email"`
	Password                string         `gorm:"not null" json:"-"`
	DisplayName             string         `gorm:"size:100" json:"display_name"`
	AvatarURL               string         `gorm:"size:500" json:"avatar_url,omitempty"`
	Role                    string         `gorm:"size:20;default:'user'" json:"role"`
	AuthProvider            string         `gorm:"size:50;default:'email'" json:"-"`
	GoogleUserID            *string        `gorm:"size:255;index" json:"-"`
	HasReadForumGuidelines  bool           `gorm:"default:false" json:"has_read_forum_guidelines"`
	CreatedAt               time.Time      `json:"created_at"`
	UpdatedAt               time.Time      `json:"updated_at"`
	DeletedAt               gorm.DeletedAt `gorm:"index" json:"-"`
}
