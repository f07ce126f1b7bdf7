package models

import "time"

// AdminAllowlistEntry grants the admin role to an email address at
// profile-creation time. It is consulted only when a profile is first
// created; adding an email later does not retroactively change the role
// of an existing profile.
type AdminAllowlistEntry struct {
	Email     string    `gorm:"primaryKey;size:255" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (AdminAllowlistEntry) TableName() string {
	return "admin_allowlist"
}
