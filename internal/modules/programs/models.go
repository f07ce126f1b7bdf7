package programs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Program is a fundraising/outreach program shown on the public site.
type Program struct {
	ID           uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Category     string         `gorm:"size:50;index" json:"category"`
	ImageURL     string         `gorm:"size:500" json:"image_url,omitempty"`
	GoalAmount   int64          `gorm:"default:0" json:"goal_amount"`
	RaisedAmount int64          `gorm:"default:0" json:"raised_amount"`
	Active       bool           `gorm:"default:true;index" json:"active"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Progress returns the funding percentage, clamped to 0-100.
func (p *Program) Progress() int {
	if p.GoalAmount <= 0 {
		return 0
	}
	pct := int(p.RaisedAmount * 100 / p.GoalAmount)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// View is the wire form of a program with the computed progress bar value.
type View struct {
	Program
	ProgressPct int `json:"progress_pct"`
}

func viewOf(p Program) View {
	return View{Program: p, ProgressPct: p.Progress()}
}
