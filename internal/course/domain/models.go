package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Course struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	TeacherID       snowflake.ID `gorm:"not null;index" json:"teacher_id"`
	Title           string       `gorm:"not null" json:"title"`
	Slug            string       `gorm:"not null;uniqueIndex" json:"slug"`
	Category        string       `gorm:"not null;default:''" json:"category"`
	DurationMinutes int          `gorm:"not null;default:0" json:"duration_minutes"`
	Price           int64        `gorm:"not null;default:0" json:"price"`
	Published       bool         `gorm:"not null;default:false" json:"published"`
	StudentCount    int64        `gorm:"not null;default:0" json:"student_count"`
	TotalRevenue    int64        `gorm:"not null;default:0" json:"total_revenue"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Purchase is the entitlement record. One row per (user, course) pair,
// ever. Settlement inserts it; access checks read it.
type Purchase struct {
	UserID    snowflake.ID `gorm:"primaryKey" json:"user_id"`
	CourseID  snowflake.ID `gorm:"primaryKey" json:"course_id"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Purchase) TableName() string {
	return "course_purchases"
}
