package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Sale is a time-bounded override of a course's list price. The sale
// amount replaces the list price outright; it is not a discount on top.
type Sale struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CourseID  snowflake.ID `gorm:"not null;index" json:"course_id"`
	Amount    int64        `gorm:"not null" json:"amount"`
	StartsAt  *time.Time   `json:"starts_at,omitempty"`
	EndsAt    *time.Time   `json:"ends_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Sale) TableName() string {
	return "course_sales"
}

// ActiveAt reports whether the sale window covers the given instant.
// Both bounds are inclusive; a nil bound is open-ended on that side.
func (s Sale) ActiveAt(now time.Time) bool {
	if s.StartsAt != nil && now.Before(*s.StartsAt) {
		return false
	}
	if s.EndsAt != nil && now.After(*s.EndsAt) {
		return false
	}
	return true
}

// Coupon carries exactly one of PercentOff or AmountOff. A nil CourseID
// makes the coupon redeemable on any course.
type Coupon struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	CourseID   *snowflake.ID `gorm:"index" json:"course_id,omitempty"`
	Code       string        `gorm:"not null" json:"code"`
	PercentOff *int64        `json:"percent_off,omitempty"`
	AmountOff  *int64        `json:"amount_off,omitempty"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ExpiredAt reports whether the coupon is past its expiry at the given
// instant. Coupons without an expiry never expire.
func (c Coupon) ExpiredAt(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Discount returns the amount to subtract from price.
func (c Coupon) Discount(price int64) int64 {
	if c.PercentOff != nil {
		return int64(math.Round(float64(price) * float64(*c.PercentOff) / 100))
	}
	if c.AmountOff != nil {
		return *c.AmountOff
	}
	return 0
}
