package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertSale(ctx context.Context, db *gorm.DB, sale *Sale) error
	// ActiveSale returns the sale covering now for the course, or nil.
	ActiveSale(ctx context.Context, db *gorm.DB, courseID snowflake.ID, now time.Time) (*Sale, error)

	InsertCoupon(ctx context.Context, db *gorm.DB, coupon *Coupon) error
	// FindCoupon resolves code for the course, preferring a
	// course-scoped coupon over a global one.
	FindCoupon(ctx context.Context, db *gorm.DB, code string, courseID snowflake.ID) (*Coupon, error)
}
