package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/promotion/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertSale(ctx context.Context, db *gorm.DB, sale *domain.Sale) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO course_sales (id, course_id, amount, starts_at, ends_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sale.ID,
		sale.CourseID,
		sale.Amount,
		sale.StartsAt,
		sale.EndsAt,
		sale.CreatedAt,
		sale.UpdatedAt,
	).Error
}

func (r *repo) ActiveSale(ctx context.Context, db *gorm.DB, courseID snowflake.ID, now time.Time) (*domain.Sale, error) {
	var sale domain.Sale
	err := db.WithContext(ctx).Raw(
		`SELECT id, course_id, amount, starts_at, ends_at, created_at, updated_at
		 FROM course_sales
		 WHERE course_id = ?
		   AND (starts_at IS NULL OR starts_at <= ?)
		   AND (ends_at IS NULL OR ends_at >= ?)
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		courseID,
		now,
		now,
	).Scan(&sale).Error
	if err != nil {
		return nil, err
	}
	if sale.ID == 0 {
		return nil, nil
	}
	return &sale, nil
}

func (r *repo) InsertCoupon(ctx context.Context, db *gorm.DB, coupon *domain.Coupon) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO coupons (id, course_id, code, percent_off, amount_off, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		coupon.ID,
		coupon.CourseID,
		coupon.Code,
		coupon.PercentOff,
		coupon.AmountOff,
		coupon.ExpiresAt,
		coupon.CreatedAt,
		coupon.UpdatedAt,
	).Error
}

func (r *repo) FindCoupon(ctx context.Context, db *gorm.DB, code string, courseID snowflake.ID) (*domain.Coupon, error) {
	var coupon domain.Coupon
	err := db.WithContext(ctx).Raw(
		`SELECT id, course_id, code, percent_off, amount_off, expires_at, created_at, updated_at
		 FROM coupons
		 WHERE code = ? AND (course_id = ? OR course_id IS NULL)
		 ORDER BY course_id IS NULL, created_at DESC
		 LIMIT 1`,
		strings.ToUpper(strings.TrimSpace(code)),
		courseID,
	).Scan(&coupon).Error
	if err != nil {
		return nil, err
	}
	if coupon.ID == 0 {
		return nil, nil
	}
	return &coupon, nil
}
