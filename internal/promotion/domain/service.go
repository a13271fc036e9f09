package domain

import (
	"context"
	"errors"
	"time"
)

type CreateSaleRequest struct {
	CourseID string     `json:"course_id"`
	Amount   int64      `json:"amount"`
	StartsAt *time.Time `json:"starts_at,omitempty"`
	EndsAt   *time.Time `json:"ends_at,omitempty"`
}

type CreateCouponRequest struct {
	CourseID   string     `json:"course_id,omitempty"`
	Code       string     `json:"code"`
	PercentOff *int64     `json:"percent_off,omitempty"`
	AmountOff  *int64     `json:"amount_off,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type Service interface {
	CreateSale(context.Context, CreateSaleRequest) (Sale, error)
	CreateCoupon(context.Context, CreateCouponRequest) (Coupon, error)
}

var (
	ErrInvalidCourseID = errors.New("invalid_course_id")
	ErrInvalidAmount   = errors.New("invalid_sale_amount")
	ErrInvalidCode     = errors.New("invalid_coupon_code")
	ErrInvalidDiscount = errors.New("invalid_coupon_discount")
	ErrInvalidWindow   = errors.New("invalid_sale_window")
)
