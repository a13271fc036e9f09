package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Quote is the fully resolved price for one course at one instant.
// All amounts are whole currency units.
type Quote struct {
	CourseID       snowflake.ID  `json:"course_id"`
	ListPrice      int64         `json:"list_price"`
	SalePrice      *int64        `json:"sale_price,omitempty"`
	SaleID         *snowflake.ID `json:"sale_id,omitempty"`
	CouponCode     string        `json:"coupon_code,omitempty"`
	CouponID       *snowflake.ID `json:"coupon_id,omitempty"`
	CouponDiscount int64         `json:"coupon_discount"`
	FinalPrice     int64         `json:"final_price"`
	Savings        int64         `json:"savings"`
}

type QuoteRequest struct {
	CourseID   string
	CouponCode string
}

type Service interface {
	// Quote resolves the effective price. A coupon code that does not
	// resolve, or that has expired, fails the whole quote.
	Quote(context.Context, QuoteRequest) (Quote, error)
}

var (
	ErrInvalidCourseID = errors.New("invalid_course_id")
	ErrInvalidCoupon   = errors.New("invalid_coupon")
	ErrExpiredCoupon   = errors.New("expired_coupon")
)
