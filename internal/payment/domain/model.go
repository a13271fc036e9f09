package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	OrderStatusCreated = "created"
	OrderStatusSettled = "settled"

	PaymentStatusCompleted = "completed"

	GatewayRazorpay = "razorpay"
)

// PendingOrder is the local record of a gateway order awaiting payment.
// It is the source of truth for who ordered what at which price, so
// settlement never trusts amounts echoed back by the client.
type PendingOrder struct {
	ID             snowflake.ID      `json:"id" gorm:"primaryKey"`
	GatewayOrderID string            `json:"gateway_order_id" gorm:"type:text;not null;uniqueIndex"`
	UserID         snowflake.ID      `json:"user_id" gorm:"not null;index"`
	CourseID       snowflake.ID      `json:"course_id" gorm:"not null;index"`
	Amount         int64             `json:"amount" gorm:"not null"`
	OriginalAmount int64             `json:"original_amount" gorm:"not null"`
	SaleID         *snowflake.ID     `json:"sale_id,omitempty"`
	CouponID       *snowflake.ID     `json:"coupon_id,omitempty"`
	Currency       string            `json:"currency" gorm:"type:text;not null"`
	Status         string            `json:"status" gorm:"type:text;not null;default:'created'"`
	Notes          datatypes.JSONMap `json:"notes,omitempty" gorm:"type:jsonb"`
	CreatedAt      time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt      time.Time         `json:"updated_at" gorm:"not null"`
}

func (PendingOrder) TableName() string { return "pending_orders" }

// Payment is one settled gateway payment. The unique index on
// GatewayPaymentID is what makes settlement idempotent.
type Payment struct {
	ID               snowflake.ID   `json:"id" gorm:"primaryKey"`
	UserID           snowflake.ID   `json:"user_id" gorm:"not null;index:idx_payments_user_course"`
	CourseID         snowflake.ID   `json:"course_id" gorm:"not null;index:idx_payments_user_course"`
	Gateway          string         `json:"gateway" gorm:"type:text;not null;default:'razorpay'"`
	GatewayOrderID   string         `json:"gateway_order_id" gorm:"type:text;not null"`
	GatewayPaymentID string         `json:"gateway_payment_id" gorm:"type:text;not null;uniqueIndex"`
	Amount           int64          `json:"amount" gorm:"not null"`
	OriginalAmount   int64          `json:"original_amount" gorm:"not null"`
	SaleID           *snowflake.ID  `json:"sale_id,omitempty"`
	CouponID         *snowflake.ID  `json:"coupon_id,omitempty"`
	Currency         string         `json:"currency" gorm:"type:text;not null"`
	Status           string         `json:"status" gorm:"type:text;not null;default:'completed'"`
	WebhookPayload   datatypes.JSON `json:"-" gorm:"type:jsonb"`
	CreatedAt        time.Time      `json:"created_at" gorm:"not null"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"not null"`
}

func (Payment) TableName() string { return "payments" }
