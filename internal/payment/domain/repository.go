package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertPendingOrder(ctx context.Context, db *gorm.DB, order *PendingOrder) error
	FindPendingOrder(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*PendingOrder, error)
	MarkOrderSettled(ctx context.Context, db *gorm.DB, gatewayOrderID string, settledAt time.Time) error

	// InsertPayment reports whether a new row was written. A conflict
	// on gateway_payment_id means the payment was already settled.
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
	FindPaymentByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID snowflake.ID) (*Payment, error)
}
