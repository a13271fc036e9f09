package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertPendingOrder(ctx context.Context, db *gorm.DB, order *domain.PendingOrder) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO pending_orders (
			id, gateway_order_id, user_id, course_id, amount, original_amount,
			sale_id, coupon_id, currency, status, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.GatewayOrderID,
		order.UserID,
		order.CourseID,
		order.Amount,
		order.OriginalAmount,
		order.SaleID,
		order.CouponID,
		order.Currency,
		order.Status,
		order.Notes,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) FindPendingOrder(ctx context.Context, db *gorm.DB, gatewayOrderID string) (*domain.PendingOrder, error) {
	var order domain.PendingOrder
	err := db.WithContext(ctx).Raw(
		`SELECT id, gateway_order_id, user_id, course_id, amount, original_amount,
			sale_id, coupon_id, currency, status, notes, created_at, updated_at
		 FROM pending_orders
		 WHERE gateway_order_id = ?
		 LIMIT 1`,
		gatewayOrderID,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) MarkOrderSettled(ctx context.Context, db *gorm.DB, gatewayOrderID string, settledAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE pending_orders
		 SET status = ?, updated_at = ?
		 WHERE gateway_order_id = ?`,
		domain.OrderStatusSettled,
		settledAt,
		gatewayOrderID,
	).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, user_id, course_id, gateway, gateway_order_id,
			gateway_payment_id, amount, original_amount, sale_id, coupon_id,
			currency, status, webhook_payload, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (gateway_payment_id) DO NOTHING`,
		payment.ID,
		payment.UserID,
		payment.CourseID,
		payment.Gateway,
		payment.GatewayOrderID,
		payment.GatewayPaymentID,
		payment.Amount,
		payment.OriginalAmount,
		payment.SaleID,
		payment.CouponID,
		payment.Currency,
		payment.Status,
		payment.WebhookPayload,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) FindPaymentByUserAndCourse(ctx context.Context, db *gorm.DB, userID, courseID snowflake.ID) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, course_id, gateway, gateway_order_id,
			gateway_payment_id, amount, original_amount, sale_id, coupon_id,
			currency, status, webhook_payload, created_at, updated_at
		 FROM payments
		 WHERE user_id = ? AND course_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		userID,
		courseID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}
