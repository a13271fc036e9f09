package domain

import (
	"context"
	"errors"
	"time"

	pricingdomain "github.com/learnloop/learnloop/internal/pricing/domain"
)

type CreateOrderRequest struct {
	UserID     string
	CourseID   string `json:"course_id"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// CreateOrderResponse carries what the checkout client needs to open
// the gateway widget. Amount is in subunits; Pricing repeats the
// resolved breakdown in whole units so the client can render it.
type CreateOrderResponse struct {
	OrderID  string              `json:"order_id"`
	Amount   int64               `json:"amount"`
	Currency string              `json:"currency"`
	KeyID    string              `json:"key_id"`
	Pricing  pricingdomain.Quote `json:"pricing"`
}

type VerifyRequest struct {
	UserID           string
	GatewayOrderID   string `json:"razorpay_order_id"`
	GatewayPaymentID string `json:"razorpay_payment_id"`
	Signature        string `json:"razorpay_signature"`
}

type SettleResult struct {
	CourseID         string `json:"course_id"`
	GatewayPaymentID string `json:"payment_id"`
	Amount           int64  `json:"amount"`
	Savings          int64  `json:"savings"`
	// AlreadySettled is true when the payment had been recorded by an
	// earlier callback or webhook delivery.
	AlreadySettled bool `json:"already_settled"`
}

type RefundEligibilityRequest struct {
	UserID   string
	CourseID string
}

type RefundEligibilityResponse struct {
	Eligible bool       `json:"eligible"`
	Reason   string     `json:"reason,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

type Service interface {
	CreateOrder(context.Context, CreateOrderRequest) (CreateOrderResponse, error)
	// VerifyAndSettle handles the client checkout callback. The caller
	// identity must match the order's owner.
	VerifyAndSettle(context.Context, VerifyRequest) (SettleResult, error)
	// HandleWebhook settles from the gateway's server-to-server
	// notification. No user identity is enforced here; the signature
	// over the raw body is the authority.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	RefundEligibility(context.Context, RefundEligibilityRequest) (RefundEligibilityResponse, error)
}

var (
	ErrInvalidUser        = errors.New("invalid_user")
	ErrInvalidCourseID    = errors.New("invalid_course_id")
	ErrAlreadyPurchased   = errors.New("already_purchased")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrUserMismatch       = errors.New("user_mismatch")
	ErrInvalidOrderData   = errors.New("invalid_order_data")
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrPaymentNotFound    = errors.New("payment_not_found")
	ErrGatewayUnavailable = errors.New("gateway_unavailable")
	ErrInvalidPayload     = errors.New("invalid_payload")
)
