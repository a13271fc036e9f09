package domain

import "context"

// GatewayOrderRequest asks the gateway to open an order. Amount is in
// currency subunits (paise for INR), which is what razorpay expects.
type GatewayOrderRequest struct {
	Amount   int64
	Currency string
	Receipt  string
	Notes    map[string]interface{}
}

// GatewayOrder is the gateway's view of an order. Notes round-trips the
// bag attached at creation, which settlement uses as a fallback source
// of intent when the local pending order is missing.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
	Status   string
	Notes    map[string]interface{}
}

// Gateway abstracts the payment provider. The checkout flow needs order
// creation plus the two signature checks razorpay performs: one over
// order and payment ids on client callbacks, one over the raw body on
// webhooks.
type Gateway interface {
	Name() string
	KeyID() string
	CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error)
	FetchOrder(ctx context.Context, orderID string) (GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) error
	VerifyWebhookSignature(payload []byte, signature string) error
}
