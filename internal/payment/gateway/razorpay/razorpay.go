package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/learnloop/learnloop/internal/config"
	"github.com/learnloop/learnloop/internal/payment/domain"
	razorpay "github.com/razorpay/razorpay-go"
)

type Gateway struct {
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func New(cfg config.Config) domain.Gateway {
	return &Gateway{
		client:        razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret),
		keyID:         cfg.RazorpayKeyID,
		keySecret:     cfg.RazorpayKeySecret,
		webhookSecret: cfg.RazorpayWebhookSecret,
	}
}

func (g *Gateway) Name() string {
	return domain.GatewayRazorpay
}

func (g *Gateway) KeyID() string {
	return g.keyID
}

func (g *Gateway) CreateOrder(ctx context.Context, req domain.GatewayOrderRequest) (domain.GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   req.Amount,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		data["notes"] = req.Notes
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return domain.GatewayOrder{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	orderID, _ := body["id"].(string)
	if strings.TrimSpace(orderID) == "" {
		return domain.GatewayOrder{}, domain.ErrGatewayUnavailable
	}

	order := domain.GatewayOrder{
		ID:       orderID,
		Amount:   req.Amount,
		Currency: req.Currency,
	}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if status, ok := body["status"].(string); ok {
		order.Status = status
	}

	return order, nil
}

// FetchOrder reads an order back from the gateway, notes included.
func (g *Gateway) FetchOrder(ctx context.Context, orderID string) (domain.GatewayOrder, error) {
	body, err := g.client.Order.Fetch(orderID, nil, nil)
	if err != nil {
		return domain.GatewayOrder{}, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	id, _ := body["id"].(string)
	if strings.TrimSpace(id) == "" {
		return domain.GatewayOrder{}, domain.ErrOrderNotFound
	}

	order := domain.GatewayOrder{ID: id}
	if amount, ok := body["amount"].(float64); ok {
		order.Amount = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok {
		order.Currency = currency
	}
	if status, ok := body["status"].(string); ok {
		order.Status = status
	}
	if notes, ok := body["notes"].(map[string]interface{}); ok {
		order.Notes = notes
	}

	return order, nil
}

// VerifyPaymentSignature checks the checkout callback signature, which
// razorpay computes as HMAC-SHA256 over "<order_id>|<payment_id>" with
// the API key secret.
func (g *Gateway) VerifyPaymentSignature(orderID, paymentID, signature string) error {
	payload := orderID + "|" + paymentID
	if !verifyHMAC([]byte(payload), signature, g.keySecret) {
		return domain.ErrInvalidSignature
	}
	return nil
}

// VerifyWebhookSignature checks the X-Razorpay-Signature header, an
// HMAC-SHA256 over the raw request body with the webhook secret.
func (g *Gateway) VerifyWebhookSignature(payload []byte, signature string) error {
	if !verifyHMAC(payload, signature, g.webhookSecret) {
		return domain.ErrInvalidSignature
	}
	return nil
}

func verifyHMAC(payload []byte, signature, secret string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(signature), []byte(expected))
}
