package service

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/learnloop/learnloop/internal/clock"
	"github.com/learnloop/learnloop/internal/config"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/internal/observability/metrics"
	"github.com/learnloop/learnloop/internal/payment/domain"
	pricingdomain "github.com/learnloop/learnloop/internal/pricing/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Refunds are honored for a week after the payment was captured.
const refundWindow = 7 * 24 * time.Hour

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Courses coursedomain.Repository
	Pricing pricingdomain.Service
	Gateway domain.Gateway
	Metrics *metrics.Metrics
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	courses  coursedomain.Repository
	pricing  pricingdomain.Service
	gateway  domain.Gateway
	metrics  *metrics.Metrics
	currency string
}

func New(p Params) domain.Service {
	currency := strings.ToUpper(strings.TrimSpace(p.Config.Currency))
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("payment.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		courses:  p.Courses,
		pricing:  p.Pricing,
		gateway:  p.Gateway,
		metrics:  p.Metrics,
		currency: currency,
	}
}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.CreateOrderResponse, error) {
	userID, err := parseID(req.UserID)
	if err != nil {
		return domain.CreateOrderResponse{}, domain.ErrInvalidUser
	}
	courseID, err := parseID(req.CourseID)
	if err != nil {
		return domain.CreateOrderResponse{}, domain.ErrInvalidCourseID
	}

	purchased, err := s.courses.HasPurchase(ctx, s.db, userID, courseID)
	if err != nil {
		return domain.CreateOrderResponse{}, err
	}
	if purchased {
		return domain.CreateOrderResponse{}, domain.ErrAlreadyPurchased
	}

	quote, err := s.pricing.Quote(ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: req.CouponCode,
	})
	if err != nil {
		return domain.CreateOrderResponse{}, err
	}

	// The gateway refuses zero-amount orders, so even a fully
	// discounted course is charged one whole unit.
	charge := quote.FinalPrice
	if charge < 1 {
		charge = 1
	}
	amountSubunits := charge * 100

	currency := s.currency
	notes := map[string]interface{}{
		"user_id":         userID.String(),
		"course_id":       courseID.String(),
		"original_amount": quote.ListPrice,
		"final_amount":    charge,
	}
	if quote.CouponCode != "" {
		notes["coupon_code"] = quote.CouponCode
	}
	if quote.SaleID != nil {
		notes["sale_id"] = quote.SaleID.String()
	}
	if quote.CouponID != nil {
		notes["coupon_id"] = quote.CouponID.String()
	}

	order, err := s.gateway.CreateOrder(ctx, domain.GatewayOrderRequest{
		Amount:   amountSubunits,
		Currency: currency,
		Receipt:  uuid.NewString(),
		Notes:    notes,
	})
	if err != nil {
		s.log.Error("gateway order creation failed",
			zap.String("course_id", courseID.String()),
			zap.Error(err),
		)
		return domain.CreateOrderResponse{}, err
	}

	now := s.clock.Now()
	pending := domain.PendingOrder{
		ID:             s.genID.Generate(),
		GatewayOrderID: order.ID,
		UserID:         userID,
		CourseID:       courseID,
		Amount:         charge,
		OriginalAmount: quote.ListPrice,
		SaleID:         quote.SaleID,
		CouponID:       quote.CouponID,
		Currency:       currency,
		Status:         domain.OrderStatusCreated,
		Notes:          datatypes.JSONMap(notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.InsertPendingOrder(ctx, s.db, &pending); err != nil {
		return domain.CreateOrderResponse{}, err
	}

	s.metrics.RecordOrderCreated(ctx, s.gateway.Name())
	s.log.Info("order created",
		zap.String("gateway_order_id", order.ID),
		zap.String("course_id", courseID.String()),
		zap.Int64("amount", amountSubunits),
	)

	return domain.CreateOrderResponse{
		OrderID:  order.ID,
		Amount:   amountSubunits,
		Currency: currency,
		KeyID:    s.gateway.KeyID(),
		Pricing:  quote,
	}, nil
}

func (s *Service) VerifyAndSettle(ctx context.Context, req domain.VerifyRequest) (domain.SettleResult, error) {
	userID, err := parseID(req.UserID)
	if err != nil {
		return domain.SettleResult{}, domain.ErrInvalidUser
	}

	orderID := strings.TrimSpace(req.GatewayOrderID)
	paymentID := strings.TrimSpace(req.GatewayPaymentID)
	if orderID == "" || paymentID == "" {
		return domain.SettleResult{}, domain.ErrInvalidOrderData
	}

	if err := s.gateway.VerifyPaymentSignature(orderID, paymentID, req.Signature); err != nil {
		s.metrics.RecordSignatureRejected(ctx, s.gateway.Name(), "verify")
		s.log.Warn("payment signature rejected", zap.String("gateway_order_id", orderID))
		return domain.SettleResult{}, domain.ErrInvalidSignature
	}

	return s.settle(ctx, orderID, paymentID, &userID, "verify", nil)
}

func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if err := s.gateway.VerifyWebhookSignature(payload, signature); err != nil {
		s.metrics.RecordSignatureRejected(ctx, s.gateway.Name(), "webhook")
		s.log.Warn("webhook signature rejected")
		return domain.ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ErrInvalidPayload
	}

	eventType := strings.TrimSpace(event.Event)
	s.metrics.RecordWebhookEvent(ctx, s.gateway.Name(), eventType)

	if eventType != "payment.captured" {
		s.log.Debug("webhook event ignored", zap.String("event_type", eventType))
		return nil
	}

	entity := event.Payload.Payment.Entity
	orderID := strings.TrimSpace(entity.OrderID)
	paymentID := strings.TrimSpace(entity.ID)
	if orderID == "" || paymentID == "" {
		return domain.ErrInvalidPayload
	}

	_, err := s.settle(ctx, orderID, paymentID, nil, "webhook", payload)
	return err
}

// settle records the payment, grants the entitlement, and bumps the
// course counters in one transaction. enforceUser is set on the client
// callback path; webhooks pass nil and trust the pending order.
// rawPayload, when present, is the webhook body snapshotted onto the
// payment row.
func (s *Service) settle(ctx context.Context, gatewayOrderID, gatewayPaymentID string, enforceUser *snowflake.ID, source string, rawPayload []byte) (domain.SettleResult, error) {
	existing, err := s.repo.FindPendingOrder(ctx, s.db, gatewayOrderID)
	if err != nil {
		return domain.SettleResult{}, err
	}
	if existing == nil {
		if err := s.recoverPendingOrder(ctx, gatewayOrderID); err != nil {
			return domain.SettleResult{}, err
		}
	}

	var result domain.SettleResult

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.repo.FindPendingOrder(ctx, tx, gatewayOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if enforceUser != nil && *enforceUser != order.UserID {
			return domain.ErrUserMismatch
		}

		result.CourseID = order.CourseID.String()
		result.GatewayPaymentID = gatewayPaymentID
		result.Amount = order.Amount
		if savings := order.OriginalAmount - order.Amount; savings > 0 {
			result.Savings = savings
		}

		var snapshot datatypes.JSON
		if len(rawPayload) > 0 {
			snapshot = datatypes.JSON(rawPayload)
		}

		now := s.clock.Now()
		inserted, err := s.repo.InsertPayment(ctx, tx, &domain.Payment{
			ID:               s.genID.Generate(),
			UserID:           order.UserID,
			CourseID:         order.CourseID,
			Gateway:          s.gateway.Name(),
			GatewayOrderID:   gatewayOrderID,
			GatewayPaymentID: gatewayPaymentID,
			Amount:           order.Amount,
			OriginalAmount:   order.OriginalAmount,
			SaleID:           order.SaleID,
			CouponID:         order.CouponID,
			Currency:         order.Currency,
			Status:           domain.PaymentStatusCompleted,
			WebhookPayload:   snapshot,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return err
		}
		if !inserted {
			// Duplicate delivery. The first settlement already did
			// all the work.
			result.AlreadySettled = true
			return nil
		}

		if _, err := s.courses.AddPurchase(ctx, tx, &coursedomain.Purchase{
			UserID:    order.UserID,
			CourseID:  order.CourseID,
			CreatedAt: now,
		}); err != nil {
			return err
		}

		if err := s.courses.RecordSale(ctx, tx, order.CourseID, order.Amount, now); err != nil {
			return err
		}

		return s.repo.MarkOrderSettled(ctx, tx, gatewayOrderID, now)
	})
	if err != nil {
		return domain.SettleResult{}, err
	}

	if !result.AlreadySettled {
		s.metrics.RecordPaymentSettled(ctx, s.gateway.Name(), source)
		s.log.Info("payment settled",
			zap.String("gateway_order_id", gatewayOrderID),
			zap.String("gateway_payment_id", gatewayPaymentID),
			zap.String("source", source),
		)
	}

	return result, nil
}

func (s *Service) RefundEligibility(ctx context.Context, req domain.RefundEligibilityRequest) (domain.RefundEligibilityResponse, error) {
	userID, err := parseID(req.UserID)
	if err != nil {
		return domain.RefundEligibilityResponse{}, domain.ErrInvalidUser
	}
	courseID, err := parseID(req.CourseID)
	if err != nil {
		return domain.RefundEligibilityResponse{}, domain.ErrInvalidCourseID
	}

	payment, err := s.repo.FindPaymentByUserAndCourse(ctx, s.db, userID, courseID)
	if err != nil {
		return domain.RefundEligibilityResponse{}, err
	}
	if payment == nil {
		return domain.RefundEligibilityResponse{}, domain.ErrPaymentNotFound
	}

	deadline := payment.CreatedAt.Add(refundWindow)
	if s.clock.Now().After(deadline) {
		return domain.RefundEligibilityResponse{
			Eligible: false,
			Reason:   "refund window elapsed",
			Deadline: &deadline,
		}, nil
	}

	return domain.RefundEligibilityResponse{
		Eligible: true,
		Deadline: &deadline,
	}, nil
}

// recoverPendingOrder rebuilds a missing local order from the notes bag
// attached to the gateway order at creation. The local row is the
// primary source of intent; this path only runs when it was lost.
func (s *Service) recoverPendingOrder(ctx context.Context, gatewayOrderID string) error {
	gwOrder, err := s.gateway.FetchOrder(ctx, gatewayOrderID)
	if err != nil {
		return err
	}

	userID := noteID(gwOrder.Notes, "user_id")
	courseID := noteID(gwOrder.Notes, "course_id")
	final, ok := noteAmount(gwOrder.Notes, "final_amount")
	if userID == nil || courseID == nil || !ok || final < 1 {
		return domain.ErrInvalidOrderData
	}

	original, hasOriginal := noteAmount(gwOrder.Notes, "original_amount")
	if !hasOriginal {
		original = final
	}
	currency := gwOrder.Currency
	if currency == "" {
		currency = s.currency
	}

	now := s.clock.Now()
	order := domain.PendingOrder{
		ID:             s.genID.Generate(),
		GatewayOrderID: gatewayOrderID,
		UserID:         *userID,
		CourseID:       *courseID,
		Amount:         final,
		OriginalAmount: original,
		SaleID:         noteID(gwOrder.Notes, "sale_id"),
		CouponID:       noteID(gwOrder.Notes, "coupon_id"),
		Currency:       currency,
		Status:         domain.OrderStatusCreated,
		Notes:          datatypes.JSONMap(gwOrder.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.log.Warn("pending order recovered from gateway notes",
		zap.String("gateway_order_id", gatewayOrderID),
	)

	return s.repo.InsertPendingOrder(ctx, s.db, &order)
}

func noteID(notes map[string]interface{}, key string) *snowflake.ID {
	value, _ := notes[key].(string)
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func noteAmount(notes map[string]interface{}, key string) (int64, bool) {
	switch v := notes[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidUser
	}
	return id, nil
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string `json:"id"`
				OrderID  string `json:"order_id"`
				Amount   int64  `json:"amount"`
				Currency string `json:"currency"`
				Status   string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
