package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/clock"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/internal/pricing/domain"
	promotiondomain "github.com/learnloop/learnloop/internal/promotion/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Clock      clock.Clock
	Courses    coursedomain.Repository
	Promotions promotiondomain.Repository
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	clock      clock.Clock
	courses    coursedomain.Repository
	promotions promotiondomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("pricing.service"),
		clock:      p.Clock,
		courses:    p.Courses,
		promotions: p.Promotions,
	}
}

func (s *Service) Quote(ctx context.Context, req domain.QuoteRequest) (domain.Quote, error) {
	courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
	if err != nil || courseID == 0 {
		return domain.Quote{}, domain.ErrInvalidCourseID
	}

	course, err := s.courses.FindByID(ctx, s.db, courseID)
	if err != nil {
		return domain.Quote{}, err
	}
	if course == nil {
		return domain.Quote{}, coursedomain.ErrNotFound
	}

	return s.quoteCourse(ctx, course, req.CouponCode)
}

func (s *Service) quoteCourse(ctx context.Context, course *coursedomain.Course, couponCode string) (domain.Quote, error) {
	now := s.clock.Now()
	quote := domain.Quote{
		CourseID:  course.ID,
		ListPrice: course.Price,
	}

	// An active sale replaces the list price. A coupon then discounts
	// whichever price is in effect.
	price := course.Price
	sale, err := s.promotions.ActiveSale(ctx, s.db, course.ID, now)
	if err != nil {
		return domain.Quote{}, err
	}
	if sale != nil && sale.ActiveAt(now) {
		price = sale.Amount
		saleID := sale.ID
		quote.SalePrice = &sale.Amount
		quote.SaleID = &saleID
	}

	code := strings.ToUpper(strings.TrimSpace(couponCode))
	if code != "" {
		coupon, err := s.promotions.FindCoupon(ctx, s.db, code, course.ID)
		if err != nil {
			return domain.Quote{}, err
		}
		if coupon == nil {
			return domain.Quote{}, domain.ErrInvalidCoupon
		}
		if coupon.ExpiredAt(now) {
			return domain.Quote{}, domain.ErrExpiredCoupon
		}

		discount := coupon.Discount(price)
		if discount > price {
			discount = price
		}
		couponID := coupon.ID
		quote.CouponCode = code
		quote.CouponID = &couponID
		quote.CouponDiscount = discount
		price -= discount
	}

	// A paid course never goes below one unit, no matter how the
	// promotions stack.
	if course.Price > 0 && price < 1 {
		price = 1
	}

	quote.FinalPrice = price
	quote.Savings = course.Price - price

	return quote, nil
}
