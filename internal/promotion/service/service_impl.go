package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/clock"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/internal/promotion/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	Courses coursedomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	courses coursedomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("promotion.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		courses: p.Courses,
	}
}

func (s *Service) CreateSale(ctx context.Context, req domain.CreateSaleRequest) (domain.Sale, error) {
	courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
	if err != nil || courseID == 0 {
		return domain.Sale{}, domain.ErrInvalidCourseID
	}

	course, err := s.courses.FindByID(ctx, s.db, courseID)
	if err != nil {
		return domain.Sale{}, err
	}
	if course == nil {
		return domain.Sale{}, coursedomain.ErrNotFound
	}

	if req.Amount <= 0 {
		return domain.Sale{}, domain.ErrInvalidAmount
	}
	if req.StartsAt != nil && req.EndsAt != nil && !req.StartsAt.Before(*req.EndsAt) {
		return domain.Sale{}, domain.ErrInvalidWindow
	}

	now := s.clock.Now()
	sale := domain.Sale{
		ID:        s.genID.Generate(),
		CourseID:  courseID,
		Amount:    req.Amount,
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertSale(ctx, s.db, &sale); err != nil {
		return domain.Sale{}, err
	}

	s.log.Info("sale created",
		zap.String("course_id", courseID.String()),
		zap.Int64("amount", sale.Amount),
	)

	return sale, nil
}

func (s *Service) CreateCoupon(ctx context.Context, req domain.CreateCouponRequest) (domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.Coupon{}, domain.ErrInvalidCode
	}

	// Exactly one of percent_off and amount_off.
	if (req.PercentOff == nil) == (req.AmountOff == nil) {
		return domain.Coupon{}, domain.ErrInvalidDiscount
	}
	if req.PercentOff != nil && (*req.PercentOff <= 0 || *req.PercentOff > 100) {
		return domain.Coupon{}, domain.ErrInvalidDiscount
	}
	if req.AmountOff != nil && *req.AmountOff <= 0 {
		return domain.Coupon{}, domain.ErrInvalidDiscount
	}

	var courseID *snowflake.ID
	if trimmed := strings.TrimSpace(req.CourseID); trimmed != "" {
		id, err := snowflake.ParseString(trimmed)
		if err != nil || id == 0 {
			return domain.Coupon{}, domain.ErrInvalidCourseID
		}
		course, err := s.courses.FindByID(ctx, s.db, id)
		if err != nil {
			return domain.Coupon{}, err
		}
		if course == nil {
			return domain.Coupon{}, coursedomain.ErrNotFound
		}
		courseID = &id
	}

	now := s.clock.Now()
	coupon := domain.Coupon{
		ID:         s.genID.Generate(),
		CourseID:   courseID,
		Code:       code,
		PercentOff: req.PercentOff,
		AmountOff:  req.AmountOff,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.InsertCoupon(ctx, s.db, &coupon); err != nil {
		return domain.Coupon{}, err
	}

	s.log.Info("coupon created", zap.String("code", code))

	return coupon, nil
}
