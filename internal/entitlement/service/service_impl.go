package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/internal/entitlement/domain"
	"github.com/learnloop/learnloop/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Courses coursedomain.Repository
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	courses coursedomain.Repository
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("entitlement.service"),
		courses: p.Courses,
		metrics: p.Metrics,
	}
}

func (s *Service) Entitled(ctx context.Context, req domain.AccessRequest) (domain.AccessDecision, error) {
	courseID, err := snowflake.ParseString(strings.TrimSpace(req.CourseID))
	if err != nil || courseID == 0 {
		return domain.AccessDecision{}, coursedomain.ErrInvalidID
	}

	course, err := s.courses.FindByID(ctx, s.db, courseID)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if course == nil {
		return domain.AccessDecision{}, coursedomain.ErrNotFound
	}

	// Free courses are open to everyone, logged in or not.
	if course.Price == 0 {
		return domain.AccessDecision{Entitled: true, Reason: domain.ReasonFreeCourse}, nil
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil || userID == 0 {
		s.metrics.RecordEntitlementDenied(ctx, domain.ReasonAnonymous)
		return domain.AccessDecision{Entitled: false, Reason: domain.ReasonAnonymous}, nil
	}

	purchased, err := s.courses.HasPurchase(ctx, s.db, userID, courseID)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if !purchased {
		s.metrics.RecordEntitlementDenied(ctx, domain.ReasonNotPurchased)
		return domain.AccessDecision{Entitled: false, Reason: domain.ReasonNotPurchased}, nil
	}

	return domain.AccessDecision{Entitled: true, Reason: domain.ReasonPurchased}, nil
}
