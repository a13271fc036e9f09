package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/learnloop/learnloop/internal/clock"
	"github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("course.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCourseRequest) (domain.Course, error) {
	teacherID, err := snowflake.ParseString(strings.TrimSpace(req.TeacherID))
	if err != nil || teacherID == 0 {
		return domain.Course{}, domain.ErrInvalidTeacher
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.Course{}, domain.ErrInvalidTitle
	}

	if req.Price < 0 {
		return domain.Course{}, domain.ErrInvalidPrice
	}

	now := s.clock.Now()
	id := s.genID.Generate()
	course := domain.Course{
		ID:              id,
		TeacherID:       teacherID,
		Title:           title,
		Slug:            fmt.Sprintf("%s-%s", slug.Make(title), id.String()),
		Category:        strings.TrimSpace(req.Category),
		DurationMinutes: req.DurationMinutes,
		Price:           req.Price,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &course); err != nil {
		return domain.Course{}, err
	}

	s.log.Info("course created",
		zap.String("course_id", course.ID.String()),
		zap.Int64("price", course.Price),
	)

	return course, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCourseRequest) (domain.Course, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Course{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Course{}, err
	}
	if item == nil {
		return domain.Course{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCourseRequest) (domain.ListCourseResponse, error) {
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.List(ctx, s.db, domain.ListCourseFilter{
		Category:      strings.TrimSpace(req.Category),
		PublishedOnly: req.PublishedOnly,
	}, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListCourseResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(course *domain.Course) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        course.ID.String(),
			CreatedAt: course.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > pageSize {
		items = items[:pageSize]
	}

	courses := make([]domain.Course, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		courses = append(courses, *item)
	}

	resp := domain.ListCourseResponse{Courses: courses}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) Publish(ctx context.Context, req domain.PublishCourseRequest) (domain.Course, error) {
	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Course{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Course{}, err
	}
	if item == nil {
		return domain.Course{}, domain.ErrNotFound
	}

	if item.Published == req.Published {
		return *item, nil
	}

	now := s.clock.Now()
	if err := s.repo.SetPublished(ctx, s.db, id, req.Published, now); err != nil {
		return domain.Course{}, err
	}
	item.Published = req.Published
	item.UpdatedAt = now

	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
