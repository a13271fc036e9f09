package domain

import (
	"context"
	"errors"

	"github.com/learnloop/learnloop/pkg/db/pagination"
)

type CreateCourseRequest struct {
	TeacherID       string `json:"teacher_id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"duration_minutes"`
	Price           int64  `json:"price"`
}

type GetCourseRequest struct {
	ID string
}

type ListCourseRequest struct {
	PageToken     string
	PageSize      int
	Category      string
	PublishedOnly bool
}

type ListCourseFilter struct {
	Category      string
	PublishedOnly bool
}

type ListCourseResponse struct {
	pagination.PageInfo
	Courses []Course `json:"courses"`
}

type PublishCourseRequest struct {
	ID        string
	Published bool
}

type Service interface {
	Create(context.Context, CreateCourseRequest) (Course, error)
	GetByID(context.Context, GetCourseRequest) (Course, error)
	List(context.Context, ListCourseRequest) (ListCourseResponse, error)
	Publish(context.Context, PublishCourseRequest) (Course, error)
}

var (
	ErrNotFound       = errors.New("course_not_found")
	ErrInvalidID      = errors.New("invalid_course_id")
	ErrInvalidTitle   = errors.New("invalid_course_title")
	ErrInvalidPrice   = errors.New("invalid_course_price")
	ErrInvalidTeacher = errors.New("invalid_teacher_id")
)
