package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/course/domain"
	"github.com/learnloop/learnloop/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, course *domain.Course) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO courses (
			id, teacher_id, title, slug, category, duration_minutes,
			price, published, student_count, total_revenue, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		course.ID,
		course.TeacherID,
		course.Title,
		course.Slug,
		course.Category,
		course.DurationMinutes,
		course.Price,
		course.Published,
		course.StudentCount,
		course.TotalRevenue,
		course.CreatedAt,
		course.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Course, error) {
	var course domain.Course
	err := db.WithContext(ctx).Raw(
		`SELECT id, teacher_id, title, slug, category, duration_minutes,
			price, published, student_count, total_revenue, created_at, updated_at
		 FROM courses WHERE id = ?`,
		id,
	).Scan(&course).Error
	if err != nil {
		return nil, err
	}
	if course.ID == 0 {
		return nil, nil
	}
	return &course, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCourseFilter, page pagination.Pagination) ([]*domain.Course, error) {
	var courses []*domain.Course
	stmt := db.WithContext(ctx).Model(&domain.Course{})
	if filter.Category != "" {
		stmt = stmt.Where("category = ?", filter.Category)
	}
	if filter.PublishedOnly {
		stmt = stmt.Where("published = ?", true)
	}
	stmt = pagination.Apply(stmt, page)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *repo) SetPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, published bool, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE courses SET published = ?, updated_at = ? WHERE id = ?`,
		published,
		updatedAt,
		id,
	).Error
}

func (r *repo) AddPurchase(ctx context.Context, db *gorm.DB, purchase *domain.Purchase) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO course_purchases (user_id, course_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, course_id) DO NOTHING`,
		purchase.UserID,
		purchase.CourseID,
		purchase.CreatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) HasPurchase(ctx context.Context, db *gorm.DB, userID, courseID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM course_purchases WHERE user_id = ? AND course_id = ?`,
		userID,
		courseID,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repo) RecordSale(ctx context.Context, db *gorm.DB, courseID snowflake.ID, amount int64, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE courses
		 SET student_count = student_count + 1,
		     total_revenue = total_revenue + ?,
		     updated_at = ?
		 WHERE id = ?`,
		amount,
		updatedAt,
		courseID,
	).Error
}
