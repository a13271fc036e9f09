package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, course *Course) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Course, error)
	List(ctx context.Context, db *gorm.DB, filter ListCourseFilter, page pagination.Pagination) ([]*Course, error)
	SetPublished(ctx context.Context, db *gorm.DB, id snowflake.ID, published bool, updatedAt time.Time) error

	AddPurchase(ctx context.Context, db *gorm.DB, purchase *Purchase) (bool, error)
	HasPurchase(ctx context.Context, db *gorm.DB, userID, courseID snowflake.ID) (bool, error)
	RecordSale(ctx context.Context, db *gorm.DB, courseID snowflake.ID, amount int64, updatedAt time.Time) error
}
