package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	courserepo "github.com/learnloop/learnloop/internal/course/repository"
	entitlementdomain "github.com/learnloop/learnloop/internal/entitlement/domain"
	entitlementservice "github.com/learnloop/learnloop/internal/entitlement/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	svc   entitlementdomain.Service
	coRep coursedomain.Repository
	ctx   context.Context
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE courses (
			id BIGINT PRIMARY KEY,
			teacher_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			duration_minutes INT NOT NULL DEFAULT 0,
			price BIGINT NOT NULL DEFAULT 0,
			published BOOLEAN NOT NULL DEFAULT FALSE,
			student_count BIGINT NOT NULL DEFAULT 0,
			total_revenue BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE course_purchases (
			user_id BIGINT NOT NULL,
			course_id BIGINT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, course_id)
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	node, err := snowflake.NewNode(22)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	coRep := courserepo.Provide()
	svc := entitlementservice.New(entitlementservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		Courses: coRep,
		Metrics: nil,
	})

	return &fixture{
		db:    db,
		node:  node,
		svc:   svc,
		coRep: coRep,
		ctx:   context.Background(),
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) seedCourse(t *testing.T, price int64) snowflake.ID {
	t.Helper()

	id := f.node.Generate()
	course := coursedomain.Course{
		ID:        id,
		TeacherID: f.node.Generate(),
		Title:     "Course",
		Slug:      fmt.Sprintf("course-%s", id),
		Price:     price,
		Published: true,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	if err := f.coRep.Insert(f.ctx, f.db, &course); err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return id
}

func (f *fixture) seedPurchase(t *testing.T, userID, courseID snowflake.ID) {
	t.Helper()

	if _, err := f.coRep.AddPurchase(f.ctx, f.db, &coursedomain.Purchase{
		UserID:    userID,
		CourseID:  courseID,
		CreatedAt: f.now,
	}); err != nil {
		t.Fatalf("seed purchase: %v", err)
	}
}

func TestFreeCourseOpenToEveryone(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 0)

	decision, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if !decision.Entitled {
		t.Fatal("free course should be open without login")
	}
	if decision.Reason != entitlementdomain.ReasonFreeCourse {
		t.Fatalf("reason = %s, want %s", decision.Reason, entitlementdomain.ReasonFreeCourse)
	}
}

func TestPurchasedCourseEntitled(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	userID := f.node.Generate()
	f.seedPurchase(t, userID, courseID)

	decision, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{
		UserID:   userID.String(),
		CourseID: courseID.String(),
	})
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if !decision.Entitled {
		t.Fatal("purchased course should be entitled")
	}
	if decision.Reason != entitlementdomain.ReasonPurchased {
		t.Fatalf("reason = %s, want %s", decision.Reason, entitlementdomain.ReasonPurchased)
	}
}

func TestUnpurchasedCourseDenied(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	userID := f.node.Generate()

	decision, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{
		UserID:   userID.String(),
		CourseID: courseID.String(),
	})
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if decision.Entitled {
		t.Fatal("unpurchased paid course should be denied")
	}
	if decision.Reason != entitlementdomain.ReasonNotPurchased {
		t.Fatalf("reason = %s, want %s", decision.Reason, entitlementdomain.ReasonNotPurchased)
	}
}

func TestAnonymousDeniedNotRejected(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)

	decision, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if decision.Entitled {
		t.Fatal("anonymous visitor should not be entitled to a paid course")
	}
	if decision.Reason != entitlementdomain.ReasonAnonymous {
		t.Fatalf("reason = %s, want %s", decision.Reason, entitlementdomain.ReasonAnonymous)
	}
}

func TestPurchaseDoesNotLeakAcrossCourses(t *testing.T) {
	f := newFixture(t)
	bought := f.seedCourse(t, 999)
	other := f.seedCourse(t, 499)
	userID := f.node.Generate()
	f.seedPurchase(t, userID, bought)

	decision, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{
		UserID:   userID.String(),
		CourseID: other.String(),
	})
	if err != nil {
		t.Fatalf("entitled: %v", err)
	}
	if decision.Entitled {
		t.Fatal("purchase of one course should not unlock another")
	}
}

func TestUnknownCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{
		CourseID: f.node.Generate().String(),
	})
	if !errors.Is(err, coursedomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMalformedCourseID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Entitled(f.ctx, entitlementdomain.AccessRequest{CourseID: "not-a-number"})
	if !errors.Is(err, coursedomain.ErrInvalidID) {
		t.Fatalf("err = %v, want ErrInvalidID", err)
	}
}
