package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/clock"
	coursedomain "github.com/learnloop/learnloop/internal/course/domain"
	courserepo "github.com/learnloop/learnloop/internal/course/repository"
	pricingdomain "github.com/learnloop/learnloop/internal/pricing/domain"
	pricingservice "github.com/learnloop/learnloop/internal/pricing/service"
	promotiondomain "github.com/learnloop/learnloop/internal/promotion/domain"
	promotionrepo "github.com/learnloop/learnloop/internal/promotion/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
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
		`CREATE TABLE course_sales (
			id BIGINT PRIMARY KEY,
			course_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			starts_at TIMESTAMP,
			ends_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE coupons (
			id BIGINT PRIMARY KEY,
			course_id BIGINT,
			code TEXT NOT NULL,
			percent_off BIGINT,
			amount_off BIGINT,
			expires_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clk   *clock.FakeClock
	svc   pricingdomain.Service
	now   time.Time
	ctx   context.Context
	prRep promotiondomain.Repository
	coRep coursedomain.Repository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(20)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	coRep := courserepo.Provide()
	prRep := promotionrepo.Provide()

	svc := pricingservice.New(pricingservice.Params{
		DB:         db,
		Log:        zap.NewNop(),
		Clock:      clk,
		Courses:    coRep,
		Promotions: prRep,
	})

	return &fixture{
		db:    db,
		node:  node,
		clk:   clk,
		svc:   svc,
		now:   now,
		ctx:   context.Background(),
		prRep: prRep,
		coRep: coRep,
	}
}

func (f *fixture) seedCourse(t *testing.T, price int64) snowflake.ID {
	t.Helper()

	id := f.node.Generate()
	course := coursedomain.Course{
		ID:        id,
		TeacherID: f.node.Generate(),
		Title:     "Test Course",
		Slug:      fmt.Sprintf("test-course-%s", id),
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

func (f *fixture) seedSale(t *testing.T, courseID snowflake.ID, amount int64, startsAt, endsAt *time.Time) {
	t.Helper()

	sale := promotiondomain.Sale{
		ID:        f.node.Generate(),
		CourseID:  courseID,
		Amount:    amount,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		CreatedAt: f.now,
		UpdatedAt: f.now,
	}
	if err := f.prRep.InsertSale(f.ctx, f.db, &sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
}

func (f *fixture) seedCoupon(t *testing.T, courseID *snowflake.ID, code string, percentOff, amountOff *int64, expiresAt *time.Time) {
	t.Helper()

	coupon := promotiondomain.Coupon{
		ID:         f.node.Generate(),
		CourseID:   courseID,
		Code:       code,
		PercentOff: percentOff,
		AmountOff:  amountOff,
		ExpiresAt:  expiresAt,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	if err := f.prRep.InsertCoupon(f.ctx, f.db, &coupon); err != nil {
		t.Fatalf("seed coupon: %v", err)
	}
}

func int64Ptr(v int64) *int64 { return &v }

func TestQuoteListPriceOnly(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 999 {
		t.Fatalf("final price = %d, want 999", quote.FinalPrice)
	}
	if quote.Savings != 0 {
		t.Fatalf("savings = %d, want 0", quote.Savings)
	}
}

func TestQuoteSaleReplacesListPrice(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	f.seedSale(t, courseID, 799, nil, nil)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 799 {
		t.Fatalf("final price = %d, want 799", quote.FinalPrice)
	}
	if quote.Savings != 200 {
		t.Fatalf("savings = %d, want 200", quote.Savings)
	}
}

func TestQuoteCouponDiscountsSalePrice(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	f.seedSale(t, courseID, 799, nil, nil)
	f.seedCoupon(t, &courseID, "SAVE10", int64Ptr(10), nil, nil)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "save10",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// 10% of the 799 sale price, not of the 999 list price.
	if quote.CouponDiscount != 80 {
		t.Fatalf("coupon discount = %d, want 80", quote.CouponDiscount)
	}
	if quote.FinalPrice != 719 {
		t.Fatalf("final price = %d, want 719", quote.FinalPrice)
	}
	if quote.Savings != 280 {
		t.Fatalf("savings = %d, want 280", quote.Savings)
	}
}

func TestQuoteFlatAmountCoupon(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	f.seedCoupon(t, &courseID, "FLAT100", nil, int64Ptr(100), nil)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "FLAT100",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 899 {
		t.Fatalf("final price = %d, want 899", quote.FinalPrice)
	}
}

func TestQuoteFloorsAtOneUnit(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 50)
	f.seedCoupon(t, &courseID, "EVERYTHING", nil, int64Ptr(5000), nil)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "EVERYTHING",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 1 {
		t.Fatalf("final price = %d, want 1", quote.FinalPrice)
	}
}

func TestQuoteFreeCourseStaysFree(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 0)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 0 {
		t.Fatalf("final price = %d, want 0", quote.FinalPrice)
	}
}

func TestQuoteUnknownCouponFails(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)

	_, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "NOPE",
	})
	if !errors.Is(err, pricingdomain.ErrInvalidCoupon) {
		t.Fatalf("err = %v, want ErrInvalidCoupon", err)
	}
}

func TestQuoteExpiredCouponFails(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	expired := f.now.Add(-time.Hour)
	f.seedCoupon(t, &courseID, "LATE", int64Ptr(10), nil, &expired)

	_, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "LATE",
	})
	if !errors.Is(err, pricingdomain.ErrExpiredCoupon) {
		t.Fatalf("err = %v, want ErrExpiredCoupon", err)
	}
}

func TestQuoteSaleAppliesAtExpiryInstant(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	started := f.now.Add(-48 * time.Hour)
	ends := f.now
	f.seedSale(t, courseID, 799, &started, &ends)

	// The window is inclusive on both ends; at the exact expiry
	// instant the sale price still applies.
	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 799 {
		t.Fatalf("final price = %d, want 799", quote.FinalPrice)
	}

	f.clk.Advance(time.Second)

	quote, err = f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 999 {
		t.Fatalf("final price = %d, want 999", quote.FinalPrice)
	}
}

func TestQuoteIgnoresSaleOutsideWindow(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 999)
	ended := f.now.Add(-time.Hour)
	started := f.now.Add(-48 * time.Hour)
	f.seedSale(t, courseID, 499, &started, &ended)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: courseID.String()})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.FinalPrice != 999 {
		t.Fatalf("final price = %d, want 999", quote.FinalPrice)
	}
}

func TestQuotePrefersCourseScopedCoupon(t *testing.T) {
	f := newFixture(t)
	courseID := f.seedCourse(t, 1000)
	f.seedCoupon(t, nil, "STACK", int64Ptr(10), nil, nil)
	f.seedCoupon(t, &courseID, "STACK", int64Ptr(20), nil, nil)

	quote, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{
		CourseID:   courseID.String(),
		CouponCode: "STACK",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.CouponDiscount != 200 {
		t.Fatalf("coupon discount = %d, want 200", quote.CouponDiscount)
	}
}

func TestQuoteUnknownCourse(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Quote(f.ctx, pricingdomain.QuoteRequest{CourseID: f.node.Generate().String()})
	if !errors.Is(err, coursedomain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
