package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func newCouponTestService(t *testing.T, name string) (*gorm.DB, *CouponService) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return db, NewCouponService(repository.NewCouponRepository(db))
}

func TestCouponValidateOrdering(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_order")
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	ended := now.Add(-24 * time.Hour)

	// 同时停用且已过期的券必须先报停用
	coupon := models.Coupon{
		Code:      "STACKED",
		Type:      constants.CouponTypeFixed,
		Value:     models.NewMoneyFromInt(5),
		ScopeType: constants.ScopeTypeProduct,
		StartsAt:  &past,
		EndsAt:    &ended,
		IsActive:  false,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	// default:true 使零值 is_active 不入 INSERT，显式停用以建立预期状态
	if err := db.Model(&coupon).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate coupon failed: %v", err)
	}

	if _, _, err := svc.Validate("STACKED", 1, now); !errors.Is(err, ErrCouponInactive) {
		t.Fatalf("expected inactive to win, got: %v", err)
	}
}

func TestCouponValidateTimeWindow(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_window")
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	notStarted := models.Coupon{
		Code:      "SOON",
		Type:      constants.CouponTypeFixed,
		Value:     models.NewMoneyFromInt(5),
		ScopeType: constants.ScopeTypeProduct,
		StartsAt:  &future,
		IsActive:  true,
	}
	expired := models.Coupon{
		Code:      "GONE",
		Type:      constants.CouponTypeFixed,
		Value:     models.NewMoneyFromInt(5),
		ScopeType: constants.ScopeTypeProduct,
		EndsAt:    &past,
		IsActive:  true,
	}
	if err := db.Create(&notStarted).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Create(&expired).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if _, _, err := svc.Validate("SOON", 1, now); !errors.Is(err, ErrCouponNotStarted) {
		t.Fatalf("expected not started, got: %v", err)
	}
	if _, _, err := svc.Validate("GONE", 1, now); !errors.Is(err, ErrCouponExpired) {
		t.Fatalf("expected expired, got: %v", err)
	}
}

func TestCouponValidateScope(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_scope")
	now := time.Now()

	scoped := models.Coupon{
		Code:        "SCOPED",
		Type:        constants.CouponTypePercent,
		Value:       models.NewMoneyFromInt(10),
		ScopeType:   constants.ScopeTypeProduct,
		ScopeRefIDs: "[1,2]",
		IsActive:    true,
	}
	open := models.Coupon{
		Code:      "OPEN",
		Type:      constants.CouponTypePercent,
		Value:     models.NewMoneyFromInt(10),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	if err := db.Create(&scoped).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Create(&open).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if _, _, err := svc.Validate("SCOPED", 2, now); err != nil {
		t.Fatalf("expected in-scope product to pass, got: %v", err)
	}
	if _, _, err := svc.Validate("SCOPED", 3, now); !errors.Is(err, ErrCouponScope) {
		t.Fatalf("expected scope mismatch, got: %v", err)
	}
	// 空集合表示不限制商品
	if _, _, err := svc.Validate("OPEN", 42, now); err != nil {
		t.Fatalf("expected open scope to pass, got: %v", err)
	}
}

func TestCouponValidateUsageLimit(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_usage")
	now := time.Now()

	coupon := models.Coupon{
		Code:       "USED",
		Type:       constants.CouponTypeFixed,
		Value:      models.NewMoneyFromInt(5),
		UsageLimit: 3,
		UsedCount:  3,
		ScopeType:  constants.ScopeTypeProduct,
		IsActive:   true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if _, _, err := svc.Validate("USED", 1, now); !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected usage limit, got: %v", err)
	}
}

func TestCouponValidateNotFound(t *testing.T) {
	_, svc := newCouponTestService(t, "coupon_validate_missing")
	now := time.Now()

	if _, _, err := svc.Validate("NOPE", 1, now); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected not found, got: %v", err)
	}
	if _, _, err := svc.Validate("   ", 1, now); !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected not found for blank code, got: %v", err)
	}
}

func TestCouponValidateRejectsBadValues(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_values")
	now := time.Now()

	overPercent := models.Coupon{
		Code:      "OVER",
		Type:      constants.CouponTypePercent,
		Value:     models.NewMoneyFromInt(150),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	zeroFixed := models.Coupon{
		Code:      "ZERO",
		Type:      constants.CouponTypeFixed,
		Value:     models.NewMoneyFromInt(0),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	if err := db.Create(&overPercent).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}
	if err := db.Create(&zeroFixed).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	if _, _, err := svc.Validate("OVER", 1, now); !errors.Is(err, ErrCouponScope) {
		t.Fatalf("expected rejection for percent over 100, got: %v", err)
	}
	if _, _, err := svc.Validate("ZERO", 1, now); !errors.Is(err, ErrCouponScope) {
		t.Fatalf("expected rejection for non-positive fixed value, got: %v", err)
	}
}

func TestCouponValidateReturnsDiscountRule(t *testing.T) {
	db, svc := newCouponTestService(t, "coupon_validate_rule")
	now := time.Now()

	coupon := models.Coupon{
		Code:      "SAVE20",
		Type:      constants.CouponTypePercent,
		Value:     models.NewMoneyFromInt(20),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	got, rule, err := svc.Validate("SAVE20", 1, now)
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if got == nil || got.Code != "SAVE20" {
		t.Fatalf("expected coupon returned, got %+v", got)
	}
	if rule.Type != constants.CouponTypePercent || !rule.Value.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("unexpected rule: %+v", rule)
	}
}

func TestCouponCreateValidation(t *testing.T) {
	_, svc := newCouponTestService(t, "coupon_create_validate")

	if err := svc.Create(&models.Coupon{Code: "  "}); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input for blank code, got: %v", err)
	}
	if err := svc.Create(&models.Coupon{
		Code:  "BADTYPE",
		Type:  "mystery",
		Value: models.NewMoneyFromInt(5),
	}); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input for unknown type, got: %v", err)
	}

	coupon := models.Coupon{
		Code:  "GOOD",
		Type:  constants.CouponTypeFixed,
		Value: models.NewMoneyFromInt(5),
	}
	if err := svc.Create(&coupon); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if coupon.ScopeType != constants.ScopeTypeProduct {
		t.Fatalf("expected default scope type, got %s", coupon.ScopeType)
	}
}

func TestCouponConsumeUsageConditional(t *testing.T) {
	db, _ := newCouponTestService(t, "coupon_consume_usage")
	repo := repository.NewCouponRepository(db)

	coupon := models.Coupon{
		Code:       "LIMIT2",
		Type:       constants.CouponTypeFixed,
		Value:      models.NewMoneyFromInt(1),
		UsageLimit: 2,
		ScopeType:  constants.ScopeTypeProduct,
		IsActive:   true,
	}
	if err := db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		affected, err := repo.ConsumeUsage(coupon.ID)
		if err != nil {
			t.Fatalf("ConsumeUsage error: %v", err)
		}
		if affected != 1 {
			t.Fatalf("round %d: expected 1 row, got %d", i, affected)
		}
	}

	affected, err := repo.ConsumeUsage(coupon.ID)
	if err != nil {
		t.Fatalf("ConsumeUsage error: %v", err)
	}
	if affected != 0 {
		t.Fatalf("expected exhausted coupon to reject, got %d rows", affected)
	}

	var got models.Coupon
	if err := db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 2 {
		t.Fatalf("expected used_count capped at 2, got %d", got.UsedCount)
	}
}
