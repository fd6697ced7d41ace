package service

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"github.com/shopspring/decimal"
)

// CouponService 优惠券服务
type CouponService struct {
	couponRepo repository.CouponRepository
}

// NewCouponService 创建优惠券服务
func NewCouponService(couponRepo repository.CouponRepository) *CouponService {
	return &CouponService{couponRepo: couponRepo}
}

// Validate 校验优惠码并返回折扣规则。
// 校验顺序固定：存在性 -> 启用 -> 生效窗口 -> 使用上限 -> 适用范围，
// 任一失败返回对应哨兵错误，由调用方整单中止。
func (s *CouponService) Validate(code string, productID uint, now time.Time) (*models.Coupon, DiscountRule, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, NoDiscount(), ErrCouponNotFound
	}

	coupon, err := s.couponRepo.GetByCode(trimmed)
	if err != nil {
		return nil, NoDiscount(), err
	}
	if coupon == nil {
		return nil, NoDiscount(), ErrCouponNotFound
	}
	if !coupon.IsActive {
		return coupon, NoDiscount(), ErrCouponInactive
	}

	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return coupon, NoDiscount(), ErrCouponNotStarted
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		return coupon, NoDiscount(), ErrCouponExpired
	}

	// 使用上限的预检，最终额度以事务内条件更新为准。
	if coupon.UsageLimit > 0 && coupon.UsedCount >= coupon.UsageLimit {
		return coupon, NoDiscount(), ErrCouponUsageLimit
	}

	if err := s.checkScope(coupon, productID); err != nil {
		return coupon, NoDiscount(), err
	}

	rule, err := s.discountRule(coupon)
	if err != nil {
		return coupon, NoDiscount(), err
	}
	return coupon, rule, nil
}

// checkScope 校验商品适用范围，空集合表示不限制商品。
func (s *CouponService) checkScope(coupon *models.Coupon, productID uint) error {
	if strings.ToLower(strings.TrimSpace(coupon.ScopeType)) != constants.ScopeTypeProduct {
		return ErrCouponScope
	}
	ids, err := decodeScopeIDs(coupon.ScopeRefIDs)
	if err != nil {
		return ErrCouponScope
	}
	if len(ids) == 0 {
		return nil
	}
	if _, ok := ids[productID]; !ok {
		return ErrCouponScope
	}
	return nil
}

func (s *CouponService) discountRule(coupon *models.Coupon) (DiscountRule, error) {
	value := coupon.Value.Decimal
	switch strings.ToLower(strings.TrimSpace(coupon.Type)) {
	case constants.CouponTypeFixed:
		if value.LessThanOrEqual(decimal.Zero) {
			return NoDiscount(), ErrCouponScope
		}
		return DiscountRule{Type: constants.CouponTypeFixed, Value: value}, nil
	case constants.CouponTypePercent:
		if value.LessThanOrEqual(decimal.Zero) || value.GreaterThan(decimal.NewFromInt(100)) {
			return NoDiscount(), ErrCouponScope
		}
		return DiscountRule{Type: constants.CouponTypePercent, Value: value}, nil
	default:
		return NoDiscount(), ErrCouponScope
	}
}

// Create 创建优惠券（管理端）
func (s *CouponService) Create(coupon *models.Coupon) error {
	coupon.Code = strings.TrimSpace(coupon.Code)
	if coupon.Code == "" {
		return ErrMalformedInput
	}
	if coupon.ScopeType == "" {
		coupon.ScopeType = constants.ScopeTypeProduct
	}
	if _, err := s.discountRule(coupon); err != nil {
		return ErrMalformedInput
	}
	return s.couponRepo.Create(coupon)
}

// List 优惠券列表（管理端）
func (s *CouponService) List(filter repository.CouponListFilter) ([]models.Coupon, int64, error) {
	return s.couponRepo.List(filter)
}

// SetActive 启用/停用优惠券（管理端）
func (s *CouponService) SetActive(id uint, active bool) error {
	coupon, err := s.couponRepo.GetByID(id)
	if err != nil {
		return err
	}
	if coupon == nil {
		return ErrCouponNotFound
	}
	coupon.IsActive = active
	return s.couponRepo.Update(coupon)
}

func decodeScopeIDs(raw string) (map[uint]struct{}, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[uint]struct{}{}, nil
	}
	var ids []uint
	if err := json.Unmarshal([]byte(trimmed), &ids); err != nil {
		return nil, err
	}
	result := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		result[id] = struct{}{}
	}
	return result, nil
}
