package admin

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// CreateCouponRequest 创建优惠券请求
type CreateCouponRequest struct {
	Code        string          `json:"code" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Value       decimal.Decimal `json:"value" binding:"required"`
	UsageLimit  int             `json:"usage_limit"`
	ScopeRefIDs []uint          `json:"scope_ref_ids"`
	StartsAt    *time.Time      `json:"starts_at"`
	EndsAt      *time.Time      `json:"ends_at"`
	IsActive    *bool           `json:"is_active"`
}

// CreateCoupon 创建优惠券 (Admin)
func (h *Handler) CreateCoupon(c *gin.Context) {
	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	scopeRefIDs := ""
	if len(req.ScopeRefIDs) > 0 {
		encoded, err := json.Marshal(req.ScopeRefIDs)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", err)
			return
		}
		scopeRefIDs = string(encoded)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	coupon := &models.Coupon{
		Code:        strings.TrimSpace(req.Code),
		Type:        strings.ToLower(strings.TrimSpace(req.Type)),
		Value:       models.Money{Decimal: req.Value},
		UsageLimit:  req.UsageLimit,
		ScopeRefIDs: scopeRefIDs,
		StartsAt:    req.StartsAt,
		EndsAt:      req.EndsAt,
		IsActive:    isActive,
	}
	if err := h.CouponService.Create(coupon); err != nil {
		if errors.Is(err, service.ErrMalformedInput) {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, coupon)
}

// GetAdminCoupons 获取优惠券列表 (Admin)
func (h *Handler) GetAdminCoupons(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.CouponListFilter{
		Page:     page,
		PageSize: pageSize,
		Code:     strings.TrimSpace(c.Query("code")),
	}
	if productID, err := strconv.ParseUint(c.Query("product_id"), 10, 64); err == nil && productID > 0 {
		filter.ScopeRefID = uint(productID)
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	coupons, total, err := h.CouponService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, coupons, pagination)
}

// SetCouponActiveRequest 启停优惠券请求
type SetCouponActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetCouponActive 启用/停用优惠券 (Admin)
func (h *Handler) SetCouponActive(c *gin.Context) {
	couponID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || couponID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.CouponService.SetActive(uint(couponID), *req.IsActive); err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			respondError(c, response.CodeNotFound, "error.coupon_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{"id": couponID, "is_active": *req.IsActive})
}
