package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SaveProductRequest 创建/更新商品请求
type SaveProductRequest struct {
	Title          string          `json:"title" binding:"required"`
	Description    string          `json:"description"`
	Price          decimal.Decimal `json:"price"`
	PaymentMethods []string        `json:"payment_methods"`
	IsActive       *bool           `json:"is_active"`
	SortOrder      int             `json:"sort_order"`
}

func (r SaveProductRequest) toServiceInput() service.SaveProductInput {
	return service.SaveProductInput{
		Title:          r.Title,
		Description:    r.Description,
		Price:          r.Price,
		PaymentMethods: r.PaymentMethods,
		IsActive:       r.IsActive,
		SortOrder:      r.SortOrder,
	}
}

// GetAdminProducts 获取商品列表 (Admin)
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	search := strings.TrimSpace(c.Query("search"))

	products, total, err := h.ProductService.ListAdmin(search, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, products, pagination)
}

// GetAdminProduct 获取商品详情 (Admin)
func (h *Handler) GetAdminProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	product, err := h.ProductService.GetAdminByID(uint(productID))
	if err != nil {
		if errors.Is(err, service.ErrProductUnavailable) {
			respondError(c, response.CodeNotFound, "error.product_unavailable", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, product)
}

// CreateProduct 创建商品 (Admin)
func (h *Handler) CreateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Create(req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedInput):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		case errors.Is(err, service.ErrPaymentMethodInvalid):
			respondError(c, response.CodeBadRequest, "error.payment_method_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, product)
}

// UpdateProduct 更新商品 (Admin)
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.Update(uint(productID), req.toServiceInput())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductUnavailable):
			respondError(c, response.CodeNotFound, "error.product_unavailable", nil)
		case errors.Is(err, service.ErrMalformedInput):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		case errors.Is(err, service.ErrPaymentMethodInvalid):
			respondError(c, response.CodeBadRequest, "error.payment_method_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	response.Success(c, product)
}

// SetProductActiveRequest 上下架请求
type SetProductActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetProductActive 上下架商品 (Admin)
func (h *Handler) SetProductActive(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	var req SetProductActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	if err := h.ProductService.SetActive(uint(productID), *req.IsActive); err != nil {
		if errors.Is(err, service.ErrProductUnavailable) {
			respondError(c, response.CodeNotFound, "error.product_unavailable", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, gin.H{"id": productID, "is_active": *req.IsActive})
}
