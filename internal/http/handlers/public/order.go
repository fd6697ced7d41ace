package public

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/cardvault/internal/constants"
	handlershared "github.com/cardvault/internal/http/handlers/shared"
	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建订单请求
type CreateOrderRequest struct {
	ProductID      uint                                `json:"product_id" binding:"required"`
	Quantity       int                                 `json:"quantity"`
	CardSecretID   uint                                `json:"card_secret_id"`
	PaymentMethod  string                              `json:"payment_method"`
	Email          string                              `json:"email" binding:"required"`
	SearchPassword string                              `json:"search_password"`
	CouponCode     string                              `json:"coupon_code"`
	AffiliateCode  string                              `json:"affiliate_code"`
	CaptchaPayload handlershared.CaptchaPayloadRequest `json:"captcha_payload"`
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	buyerEmail := getBuyerEmail(c)
	if h.CaptchaService != nil && buyerEmail == "" {
		if captchaErr := h.CaptchaService.Verify(constants.CaptchaSceneGuestCreateOrder, req.CaptchaPayload.ToServicePayload()); captchaErr != nil {
			switch {
			case errors.Is(captchaErr, service.ErrCaptchaRequired):
				respondError(c, response.CodeBadRequest, "error.captcha_required", nil)
			case errors.Is(captchaErr, service.ErrCaptchaInvalid):
				respondError(c, response.CodeBadRequest, "error.captcha_invalid", nil)
			default:
				respondError(c, response.CodeInternal, "error.internal", captchaErr)
			}
			return
		}
	}

	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		ProductID:          req.ProductID,
		Quantity:           req.Quantity,
		CardSecretID:       req.CardSecretID,
		PaymentMethod:      req.PaymentMethod,
		Email:              req.Email,
		AuthenticatedEmail: buyerEmail,
		SearchPassword:     req.SearchPassword,
		CouponCode:         req.CouponCode,
		AffiliateCode:      req.AffiliateCode,
		BuyerIP:            c.ClientIP(),
	})
	if err != nil {
		respondOrderCreateError(c, err)
		return
	}

	response.Success(c, order)
}

// GetOrder 按订单号获取订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))

	order, err := h.OrderService.GetOrderByNo(orderNo)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}

	response.Success(c, order)
}

// GetOrderStatus 按订单号轮询订单状态
func (h *Handler) GetOrderStatus(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))

	status, err := h.OrderService.GetOrderStatus(orderNo)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}

	response.Success(c, gin.H{
		"order_no": orderNo,
		"status":   status,
	})
}

// BatchQueryOrdersRequest 批量订单查询请求
type BatchQueryOrdersRequest struct {
	OrderNos []string `json:"order_nos" binding:"required"`
}

// BatchQueryOrders 批量按订单号查询（浏览器本地订单列表回查）
func (h *Handler) BatchQueryOrders(c *gin.Context) {
	var req BatchQueryOrdersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	orders, err := h.OrderService.ListOrdersByNos(req.OrderNos)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}

	response.Success(c, orders)
}

// SearchOrdersByEmail 按邮箱查询订单
func (h *Handler) SearchOrdersByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	password := strings.TrimSpace(c.Query("search_password"))

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrdersByEmail(email, password, page, pageSize)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// ExportOrderSecrets 导出订单卡密为文本附件
func (h *Handler) ExportOrderSecrets(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))

	export, err := h.OrderService.ExportOrderSecrets(orderNo)
	if err != nil {
		respondOrderQueryError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(export.Content))
}
