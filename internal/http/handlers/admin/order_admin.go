package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/repository"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 获取订单列表 (Admin)
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		Status:   strings.TrimSpace(c.Query("status")),
		OrderNo:  strings.TrimSpace(c.Query("order_no")),
		Email:    strings.TrimSpace(c.Query("email")),
	}
	if productID, err := strconv.ParseUint(c.Query("product_id"), 10, 64); err == nil && productID > 0 {
		filter.ProductID = uint(productID)
	}
	if from, err := time.Parse(time.RFC3339, c.Query("created_from")); err == nil {
		filter.CreatedFrom = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("created_to")); err == nil {
		filter.CreatedTo = &to
	}

	orders, total, err := h.OrderService.ListAdminOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, orders, pagination)
}

// AdminGetOrder 获取订单详情 (Admin)
func (h *Handler) AdminGetOrder(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))

	order, err := h.OrderService.GetOrderByNo(orderNo)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, order)
}

// AdminMarkOrderPaid 人工确认收款 (Admin)
func (h *Handler) AdminMarkOrderPaid(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	orderNo := strings.TrimSpace(c.Param("order_no"))

	order, err := h.OrderService.MarkPaid(orderNo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrOrderExpired):
			respondError(c, response.CodeBadRequest, "error.order_expired", nil)
		case errors.Is(err, service.ErrStorageConflict):
			respondError(c, response.CodeConflict, "error.storage_conflict", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("admin_order_mark_paid",
		"admin_id", adminID,
		"order_no", order.OrderNo,
		"status", order.Status,
	)
	response.Success(c, order)
}

// AdminExportOrderSecrets 导出订单卡密 (Admin)
func (h *Handler) AdminExportOrderSecrets(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))

	export, err := h.OrderService.ExportOrderSecrets(orderNo)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(export.Content))
}
