package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
)

// ImportCardSecretsRequest 批量录入卡密请求
type ImportCardSecretsRequest struct {
	ProductID uint     `json:"product_id" binding:"required"`
	Secrets   []string `json:"secrets" binding:"required"`
}

// ImportCardSecrets 批量录入卡密 (Admin)
func (h *Handler) ImportCardSecrets(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}

	var req ImportCardSecretsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	count, err := h.CardSecretService.ImportCardSecrets(service.ImportCardSecretsInput{
		ProductID: req.ProductID,
		Secrets:   req.Secrets,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedInput):
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		case errors.Is(err, service.ErrProductUnavailable):
			respondError(c, response.CodeNotFound, "error.product_unavailable", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}

	requestLog(c).Infow("card_secret_imported",
		"admin_id", adminID,
		"product_id", req.ProductID,
		"count", count,
	)
	response.Success(c, gin.H{"imported": count})
}

// GetCardSecrets 卡密列表 (Admin)
func (h *Handler) GetCardSecrets(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var productID uint
	if parsed, err := strconv.ParseUint(c.Query("product_id"), 10, 64); err == nil {
		productID = uint(parsed)
	}
	status := strings.TrimSpace(c.Query("status"))

	secrets, total, err := h.CardSecretService.ListCardSecrets(productID, status, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, secrets, pagination)
}

// GetCardSecretStats 卡密库存统计 (Admin)
func (h *Handler) GetCardSecretStats(c *gin.Context) {
	productID, err := strconv.ParseUint(c.Query("product_id"), 10, 64)
	if err != nil || productID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}

	stats, err := h.CardSecretService.StatCardSecrets(uint(productID))
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}

	response.Success(c, stats)
}
