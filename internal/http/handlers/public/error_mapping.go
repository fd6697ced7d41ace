package public

import (
	"errors"

	"github.com/cardvault/internal/http/response"
	"github.com/cardvault/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrMalformedInput, code: response.CodeBadRequest, key: "error.order_malformed_input"},
	{target: service.ErrProductUnavailable, code: response.CodeBadRequest, key: "error.product_unavailable"},
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, key: "error.payment_method_invalid"},
	{target: service.ErrPaymentMethodNotAllowed, code: response.CodeBadRequest, key: "error.payment_method_not_allowed"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, key: "error.stock_insufficient"},
	{target: service.ErrCardSecretNotFound, code: response.CodeBadRequest, key: "error.card_secret_not_found"},
	{target: service.ErrCardSecretClaimed, code: response.CodeConflict, key: "error.card_secret_claimed"},
	{target: service.ErrStorageConflict, code: response.CodeConflict, key: "error.storage_conflict"},
}

var couponErrorRules = []mappedHandlerError{
	{target: service.ErrCouponNotFound, code: response.CodeBadRequest, key: "error.coupon_not_found"},
	{target: service.ErrCouponInactive, code: response.CodeBadRequest, key: "error.coupon_inactive"},
	{target: service.ErrCouponNotStarted, code: response.CodeBadRequest, key: "error.coupon_not_started"},
	{target: service.ErrCouponExpired, code: response.CodeBadRequest, key: "error.coupon_expired"},
	{target: service.ErrCouponUsageLimit, code: response.CodeBadRequest, key: "error.coupon_usage_limit"},
	{target: service.ErrCouponScope, code: response.CodeBadRequest, key: "error.coupon_scope_invalid"},
}

var orderQueryErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrOrderPasswordRequired, code: response.CodeBadRequest, key: "error.order_password_required"},
	{target: service.ErrMalformedInput, code: response.CodeBadRequest, key: "error.order_malformed_input"},
}

func respondOrderCreateError(c *gin.Context, err error) {
	respondWithMappedError(c, err, concatMappedHandlerErrors(orderCreateErrorRules, couponErrorRules), response.CodeInternal, "error.internal")
}

func respondOrderQueryError(c *gin.Context, err error) {
	respondWithMappedError(c, err, orderQueryErrorRules, response.CodeInternal, "error.internal")
}
