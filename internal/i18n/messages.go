package i18n

import "github.com/cardvault/internal/constants"

var catalogs = map[string]map[string]string{
	constants.LocaleZhCN: {
		"error.bad_request":             "请求参数有误",
		"error.unauthorized":            "未登录或登录已过期",
		"error.forbidden":               "没有权限执行该操作",
		"error.not_found":               "资源不存在",
		"error.internal":                "服务器内部错误",
		"error.rate_limited":            "请求过于频繁，请 %d 秒后重试",
		"error.rate_limit_unavailable":  "限流服务暂不可用",
		"error.invalid_credentials":     "用户名或密码错误",
		"error.captcha_required":        "请先完成验证码校验",
		"error.captcha_invalid":         "验证码错误或已过期",
		"error.order_malformed_input":   "订单参数不完整或格式有误",
		"error.product_unavailable":     "商品不存在或已下架",
		"error.payment_method_invalid":  "不支持的支付方式",
		"error.payment_method_not_allowed": "该商品不支持所选支付方式",
		"error.coupon_not_found":        "优惠券不存在",
		"error.coupon_inactive":         "优惠券未启用",
		"error.coupon_not_started":      "优惠券尚未生效",
		"error.coupon_expired":          "优惠券已过期",
		"error.coupon_usage_limit":      "优惠券已被领完",
		"error.coupon_scope_invalid":    "优惠券不适用于该商品",
		"error.stock_insufficient":      "库存不足",
		"error.card_secret_claimed":     "该卡密已被购买",
		"error.card_secret_not_found":   "卡密不存在",
		"error.order_not_found":         "订单不存在",
		"error.order_expired":           "订单已过期",
		"error.order_password_required": "请提供订单查询密码",
		"error.storage_conflict":        "系统繁忙，请稍后重试",
		"error.queue_unavailable":       "任务队列暂不可用",
	},
	constants.LocaleEnUS: {
		"error.bad_request":             "invalid request parameters",
		"error.unauthorized":            "not signed in or session expired",
		"error.forbidden":               "operation not permitted",
		"error.not_found":               "resource not found",
		"error.internal":                "internal server error",
		"error.rate_limited":            "too many requests, retry in %d seconds",
		"error.rate_limit_unavailable":  "rate limiter unavailable",
		"error.invalid_credentials":     "invalid username or password",
		"error.captcha_required":        "captcha verification required",
		"error.captcha_invalid":         "captcha incorrect or expired",
		"error.order_malformed_input":   "order fields missing or malformed",
		"error.product_unavailable":     "product missing or inactive",
		"error.payment_method_invalid":  "unsupported payment method",
		"error.payment_method_not_allowed": "payment method not allowed for this product",
		"error.coupon_not_found":        "coupon not found",
		"error.coupon_inactive":         "coupon disabled",
		"error.coupon_not_started":      "coupon not active yet",
		"error.coupon_expired":          "coupon expired",
		"error.coupon_usage_limit":      "coupon usage limit reached",
		"error.coupon_scope_invalid":    "coupon not valid for this product",
		"error.stock_insufficient":      "insufficient stock",
		"error.card_secret_claimed":     "this card has already been purchased",
		"error.card_secret_not_found":   "card not found",
		"error.order_not_found":         "order not found",
		"error.order_expired":           "order expired",
		"error.order_password_required": "order search password required",
		"error.storage_conflict":        "system busy, please retry",
		"error.queue_unavailable":       "task queue unavailable",
	},
}
