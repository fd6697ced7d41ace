package service

import "errors"

// 服务层哨兵错误，处理器通过 errors.Is 映射为业务响应码与文案。
var (
	ErrMalformedInput          = errors.New("malformed input")
	ErrProductUnavailable      = errors.New("product unavailable")
	ErrPaymentMethodInvalid    = errors.New("payment method invalid")
	ErrPaymentMethodNotAllowed = errors.New("payment method not allowed")

	ErrCouponNotFound   = errors.New("coupon not found")
	ErrCouponInactive   = errors.New("coupon inactive")
	ErrCouponNotStarted = errors.New("coupon not started")
	ErrCouponExpired    = errors.New("coupon expired")
	ErrCouponUsageLimit = errors.New("coupon usage limit reached")
	ErrCouponScope      = errors.New("coupon scope mismatch")

	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrCardSecretClaimed     = errors.New("card secret already claimed")
	ErrCardSecretNotFound    = errors.New("card secret not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderExpired          = errors.New("order expired")
	ErrOrderPasswordRequired = errors.New("order search password required")
	// ErrStorageConflict 是唯一允许调用方整单重试的错误。
	ErrStorageConflict = errors.New("storage conflict")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrCaptchaRequired    = errors.New("captcha required")
	ErrCaptchaInvalid     = errors.New("captcha invalid")
)
