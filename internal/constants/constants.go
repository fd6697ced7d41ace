package constants

// 订单状态常量
const (
	OrderStatusWaitPay = "wait_pay"
	OrderStatusPaid    = "paid"
	OrderStatusExpired = "expired"
)

// 卡密状态常量
const (
	CardSecretStatusAvailable = "available"
	CardSecretStatusClaimed   = "claimed"
)

// 优惠券类型常量
const (
	CouponTypeFixed   = "fixed"
	CouponTypePercent = "percent"
)

// 适用范围常量
const (
	ScopeTypeProduct = "product"
)

// 支付方式常量
const (
	PaymentMethodAlipay = "alipay"
	PaymentMethodWxpay  = "wxpay"
	PaymentMethodPaypal = "paypal"
	PaymentMethodStripe = "stripe"
	PaymentMethodUsdt   = "usdt"
)

// RecognizedPaymentMethods 受理的支付方式集合
var RecognizedPaymentMethods = []string{
	PaymentMethodAlipay,
	PaymentMethodWxpay,
	PaymentMethodPaypal,
	PaymentMethodStripe,
	PaymentMethodUsdt,
}

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneGuestCreateOrder = "guest_create_order"
	CaptchaSceneAdminLogin       = "admin_login"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskOrderTimeoutExpire = "order:timeout_expire"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "cv"
)

// 币种常量
const (
	SiteCurrencyDefault = "CNY"
)

// 站点语言常量
const (
	LocaleZhCN = "zh-CN"
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleZhCN, LocaleEnUS}
