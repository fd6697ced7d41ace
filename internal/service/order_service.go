package service

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/mail"
	"strings"
	"time"

	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/logger"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/queue"
	"github.com/cardvault/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	productRepo   repository.ProductRepository
	secretRepo    repository.CardSecretRepository
	couponRepo    repository.CouponRepository
	couponService *CouponService
	allocator     *InventoryAllocator
	queueClient   *queue.Client
	orderCfg      config.OrderConfig
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	secretRepo repository.CardSecretRepository,
	couponRepo repository.CouponRepository,
	couponService *CouponService,
	allocator *InventoryAllocator,
	queueClient *queue.Client,
	orderCfg config.OrderConfig,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		productRepo:   productRepo,
		secretRepo:    secretRepo,
		couponRepo:    couponRepo,
		couponService: couponService,
		allocator:     allocator,
		queueClient:   queueClient,
		orderCfg:      orderCfg,
	}
}

// CreateOrderInput 下单入参
type CreateOrderInput struct {
	ProductID          uint
	Quantity           int
	CardSecretID       uint // 指定购买的卡密，非 0 时数量强制为 1
	PaymentMethod      string
	Email              string
	AuthenticatedEmail string // 已登录身份的邮箱，优先于 Email
	SearchPassword     string
	CouponCode         string
	AffiliateCode      string
	BuyerIP            string
}

// createOrderContext 贯穿校验规则的下单上下文
type createOrderContext struct {
	input   CreateOrderInput
	product *models.Product
	now     time.Time
}

// createOrderRule 单条校验规则，按固定顺序执行，失败顺序因此是确定的。
type createOrderRule func(s *OrderService, ctx *createOrderContext) error

// createOrderRules 固定顺序的校验规则表
var createOrderRules = []createOrderRule{
	ruleStructural,
	ruleCatalog,
	rulePaymentMethod,
	rulePreselection,
}

// ruleStructural 结构校验：邮箱格式、数量、支付方式枚举
func ruleStructural(s *OrderService, ctx *createOrderContext) error {
	if ctx.input.ProductID == 0 {
		return ErrMalformedInput
	}
	if _, err := mail.ParseAddress(ctx.input.Email); err != nil {
		return ErrMalformedInput
	}
	if ctx.input.Quantity < 1 {
		return ErrMalformedInput
	}
	if ctx.input.PaymentMethod != "" && !isRecognizedPaymentMethod(ctx.input.PaymentMethod) {
		return ErrPaymentMethodInvalid
	}
	return nil
}

// ruleCatalog 商品存在且上架
func ruleCatalog(s *OrderService, ctx *createOrderContext) error {
	product, err := s.productRepo.GetByID(ctx.input.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductUnavailable
	}
	ctx.product = product
	return nil
}

// rulePaymentMethod 白名单非空时支付方式必须命中；空白名单时未指定支付方式也放行
func rulePaymentMethod(s *OrderService, ctx *createOrderContext) error {
	allowed, err := decodePaymentMethods(ctx.product.PaymentMethods)
	if err != nil {
		return err
	}
	if len(allowed) == 0 {
		return nil
	}
	for _, method := range allowed {
		if method == ctx.input.PaymentMethod {
			return nil
		}
	}
	return ErrPaymentMethodNotAllowed
}

// rulePreselection 指定卡密的订单数量强制为 1
func rulePreselection(s *OrderService, ctx *createOrderContext) error {
	if ctx.input.CardSecretID == 0 {
		return nil
	}
	ctx.input.Quantity = 1
	secret, err := s.secretRepo.GetByID(ctx.input.CardSecretID)
	if err != nil {
		return err
	}
	if secret == nil || secret.ProductID != ctx.input.ProductID {
		return ErrCardSecretNotFound
	}
	// 预检，最终归属以事务内条件更新为准。
	if secret.Status != constants.CardSecretStatusAvailable {
		return ErrCardSecretClaimed
	}
	return nil
}

// CreateOrder 创建订单。校验 -> 定价 -> 单事务内认领库存、占用优惠券额度并
// 落库，任一步失败整体回滚，失败的下单不消耗任何库存或优惠券额度。
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	ctx := &createOrderContext{
		input: normalizeCreateOrderInput(input),
		now:   time.Now(),
	}

	for _, rule := range createOrderRules {
		if err := rule(s, ctx); err != nil {
			return nil, err
		}
	}

	var coupon *models.Coupon
	rule := NoDiscount()
	if ctx.input.CouponCode != "" {
		var err error
		coupon, rule, err = s.couponService.Validate(ctx.input.CouponCode, ctx.input.ProductID, ctx.now)
		if err != nil {
			return nil, err
		}
	}

	quote := Price(ctx.product.Price.Decimal, ctx.input.Quantity, rule)

	expiresAt := ctx.now.Add(s.paymentExpireDuration())
	order := &models.Order{
		OrderNo:        generateOrderNo(),
		ProductID:      ctx.product.ID,
		ProductTitle:   ctx.product.Title,
		Quantity:       ctx.input.Quantity,
		UnitPrice:      models.NewMoneyFromDecimal(ctx.product.Price.Decimal),
		DiscountAmount: models.NewMoneyFromDecimal(quote.Discount),
		TotalAmount:    models.NewMoneyFromDecimal(quote.Total),
		Currency:       s.currency(),
		Email:          ctx.input.Email,
		SearchPassword: ctx.input.SearchPassword,
		BuyerIP:        ctx.input.BuyerIP,
		AffiliateCode:  ctx.input.AffiliateCode,
		PaymentMethod:  ctx.input.PaymentMethod,
		Status:         constants.OrderStatusWaitPay,
		ExpiresAt:      &expiresAt,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}
	if ctx.input.CardSecretID != 0 {
		secretID := ctx.input.CardSecretID
		order.CardSecretID = &secretID
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return translateStorageError(err)
		}

		if ctx.input.CardSecretID != 0 {
			if _, err := s.allocator.ClaimSpecific(tx, ctx.input.CardSecretID, ctx.input.ProductID, order.ID, ctx.now); err != nil {
				return err
			}
		} else {
			if _, err := s.allocator.ClaimN(tx, ctx.input.ProductID, ctx.input.Quantity, order.ID, ctx.now); err != nil {
				return err
			}
		}

		if coupon != nil {
			affected, err := s.couponRepo.WithTx(tx).ConsumeUsage(coupon.ID)
			if err != nil {
				return translateStorageError(err)
			}
			if affected == 0 {
				return ErrCouponUsageLimit
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueTimeoutExpire(order, expiresAt)

	logger.Infow("order_created",
		"order_no", order.OrderNo,
		"product_id", order.ProductID,
		"quantity", order.Quantity,
		"total_amount", order.TotalAmount.String(),
		"payment_method", order.PaymentMethod,
	)
	return order, nil
}

// MarkPaid 支付结算回写，wait_pay -> paid
func (s *OrderService) MarkPaid(orderNo string) (*models.Order, error) {
	order, err := s.orderRepo.GetByOrderNo(strings.TrimSpace(orderNo))
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderExpired(order); err != nil {
		return nil, err
	}

	switch order.Status {
	case constants.OrderStatusPaid:
		return order, nil
	case constants.OrderStatusExpired:
		return nil, ErrOrderExpired
	}
	if !isTransitionAllowed(order.Status, constants.OrderStatusPaid) {
		return nil, ErrStorageConflict
	}

	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusWaitPay, constants.OrderStatusPaid, map[string]interface{}{
		"paid_at": now,
	})
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// 并发迁移抢先，让调用方整体重试。
		return nil, ErrStorageConflict
	}

	order.Status = constants.OrderStatusPaid
	order.PaidAt = &now
	logger.Infow("order_paid", "order_no", order.OrderNo)
	return order, nil
}

// ExpireOrder 过期未支付订单（worker 回调）。已认领卡密与优惠券额度保持不变，
// 售出库存不自动回收。
func (s *OrderService) ExpireOrder(orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusWaitPay {
		return nil
	}
	if order.ExpiresAt != nil && time.Now().Before(*order.ExpiresAt) {
		return nil
	}
	return s.expireNow(order)
}

// ensureOrderExpired 读取路径上的惰性过期：wait_pay 且已过支付截止时间的
// 订单先迁移到 expired 再返回。
func (s *OrderService) ensureOrderExpired(order *models.Order) error {
	if order == nil || order.Status != constants.OrderStatusWaitPay {
		return nil
	}
	if order.ExpiresAt == nil || time.Now().Before(*order.ExpiresAt) {
		return nil
	}
	return s.expireNow(order)
}

func (s *OrderService) expireNow(order *models.Order) error {
	if !isTransitionAllowed(order.Status, constants.OrderStatusExpired) {
		return nil
	}
	now := time.Now()
	affected, err := s.orderRepo.UpdateStatusFrom(order.ID, constants.OrderStatusWaitPay, constants.OrderStatusExpired, map[string]interface{}{
		"expired_at": now,
	})
	if err != nil {
		return err
	}
	if affected > 0 {
		order.Status = constants.OrderStatusExpired
		order.ExpiredAt = &now
		logger.Infow("order_expired", "order_no", order.OrderNo)
		return nil
	}
	// 别处已迁移，读回真实状态。
	latest, err := s.orderRepo.GetByID(order.ID)
	if err != nil {
		return err
	}
	if latest != nil {
		*order = *latest
	}
	return nil
}

func (s *OrderService) enqueueTimeoutExpire(order *models.Order, expiresAt time.Time) {
	if s.queueClient == nil {
		return
	}
	delay := time.Until(expiresAt)
	err := s.queueClient.EnqueueOrderTimeoutExpire(queue.OrderTimeoutExpirePayload{OrderID: order.ID}, delay)
	if err != nil {
		logger.Warnw("order_timeout_task_enqueue_failed",
			"order_no", order.OrderNo,
			"error", err,
		)
	}
}

func (s *OrderService) paymentExpireDuration() time.Duration {
	minutes := s.orderCfg.PaymentExpireMinutes
	if minutes <= 0 {
		minutes = 15
	}
	return time.Duration(minutes) * time.Minute
}

func (s *OrderService) currency() string {
	if c := strings.TrimSpace(s.orderCfg.Currency); c != "" {
		return c
	}
	return constants.SiteCurrencyDefault
}

func normalizeCreateOrderInput(input CreateOrderInput) CreateOrderInput {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if authenticated := strings.ToLower(strings.TrimSpace(input.AuthenticatedEmail)); authenticated != "" {
		// 已登录身份的邮箱覆盖请求体里的邮箱。
		input.Email = authenticated
	}
	input.PaymentMethod = strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	input.CouponCode = strings.TrimSpace(input.CouponCode)
	input.AffiliateCode = strings.TrimSpace(input.AffiliateCode)
	input.SearchPassword = strings.TrimSpace(input.SearchPassword)
	return input
}

func isRecognizedPaymentMethod(method string) bool {
	for _, recognized := range constants.RecognizedPaymentMethods {
		if method == recognized {
			return true
		}
	}
	return false
}

// decodePaymentMethods 解析商品支付方式白名单（JSON 数组，空表示不限制）
func decodePaymentMethods(raw string) ([]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var methods []string
	if err := json.Unmarshal([]byte(trimmed), &methods); err != nil {
		return nil, ErrProductUnavailable
	}
	normalized := make([]string, 0, len(methods))
	for _, method := range methods {
		method = strings.ToLower(strings.TrimSpace(method))
		if method != "" {
			normalized = append(normalized, method)
		}
	}
	return normalized, nil
}

func translateStorageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrStorageConflict
	}
	return err
}

// generateOrderNo 生成订单编号：CV + 时间戳 + 6 位随机数字
func generateOrderNo() string {
	return "CV" + time.Now().Format("20060102150405") + randNumeric(6)
}

func randNumeric(length int) string {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			digits[i] = '0'
			continue
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits)
}
