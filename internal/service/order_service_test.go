package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type orderTestEnv struct {
	db         *gorm.DB
	orderRepo  *repository.GormOrderRepository
	secretRepo *repository.GormCardSecretRepository
	couponRepo *repository.GormCouponRepository
	svc        *OrderService
}

func newOrderTestEnv(t *testing.T, name string, cfg config.OrderConfig) *orderTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.CardSecret{}, &models.Coupon{}, &models.Order{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	secretRepo := repository.NewCardSecretRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	svc := NewOrderService(
		orderRepo,
		productRepo,
		secretRepo,
		couponRepo,
		NewCouponService(couponRepo),
		NewInventoryAllocator(secretRepo),
		nil,
		cfg,
	)
	return &orderTestEnv{
		db:         db,
		orderRepo:  orderRepo,
		secretRepo: secretRepo,
		couponRepo: couponRepo,
		svc:        svc,
	}
}

func (env *orderTestEnv) createProduct(t *testing.T, price int64, paymentMethods string) *models.Product {
	t.Helper()
	product := models.Product{
		Title:          "测试商品",
		Price:          models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		PaymentMethods: paymentMethods,
		IsActive:       true,
	}
	if err := env.db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func (env *orderTestEnv) createSecrets(t *testing.T, productID uint, count int) []models.CardSecret {
	t.Helper()
	secrets := make([]models.CardSecret, 0, count)
	for i := 0; i < count; i++ {
		secrets = append(secrets, models.CardSecret{
			ProductID: productID,
			Secret:    fmt.Sprintf("CODE-%d-%d", productID, i),
			Status:    constants.CardSecretStatusAvailable,
		})
	}
	if err := env.db.Create(&secrets).Error; err != nil {
		t.Fatalf("create secrets failed: %v", err)
	}
	return secrets
}

func TestCreateOrderWithPercentCoupon(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_percent", config.OrderConfig{PaymentExpireMinutes: 15})
	product := env.createProduct(t, 100, "")
	env.createSecrets(t, product.ID, 5)

	coupon := models.Coupon{
		Code:      "SAVE15",
		Type:      constants.CouponTypePercent,
		Value:     models.NewMoneyFromInt(15),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:  product.ID,
		Quantity:   2,
		Email:      "Buyer@Example.com",
		CouponCode: "SAVE15",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.Status != constants.OrderStatusWaitPay {
		t.Fatalf("expected wait_pay, got %s", order.Status)
	}
	if order.Email != "buyer@example.com" {
		t.Fatalf("expected normalized email, got %s", order.Email)
	}
	if !order.DiscountAmount.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected discount 30, got %s", order.DiscountAmount.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(170)) {
		t.Fatalf("expected total 170, got %s", order.TotalAmount.String())
	}
	if order.ExpiresAt == nil {
		t.Fatalf("expected payment deadline to be set")
	}

	claimed, err := env.secretRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("ListByOrder error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected 2 claimed secrets, got %d", len(claimed))
	}
	for _, secret := range claimed {
		if secret.Status != constants.CardSecretStatusClaimed || secret.ClaimedAt == nil {
			t.Fatalf("secret not fully claimed: %+v", secret)
		}
	}

	var got models.Coupon
	if err := env.db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 1 {
		t.Fatalf("expected used_count 1, got %d", got.UsedCount)
	}
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_insufficient", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 2)

	coupon := models.Coupon{
		Code:      "HALF",
		Type:      constants.CouponTypePercent,
		Value:     models.NewMoneyFromInt(50),
		ScopeType: constants.ScopeTypeProduct,
		IsActive:  true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:  product.ID,
		Quantity:   3,
		Email:      "buyer@example.com",
		CouponCode: "HALF",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}

	var orderCount int64
	if err := env.db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("expected no orders after rollback, got %d", orderCount)
	}

	var availableCount int64
	if err := env.db.Model(&models.CardSecret{}).
		Where("status = ?", constants.CardSecretStatusAvailable).
		Count(&availableCount).Error; err != nil {
		t.Fatalf("count secrets failed: %v", err)
	}
	if availableCount != 2 {
		t.Fatalf("expected 2 secrets still available, got %d", availableCount)
	}

	var got models.Coupon
	if err := env.db.First(&got, coupon.ID).Error; err != nil {
		t.Fatalf("reload coupon failed: %v", err)
	}
	if got.UsedCount != 0 {
		t.Fatalf("expected coupon untouched after rollback, got used_count %d", got.UsedCount)
	}
}

func TestCreateOrderPreselectedSecretForcesQuantityOne(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_preselect", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	secrets := env.createSecrets(t, product.ID, 3)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:    product.ID,
		Quantity:     5,
		CardSecretID: secrets[1].ID,
		Email:        "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.Quantity != 1 {
		t.Fatalf("expected quantity forced to 1, got %d", order.Quantity)
	}
	if order.CardSecretID == nil || *order.CardSecretID != secrets[1].ID {
		t.Fatalf("expected preselected secret recorded, got %+v", order.CardSecretID)
	}

	claimed, err := env.secretRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("ListByOrder error: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != secrets[1].ID {
		t.Fatalf("expected exactly the preselected secret, got %+v", claimed)
	}
}

func TestCreateOrderPreselectedSecretAlreadyClaimed(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_preselect_claimed", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	secrets := env.createSecrets(t, product.ID, 1)

	first, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:    product.ID,
		CardSecretID: secrets[0].ID,
		Quantity:     1,
		Email:        "first@example.com",
	})
	if err != nil {
		t.Fatalf("first CreateOrder error: %v", err)
	}
	if first == nil {
		t.Fatalf("expected first order")
	}

	_, err = env.svc.CreateOrder(CreateOrderInput{
		ProductID:    product.ID,
		CardSecretID: secrets[0].ID,
		Quantity:     1,
		Email:        "second@example.com",
	})
	if !errors.Is(err, ErrCardSecretClaimed) {
		t.Fatalf("expected card secret claimed, got: %v", err)
	}
}

func TestCreateOrderPreselectedSecretWrongProduct(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_preselect_wrong", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	other := env.createProduct(t, 20, "")
	secrets := env.createSecrets(t, other.ID, 1)

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:    product.ID,
		CardSecretID: secrets[0].ID,
		Quantity:     1,
		Email:        "buyer@example.com",
	})
	if !errors.Is(err, ErrCardSecretNotFound) {
		t.Fatalf("expected card secret not found, got: %v", err)
	}
}

func TestCreateOrderPaymentMethodRules(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_payment", config.OrderConfig{})
	restricted := env.createProduct(t, 10, `["alipay"]`)
	open := env.createProduct(t, 10, "")
	env.createSecrets(t, restricted.ID, 3)
	env.createSecrets(t, open.ID, 3)

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:     restricted.ID,
		Quantity:      1,
		Email:         "buyer@example.com",
		PaymentMethod: "wxpay",
	})
	if !errors.Is(err, ErrPaymentMethodNotAllowed) {
		t.Fatalf("expected payment method not allowed, got: %v", err)
	}

	_, err = env.svc.CreateOrder(CreateOrderInput{
		ProductID:     restricted.ID,
		Quantity:      1,
		Email:         "buyer@example.com",
		PaymentMethod: "carrier-pigeon",
	})
	if !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("expected payment method invalid, got: %v", err)
	}

	// 空白名单不限制，支付方式可留空
	if _, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: open.ID,
		Quantity:  1,
		Email:     "buyer@example.com",
	}); err != nil {
		t.Fatalf("expected open product to accept empty payment method, got: %v", err)
	}

	if _, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:     restricted.ID,
		Quantity:      1,
		Email:         "buyer@example.com",
		PaymentMethod: "Alipay",
	}); err != nil {
		t.Fatalf("expected whitelisted method to pass after normalization, got: %v", err)
	}
}

func TestCreateOrderRejectsMalformedInput(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_malformed", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)

	cases := []CreateOrderInput{
		{ProductID: 0, Quantity: 1, Email: "buyer@example.com"},
		{ProductID: product.ID, Quantity: 1, Email: "not-an-email"},
		{ProductID: product.ID, Quantity: 0, Email: "buyer@example.com"},
	}
	for i, input := range cases {
		if _, err := env.svc.CreateOrder(input); !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("case %d: expected malformed input, got: %v", i, err)
		}
	}
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_inactive", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)
	if err := env.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate product failed: %v", err)
	}

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "buyer@example.com",
	})
	if !errors.Is(err, ErrProductUnavailable) {
		t.Fatalf("expected product unavailable, got: %v", err)
	}
}

func TestCreateOrderCouponFailureAbortsOrder(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_coupon_abort", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 3)

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:  product.ID,
		Quantity:   1,
		Email:      "buyer@example.com",
		CouponCode: "NO-SUCH-CODE",
	})
	if !errors.Is(err, ErrCouponNotFound) {
		t.Fatalf("expected coupon not found, got: %v", err)
	}

	var availableCount int64
	if err := env.db.Model(&models.CardSecret{}).
		Where("status = ?", constants.CardSecretStatusAvailable).
		Count(&availableCount).Error; err != nil {
		t.Fatalf("count secrets failed: %v", err)
	}
	if availableCount != 3 {
		t.Fatalf("expected no stock consumed, got %d available", availableCount)
	}
}

func TestCreateOrderCouponUsageExhausted(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_coupon_used_up", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 3)

	coupon := models.Coupon{
		Code:       "ONCE",
		Type:       constants.CouponTypeFixed,
		Value:      models.NewMoneyFromInt(1),
		UsageLimit: 1,
		UsedCount:  1,
		ScopeType:  constants.ScopeTypeProduct,
		IsActive:   true,
	}
	if err := env.db.Create(&coupon).Error; err != nil {
		t.Fatalf("create coupon failed: %v", err)
	}

	_, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:  product.ID,
		Quantity:   1,
		Email:      "buyer@example.com",
		CouponCode: "ONCE",
	})
	if !errors.Is(err, ErrCouponUsageLimit) {
		t.Fatalf("expected coupon usage limit, got: %v", err)
	}
}

func TestCreateOrderAuthenticatedEmailOverridesBody(t *testing.T) {
	env := newOrderTestEnv(t, "order_create_auth_email", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:          product.ID,
		Quantity:           1,
		Email:              "guest@example.com",
		AuthenticatedEmail: "Member@Example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if order.Email != "member@example.com" {
		t.Fatalf("expected authenticated email to win, got %s", order.Email)
	}
}

func TestMarkPaidTransitions(t *testing.T) {
	env := newOrderTestEnv(t, "order_mark_paid", config.OrderConfig{PaymentExpireMinutes: 15})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	paid, err := env.svc.MarkPaid(order.OrderNo)
	if err != nil {
		t.Fatalf("MarkPaid error: %v", err)
	}
	if paid.Status != constants.OrderStatusPaid || paid.PaidAt == nil {
		t.Fatalf("expected paid order, got %+v", paid)
	}

	// 重复结算幂等
	again, err := env.svc.MarkPaid(order.OrderNo)
	if err != nil {
		t.Fatalf("repeat MarkPaid error: %v", err)
	}
	if again.Status != constants.OrderStatusPaid {
		t.Fatalf("expected paid on repeat, got %s", again.Status)
	}
}

func TestMarkPaidExpiredOrderRejected(t *testing.T) {
	env := newOrderTestEnv(t, "order_mark_paid_expired", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	_, err = env.svc.MarkPaid(order.OrderNo)
	if !errors.Is(err, ErrOrderExpired) {
		t.Fatalf("expected order expired, got: %v", err)
	}

	reloaded, err := env.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired || reloaded.ExpiredAt == nil {
		t.Fatalf("expected lazily expired order, got %+v", reloaded)
	}
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	env := newOrderTestEnv(t, "order_mark_paid_unknown", config.OrderConfig{})
	if _, err := env.svc.MarkPaid("CV00000000000000000000"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
}

func TestExpireOrderKeepsClaimedSecrets(t *testing.T) {
	env := newOrderTestEnv(t, "order_expire_keeps_claims", config.OrderConfig{})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 2)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  2,
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	past := time.Now().Add(-time.Minute)
	if err := env.db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("expires_at", past).Error; err != nil {
		t.Fatalf("backdate order failed: %v", err)
	}

	if err := env.svc.ExpireOrder(order.ID); err != nil {
		t.Fatalf("ExpireOrder error: %v", err)
	}

	reloaded, err := env.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("expected expired, got %s", reloaded.Status)
	}

	claimed, err := env.secretRepo.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("ListByOrder error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected claimed secrets to stay claimed, got %d", len(claimed))
	}
}

func TestExpireOrderBeforeDeadlineNoop(t *testing.T) {
	env := newOrderTestEnv(t, "order_expire_noop", config.OrderConfig{PaymentExpireMinutes: 60})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 1)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if err := env.svc.ExpireOrder(order.ID); err != nil {
		t.Fatalf("ExpireOrder error: %v", err)
	}
	reloaded, err := env.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusWaitPay {
		t.Fatalf("expected order untouched before deadline, got %s", reloaded.Status)
	}
}

func TestGenerateOrderNoFormat(t *testing.T) {
	orderNo := generateOrderNo()
	if len(orderNo) != 2+14+6 {
		t.Fatalf("unexpected order no length: %s", orderNo)
	}
	if orderNo[:2] != "CV" {
		t.Fatalf("expected CV prefix, got %s", orderNo)
	}
}

func TestDecodePaymentMethods(t *testing.T) {
	methods, err := decodePaymentMethods(`["Alipay"," wxpay ",""]`)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(methods) != 2 || methods[0] != "alipay" || methods[1] != "wxpay" {
		t.Fatalf("unexpected methods: %+v", methods)
	}

	empty, err := decodePaymentMethods("   ")
	if err != nil || empty != nil {
		t.Fatalf("expected nil for blank whitelist, got %+v err %v", empty, err)
	}

	if _, err := decodePaymentMethods("{broken"); err == nil {
		t.Fatalf("expected error for malformed whitelist")
	}
}
