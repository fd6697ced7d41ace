package service

import (
	"errors"
	"testing"
	"time"

	"github.com/cardvault/internal/config"
	"github.com/cardvault/internal/constants"
	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"
)

func TestGetOrderByNoLazyExpiry(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_lazy_expiry", config.OrderConfig{})
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

	got, err := env.svc.GetOrderByNo(order.OrderNo)
	if err != nil {
		t.Fatalf("GetOrderByNo error: %v", err)
	}
	if got.Status != constants.OrderStatusExpired {
		t.Fatalf("expected expired on read, got %s", got.Status)
	}

	// 过期已经落库，不只是内存视图
	reloaded, err := env.orderRepo.GetByID(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusExpired {
		t.Fatalf("expected persisted expiry, got %s", reloaded.Status)
	}
}

func TestGetOrderByNoNotFound(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_not_found", config.OrderConfig{})
	if _, err := env.svc.GetOrderByNo("CV99999999999999999999"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found, got: %v", err)
	}
	if _, err := env.svc.GetOrderByNo("   "); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected order not found for blank input, got: %v", err)
	}
}

func TestGetOrderStatus(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_status", config.OrderConfig{PaymentExpireMinutes: 60})
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

	status, err := env.svc.GetOrderStatus(order.OrderNo)
	if err != nil {
		t.Fatalf("GetOrderStatus error: %v", err)
	}
	if status != constants.OrderStatusWaitPay {
		t.Fatalf("expected wait_pay, got %s", status)
	}
}

func TestListOrdersByNosSkipsBlanks(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_batch", config.OrderConfig{PaymentExpireMinutes: 60})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 2)

	first, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "a@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	second, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "b@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	orders, err := env.svc.ListOrdersByNos([]string{
		first.OrderNo,
		"  ",
		second.OrderNo,
		"CV00000000000000000000",
	})
	if err != nil {
		t.Fatalf("ListOrdersByNos error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
}

func TestListOrdersByEmailPasswordPolicy(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_email", config.OrderConfig{
		PaymentExpireMinutes:  60,
		RequireSearchPassword: true,
	})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 2)

	if _, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID:      product.ID,
		Quantity:       1,
		Email:          "buyer@example.com",
		SearchPassword: "s3cret",
	}); err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	if _, _, err := env.svc.ListOrdersByEmail("buyer@example.com", "", 1, 10); !errors.Is(err, ErrOrderPasswordRequired) {
		t.Fatalf("expected password required, got: %v", err)
	}

	orders, total, err := env.svc.ListOrdersByEmail("Buyer@Example.com", "s3cret", 1, 10)
	if err != nil {
		t.Fatalf("ListOrdersByEmail error: %v", err)
	}
	if total != 1 || len(orders) != 1 {
		t.Fatalf("expected 1 matching order, got total %d len %d", total, len(orders))
	}

	// 密码不匹配时结果为空而非报错
	orders, total, err = env.svc.ListOrdersByEmail("buyer@example.com", "wrong", 1, 10)
	if err != nil {
		t.Fatalf("ListOrdersByEmail error: %v", err)
	}
	if total != 0 || len(orders) != 0 {
		t.Fatalf("expected no match for wrong password, got total %d", total)
	}

	if _, _, err := env.svc.ListOrdersByEmail("", "s3cret", 1, 10); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("expected malformed input for empty email, got: %v", err)
	}
}

func TestListAdminOrdersFilters(t *testing.T) {
	env := newOrderTestEnv(t, "order_query_admin", config.OrderConfig{PaymentExpireMinutes: 60})
	product := env.createProduct(t, 10, "")
	env.createSecrets(t, product.ID, 2)

	order, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "a@example.com",
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err := env.svc.CreateOrder(CreateOrderInput{
		ProductID: product.ID,
		Quantity:  1,
		Email:     "b@example.com",
	}); err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	orders, total, err := env.svc.ListAdminOrders(repository.OrderListFilter{
		Email:    "a@example.com",
		Page:     1,
		PageSize: 10,
	})
	if err != nil {
		t.Fatalf("ListAdminOrders error: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].OrderNo != order.OrderNo {
		t.Fatalf("unexpected admin list result: total %d orders %+v", total, orders)
	}
}
