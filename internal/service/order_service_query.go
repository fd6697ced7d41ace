package service

import (
	"strings"

	"github.com/cardvault/internal/models"
	"github.com/cardvault/internal/repository"
)

// 查询路径只读订单，唯一的写动作是惰性过期同步。
// "不存在" 与 "已过期" 是两种可查询的状态，都不会以异常形式暴露。

// GetOrderByNo 按订单号查询订单
func (s *OrderService) GetOrderByNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, ErrOrderNotFound
	}
	order, err := s.orderRepo.GetByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.ensureOrderExpired(order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderStatus 按订单号轮询订单状态
func (s *OrderService) GetOrderStatus(orderNo string) (string, error) {
	order, err := s.GetOrderByNo(orderNo)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// ListOrdersByNos 批量按订单号查询（浏览器本地订单列表回查）
func (s *OrderService) ListOrdersByNos(orderNos []string) ([]models.Order, error) {
	normalized := make([]string, 0, len(orderNos))
	for _, orderNo := range orderNos {
		orderNo = strings.TrimSpace(orderNo)
		if orderNo != "" {
			normalized = append(normalized, orderNo)
		}
	}
	orders, err := s.orderRepo.ListByOrderNos(normalized)
	if err != nil {
		return nil, err
	}
	if err := s.ensureOrdersExpired(orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// ListOrdersByEmail 按邮箱查询订单。部署要求查询密码时，密码为空直接拒绝。
func (s *OrderService) ListOrdersByEmail(email, password string, page, pageSize int) ([]models.Order, int64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, 0, ErrMalformedInput
	}
	password = strings.TrimSpace(password)
	if s.orderCfg.RequireSearchPassword && password == "" {
		return nil, 0, ErrOrderPasswordRequired
	}
	orders, total, err := s.orderRepo.ListByEmail(email, password, s.orderCfg.RequireSearchPassword, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	if err := s.ensureOrdersExpired(orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListAdminOrders 管理端订单列表
func (s *OrderService) ListAdminOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	orders, total, err := s.orderRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, err
	}
	if err := s.ensureOrdersExpired(orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ensureOrdersExpired 批量惰性过期同步
func (s *OrderService) ensureOrdersExpired(orders []models.Order) error {
	for i := range orders {
		if err := s.ensureOrderExpired(&orders[i]); err != nil {
			return err
		}
	}
	return nil
}
