package service

import "github.com/cardvault/internal/constants"

// allowedTransitions 订单状态迁移表。wait_pay 为初始态，paid 与 expired
// 均为终态（后续履约状态在本服务之外），状态只进不退。
var allowedTransitions = map[string][]string{
	constants.OrderStatusWaitPay: {
		constants.OrderStatusPaid,
		constants.OrderStatusExpired,
	},
	constants.OrderStatusPaid:    {},
	constants.OrderStatusExpired: {},
}

// isTransitionAllowed 判断状态迁移是否合法
func isTransitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
