package queue

import (
	"encoding/json"

	"github.com/cardvault/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderTimeoutExpire 订单超时过期任务
	TaskOrderTimeoutExpire = constants.TaskOrderTimeoutExpire
)

// OrderTimeoutExpirePayload 订单超时过期任务载荷
type OrderTimeoutExpirePayload struct {
	OrderID uint `json:"order_id"`
}

// NewOrderTimeoutExpireTask 创建订单超时过期任务
func NewOrderTimeoutExpireTask(payload OrderTimeoutExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutExpire, body), nil
}
