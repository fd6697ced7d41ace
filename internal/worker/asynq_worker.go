package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/cardvault/internal/logger"
	"github.com/cardvault/internal/provider"
	"github.com/cardvault/internal/queue"
	"github.com/cardvault/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderTimeoutExpire, c.handleOrderTimeoutExpire)
}

func (c *Consumer) handleOrderTimeoutExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_expire_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_expire_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_expire_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.OrderService.ExpireOrder(payload.OrderID); err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_expire_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrStorageConflict):
			// 另一个路径已经改写了状态，无需重试
			logger.Debugw("worker_order_timeout_expire_skip_conflict", "order_id", payload.OrderID)
			return nil
		default:
			logger.Warnw("worker_order_timeout_expire_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}
