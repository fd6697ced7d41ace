package models

import (
	"time"

	"gorm.io/gorm"
)

// CardSecret 卡密库存表
type CardSecret struct {
	ID        uint           `gorm:"primarykey" json:"id"`             // 主键
	ProductID uint           `gorm:"index;not null" json:"product_id"` // 商品ID
	Secret    string         `gorm:"type:text;not null" json:"secret"` // 卡密内容
	Status    string         `gorm:"index;not null" json:"status"`     // 状态（available/claimed）
	OrderID   *uint          `gorm:"index" json:"order_id,omitempty"`  // 认领订单ID
	ClaimedAt *time.Time     `gorm:"index" json:"claimed_at"`          // 认领时间
	CreatedAt time.Time      `gorm:"index" json:"created_at"`          // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`          // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                   // 软删除时间
}

// TableName 指定表名
func (CardSecret) TableName() string {
	return "card_secrets"
}
