package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                // 主键
	Title          string         `gorm:"not null" json:"title"`                               // 商品标题
	Description    string         `gorm:"type:text" json:"description,omitempty"`              // 商品描述
	Price          Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"`  // 单价
	PaymentMethods string         `gorm:"type:text" json:"payment_methods"`                    // 允许的支付方式白名单（JSON数组，空表示不限制）
	IsActive       bool           `gorm:"default:true;index" json:"is_active"`                 // 是否上架
	SortOrder      int            `gorm:"default:0;index" json:"sort_order"`                   // 排序权重
	StockAvailable int64          `gorm:"-" json:"stock_available"`                            // 可售卡密数量（仅结构，不写入数据库）
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                             // 创建时间
	UpdatedAt      time.Time      `json:"updated_at"`                                          // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                      // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
