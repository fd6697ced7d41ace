package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                          // 主键
	OrderNo        string         `gorm:"uniqueIndex;not null" json:"order_no"`                          // 订单编号（对外）
	ProductID      uint           `gorm:"index;not null" json:"product_id"`                              // 商品ID
	ProductTitle   string         `gorm:"not null" json:"product_title"`                                 // 商品标题快照
	Quantity       int            `gorm:"not null;default:1" json:"quantity"`                            // 购买数量
	UnitPrice      Money          `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`       // 单价快照
	DiscountAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"`  // 优惠金额
	TotalAmount    Money          `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`     // 实付金额
	Currency       string         `gorm:"not null" json:"currency"`                                      // 币种
	Email          string         `gorm:"index;not null" json:"email"`                                   // 买家邮箱
	SearchPassword string         `gorm:"type:varchar(200)" json:"-"`                                    // 订单查询密码（可选）
	BuyerIP        string         `gorm:"type:varchar(64)" json:"buyer_ip,omitempty"`                    // 下单客户端IP
	AffiliateCode  string         `gorm:"index" json:"affiliate_code,omitempty"`                         // 推广码（可选）
	PaymentMethod  string         `gorm:"index" json:"payment_method"`                                   // 支付方式
	CouponID       *uint          `gorm:"index" json:"coupon_id,omitempty"`                              // 优惠券ID
	CardSecretID   *uint          `gorm:"index" json:"card_secret_id,omitempty"`                         // 指定购买的卡密ID
	Status         string         `gorm:"index;not null" json:"status"`                                  // 订单状态（wait_pay/paid/expired）
	ExpiresAt      *time.Time     `gorm:"index" json:"expires_at"`                                       // 支付截止时间
	PaidAt         *time.Time     `gorm:"index" json:"paid_at"`                                          // 支付时间
	ExpiredAt      *time.Time     `gorm:"index" json:"expired_at"`                                       // 过期时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间

	Secrets []CardSecret `gorm:"foreignKey:OrderID" json:"secrets,omitempty"` // 已认领卡密
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
