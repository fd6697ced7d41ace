package service

import (
	"github.com/cardvault/internal/constants"

	"github.com/shopspring/decimal"
)

// DiscountRule 校验通过后的折扣规则；Type 为空表示无优惠。
type DiscountRule struct {
	Type  string
	Value decimal.Decimal
}

// NoDiscount 无优惠规则
func NoDiscount() DiscountRule {
	return DiscountRule{}
}

// PriceQuote 定价结果快照
type PriceQuote struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Price 计算订单金额。纯函数：相同输入必然得到相同输出，
// 折扣封顶为行小计，实付金额永不为负。
func Price(unitPrice decimal.Decimal, quantity int, rule DiscountRule) PriceQuote {
	if quantity < 0 {
		quantity = 0
	}
	subtotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)

	discount := decimal.Zero
	switch rule.Type {
	case constants.CouponTypeFixed:
		discount = rule.Value
	case constants.CouponTypePercent:
		discount = subtotal.Mul(rule.Value).Div(decimal.NewFromInt(100))
	}
	discount = discount.Round(2)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}

	return PriceQuote{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal.Sub(discount).Round(2),
	}
}
