// internal/domain/voucher/calculator.go
package voucher

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateDiscount returns the monetary discount a voucher grants on an order
// amount. It is pure and defined for every input: orders below the minimum get
// nothing, percentage discounts are capped by MaxDiscountAmount when set,
// fixed discounts never exceed the order, and free_shipping is worth zero here
// because the shipping waiver is applied by the caller.
func CalculateDiscount(v Voucher, orderAmount decimal.Decimal) decimal.Decimal {
	if !orderAmount.IsPositive() || orderAmount.LessThan(v.MinOrderAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch v.Type {
	case TypePercentage:
		discount = orderAmount.Mul(v.Discount).Div(hundred)
		if v.MaxDiscountAmount.Valid {
			discount = decimal.Min(discount, v.MaxDiscountAmount.Decimal)
		}
	case TypeFixedAmount:
		discount = decimal.Min(v.Discount, orderAmount)
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}

// AggregateDiscount sums the monetary discounts of several vouchers.
// free_shipping vouchers contribute nothing.
func AggregateDiscount(vouchers []Voucher, orderAmount decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vouchers {
		total = total.Add(CalculateDiscount(v, orderAmount))
	}
	return total
}

// WaivesShipping reports whether any of the vouchers is a free_shipping voucher
func WaivesShipping(vouchers []Voucher) bool {
	for _, v := range vouchers {
		if v.Type == TypeFreeShipping {
			return true
		}
	}
	return false
}
