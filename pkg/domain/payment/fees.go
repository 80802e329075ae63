package payment

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateFees returns amount*feePercent/100 + fixedFee.
func CalculateFees(amount, feePercent, fixedFee decimal.Decimal) decimal.Decimal {
	return amount.Mul(feePercent).Div(hundred).Add(fixedFee)
}
