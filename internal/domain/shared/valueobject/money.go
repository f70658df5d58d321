package valueobject

import "github.com/shopspring/decimal"

// MoneyScale is the number of decimal places every stored amount carries
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// Round2 rounds to two decimal places, half away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// PercentOf returns base * percent / 100 without rounding
func PercentOf(base, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(hundred)
}
