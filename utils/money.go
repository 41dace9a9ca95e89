package utils

import "github.com/shopspring/decimal"

// Money helpers. All monetary values are fixed-point decimals and every
// derived amount is rounded to cents exactly once, at the end of the
// computation, so totals reconcile to the cent.

const MoneyScale = 2

var decimalOneHundred = decimal.NewFromInt(100)

// ApplyPercentage returns base * percent / 100 rounded to cents (half up).
// Zero or negative bases are fine; no special casing here.
func ApplyPercentage(base decimal.Decimal, percent decimal.Decimal) decimal.Decimal {
	return base.Mul(percent).Div(decimalOneHundred).Round(MoneyScale)
}

// LineTotal computes qty * unitPrice * (1 - discountPercent/100), rounding
// once at the end rather than per factor.
func LineTotal(qty decimal.Decimal, unitPrice decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimalOneHundred))
	return qty.Mul(unitPrice).Mul(factor).Round(MoneyScale)
}

func Negate(amount decimal.Decimal) decimal.Decimal {
	return amount.Neg()
}
