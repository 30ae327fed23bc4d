package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// RoundCurrency rounds half away from zero to the given number of places. Ties are
// decided on the shortest decimal form of value, so 1.005 rounds to 1.01.
func RoundCurrency(value float64, places int) float64 {
	if places < 0 {
		places = 0
	}
	return decimal.NewFromFloat(value).Round(int32(places)).InexactFloat64()
}

func round2(v float64) float64 { return RoundCurrency(v, 2) }

// installment computes amount × rate% × factor in decimal and rounds it to 2 places.
func installment(amount, ratePercent, factor float64) float64 {
	return decimal.NewFromFloat(amount).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(hundred).
		Mul(decimal.NewFromFloat(factor)).
		Round(2).
		InexactFloat64()
}
