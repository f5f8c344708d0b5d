package ledger

import "github.com/shopspring/decimal"

var oneHundred = decimal.NewFromInt(100)

// RoundAmount rounds a monetary amount to a whole number, half away from
// zero. The ledger currency has no subunit in practice, so every net amount
// is a whole figure.
func RoundAmount(x decimal.Decimal) decimal.Decimal {
	return x.Round(0)
}

// NetAmount applies a percentage discount to a gross amount and rounds the
// result once. A discount outside [0,100] is treated as no discount, matching
// the tolerant handling legacy records need.
//
// Rounding happens here, per transaction, and nowhere else: summing gross
// amounts first and rounding the total gives a different figure.
func NetAmount(gross decimal.Decimal, discountPercent decimal.Decimal) decimal.Decimal {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(oneHundred) {
		discountPercent = decimal.Zero
	}
	return RoundAmount(gross.Sub(gross.Mul(discountPercent).Div(oneHundred)))
}
