// Package billing computes Pro overage pricing for the Billing Reporter.
package billing

import (
	"github.com/shopspring/decimal"
)

// ComputeOverage returns the number of overage units (rounded up to the next
// unitSize) and the priced amount for clicks beyond the included allotment.
// unitPriceCents is the price of one full unit in the smallest currency unit.
func ComputeOverage(trackedClicks, includedAllotment, unitSize, unitPriceCents int64) (units int64, amount decimal.Decimal) {
	overageClicks := trackedClicks - includedAllotment
	if overageClicks <= 0 {
		return 0, decimal.Zero
	}

	units = ceilDiv(overageClicks, unitSize)
	amount = decimal.NewFromInt(units).
		Mul(decimal.NewFromInt(unitPriceCents)).
		Div(decimal.NewFromInt(100))
	return units, amount
}

func ceilDiv(a, b int64) int64 {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
