package engine

import (
	"math"

	"github.com/shopspring/decimal"
)

var decOne = decimal.NewFromInt(1)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

func decimalGTE(a, b float64) bool { return decFromFloat(a).Cmp(decFromFloat(b)) >= 0 }
func decimalLTE(a, b float64) bool { return decFromFloat(a).Cmp(decFromFloat(b)) <= 0 }

// takeProfitPrice is avgCost*(1+tpPct).
func takeProfitPrice(avgCost, tpPct float64) float64 {
	return decToFloat(decFromFloat(avgCost).Mul(decOne.Add(decFromFloat(tpPct))))
}

// stopLossPrice is avgCost*(1-slPct).
func stopLossPrice(avgCost, slPct float64) float64 {
	return decToFloat(decFromFloat(avgCost).Mul(decOne.Sub(decFromFloat(slPct))))
}

// realizedBase is fillQty*fillPrice - baseQty*avgCost in base units.
func realizedBase(fillQty, fillPrice, baseQty, avgCost float64) float64 {
	proceeds := decFromFloat(fillQty).Mul(decFromFloat(fillPrice))
	cost := decFromFloat(baseQty).Mul(decFromFloat(avgCost))
	return decToFloat(proceeds.Sub(cost))
}
