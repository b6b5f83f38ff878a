package domain

import "github.com/shopspring/decimal"

// zakatRate is the 2.5% levy applied to realized profit.
var zakatRate = decimal.New(25, -3)

// Derive computes the derived fields of a transaction from its inputs.
// Profit is max(0, withdraw-capitalUsed). Zakat is floor(profit * 0.025)
// when profit is positive — rounding down is the audited policy, not a
// display shortcut. Negative inputs coerce to 0.
func Derive(capitalUsed, withdraw int64) (profit, zakat int64) {
	if capitalUsed < 0 {
		capitalUsed = 0
	}
	if withdraw < 0 {
		withdraw = 0
	}
	if withdraw > capitalUsed {
		profit = withdraw - capitalUsed
	}
	if profit > 0 {
		zakat = decimal.NewFromInt(profit).Mul(zakatRate).Floor().IntPart()
	}
	return profit, zakat
}
