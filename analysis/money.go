package analysis

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Currency is the currency every profile amount is entered in.
const Currency = money.INR

// FormatMoney renders an amount the way the terminal and reports show it,
// e.g. "₹30,000.00". Sub-paisa precision is rounded half away from zero.
func FormatMoney(amount decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return money.New(minor.IntPart(), Currency).Display()
}
