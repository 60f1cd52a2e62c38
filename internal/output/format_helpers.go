package output

import (
	"strconv"

	money "github.com/finsim/household-projector/pkg/decimal"
	"github.com/shopspring/decimal"
)

var decimalHundred = decimal.NewFromInt(100)

// FormatMoney formats an amount with the symbol and fraction digits of currency.
func FormatMoney(amount decimal.Decimal, currency string) string {
	return money.FormatAmount(amount, currency)
}

// FormatPercentage formats a fraction (0.125) as a percentage with 2 decimals.
func FormatPercentage(fraction decimal.Decimal) string {
	return fraction.Mul(decimalHundred).StringFixed(2) + "%"
}

func intToString(i int) string { return strconv.Itoa(i) }

func boolToString(b bool) string { return strconv.FormatBool(b) }
