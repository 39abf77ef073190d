package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currencies the payment provider expects in whole units.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true, "RWF": true,
	"UGX": true, "VND": true, "VUV": true, "XAF": true, "XOF": true,
	"XPF": true,
}

// ToMinorUnits converts amount to the smallest unit of currency.
func ToMinorUnits(amount decimal.Decimal, currency string) int64 {
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return amount.Round(0).IntPart()
	}
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinorUnits is the inverse of ToMinorUnits.
func FromMinorUnits(minor int64, currency string) decimal.Decimal {
	d := decimal.NewFromInt(minor)
	if zeroDecimalCurrencies[strings.ToUpper(currency)] {
		return d
	}
	return d.Div(hundred).Round(2)
}
