package catalog

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// defaultScale is used for codes x/text does not recognize.
const defaultScale = 2

// MinorScale returns the number of decimals of an ISO 4217 currency: 2 for
// UAH, 0 for JPY, 3 for KWD.
func MinorScale(code string) int32 {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return defaultScale
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale)
}

// ToMinor converts amount to the smallest unit of the currency.
func ToMinor(amount decimal.Decimal, code string) int64 {
	return amount.Shift(MinorScale(code)).Round(0).IntPart()
}

// FromMinor converts units of the smallest currency unit back to an amount.
func FromMinor(units int64, code string) decimal.Decimal {
	return decimal.New(units, -MinorScale(code))
}
