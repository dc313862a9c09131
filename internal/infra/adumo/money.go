package adumo

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// FormatMajorUnits renders cents as a rand amount with two decimals ("3000.00").
func FormatMajorUnits(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// ToMinorUnits converts a rand amount to cents, rounding half away from zero.
func ToMinorUnits(major decimal.Decimal) int64 {
	return major.Round(2).Shift(2).IntPart()
}

func ParseMajorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return ToMinorUnits(d), nil
}
