package models

import "github.com/shopspring/decimal"

func init() {
	// Prices and totals go over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// MinorUnits converts a naira amount to kobo
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts a kobo amount reported by the gateway to naira
func FromMinorUnits(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
