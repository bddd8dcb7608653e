package currency

import (
	"errors"
	"math"
	"strings"
)

var ErrUnsupported = errors.New("currency not supported")

// Currency describes an ISO 4217 currency as the processor expects it:
// amounts are sent in the smallest unit, so the exponent decides the
// conversion factor from major-unit amounts.
type Currency struct {
	Code      string
	MinorUnit int
}

// minorUnits covers the currencies the gateway accepts. Zero-decimal
// currencies (JPY, KRW, ...) charge in whole units.
var minorUnits = map[string]int{
	"AUD": 2, "BRL": 2, "CAD": 2, "CHF": 2, "CNY": 2, "CZK": 2,
	"DKK": 2, "EUR": 2, "GBP": 2, "HKD": 2, "HUF": 2, "IDR": 2,
	"ILS": 2, "INR": 2, "JPY": 0, "KRW": 0, "MXN": 2, "MYR": 2,
	"NOK": 2, "NZD": 2, "PHP": 2, "PLN": 2, "RON": 2, "SEK": 2,
	"SGD": 2, "THB": 2, "TRY": 2, "USD": 2, "VND": 0, "ZAR": 2,
}

// ByISO resolves a currency by its ISO code, case-insensitively.
func ByISO(code string) (Currency, error) {
	iso := strings.ToUpper(strings.TrimSpace(code))
	exponent, ok := minorUnits[iso]
	if !ok {
		return Currency{}, ErrUnsupported
	}
	return Currency{Code: iso, MinorUnit: exponent}, nil
}

// ToMinorUnit converts a major-unit amount into the currency's smallest unit,
// rounding to the nearest whole unit (19.99 USD -> 1999).
func (c Currency) ToMinorUnit(amount float64) int64 {
	return int64(math.Round(amount * math.Pow10(c.MinorUnit)))
}
