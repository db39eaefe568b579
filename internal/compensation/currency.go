package compensation

import (
	"fmt"
	"math"
	"strings"
)

// Currency is an ISO 4217 code. Tickets are priced in EUR unless the booking
// says otherwise.
type Currency string

const (
	EUR Currency = "EUR"
	GBP Currency = "GBP"

	BaseCurrency = EUR
)

// DefaultEURToGBP is used when no rate is configured.
const DefaultEURToGBP = 0.85

// ParseCurrency accepts an ISO code in any case. Empty means the base
// currency.
func ParseCurrency(s string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(s))) {
	case "", EUR:
		return EUR, nil
	case GBP:
		return GBP, nil
	default:
		return "", fmt.Errorf("unsupported currency %q", s)
	}
}

// Converter converts between EUR and GBP at a single rate. GBP to EUR is the
// exact reciprocal of EUR to GBP.
type Converter struct {
	EURToGBP float64
}

func NewConverter(eurToGBP float64) Converter {
	if eurToGBP <= 0 {
		eurToGBP = DefaultEURToGBP
	}
	return Converter{EURToGBP: eurToGBP}
}

// Convert returns amount expressed in to. Amounts are not rounded here so a
// round trip loses nothing before the final RoundMinor.
func (c Converter) Convert(amount float64, from, to Currency) (float64, error) {
	if from == to {
		return amount, nil
	}
	switch {
	case from == EUR && to == GBP:
		return amount * c.EURToGBP, nil
	case from == GBP && to == EUR:
		return amount / c.EURToGBP, nil
	default:
		return 0, fmt.Errorf("no rate from %s to %s", from, to)
	}
}

// RoundMinor rounds to two decimal places, half away from zero.
func RoundMinor(v float64) float64 {
	return math.Round(v*100) / 100
}
