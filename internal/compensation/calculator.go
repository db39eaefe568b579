// Package compensation maps a delay to a payout tier and computes cash and
// voucher amounts in the requested currency.
package compensation

import (
	"fmt"
)

// Result is the outcome of one calculation. Tier is nil when the delay does
// not qualify.
type Result struct {
	Eligible      bool     `json:"eligible"`
	CashAmount    float64  `json:"cashAmount"`
	VoucherAmount float64  `json:"voucherAmount"`
	Tier          *Tier    `json:"tier"`
	Currency      Currency `json:"currency"`
	TicketPrice   float64  `json:"ticketPrice"`
	DelayMinutes  int      `json:"delayMinutes"`
}

// TierName returns the tier name or "" when no tier matched.
func (r Result) TierName() string {
	if r.Tier == nil {
		return ""
	}
	return r.Tier.Name
}

type Calculator struct {
	tiers     []Tier
	converter Converter
}

// NewCalculator validates the tier table up front so a bad configuration is
// caught at startup rather than per request.
func NewCalculator(tiers []Tier, converter Converter) (*Calculator, error) {
	if err := ValidateTiers(tiers); err != nil {
		return nil, err
	}
	cp := make([]Tier, len(tiers))
	copy(cp, tiers)
	return &Calculator{tiers: cp, converter: converter}, nil
}

// MustDefaultCalculator returns a calculator over DefaultTiers at the default
// rate.
func MustDefaultCalculator() *Calculator {
	c, err := NewCalculator(DefaultTiers, NewConverter(DefaultEURToGBP))
	if err != nil {
		panic(err)
	}
	return c
}

// Tiers returns a copy of the configured table.
func (c *Calculator) Tiers() []Tier {
	cp := make([]Tier, len(c.tiers))
	copy(cp, c.tiers)
	return cp
}

// TierFor is an ordered scan for the first tier containing delayMinutes.
func (c *Calculator) TierFor(delayMinutes int) *Tier {
	for i := range c.tiers {
		if c.tiers[i].Contains(delayMinutes) {
			t := c.tiers[i]
			return &t
		}
	}
	return nil
}

// Calculate prices the compensation for a ticket bought in ticketCurrency,
// paid out in currency. The price is converted first and each amount is
// rounded to minor units once.
func (c *Calculator) Calculate(delayMinutes int, ticketPrice float64, ticketCurrency, currency Currency) (Result, error) {
	if ticketPrice < 0 {
		return Result{}, fmt.Errorf("negative ticket price %.2f", ticketPrice)
	}
	if ticketCurrency == "" {
		ticketCurrency = BaseCurrency
	}
	if currency == "" {
		currency = ticketCurrency
	}

	price, err := c.converter.Convert(ticketPrice, ticketCurrency, currency)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Currency:     currency,
		TicketPrice:  RoundMinor(price),
		DelayMinutes: delayMinutes,
	}

	tier := c.TierFor(delayMinutes)
	if tier == nil {
		return res, nil
	}

	res.Eligible = true
	res.Tier = tier
	res.CashAmount = RoundMinor(price * tier.CashPercentage)
	res.VoucherAmount = RoundMinor(price * tier.VoucherPercentage)
	return res, nil
}

// Converter exposes the rate the calculator was built with.
func (c *Calculator) Converter() Converter {
	return c.converter
}
