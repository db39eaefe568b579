package compensation

import (
	"errors"
	"fmt"
)

// Tier maps a delay bracket to compensation percentages. MaxDelayMinutes is
// exclusive; nil means unbounded.
type Tier struct {
	Name              string  `json:"name"`
	MinDelayMinutes   int     `json:"min_delay_minutes"`
	MaxDelayMinutes   *int    `json:"max_delay_minutes,omitempty"`
	CashPercentage    float64 `json:"cash_percentage"`
	VoucherPercentage float64 `json:"voucher_percentage"`
}

// Contains reports whether delayMinutes falls inside the tier.
func (t Tier) Contains(delayMinutes int) bool {
	if delayMinutes < t.MinDelayMinutes {
		return false
	}
	return t.MaxDelayMinutes == nil || delayMinutes < *t.MaxDelayMinutes
}

// MinimumQualifyingDelay is the shortest delay that earns compensation.
const MinimumQualifyingDelay = 60

func bound(n int) *int { return &n }

// DefaultTiers is the carrier's published delay compensation table.
var DefaultTiers = []Tier{
	{Name: "Standard", MinDelayMinutes: 60, MaxDelayMinutes: bound(120), CashPercentage: 0.25, VoucherPercentage: 0.60},
	{Name: "Extended", MinDelayMinutes: 120, MaxDelayMinutes: bound(180), CashPercentage: 0.50, VoucherPercentage: 0.60},
	{Name: "Severe", MinDelayMinutes: 180, CashPercentage: 0.50, VoucherPercentage: 0.75},
}

var ErrInvalidTiers = errors.New("invalid compensation tiers")

// ValidateTiers checks that the table is ordered, contiguous, starts at the
// qualifying delay and ends unbounded. It runs once at startup.
func ValidateTiers(tiers []Tier) error {
	if len(tiers) == 0 {
		return fmt.Errorf("%w: no tiers configured", ErrInvalidTiers)
	}
	if tiers[0].MinDelayMinutes != MinimumQualifyingDelay {
		return fmt.Errorf("%w: first tier starts at %d, want %d", ErrInvalidTiers, tiers[0].MinDelayMinutes, MinimumQualifyingDelay)
	}

	for i, t := range tiers {
		if t.Name == "" {
			return fmt.Errorf("%w: tier %d has no name", ErrInvalidTiers, i)
		}
		if t.CashPercentage < 0 || t.CashPercentage > 1 || t.VoucherPercentage < 0 || t.VoucherPercentage > 1 {
			return fmt.Errorf("%w: tier %s percentages out of range", ErrInvalidTiers, t.Name)
		}

		last := i == len(tiers)-1
		if last {
			if t.MaxDelayMinutes != nil {
				return fmt.Errorf("%w: last tier %s must be unbounded", ErrInvalidTiers, t.Name)
			}
			continue
		}
		if t.MaxDelayMinutes == nil {
			return fmt.Errorf("%w: tier %s is unbounded but not last", ErrInvalidTiers, t.Name)
		}
		if *t.MaxDelayMinutes <= t.MinDelayMinutes {
			return fmt.Errorf("%w: tier %s is empty", ErrInvalidTiers, t.Name)
		}
		if next := tiers[i+1]; next.MinDelayMinutes != *t.MaxDelayMinutes {
			return fmt.Errorf("%w: gap or overlap between %s and %s", ErrInvalidTiers, t.Name, next.Name)
		}
	}
	return nil
}
