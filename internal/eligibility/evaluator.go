// Package eligibility aggregates the delay, claim window, deadline and
// minimum payout rules into a single verdict.
package eligibility

import (
	"fmt"
	"time"

	"autoclaim/internal/compensation"
	"autoclaim/pkg/utcdate"
)

// Reason names one eligibility rule, or "eligible" when none failed.
type Reason string

const (
	ReasonEligible           Reason = "eligible"
	ReasonInsufficientDelay  Reason = "insufficient_delay"
	ReasonClaimWindowNotOpen Reason = "claim_window_not_open"
	ReasonDeadlineExpired    Reason = "deadline_expired"
	ReasonBelowMinimumPayout Reason = "below_minimum_payout"
)

// Status is the aggregate verdict. It is recomputed on demand and never
// stored.
type Status struct {
	Eligible           bool                `json:"eligible"`
	Reason             Reason              `json:"reason"`
	FailedChecks       []Reason            `json:"failedChecks"`
	Compensation       compensation.Result `json:"compensation"`
	Deadline           time.Time           `json:"deadline"`
	DaysUntilDeadline  int                 `json:"daysUntilDeadline"`
	ClaimWindowOpen    bool                `json:"claimWindowOpen"`
	ClaimWindowOpensAt *time.Time          `json:"claimWindowOpensAt,omitempty"`
}

// Failed reports whether a given rule is among the failed checks.
func (s Status) Failed(r Reason) bool {
	for _, f := range s.FailedChecks {
		if f == r {
			return true
		}
	}
	return false
}

// OnlyWaitingForWindow reports that the claim will become eligible once the
// window opens without any other change.
func (s Status) OnlyWaitingForWindow() bool {
	return len(s.FailedChecks) == 1 && s.FailedChecks[0] == ReasonClaimWindowNotOpen
}

// Input is the booking and journey data one verdict depends on.
type Input struct {
	JourneyDate    time.Time
	CompletedAt    time.Time
	DelayMinutes   int
	TicketPrice    float64
	TicketCurrency compensation.Currency
}

type Policy struct {
	ClaimWindow    time.Duration
	DeadlineMonths int
	MinimumPayout  map[compensation.Currency]float64
	PayoutCurrency compensation.Currency
}

func DefaultPolicy() Policy {
	return Policy{
		ClaimWindow:    24 * time.Hour,
		DeadlineMonths: 3,
		MinimumPayout: map[compensation.Currency]float64{
			compensation.EUR: 4,
			compensation.GBP: 4,
		},
	}
}

type Evaluator struct {
	calc   *compensation.Calculator
	policy Policy
}

func NewEvaluator(calc *compensation.Calculator, policy Policy) *Evaluator {
	return &Evaluator{calc: calc, policy: policy}
}

// Deadline is the instant after which a claim may no longer be filed:
// midnight UTC of the journey date plus the policy's months, clamped to
// month end.
func (e *Evaluator) Deadline(journeyDate time.Time) time.Time {
	return utcdate.AddMonths(utcdate.StartOfDay(journeyDate), e.policy.DeadlineMonths)
}

// Check runs every rule without short-circuiting so FailedChecks lists all
// violations. Reason is the first failure in rule order.
func (e *Evaluator) Check(in Input, now time.Time) (Status, error) {
	currency := e.policy.PayoutCurrency
	if currency == "" {
		currency = in.TicketCurrency
	}
	comp, err := e.calc.Calculate(in.DelayMinutes, in.TicketPrice, in.TicketCurrency, currency)
	if err != nil {
		return Status{}, fmt.Errorf("calculate compensation: %w", err)
	}

	deadline := e.Deadline(in.JourneyDate)
	status := Status{
		Compensation:      comp,
		Deadline:          deadline,
		DaysUntilDeadline: utcdate.DaysBetween(now, deadline),
		FailedChecks:      []Reason{},
	}

	if in.DelayMinutes < compensation.MinimumQualifyingDelay {
		status.FailedChecks = append(status.FailedChecks, ReasonInsufficientDelay)
	}

	if !in.CompletedAt.IsZero() {
		opensAt := in.CompletedAt.UTC().Add(e.policy.ClaimWindow)
		status.ClaimWindowOpensAt = &opensAt
		status.ClaimWindowOpen = !now.Before(opensAt)
	}
	if !status.ClaimWindowOpen {
		status.FailedChecks = append(status.FailedChecks, ReasonClaimWindowNotOpen)
	}

	if now.After(deadline) {
		status.FailedChecks = append(status.FailedChecks, ReasonDeadlineExpired)
	}

	if comp.CashAmount < e.policy.MinimumPayout[comp.Currency] {
		status.FailedChecks = append(status.FailedChecks, ReasonBelowMinimumPayout)
	}

	status.Eligible = len(status.FailedChecks) == 0
	status.Reason = ReasonEligible
	if !status.Eligible {
		status.Reason = status.FailedChecks[0]
	}
	return status, nil
}

// DeadlinePassed reports whether now is after the filing deadline.
func (e *Evaluator) DeadlinePassed(journeyDate, now time.Time) bool {
	return now.After(e.Deadline(journeyDate))
}

// DaysUntilDeadline answers the display question without a full check.
func (e *Evaluator) DaysUntilDeadline(journeyDate, now time.Time) int {
	return utcdate.DaysBetween(now, e.Deadline(journeyDate))
}
