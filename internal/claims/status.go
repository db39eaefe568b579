package claims

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusEligible  Status = "eligible"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
)

// transitions is the complete lifecycle. Anything not listed is rejected.
var transitions = map[Status][]Status{
	StatusPending:   {StatusEligible, StatusExpired},
	StatusEligible:  {StatusSubmitted, StatusExpired},
	StatusSubmitted: {StatusApproved, StatusRejected},
}

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusEligible, StatusSubmitted,
	StatusApproved, StatusRejected, StatusExpired,
}

// IsValid checks if the claim status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusEligible, StatusSubmitted, StatusApproved, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal reports a status no transition leaves.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CanBeSubmitted checks if the user may mark the claim as filed
func (s Status) CanBeSubmitted() bool {
	return s.CanTransitionTo(StatusSubmitted)
}

// CanExpire reports a status the deadline still applies to.
func (s Status) CanExpire() bool {
	return s.CanTransitionTo(StatusExpired)
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown claim status %q", raw)
	}
	return s, nil
}
