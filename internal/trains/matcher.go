package trains

import (
	"context"
	"fmt"
	"time"

	"autoclaim/pkg/utcdate"
)

// MatchOutcome is the tagged result of a journey match.
type MatchOutcome string

const (
	MatchFound     MatchOutcome = "matched"
	MatchNotFound  MatchOutcome = "not_found"
	MatchAmbiguous MatchOutcome = "ambiguous"
)

// MatchResult carries the matched train when Outcome is MatchFound.
type MatchResult struct {
	Outcome    MatchOutcome `json:"outcome"`
	TripID     string       `json:"trip_id"`
	Train      *Train       `json:"train,omitempty"`
	Candidates int          `json:"candidates"`
}

// Lookup is the narrow store operation the matcher needs.
type Lookup interface {
	FindTrainByTripID(ctx context.Context, tripID string) ([]Train, error)
}

// Matcher associates a booking's train number and journey date with one
// scheduled run.
type Matcher struct {
	store  Lookup
	region Region
}

func NewMatcher(store Lookup, region Region) *Matcher {
	return &Matcher{store: store, region: region}
}

// Match builds the canonical trip id and performs a single lookup. A missing
// train is not an error: the feed may not have produced the run yet.
func (m *Matcher) Match(ctx context.Context, trainNumber string, journeyDate time.Time) (MatchResult, error) {
	tripID, err := TripIDFor(trainNumber, m.region, journeyDate)
	if err != nil {
		return MatchResult{}, err
	}

	candidates, err := m.store.FindTrainByTripID(ctx, tripID)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find train %s: %w", tripID, err)
	}

	// Trip ids repeat every year, so narrow to the booking's calendar day.
	var sameDay []Train
	for _, t := range candidates {
		if utcdate.SameDay(t.ServiceDate, journeyDate) {
			sameDay = append(sameDay, t)
		}
	}

	switch len(sameDay) {
	case 0:
		return MatchResult{Outcome: MatchNotFound, TripID: tripID}, nil
	case 1:
		train := sameDay[0]
		return MatchResult{Outcome: MatchFound, TripID: tripID, Train: &train, Candidates: 1}, nil
	default:
		return MatchResult{Outcome: MatchAmbiguous, TripID: tripID, Candidates: len(sameDay)}, nil
	}
}
