package claims

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoclaim/pkg/logger"
)

// Metrics
var (
	claimsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoclaim_claims_created_total",
		Help: "Claims created, by initial status",
	}, []string{"status"})

	claimTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoclaim_claim_transitions_total",
		Help: "Claim status transitions, by outcome",
	}, []string{"from", "to", "outcome"})
)

// Store is the persistence the lifecycle needs.
type Store interface {
	UpsertClaim(ctx context.Context, claim *Claim) (bool, error)
	TransitionClaimStatus(ctx context.Context, id uuid.UUID, from, to Status, at time.Time) error
}

// Lifecycle is the only writer of claim status. Every successful change is
// reported to the sink.
type Lifecycle struct {
	store  Store
	sink   EventSink
	logger *logger.Logger
	now    func() time.Time
}

func NewLifecycle(store Store, sink EventSink, log *logger.Logger) *Lifecycle {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Lifecycle{store: store, sink: sink, logger: log, now: time.Now}
}

// Create stores the claim unless the booking already has one. It reports
// whether a row was written; only then is a created event emitted.
func (l *Lifecycle) Create(ctx context.Context, claim *Claim) (bool, error) {
	if claim.Status == "" {
		claim.Status = StatusPending
	}
	if claim.Status != StatusPending && claim.Status != StatusEligible {
		return false, fmt.Errorf("new claim cannot start as %s: %w", claim.Status, ErrInvalidTransition)
	}

	created, err := l.store.UpsertClaim(ctx, claim)
	if err != nil {
		return false, fmt.Errorf("upsert claim for booking %s: %w", claim.BookingID, err)
	}
	if !created {
		return false, nil
	}

	claimsCreated.WithLabelValues(claim.Status.String()).Inc()
	l.logger.LogClaimCreated(ctx, claim.ID.String(), claim.BookingID.String(), claim.Status.String())
	l.emit(ctx, newEvent(EventCreated, claim, l.now()))
	return true, nil
}

// Transition moves the claim to next. Edges missing from the table return an
// *InvalidTransitionError without touching the store.
func (l *Lifecycle) Transition(ctx context.Context, claim *Claim, next Status) error {
	from := claim.Status
	if !from.CanTransitionTo(next) {
		claimTransitions.WithLabelValues(from.String(), next.String(), "rejected").Inc()
		return &InvalidTransitionError{From: from, To: next}
	}

	at := l.now().UTC()
	if err := l.store.TransitionClaimStatus(ctx, claim.ID, from, next, at); err != nil {
		claimTransitions.WithLabelValues(from.String(), next.String(), "failed").Inc()
		return err
	}

	claim.Status = next
	claim.UpdatedAt = at
	switch next {
	case StatusSubmitted:
		claim.SubmittedAt = &at
	case StatusApproved, StatusRejected, StatusExpired:
		claim.ResolvedAt = &at
	}

	claimTransitions.WithLabelValues(from.String(), next.String(), "ok").Inc()
	l.logger.LogClaimTransition(ctx, claim.ID.String(), from.String(), next.String())

	eventType := EventStatusChanged
	if next == StatusSubmitted {
		eventType = EventSubmitted
	}
	e := newEvent(eventType, claim, at)
	e.From = from
	l.emit(ctx, e)
	return nil
}

// DeadlineApproaching emits the reminder event. Deduplication is the
// caller's concern.
func (l *Lifecycle) DeadlineApproaching(ctx context.Context, claim *Claim, daysLeft int) {
	e := newEvent(EventDeadlineApproaching, claim, l.now())
	e.DaysUntilDeadline = daysLeft
	l.emit(ctx, e)
}

func (l *Lifecycle) emit(ctx context.Context, e Event) {
	if l.sink != nil {
		l.sink.Emit(ctx, e)
	}
}
