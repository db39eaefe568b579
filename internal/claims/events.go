package claims

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"autoclaim/pkg/logger"
)

type EventType string

const (
	EventCreated             EventType = "created"
	EventSubmitted           EventType = "submitted"
	EventStatusChanged       EventType = "status-changed"
	EventDeadlineApproaching EventType = "deadline-approaching"
)

// Event carries only the identifiers a notification consumer needs to look
// the rest up.
type Event struct {
	Type              EventType `json:"type"`
	ClaimID           uuid.UUID `json:"claim_id"`
	BookingID         uuid.UUID `json:"booking_id"`
	UserID            uuid.UUID `json:"user_id"`
	From              Status    `json:"from,omitempty"`
	To                Status    `json:"to,omitempty"`
	DaysUntilDeadline int       `json:"days_until_deadline,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}

func newEvent(t EventType, c *Claim, at time.Time) Event {
	return Event{
		Type:       t,
		ClaimID:    c.ID,
		BookingID:  c.BookingID,
		UserID:     c.UserID,
		To:         c.Status,
		OccurredAt: at.UTC(),
	}
}

// EventSink receives every lifecycle event.
type EventSink interface {
	Emit(ctx context.Context, e Event)
}

// Observer is one subscriber on the Bus.
type Observer interface {
	Notify(ctx context.Context, e Event) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, e Event) error

func (f ObserverFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}

// Bus fans each event out to its observers synchronously, in registration
// order. A failing observer is logged and does not stop the others; the bus
// neither retries nor stores events.
type Bus struct {
	mu        sync.RWMutex
	observers []Observer
	logger    *logger.Logger
}

func NewBus(log *logger.Logger) *Bus {
	if log == nil {
		log = logger.GetDefault()
	}
	return &Bus{logger: log}
}

func (b *Bus) Register(o Observer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.observers = append(b.observers, o)
}

func (b *Bus) Emit(ctx context.Context, e Event) {
	b.mu.RLock()
	observers := make([]Observer, len(b.observers))
	copy(observers, b.observers)
	b.mu.RUnlock()

	for _, o := range observers {
		if err := o.Notify(ctx, e); err != nil {
			b.logger.ErrorWithContext(ctx, "Claim event observer failed", err, map[string]interface{}{
				"event_type": string(e.Type),
				"claim_id":   e.ClaimID.String(),
			})
		}
	}
}
