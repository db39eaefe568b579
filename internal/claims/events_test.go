package claims

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestBusFansOutInOrder(t *testing.T) {
	bus := NewBus(nil)
	var calls []string

	bus.Register(ObserverFunc(func(_ context.Context, e Event) error {
		calls = append(calls, "first:"+string(e.Type))
		return errors.New("queue down")
	}))
	bus.Register(ObserverFunc(func(_ context.Context, e Event) error {
		calls = append(calls, "second:"+string(e.Type))
		return nil
	}))

	bus.Emit(context.Background(), Event{Type: EventCreated, ClaimID: uuid.New()})

	if len(calls) != 2 || calls[0] != "first:created" || calls[1] != "second:created" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestLifecycleWithBus(t *testing.T) {
	bus := NewBus(nil)
	var got []EventType
	bus.Register(ObserverFunc(func(_ context.Context, e Event) error {
		got = append(got, e.Type)
		return nil
	}))

	l := newTestLifecycle(newMemStore(), bus)
	claim := newClaim(StatusEligible)
	if _, err := l.Create(context.Background(), claim); err != nil {
		t.Fatal(err)
	}
	if err := l.Transition(context.Background(), claim, StatusSubmitted); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != EventCreated || got[1] != EventSubmitted {
		t.Fatalf("events = %v", got)
	}
}
