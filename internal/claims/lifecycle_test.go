package claims

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

var fixedNow = time.Date(2026, time.January, 7, 9, 0, 0, 0, time.UTC)

// memStore is an in-memory Repository.
type memStore struct {
	mu     sync.Mutex
	claims map[uuid.UUID]*Claim
	failOn Status
}

func newMemStore() *memStore {
	return &memStore{claims: map[uuid.UUID]*Claim{}}
}

func (m *memStore) UpsertClaim(_ context.Context, c *Claim) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.claims {
		if existing.BookingID == c.BookingID {
			return false, nil
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	m.claims[c.ID] = &cp
	return true, nil
}

func (m *memStore) TransitionClaimStatus(_ context.Context, id uuid.UUID, from, to Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if to == m.failOn {
		return errors.New("store unavailable")
	}
	c, ok := m.claims[id]
	if !ok {
		return ErrClaimNotFound
	}
	if c.Status != from {
		return ErrStatusConflict
	}
	c.Status = to
	c.UpdatedAt = at
	return nil
}

func (m *memStore) GetClaim(_ context.Context, id uuid.UUID) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetClaimByBookingID(_ context.Context, bookingID uuid.UUID) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.BookingID == bookingID {
			cp := *c
			return &cp, nil
		}
	}
	return nil, ErrClaimNotFound
}

func (m *memStore) ListClaims(_ context.Context, userID uuid.UUID, q ClaimListQuery) ([]Claim, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Claim
	for _, c := range m.claims {
		if c.UserID == userID && (q.Status == "" || c.Status == q.Status) {
			out = append(out, *c)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) ScanClaims(_ context.Context, scan ClaimScan) ([]Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Claim
	for _, c := range m.claims {
		if scanMatches(scan, c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if len(out) > scan.Limit {
		out = out[:scan.Limit]
	}
	return out, nil
}

func scanMatches(scan ClaimScan, c *Claim) bool {
	inStatus := false
	for _, s := range scan.Statuses {
		if c.Status == s {
			inStatus = true
		}
	}
	switch {
	case !inStatus:
		return false
	case scan.WindowOpenBy != nil && !c.WindowOpen(*scan.WindowOpenBy):
		return false
	case scan.DeadlineBefore != nil && !c.Deadline.Before(*scan.DeadlineBefore):
		return false
	case scan.DeadlineFrom != nil && c.Deadline.Before(*scan.DeadlineFrom):
		return false
	}
	return c.ID.String() > scan.After.String()
}

// captureSink records events in emission order.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *captureSink) Emit(_ context.Context, e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) types() []EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventType, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

func newTestLifecycle(store Store, sink EventSink) *Lifecycle {
	l := NewLifecycle(store, sink, nil)
	l.now = func() time.Time { return fixedNow }
	return l
}

func newClaim(status Status) *Claim {
	return &Claim{
		BookingID:          uuid.New(),
		UserID:             uuid.New(),
		DelayMinutes:       90,
		EligibleCashAmount: 25,
		Currency:           "EUR",
		Status:             status,
		Deadline:           time.Date(2026, time.April, 5, 0, 0, 0, 0, time.UTC),
	}
}

func TestPendingCannotBeSubmitted(t *testing.T) {
	store := newMemStore()
	sink := &captureSink{}
	l := newTestLifecycle(store, sink)

	claim := newClaim(StatusPending)
	if _, err := l.Create(context.Background(), claim); err != nil {
		t.Fatal(err)
	}

	err := l.Transition(context.Background(), claim, StatusSubmitted)
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) || !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != StatusPending || invalid.To != StatusSubmitted {
		t.Errorf("error = %+v", invalid)
	}
	if claim.Status != StatusPending {
		t.Errorf("in-memory status = %s, want pending", claim.Status)
	}
	stored, _ := store.GetClaim(context.Background(), claim.ID)
	if stored.Status != StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status)
	}
	if got := sink.types(); len(got) != 1 || got[0] != EventCreated {
		t.Errorf("events = %v, want only created", got)
	}
}

func TestCreateIsAtMostOncePerBooking(t *testing.T) {
	store := newMemStore()
	sink := &captureSink{}
	l := newTestLifecycle(store, sink)

	first := newClaim(StatusEligible)
	created, err := l.Create(context.Background(), first)
	if err != nil || !created {
		t.Fatalf("first create = %v, %v", created, err)
	}

	again := newClaim(StatusPending)
	again.BookingID = first.BookingID
	created, err = l.Create(context.Background(), again)
	if err != nil || created {
		t.Fatalf("second create = %v, %v", created, err)
	}
	if len(store.claims) != 1 || len(sink.events) != 1 {
		t.Fatalf("claims = %d events = %d", len(store.claims), len(sink.events))
	}
}

func TestCreateRejectsLateStartingStatus(t *testing.T) {
	l := newTestLifecycle(newMemStore(), &captureSink{})
	if _, err := l.Create(context.Background(), newClaim(StatusSubmitted)); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestFullLifecycleEmitsEvents(t *testing.T) {
	store := newMemStore()
	sink := &captureSink{}
	l := newTestLifecycle(store, sink)
	ctx := context.Background()

	claim := newClaim(StatusPending)
	if _, err := l.Create(ctx, claim); err != nil {
		t.Fatal(err)
	}
	for _, next := range []Status{StatusEligible, StatusSubmitted, StatusApproved} {
		if err := l.Transition(ctx, claim, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	want := []EventType{EventCreated, EventStatusChanged, EventSubmitted, EventStatusChanged}
	got := sink.types()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}

	last := sink.events[len(sink.events)-1]
	if last.From != StatusSubmitted || last.To != StatusApproved || !last.OccurredAt.Equal(fixedNow) {
		t.Errorf("last event = %+v", last)
	}
	if claim.SubmittedAt == nil || claim.ResolvedAt == nil {
		t.Errorf("timestamps not recorded: %+v", claim)
	}

	if err := l.Transition(ctx, claim, StatusRejected); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal transition err = %v", err)
	}
}

func TestTransitionStoreFailureLeavesClaim(t *testing.T) {
	store := newMemStore()
	store.failOn = StatusExpired
	sink := &captureSink{}
	l := newTestLifecycle(store, sink)

	claim := newClaim(StatusEligible)
	if _, err := l.Create(context.Background(), claim); err != nil {
		t.Fatal(err)
	}
	if err := l.Transition(context.Background(), claim, StatusExpired); err == nil {
		t.Fatal("expected store error")
	}
	if claim.Status != StatusEligible || len(sink.events) != 1 {
		t.Fatalf("status = %s events = %d", claim.Status, len(sink.events))
	}
}

func TestDeadlineApproachingEvent(t *testing.T) {
	sink := &captureSink{}
	l := newTestLifecycle(newMemStore(), sink)

	claim := newClaim(StatusEligible)
	l.DeadlineApproaching(context.Background(), claim, 2)
	if len(sink.events) != 1 || sink.events[0].Type != EventDeadlineApproaching || sink.events[0].DaysUntilDeadline != 2 {
		t.Fatalf("events = %+v", sink.events)
	}
}
