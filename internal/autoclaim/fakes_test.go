package autoclaim

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/bookings"
	"autoclaim/internal/claims"
	"autoclaim/internal/compensation"
	"autoclaim/internal/eligibility"
	"autoclaim/internal/trains"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

var journeyDate = utc(2026, time.January, 5, 0, 0)

// bookingStore is an in-memory BookingStore.
type bookingStore struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookings.Booking
	linked   int
	pages    int
}

func newBookingStore(bs ...*bookings.Booking) *bookingStore {
	s := &bookingStore{bookings: map[uuid.UUID]*bookings.Booking{}}
	for _, b := range bs {
		cp := *b
		s.bookings[b.ID] = &cp
	}
	return s
}

func (s *bookingStore) FindBookingsAwaitingEvaluation(_ context.Context, asOf time.Time, after uuid.UUID, limit int) ([]bookings.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages++
	var out []bookings.Booking
	for _, b := range s.bookings {
		if b.EvaluatedAt == nil && !b.JourneyDate.After(asOf) && b.ID.String() > after.String() {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *bookingStore) LinkTrain(_ context.Context, bookingID, trainID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return bookings.ErrBookingNotFound
	}
	b.TrainID = &trainID
	s.linked++
	return nil
}

func (s *bookingStore) SetFinalDelay(_ context.Context, bookingID uuid.UUID, delayMinutes int, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return bookings.ErrBookingNotFound
	}
	b.FinalDelayMinutes = &delayMinutes
	b.CompletedAt = &completedAt
	return nil
}

func (s *bookingStore) MarkEvaluated(_ context.Context, bookingID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return bookings.ErrBookingNotFound
	}
	b.EvaluatedAt = &at
	return nil
}

// get returns a copy of the stored booking.
func (s *bookingStore) get(id uuid.UUID) *bookings.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *s.bookings[id]
	return &cp
}

// claimStore is an in-memory claims.Store and ClaimFinder.
type claimStore struct {
	mu     sync.Mutex
	claims map[uuid.UUID]*claims.Claim
}

func newClaimStore() *claimStore {
	return &claimStore{claims: map[uuid.UUID]*claims.Claim{}}
}

func (m *claimStore) UpsertClaim(_ context.Context, c *claims.Claim) (bool, error) {
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

func (m *claimStore) TransitionClaimStatus(_ context.Context, id uuid.UUID, from, to claims.Status, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.claims[id]
	if !ok {
		return claims.ErrClaimNotFound
	}
	if c.Status != from {
		return claims.ErrStatusConflict
	}
	c.Status = to
	c.UpdatedAt = at
	return nil
}

func (m *claimStore) ScanClaims(_ context.Context, scan claims.ClaimScan) ([]claims.Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []claims.Claim
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

func scanMatches(scan claims.ClaimScan, c *claims.Claim) bool {
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

func (m *claimStore) byBooking(bookingID uuid.UUID) *claims.Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.claims {
		if c.BookingID == bookingID {
			cp := *c
			return &cp
		}
	}
	return nil
}

func (m *claimStore) add(c claims.Claim) *claims.Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.claims[c.ID] = &c
	return &c
}

func (m *claimStore) status(id uuid.UUID) claims.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claims[id].Status
}

// trainTable matches on train number alone.
type trainTable map[string]*trains.Train

func (t trainTable) Match(_ context.Context, trainNumber string, _ time.Time) (trains.MatchResult, error) {
	if trainNumber == "X" {
		return trains.MatchResult{}, trains.ErrInvalidTrainNumber
	}
	if trainNumber == "ERR" {
		return trains.MatchResult{}, errors.New("lookup failed")
	}
	tr, ok := t[trainNumber]
	if !ok {
		return trains.MatchResult{Outcome: trains.MatchNotFound, TripID: "FR" + trainNumber}, nil
	}
	return trains.MatchResult{Outcome: trains.MatchFound, TripID: tr.TripID, Train: tr, Candidates: 1}, nil
}

// memDedupe mimics SETNX.
type memDedupe struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (d *memDedupe) SetNX(_ context.Context, key string, _ interface{}, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = map[string]bool{}
	}
	if d.keys[key] {
		return false, nil
	}
	d.keys[key] = true
	return true, nil
}

type captureSink struct {
	mu     sync.Mutex
	events []claims.Event
}

func (s *captureSink) Emit(_ context.Context, e claims.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *captureSink) ofType(t claims.EventType) []claims.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []claims.Event
	for _, e := range s.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// delayedTrain runs on journeyDate and arrives delay minutes after 14:17.
func delayedTrain(number string, delay int) *trains.Train {
	scheduled := utc(2026, time.January, 5, 14, 17)
	actual := scheduled.Add(time.Duration(delay) * time.Minute)
	departed := utc(2026, time.January, 5, 10, 0)
	return &trains.Train{
		ID:                 uuid.New(),
		TripID:             "FR" + number + "-005",
		ServiceDate:        journeyDate,
		TrainNumber:        number,
		ScheduledDeparture: departed,
		ScheduledArrival:   scheduled,
		ActualDeparture:    &departed,
		ActualArrival:      &actual,
		DelayMinutes:       delay,
	}
}

func newBooking(trainNumber string) *bookings.Booking {
	return &bookings.Booking{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		PNR:            "ABC123",
		TrainNumber:    trainNumber,
		JourneyDate:    journeyDate,
		PassengerName:  "John Doe",
		Origin:         "Paris",
		Destination:    "Lyon",
		TicketPrice:    100,
		TicketCurrency: "EUR",
	}
}

type harness struct {
	bookings *bookingStore
	claims   *claimStore
	sink     *captureSink
	dedupe   *memDedupe
	pipeline *Pipeline
}

func newHarness(table trainTable, bs ...*bookings.Booking) *harness {
	h := &harness{
		bookings: newBookingStore(bs...),
		claims:   newClaimStore(),
		sink:     &captureSink{},
		dedupe:   &memDedupe{},
	}
	evaluator := eligibility.NewEvaluator(compensation.MustDefaultCalculator(), eligibility.DefaultPolicy())
	lifecycle := claims.NewLifecycle(h.claims, h.sink, nil)
	h.pipeline = NewPipeline(
		h.bookings,
		h.claims,
		lifecycle,
		table,
		trains.NewCompletionEvaluator(trains.DefaultCompletionBuffer),
		evaluator,
		h.dedupe,
		DefaultConfig(),
		nil,
	)
	return h
}
