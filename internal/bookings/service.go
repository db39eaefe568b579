package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoclaim/internal/eligibility"
	"autoclaim/internal/extractor"
	"autoclaim/internal/shared/utils/response"
	"autoclaim/pkg/logger"
	"autoclaim/pkg/utcdate"
)

// Metrics
var (
	parseFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoclaim_booking_parse_failures_total",
		Help: "Confirmation emails that could not be parsed, by error code",
	}, []string{"code"})

	bookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoclaim_bookings_created_total",
		Help: "Bookings stored from parsed confirmation emails",
	})
)

// Parser turns a raw email body into a booking. *extractor.Extractor is the
// production implementation.
type Parser interface {
	Extract(body string) (*extractor.ParsedBooking, error)
}

// Service interface defines the contract for booking business logic
type Service interface {
	ParseAndCreate(ctx context.Context, userID uuid.UUID, req ParseBookingRequest) (*ParseBookingResponse, error)
	GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*BookingListResponse, error)
	GetEligibility(ctx context.Context, userID, bookingID uuid.UUID) (*EligibilityResponse, error)
}

type service struct {
	repo         Repository
	parser       Parser
	evaluator    *eligibility.Evaluator
	defaultPrice float64
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(repo Repository, parser Parser, evaluator *eligibility.Evaluator, defaultPrice float64, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:         repo,
		parser:       parser,
		evaluator:    evaluator,
		defaultPrice: defaultPrice,
		logger:       log,
		now:          time.Now,
	}
}

func (s *service) ParseAndCreate(ctx context.Context, userID uuid.UUID, req ParseBookingRequest) (*ParseBookingResponse, error) {
	parsed, err := s.parser.Extract(req.EmailBody)
	if err != nil {
		if pe, ok := extractor.AsParseError(err); ok {
			parseFailures.WithLabelValues(string(pe.Code)).Inc()
			s.logger.LogParseFailure(ctx, string(pe.Code), pe.Field, userID.String())
		}
		return nil, err
	}

	resp := &ParseBookingResponse{Parsed: parsed}
	if req.DryRun {
		return resp, nil
	}

	exists, err := s.repo.ExistsForUser(ctx, userID, parsed.PNR)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing booking: %w", err)
	}
	if exists {
		return nil, ErrDuplicateBooking
	}

	booking := NewFromParsed(userID, parsed, s.defaultPrice)
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		if errors.Is(err, ErrDuplicateBooking) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	bookingsCreated.Inc()
	s.logger.LogBookingCreated(ctx, booking.ID.String(), booking.PNR, userID.String())

	out := ToResponse(booking)
	resp.Booking = &out
	return resp, nil
}

func (s *service) GetBooking(ctx context.Context, userID, bookingID uuid.UUID) (*BookingResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}
	out := ToResponse(booking)
	return &out, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*BookingListResponse, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	bookings, total, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get user bookings: %w", err)
	}

	items := make([]BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, ToResponse(&bookings[i]))
	}

	return &BookingListResponse{
		Bookings: items,
		Page:     response.NewPage(total, query.Page, query.Limit),
	}, nil
}

// GetEligibility recomputes the verdict from the stored delay. Nothing is
// persisted.
func (s *service) GetEligibility(ctx context.Context, userID, bookingID uuid.UUID) (*EligibilityResponse, error) {
	booking, err := s.ownedBooking(ctx, userID, bookingID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	resp := &EligibilityResponse{
		BookingID:         booking.ID.String(),
		Stage:             booking.Stage(),
		JourneyComplete:   booking.IsComplete(),
		Deadline:          utcdate.FormatISO(s.evaluator.Deadline(booking.JourneyDate)),
		DaysUntilDeadline: s.evaluator.DaysUntilDeadline(booking.JourneyDate, now),
	}
	if !booking.IsComplete() {
		return resp, nil
	}

	status, err := s.evaluator.Check(EligibilityInput(booking), now)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate eligibility: %w", err)
	}
	resp.Status = &status
	return resp, nil
}

func (s *service) ownedBooking(ctx context.Context, userID, bookingID uuid.UUID) (*Booking, error) {
	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	// Other users' bookings are reported as missing.
	if booking.UserID != userID {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// EligibilityInput projects a completed booking onto the evaluator's input.
func EligibilityInput(b *Booking) eligibility.Input {
	in := eligibility.Input{
		JourneyDate:    b.JourneyDate,
		TicketPrice:    b.TicketPrice,
		TicketCurrency: b.Currency(),
	}
	if b.FinalDelayMinutes != nil {
		in.DelayMinutes = *b.FinalDelayMinutes
	}
	if b.CompletedAt != nil {
		in.CompletedAt = *b.CompletedAt
	}
	return in
}

func ToResponse(b *Booking) BookingResponse {
	resp := BookingResponse{
		ID:                  b.ID.String(),
		PNR:                 b.PNR,
		TicketControlNumber: b.TicketControlNumber,
		TrainNumber:         b.TrainNumber,
		JourneyDate:         utcdate.FormatISO(b.JourneyDate),
		PassengerName:       b.PassengerName,
		Origin:              b.Origin,
		Destination:         b.Destination,
		Coach:               b.Coach,
		Seat:                b.Seat,
		TicketPrice:         b.TicketPrice,
		TicketCurrency:      b.TicketCurrency,
		Stage:               b.Stage(),
		FinalDelayMinutes:   b.FinalDelayMinutes,
		CompletedAt:         b.CompletedAt,
		CreatedAt:           b.CreatedAt,
	}
	if b.TrainID != nil {
		resp.TrainID = b.TrainID.String()
	}
	return resp
}
