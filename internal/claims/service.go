package claims

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/bookings"
	"autoclaim/internal/shared/utils/response"
	"autoclaim/pkg/utcdate"
)

// BookingSource looks up the booking a claim belongs to.
type BookingSource interface {
	GetBookingByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
}

// UserDirectory resolves the contact details printed on the form.
type UserDirectory interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (email, firstName, lastName string, err error)
}

// Service interface defines the contract for claim business logic
type Service interface {
	ListClaims(ctx context.Context, userID uuid.UUID, query ClaimListQuery) (*ClaimListResponse, error)
	GetClaim(ctx context.Context, userID, claimID uuid.UUID) (*ClaimDetailResponse, error)
	SubmitClaim(ctx context.Context, userID, claimID uuid.UUID) (*ClaimResponse, error)
	ResolveClaim(ctx context.Context, claimID uuid.UUID, status Status) (*ClaimResponse, error)
}

type service struct {
	repo      Repository
	lifecycle *Lifecycle
	bookings  BookingSource
	users     UserDirectory
	portalURL string
	now       func() time.Time
}

func NewService(repo Repository, lifecycle *Lifecycle, bookingSource BookingSource, users UserDirectory, portalURL string) Service {
	if portalURL == "" {
		portalURL = DefaultPortalURL
	}
	return &service{
		repo:      repo,
		lifecycle: lifecycle,
		bookings:  bookingSource,
		users:     users,
		portalURL: portalURL,
		now:       time.Now,
	}
}

func (s *service) ListClaims(ctx context.Context, userID uuid.UUID, query ClaimListQuery) (*ClaimListResponse, error) {
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	claims, total, err := s.repo.ListClaims(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}

	now := s.now()
	items := make([]ClaimResponse, 0, len(claims))
	for i := range claims {
		items = append(items, ToResponse(&claims[i], now))
	}

	return &ClaimListResponse{
		Claims: items,
		Page:   response.NewPage(total, query.Page, query.Limit),
	}, nil
}

func (s *service) GetClaim(ctx context.Context, userID, claimID uuid.UUID) (*ClaimDetailResponse, error) {
	claim, err := s.ownedClaim(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetBookingByID(ctx, claim.BookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booking for claim: %w", err)
	}

	email := ""
	if s.users != nil {
		if email, _, _, err = s.users.GetUserByID(ctx, claim.UserID); err != nil {
			return nil, fmt.Errorf("failed to load contact details: %w", err)
		}
	}

	form := BuildFormData(booking, claim, email)
	return &ClaimDetailResponse{
		Claim:          ToResponse(claim, s.now()),
		FormData:       form,
		FormIssues:     ValidateFormData(form),
		PortalURL:      s.portalURL,
		CanBeSubmitted: claim.Status.CanBeSubmitted() && !claim.PastDeadline(s.now()),
	}, nil
}

// SubmitClaim records that the passenger filed the claim on the portal. Only
// an eligible claim may be submitted. An open claim found past its deadline
// is expired instead.
func (s *service) SubmitClaim(ctx context.Context, userID, claimID uuid.UUID) (*ClaimResponse, error) {
	claim, err := s.ownedClaim(ctx, userID, claimID)
	if err != nil {
		return nil, err
	}
	if claim.Status.CanExpire() && claim.PastDeadline(s.now()) {
		if err := s.lifecycle.Transition(ctx, claim, StatusExpired); err != nil && !errors.Is(err, ErrStatusConflict) {
			return nil, err
		}
		return nil, ErrDeadlinePassed
	}
	if err := s.lifecycle.Transition(ctx, claim, StatusSubmitted); err != nil {
		return nil, err
	}
	resp := ToResponse(claim, s.now())
	return &resp, nil
}

func (s *service) ResolveClaim(ctx context.Context, claimID uuid.UUID, status Status) (*ClaimResponse, error) {
	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if err := s.lifecycle.Transition(ctx, claim, status); err != nil {
		return nil, err
	}
	resp := ToResponse(claim, s.now())
	return &resp, nil
}

func (s *service) ownedClaim(ctx context.Context, userID, claimID uuid.UUID) (*Claim, error) {
	claim, err := s.repo.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.UserID != userID {
		return nil, ErrClaimNotFound
	}
	return claim, nil
}

func ToResponse(c *Claim, now time.Time) ClaimResponse {
	return ClaimResponse{
		ID:                    c.ID.String(),
		BookingID:             c.BookingID.String(),
		Status:                c.Status,
		DelayMinutes:          c.DelayMinutes,
		EligibleCashAmount:    c.EligibleCashAmount,
		EligibleVoucherAmount: c.EligibleVoucherAmount,
		Currency:              c.Currency,
		TierName:              c.TierName,
		Deadline:              utcdate.FormatISO(c.Deadline),
		DaysUntilDeadline:     utcdate.DaysBetween(now, c.Deadline),
		ClaimWindowOpensAt:    c.ClaimWindowOpensAt,
		SubmittedAt:           c.SubmittedAt,
		ResolvedAt:            c.ResolvedAt,
		CreatedAt:             c.CreatedAt,
	}
}
