// Package autoclaim drives bookings through matching, completion and
// eligibility, and keeps open claims moving through their lifecycle.
package autoclaim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"autoclaim/internal/bookings"
	"autoclaim/internal/claims"
	"autoclaim/internal/eligibility"
	"autoclaim/internal/trains"
	"autoclaim/pkg/cache"
	"autoclaim/pkg/logger"
	"autoclaim/pkg/utcdate"
)

// BookingStore is the slice of the booking repository the sweep writes to.
type BookingStore interface {
	FindBookingsAwaitingEvaluation(ctx context.Context, asOf time.Time, after uuid.UUID, limit int) ([]bookings.Booking, error)
	LinkTrain(ctx context.Context, bookingID, trainID uuid.UUID) error
	SetFinalDelay(ctx context.Context, bookingID uuid.UUID, delayMinutes int, completedAt time.Time) error
	MarkEvaluated(ctx context.Context, bookingID uuid.UUID, at time.Time) error
}

// ClaimFinder pages through claims for promotion, expiry and reminders.
type ClaimFinder interface {
	ScanClaims(ctx context.Context, scan claims.ClaimScan) ([]claims.Claim, error)
}

type TrainMatcher interface {
	Match(ctx context.Context, trainNumber string, journeyDate time.Time) (trains.MatchResult, error)
}

// Dedupe records once-only markers.
type Dedupe interface {
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

type Config struct {
	BatchSize   int
	NoticeAhead time.Duration
	NoticeTTL   time.Duration
}

func DefaultConfig() Config {
	return Config{
		BatchSize:   200,
		NoticeAhead: 48 * time.Hour,
		NoticeTTL:   7 * 24 * time.Hour,
	}
}

// Outcome reports what one booking evaluation did.
type Outcome struct {
	Matched      bool
	Completed    bool
	ClaimCreated bool
	// Final is set once the booking needs no further sweeps.
	Final       bool
	Eligibility *eligibility.Status
	Claim       *claims.Claim
}

type Pipeline struct {
	bookings   BookingStore
	claims     ClaimFinder
	lifecycle  *claims.Lifecycle
	matcher    TrainMatcher
	completion trains.CompletionEvaluator
	evaluator  *eligibility.Evaluator
	dedupe     Dedupe
	config     Config
	logger     *logger.Logger
}

func NewPipeline(
	bookingStore BookingStore,
	claimFinder ClaimFinder,
	lifecycle *claims.Lifecycle,
	matcher TrainMatcher,
	completion trains.CompletionEvaluator,
	evaluator *eligibility.Evaluator,
	dedupe Dedupe,
	cfg Config,
	log *logger.Logger,
) *Pipeline {
	if log == nil {
		log = logger.GetDefault()
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.NoticeAhead <= 0 {
		cfg.NoticeAhead = def.NoticeAhead
	}
	if cfg.NoticeTTL <= 0 {
		cfg.NoticeTTL = def.NoticeTTL
	}
	return &Pipeline{
		bookings:   bookingStore,
		claims:     claimFinder,
		lifecycle:  lifecycle,
		matcher:    matcher,
		completion: completion,
		evaluator:  evaluator,
		dedupe:     dedupe,
		config:     cfg,
		logger:     log,
	}
}

// EvaluateBooking runs one booking through match, completion and
// eligibility. Running it again on the same state changes nothing: the
// claim insert is conditional on the booking and transitions re-check the
// stored status.
func (p *Pipeline) EvaluateBooking(ctx context.Context, b *bookings.Booking, now time.Time) (Outcome, error) {
	var out Outcome

	if !b.IsComplete() {
		res, err := p.matcher.Match(ctx, b.TrainNumber, b.JourneyDate)
		if err != nil {
			if errors.Is(err, trains.ErrInvalidTrainNumber) {
				out.Final = true
				return out, p.bookings.MarkEvaluated(ctx, b.ID, now)
			}
			return out, fmt.Errorf("match booking %s: %w", b.ID, err)
		}
		if res.Outcome != trains.MatchFound {
			return p.abandonIfExpired(ctx, b, now, out)
		}

		if b.TrainID == nil || *b.TrainID != res.Train.ID {
			if err := p.bookings.LinkTrain(ctx, b.ID, res.Train.ID); err != nil {
				return out, fmt.Errorf("link booking %s: %w", b.ID, err)
			}
			trainID := res.Train.ID
			b.TrainID = &trainID
			p.logger.LogTrainLinked(ctx, b.ID.String(), res.TripID)
		}
		out.Matched = true

		completion := p.completion.Evaluate(res.Train, now)
		if !completion.IsComplete() {
			return p.abandonIfExpired(ctx, b, now, out)
		}

		if err := p.bookings.SetFinalDelay(ctx, b.ID, completion.DelayMinutes, *completion.CompletedAt); err != nil {
			return out, fmt.Errorf("record delay for booking %s: %w", b.ID, err)
		}
		delay := completion.DelayMinutes
		b.FinalDelayMinutes = &delay
		b.CompletedAt = completion.CompletedAt
		out.Completed = true
	}

	status, err := p.evaluator.Check(bookings.EligibilityInput(b), now)
	if err != nil {
		return out, fmt.Errorf("check eligibility for booking %s: %w", b.ID, err)
	}
	out.Eligibility = &status

	// Only the claim window is transient once the journey is complete; any
	// other failed rule is final.
	var initial claims.Status
	switch {
	case status.Eligible:
		initial = claims.StatusEligible
	case status.OnlyWaitingForWindow():
		initial = claims.StatusPending
	}

	if initial != "" {
		claim := newClaim(b, status, initial)
		created, err := p.lifecycle.Create(ctx, claim)
		if err != nil {
			return out, err
		}
		out.ClaimCreated = created
		out.Claim = claim
	}

	if err := p.bookings.MarkEvaluated(ctx, b.ID, now); err != nil {
		return out, fmt.Errorf("mark booking %s evaluated: %w", b.ID, err)
	}
	at := now
	b.EvaluatedAt = &at
	out.Final = true
	return out, nil
}

// abandonIfExpired stops sweeping a booking whose train never resolved
// before the claim deadline passed.
func (p *Pipeline) abandonIfExpired(ctx context.Context, b *bookings.Booking, now time.Time, out Outcome) (Outcome, error) {
	if !p.evaluator.DeadlinePassed(b.JourneyDate, now) {
		return out, nil
	}
	if err := p.bookings.MarkEvaluated(ctx, b.ID, now); err != nil {
		return out, fmt.Errorf("abandon booking %s: %w", b.ID, err)
	}
	out.Final = true
	return out, nil
}

func newClaim(b *bookings.Booking, status eligibility.Status, initial claims.Status) *claims.Claim {
	comp := status.Compensation
	return &claims.Claim{
		BookingID:             b.ID,
		UserID:                b.UserID,
		DelayMinutes:          comp.DelayMinutes,
		EligibleCashAmount:    comp.CashAmount,
		EligibleVoucherAmount: comp.VoucherAmount,
		Currency:              string(comp.Currency),
		TierName:              comp.TierName(),
		Status:                initial,
		Deadline:              status.Deadline,
		ClaimWindowOpensAt:    status.ClaimWindowOpensAt,
	}
}

// eachClaim calls fn for every claim the scan selects, one page of
// BatchSize at a time, so a large result set never hides its tail.
func (p *Pipeline) eachClaim(ctx context.Context, scan claims.ClaimScan, fn func(c *claims.Claim)) error {
	scan.Limit = p.config.BatchSize
	for {
		page, err := p.claims.ScanClaims(ctx, scan)
		if err != nil {
			return err
		}
		for i := range page {
			fn(&page[i])
		}
		if len(page) < scan.Limit {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		scan.After = page[len(page)-1].ID
	}
}

// AdvanceClaims expires open claims past their deadline, then promotes
// pending claims whose window has opened.
func (p *Pipeline) AdvanceClaims(ctx context.Context, now time.Time) (promoted, expired, failed int, err error) {
	move := func(c *claims.Claim, next claims.Status) bool {
		err := p.lifecycle.Transition(ctx, c, next)
		if err == nil {
			return true
		}
		// Another writer moved it first; the next sweep sees the new state.
		if !errors.Is(err, claims.ErrStatusConflict) {
			failed++
			p.logger.ErrorWithContext(ctx, "Claim transition failed", err, map[string]interface{}{
				"claim_id": c.ID.String(),
				"to":       next.String(),
			})
		}
		return false
	}

	err = p.eachClaim(ctx, claims.ClaimScan{
		Statuses:       []claims.Status{claims.StatusPending, claims.StatusEligible},
		DeadlineBefore: &now,
	}, func(c *claims.Claim) {
		if c.PastDeadline(now) && move(c, claims.StatusExpired) {
			expired++
		}
	})
	if err != nil {
		return promoted, expired, failed, fmt.Errorf("expire claims: %w", err)
	}

	err = p.eachClaim(ctx, claims.ClaimScan{
		Statuses:     []claims.Status{claims.StatusPending},
		WindowOpenBy: &now,
		DeadlineFrom: &now,
	}, func(c *claims.Claim) {
		if c.WindowOpen(now) && !c.PastDeadline(now) && move(c, claims.StatusEligible) {
			promoted++
		}
	})
	if err != nil {
		return promoted, expired, failed, fmt.Errorf("promote claims: %w", err)
	}
	return promoted, expired, failed, nil
}

func deadlineNoticeKey(claimID uuid.UUID) string {
	return cache.Key("claims", "deadline-notice", claimID.String())
}

// NotifyApproachingDeadlines emits one deadline-approaching event per
// eligible claim whose deadline falls within the notice horizon.
func (p *Pipeline) NotifyApproachingDeadlines(ctx context.Context, now time.Time) (int, error) {
	horizon := now.Add(p.config.NoticeAhead)
	sent := 0
	err := p.eachClaim(ctx, claims.ClaimScan{
		Statuses:       []claims.Status{claims.StatusEligible},
		DeadlineFrom:   &now,
		DeadlineBefore: &horizon,
	}, func(c *claims.Claim) {
		if c.PastDeadline(now) || c.Deadline.After(horizon) {
			return
		}

		first, err := p.dedupe.SetNX(ctx, deadlineNoticeKey(c.ID), now.Unix(), p.config.NoticeTTL)
		if err != nil {
			p.logger.ErrorWithContext(ctx, "Deadline notice dedupe failed", err, map[string]interface{}{
				"claim_id": c.ID.String(),
			})
			return
		}
		if !first {
			return
		}

		p.lifecycle.DeadlineApproaching(ctx, c, utcdate.DaysBetween(now, c.Deadline))
		deadlineNotices.Inc()
		sent++
	})
	if err != nil {
		return sent, fmt.Errorf("find eligible claims: %w", err)
	}
	return sent, nil
}
