package autoclaim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoclaim/internal/bookings"
)

// Metrics
var (
	sweepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoclaim_sweeps_total",
		Help: "Evaluation sweeps, by result",
	}, []string{"result"})

	sweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autoclaim_sweep_duration_seconds",
		Help:    "Wall time of one evaluation sweep",
		Buckets: prometheus.DefBuckets,
	})

	bookingsEvaluated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autoclaim_bookings_evaluated_total",
		Help: "Bookings visited by the sweep, by outcome",
	}, []string{"outcome"})

	deadlineNotices = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autoclaim_deadline_notices_total",
		Help: "Deadline-approaching events emitted",
	})
)

type SweepStats struct {
	Scanned       int           `json:"scanned"`
	Matched       int           `json:"matched"`
	Completed     int           `json:"completed"`
	Finalized     int           `json:"finalized"`
	ClaimsCreated int           `json:"claims_created"`
	Promoted      int           `json:"promoted"`
	Expired       int           `json:"expired"`
	Failed        int           `json:"failed"`
	Duration      time.Duration `json:"duration"`
}

// Sweep evaluates every booking awaiting evaluation, a page of BatchSize at a
// time, then advances open claims. A failing booking is logged and counted;
// the sweep carries on.
func (p *Pipeline) Sweep(ctx context.Context, now time.Time) (SweepStats, error) {
	start := time.Now()
	var stats SweepStats

	var after uuid.UUID
	for ctx.Err() == nil {
		page, err := p.bookings.FindBookingsAwaitingEvaluation(ctx, now, after, p.config.BatchSize)
		if err != nil {
			sweepsTotal.WithLabelValues("error").Inc()
			return stats, fmt.Errorf("find bookings awaiting evaluation: %w", err)
		}
		for i := range page {
			if ctx.Err() != nil {
				break
			}
			p.evaluateInSweep(ctx, &page[i], now, &stats)
		}
		if len(page) < p.config.BatchSize {
			break
		}
		after = page[len(page)-1].ID
	}

	promoted, expired, failed, err := p.AdvanceClaims(ctx, now)
	stats.Promoted, stats.Expired = promoted, expired
	stats.Failed += failed
	stats.Duration = time.Since(start)
	sweepDuration.Observe(stats.Duration.Seconds())
	if err != nil {
		sweepsTotal.WithLabelValues("error").Inc()
		return stats, err
	}

	sweepsTotal.WithLabelValues("ok").Inc()
	p.logger.LogSweepCompleted(ctx, stats.Scanned, stats.ClaimsCreated, stats.Promoted, stats.Expired, stats.Failed, stats.Duration)
	return stats, nil
}

func (p *Pipeline) evaluateInSweep(ctx context.Context, b *bookings.Booking, now time.Time, stats *SweepStats) {
	stats.Scanned++

	out, err := p.EvaluateBooking(ctx, b, now)
	if err != nil {
		stats.Failed++
		bookingsEvaluated.WithLabelValues("error").Inc()
		p.logger.ErrorWithContext(ctx, "Booking evaluation failed", err, map[string]interface{}{
			"booking_id": b.ID.String(),
		})
		return
	}

	if out.Matched {
		stats.Matched++
	}
	if out.Completed {
		stats.Completed++
	}
	if out.ClaimCreated {
		stats.ClaimsCreated++
	}
	if out.Final {
		stats.Finalized++
	}
	bookingsEvaluated.WithLabelValues(outcomeLabel(out)).Inc()
}

func outcomeLabel(out Outcome) string {
	switch {
	case out.ClaimCreated:
		return "claim_created"
	case out.Claim != nil:
		return "claim_exists"
	case out.Final && out.Eligibility != nil:
		return "not_eligible"
	case out.Final:
		return "abandoned"
	case out.Matched:
		return "awaiting_completion"
	default:
		return "awaiting_train"
	}
}
