package autoclaim

import (
	"context"
	"sync"
	"time"

	"autoclaim/pkg/logger"
)

// FeedRefresher pulls the latest train runs.
type FeedRefresher interface {
	Refresh(ctx context.Context) (int, error)
}

// JobProcessor runs the feed poll, the evaluation sweep and the deadline
// check on their own tickers.
type JobProcessor struct {
	pipeline *Pipeline
	feed     FeedRefresher
	config   *JobConfig
	logger   *logger.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	now      func() time.Time

	mu        sync.RWMutex
	lastSweep *SweepStats
	lastRunAt map[string]time.Time
}

type JobConfig struct {
	FeedPollInterval   time.Duration
	SweepInterval      time.Duration
	DeadlineCheckEvery time.Duration
}

func DefaultJobConfig() *JobConfig {
	return &JobConfig{
		FeedPollInterval:   30 * time.Second,
		SweepInterval:      5 * time.Minute,
		DeadlineCheckEvery: 1 * time.Hour,
	}
}

// NewJobProcessor builds the scheduler. feed may be nil when no feed URL is
// configured; the poll job is then skipped.
func NewJobProcessor(pipeline *Pipeline, feed FeedRefresher, config *JobConfig, log *logger.Logger) *JobProcessor {
	if config == nil {
		config = DefaultJobConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &JobProcessor{
		pipeline:  pipeline,
		feed:      feed,
		config:    config,
		logger:    log,
		done:      make(chan struct{}),
		now:       time.Now,
		lastRunAt: make(map[string]time.Time),
	}
}

// Start launches every job. Each runs once immediately.
func (jp *JobProcessor) Start(ctx context.Context) {
	if jp.feed != nil {
		jp.run(ctx, "feed_poll", jp.config.FeedPollInterval, jp.pollFeed)
	}
	jp.run(ctx, "sweep", jp.config.SweepInterval, jp.sweep)
	jp.run(ctx, "deadline_check", jp.config.DeadlineCheckEvery, jp.checkDeadlines)

	jp.logger.InfoWithContext(ctx, "Claim pipeline jobs started", jp.GetJobStatus())
}

// Stop signals every job and waits for in-flight runs to return.
func (jp *JobProcessor) Stop() {
	jp.stopOnce.Do(func() { close(jp.done) })
	jp.wg.Wait()
}

func (jp *JobProcessor) run(ctx context.Context, name string, interval time.Duration, job func(context.Context)) {
	jp.wg.Add(1)
	go func() {
		defer jp.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		jp.runOnce(ctx, name, job)
		for {
			select {
			case <-ticker.C:
				jp.runOnce(ctx, name, job)
			case <-jp.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (jp *JobProcessor) runOnce(ctx context.Context, name string, job func(context.Context)) {
	job(ctx)
	jp.mu.Lock()
	jp.lastRunAt[name] = jp.now().UTC()
	jp.mu.Unlock()
}

func (jp *JobProcessor) pollFeed(ctx context.Context) {
	if _, err := jp.feed.Refresh(ctx); err != nil {
		jp.logger.ErrorWithContext(ctx, "Train feed refresh failed", err, nil)
	}
}

func (jp *JobProcessor) sweep(ctx context.Context) {
	stats, err := jp.pipeline.Sweep(ctx, jp.now().UTC())
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "Evaluation sweep failed", err, nil)
	}
	jp.mu.Lock()
	jp.lastSweep = &stats
	jp.mu.Unlock()
}

func (jp *JobProcessor) checkDeadlines(ctx context.Context) {
	sent, err := jp.pipeline.NotifyApproachingDeadlines(ctx, jp.now().UTC())
	if err != nil {
		jp.logger.ErrorWithContext(ctx, "Deadline check failed", err, nil)
		return
	}
	if sent > 0 {
		jp.logger.InfoWithContext(ctx, "Deadline reminders emitted", map[string]interface{}{"count": sent})
	}
}

// GetJobStatus returns the schedule and the last run of each job.
func (jp *JobProcessor) GetJobStatus() map[string]interface{} {
	jp.mu.RLock()
	defer jp.mu.RUnlock()

	lastRuns := make(map[string]string, len(jp.lastRunAt))
	for name, at := range jp.lastRunAt {
		lastRuns[name] = at.Format(time.RFC3339)
	}

	status := map[string]interface{}{
		"feed_enabled":         jp.feed != nil,
		"feed_poll_interval":   jp.config.FeedPollInterval.String(),
		"sweep_interval":       jp.config.SweepInterval.String(),
		"deadline_check_every": jp.config.DeadlineCheckEvery.String(),
		"last_runs":            lastRuns,
	}
	if jp.lastSweep != nil {
		status["last_sweep"] = *jp.lastSweep
	}
	return status
}
