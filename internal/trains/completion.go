package trains

import (
	"time"
)

// JourneyStatus is the completion state of a train run.
type JourneyStatus string

const (
	JourneyScheduled  JourneyStatus = "scheduled"
	JourneyInProgress JourneyStatus = "in-progress"
	JourneyCompleted  JourneyStatus = "completed"
)

// DefaultCompletionBuffer is how long after scheduled arrival a journey must
// wait before it is considered stable enough to evaluate.
const DefaultCompletionBuffer = 30 * time.Minute

// Completion is the outcome of evaluating a train run.
type Completion struct {
	Status       JourneyStatus `json:"status"`
	DelayMinutes int           `json:"delay_minutes"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// IsComplete gates every downstream compensation and eligibility step.
func (c Completion) IsComplete() bool {
	return c.Status == JourneyCompleted
}

// CompletionEvaluator decides whether a journey is safe to evaluate and how
// late it arrived. It holds no mutable state.
type CompletionEvaluator struct {
	Buffer time.Duration
}

func NewCompletionEvaluator(buffer time.Duration) CompletionEvaluator {
	if buffer < 0 {
		buffer = DefaultCompletionBuffer
	}
	return CompletionEvaluator{Buffer: buffer}
}

// Evaluate classifies the run at instant now. A run is completed only once
// its actual arrival is known and the buffer past scheduled arrival has
// elapsed.
func (e CompletionEvaluator) Evaluate(t *Train, now time.Time) Completion {
	if t == nil {
		return Completion{Status: JourneyScheduled}
	}

	delay := 0
	if t.ActualArrival != nil {
		delay = DelayMinutes(t.ScheduledArrival, *t.ActualArrival)
	}

	if t.ActualArrival != nil && !now.Before(t.ScheduledArrival.Add(e.Buffer)) {
		completedAt := t.ActualArrival.UTC()
		return Completion{Status: JourneyCompleted, DelayMinutes: delay, CompletedAt: &completedAt}
	}

	departed := t.ActualDeparture != nil || !now.Before(t.ScheduledDeparture)
	if departed {
		return Completion{Status: JourneyInProgress, DelayMinutes: delay}
	}
	return Completion{Status: JourneyScheduled}
}

// DelayMinutes is max(0, actual - scheduled) in whole minutes, rounded down.
func DelayMinutes(scheduled, actual time.Time) int {
	diff := actual.Sub(scheduled)
	if diff <= 0 {
		return 0
	}
	return int(diff / time.Minute)
}
