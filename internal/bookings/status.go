package bookings

// Stage is derived from the booking's columns, never stored.
type Stage string

const (
	StageAwaitingTrain Stage = "awaiting_train"
	StageLinked        Stage = "linked"
	StageCompleted     Stage = "completed"
	StageEvaluated     Stage = "evaluated"
)

// IsValid checks if the stage is known
func (s Stage) IsValid() bool {
	switch s {
	case StageAwaitingTrain, StageLinked, StageCompleted, StageEvaluated:
		return true
	}
	return false
}

// String returns the string representation of Stage
func (s Stage) String() string {
	return string(s)
}

// IsFinal reports that the sweep will not look at the booking again
func (s Stage) IsFinal() bool {
	return s == StageEvaluated
}
