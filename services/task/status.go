package task

var transitions = map[Status][]Status{
	StatusPending:      {StatusReadyForQC},
	StatusReadyForQC:   {StatusQCInProgress, StatusCompleted, StatusPending},
	StatusQCInProgress: {StatusCompleted, StatusPending},
	StatusCompleted:    {StatusScheduled},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusReadyForQC, StatusQCInProgress, StatusCompleted, StatusScheduled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a task in from may move to to. Staying in the
// same state is not a transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
