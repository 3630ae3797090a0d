package domain

type TargetStatus string

const (
	StatusPending   TargetStatus = "pending"
	StatusInFlight  TargetStatus = "in_flight"
	StatusSucceeded TargetStatus = "succeeded"
	StatusFailed    TargetStatus = "failed"
	StatusExhausted TargetStatus = "exhausted"
)

// StatusOf derives the target status from the latest ledger entry for a pair.
// A nil entry means nothing has been attempted yet.
func StatusOf(latest *Attempt) TargetStatus {
	if latest == nil {
		return StatusPending
	}
	switch latest.Outcome {
	case OutcomeInFlight:
		return StatusInFlight
	case OutcomeSucceeded:
		return StatusSucceeded
	case OutcomeFailed:
		return StatusFailed
	case OutcomeExhausted:
		return StatusExhausted
	default:
		return StatusPending
	}
}

type ProjectStatus string

const (
	ProjectPending    ProjectStatus = "pending"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectSucceeded  ProjectStatus = "succeeded"
	ProjectPartial    ProjectStatus = "partial"
	ProjectFailed     ProjectStatus = "failed"
)

// Aggregate derives the project status from per-target statuses.
func Aggregate(targets map[Platform]TargetStatus, started bool) ProjectStatus {
	if len(targets) == 0 {
		return ProjectPending
	}
	var succeeded, failed, open int
	for _, st := range targets {
		switch st {
		case StatusSucceeded:
			succeeded++
		case StatusFailed, StatusExhausted:
			failed++
		default:
			open++
		}
	}
	switch {
	case open > 0 && !started:
		return ProjectPending
	case open > 0:
		return ProjectInProgress
	case failed == 0:
		return ProjectSucceeded
	case succeeded == 0:
		return ProjectFailed
	default:
		return ProjectPartial
	}
}
