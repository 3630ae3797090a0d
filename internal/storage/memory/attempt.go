package memory

import (
	"context"
	"sync"
	"time"

	"crosspost/internal/domain"
)

// AttemptStore is an append-only ledger. Entries are never modified after
// being appended.
type AttemptStore struct {
	mu      sync.Mutex
	nextID  int64
	entries []domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

func (s *AttemptStore) Begin(_ context.Context, intent *domain.PublishIntent, now time.Time, inFlightTTL time.Duration) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	number := 1
	if l := s.latestLocked(intent.ProjectID, intent.Platform); l != nil {
		latest := *l
		if latest.Phase == domain.PhaseStarted {
			if now.Sub(latest.RecordedAt) < inFlightTTL {
				return domain.Attempt{}, domain.ErrAlreadyInFlight
			}
			s.appendLocked(latest.Abandon(now))
		}
		number = latest.Number + 1
	}

	return s.appendLocked(domain.Attempt{
		IntentID:   intent.ID,
		ProjectID:  intent.ProjectID,
		Platform:   intent.Platform,
		Number:     number,
		Phase:      domain.PhaseStarted,
		Outcome:    domain.OutcomeInFlight,
		RecordedAt: now,
	}), nil
}

func (s *AttemptStore) Finish(_ context.Context, started domain.Attempt, result domain.AttemptResult, now time.Time) (domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if e.ProjectID == started.ProjectID && e.Platform == started.Platform &&
			e.Number == started.Number && e.Phase == domain.PhaseFinished {
			return domain.Attempt{}, domain.ErrAttemptFinished
		}
	}
	return s.appendLocked(started.Finish(result, now)), nil
}

func (s *AttemptStore) Latest(_ context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	latest := s.latestLocked(projectID, platform)
	if latest == nil {
		return nil, nil
	}
	a := *latest
	return &a, nil
}

func (s *AttemptStore) LastSuccess(_ context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.ProjectID == projectID && e.Platform == platform && e.Outcome == domain.OutcomeSucceeded {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *AttemptStore) CountForIntent(_ context.Context, intentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.IntentID == intentID && e.Phase == domain.PhaseStarted {
			n++
		}
	}
	return n, nil
}

func (s *AttemptStore) LastFinishedForIntent(_ context.Context, intentID string) (*domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.IntentID == intentID && e.Phase == domain.PhaseFinished {
			return &e, nil
		}
	}
	return nil, nil
}

func (s *AttemptStore) LatestByProject(_ context.Context, projectID string) (map[domain.Platform]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.Platform]domain.Attempt)
	for _, e := range s.entries {
		if e.ProjectID == projectID {
			out[e.Platform] = e
		}
	}
	return out, nil
}

func (s *AttemptStore) History(_ context.Context, projectID string, platform domain.Platform) ([]domain.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Attempt
	for _, e := range s.entries {
		if e.ProjectID == projectID && e.Platform == platform {
			out = append(out, e)
		}
	}
	return out, nil
}

// latestLocked relies on entries being appended in recording order, so the
// last matching entry is the latest.
func (s *AttemptStore) latestLocked(projectID string, platform domain.Platform) *domain.Attempt {
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].ProjectID == projectID && s.entries[i].Platform == platform {
			return &s.entries[i]
		}
	}
	return nil
}

func (s *AttemptStore) appendLocked(a domain.Attempt) domain.Attempt {
	s.nextID++
	a.ID = s.nextID
	s.entries = append(s.entries, a)
	return a
}
