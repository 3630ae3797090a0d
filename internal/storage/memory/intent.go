package memory

import (
	"context"
	"sort"
	"sync"

	"crosspost/internal/domain"
)

type IntentStore struct {
	mu      sync.RWMutex
	intents map[string]domain.PublishIntent
}

func NewIntentStore() *IntentStore {
	return &IntentStore{intents: make(map[string]domain.PublishIntent)}
}

// Save upserts intent by id. A second open intent for the same pair is
// rejected with domain.ErrAlreadyInFlight.
func (s *IntentStore) Save(_ context.Context, intent *domain.PublishIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !intent.State.Terminal() {
		for id, other := range s.intents {
			if id != intent.ID && !other.State.Terminal() && other.Pair() == intent.Pair() {
				return domain.ErrAlreadyInFlight
			}
		}
	}
	s.intents[intent.ID] = *intent
	return nil
}

func (s *IntentStore) Get(_ context.Context, id string) (*domain.PublishIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	intent, ok := s.intents[id]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	return &intent, nil
}

// ListOpen returns non-terminal intents ordered by due time then sequence.
func (s *IntentStore) ListOpen(_ context.Context) ([]domain.PublishIntent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.PublishIntent
	for _, intent := range s.intents {
		if !intent.State.Terminal() {
			out = append(out, intent)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].DueAt.Before(out[j].DueAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}
