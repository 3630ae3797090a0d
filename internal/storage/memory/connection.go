package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"crosspost/internal/domain"
)

type connKey struct {
	owner    string
	platform domain.Platform
}

type ConnectionStore struct {
	mu     sync.RWMutex
	nextID int64
	conns  map[connKey]domain.Connection
}

func NewConnectionStore() *ConnectionStore {
	return &ConnectionStore{conns: make(map[connKey]domain.Connection)}
}

func (s *ConnectionStore) Get(_ context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conns[connKey{ownerID, platform}]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneConnection(c), nil
}

// Upsert stores conn as the single connection for its (owner, platform),
// clearing any revocation.
func (s *ConnectionStore) Upsert(_ context.Context, conn *domain.Connection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := connKey{conn.OwnerID, conn.Platform}
	stored := *cloneConnection(*conn)
	if existing, ok := s.conns[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	} else {
		s.nextID++
		stored.ID = s.nextID
	}
	stored.RevokedAt = nil
	s.conns[key] = stored
	conn.ID = stored.ID
	conn.CreatedAt = stored.CreatedAt
	conn.RevokedAt = nil
	return nil
}

func (s *ConnectionStore) Revoke(_ context.Context, ownerID string, platform domain.Platform, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := connKey{ownerID, platform}
	c, ok := s.conns[key]
	if !ok || c.RevokedAt != nil {
		return domain.ErrNotFound
	}
	c.RevokedAt = &at
	c.UpdatedAt = at
	s.conns[key] = c
	return nil
}

// UpdateCredential replaces the credential of an active connection only.
func (s *ConnectionStore) UpdateCredential(_ context.Context, ownerID string, platform domain.Platform, cred domain.Credential, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := connKey{ownerID, platform}
	c, ok := s.conns[key]
	if !ok || c.RevokedAt != nil {
		return domain.ErrNotFound
	}
	c.Credential = cred
	c.UpdatedAt = at
	s.conns[key] = c
	return nil
}

func (s *ConnectionStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Connection
	for key, c := range s.conns {
		if key.owner == ownerID {
			out = append(out, *cloneConnection(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

func cloneConnection(c domain.Connection) *domain.Connection {
	if c.Settings != nil {
		settings := make(map[string]string, len(c.Settings))
		for k, v := range c.Settings {
			settings[k] = v
		}
		c.Settings = settings
	}
	if c.RevokedAt != nil {
		at := *c.RevokedAt
		c.RevokedAt = &at
	}
	return &c
}
