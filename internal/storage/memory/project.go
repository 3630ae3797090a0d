// Package memory holds in-process stores with the same contracts as the
// PostgreSQL stores. They back unit tests and single-process runs.
package memory

import (
	"context"
	"sync"

	"crosspost/internal/domain"
)

type ProjectStore struct {
	mu       sync.RWMutex
	projects map[string]domain.Project
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{projects: make(map[string]domain.Project)}
}

func (s *ProjectStore) Put(project domain.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project.Targets = append([]domain.Platform(nil), project.Targets...)
	project.Tags = append([]string(nil), project.Tags...)
	s.projects[project.ID] = project
}

func (s *ProjectStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.projects, id)
}

func (s *ProjectStore) Get(_ context.Context, id string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return nil, domain.ErrProjectNotFound
	}
	p.Targets = append([]domain.Platform(nil), p.Targets...)
	p.Tags = append([]string(nil), p.Tags...)
	return &p, nil
}
