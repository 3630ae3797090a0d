// Package connector defines the platform publishing contract and the HTTP
// plumbing shared by platform implementations.
package connector

import (
	"context"
	"fmt"
	"sort"

	"crosspost/internal/domain"
)

// Result identifies the remote resource a publish created or updated.
type Result struct {
	ContentID string
	URL       string
}

// Connector publishes canonical content to one external platform.
//
// Publish must return either a Result or a *domain.PublishError; raw
// transport errors never escape. When priorContentID is non-empty the
// connector updates that remote resource instead of creating a new one.
type Connector interface {
	Platform() domain.Platform
	Publish(ctx context.Context, project *domain.Project, conn *domain.Connection, priorContentID string) (Result, error)
}

// Set is the collection of connectors available to the orchestrator.
type Set struct {
	byPlatform map[domain.Platform]Connector
}

func NewSet(connectors ...Connector) *Set {
	s := &Set{byPlatform: make(map[domain.Platform]Connector, len(connectors))}
	for _, c := range connectors {
		s.byPlatform[c.Platform()] = c
	}
	return s
}

func (s *Set) Get(platform domain.Platform) (Connector, error) {
	c, ok := s.byPlatform[platform]
	if !ok {
		return nil, fmt.Errorf("no connector for platform %q", platform)
	}
	return c, nil
}

// Platforms lists registered platforms in lexical order.
func (s *Set) Platforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(s.byPlatform))
	for p := range s.byPlatform {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
