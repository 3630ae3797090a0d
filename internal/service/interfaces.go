package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"time"

	"crosspost/internal/connector"
	"crosspost/internal/domain"
)

type ProjectStore interface {
	Get(ctx context.Context, id string) (*domain.Project, error)
}

// Ledger is the append-only record of publish attempts.
type Ledger interface {
	Begin(ctx context.Context, intent *domain.PublishIntent, now time.Time, inFlightTTL time.Duration) (domain.Attempt, error)
	Finish(ctx context.Context, started domain.Attempt, result domain.AttemptResult, now time.Time) (domain.Attempt, error)
	Latest(ctx context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error)
	LastSuccess(ctx context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error)
	CountForIntent(ctx context.Context, intentID string) (int, error)
	LastFinishedForIntent(ctx context.Context, intentID string) (*domain.Attempt, error)
	LatestByProject(ctx context.Context, projectID string) (map[domain.Platform]domain.Attempt, error)
	History(ctx context.Context, projectID string, platform domain.Platform) ([]domain.Attempt, error)
}

type Connections interface {
	Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error)
}

type Connectors interface {
	Get(platform domain.Platform) (connector.Connector, error)
}

// Planner receives the lifecycle decisions the orchestrator makes about an
// intent it executed.
type Planner interface {
	Retry(ctx context.Context, intentID string, at time.Time) error
	Complete(ctx context.Context, intentID string) error
}

// Notifier announces terminal status transitions to the UI layer.
type Notifier interface {
	Publish(ctx context.Context, event *domain.StatusEvent) error
	Close() error
}
