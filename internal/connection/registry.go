// Package connection is the registry of per-owner platform credentials.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"crosspost/internal/domain"
)

//go:generate mockgen -source=registry.go -destination=mocks/mocks.go -package=mocks

// Store persists connections keyed by (owner, platform).
type Store interface {
	Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error)
	Upsert(ctx context.Context, conn *domain.Connection) error
	Revoke(ctx context.Context, ownerID string, platform domain.Platform, at time.Time) error
	// UpdateCredential must not touch a revoked connection; it returns
	// domain.ErrNotFound instead.
	UpdateCredential(ctx context.Context, ownerID string, platform domain.Platform, cred domain.Credential, at time.Time) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Connection, error)
}

// Refresher exchanges a connection's refresh token for a new credential.
type Refresher interface {
	Refresh(ctx context.Context, conn *domain.Connection) (domain.Credential, error)
}

const defaultRefreshTimeout = 10 * time.Second

type Config struct {
	RefreshMargin  time.Duration
	RefreshTimeout time.Duration
}

type Registry struct {
	store      Store
	refreshers map[domain.Platform]Refresher
	margin     time.Duration
	timeout    time.Duration
	inflight   singleflight.Group
	now        func() time.Time
	logger     *slog.Logger
}

func NewRegistry(store Store, refreshers map[domain.Platform]Refresher, cfg Config, logger *slog.Logger) *Registry {
	if refreshers == nil {
		refreshers = make(map[domain.Platform]Refresher)
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = defaultRefreshTimeout
	}
	return &Registry{
		store:      store,
		refreshers: refreshers,
		margin:     cfg.RefreshMargin,
		timeout:    cfg.RefreshTimeout,
		now:        time.Now,
		logger:     logger.With("component", "connections"),
	}
}

// Get returns the active connection for (owner, platform), refreshing its
// credential first when it expires within the refresh margin.
func (r *Registry) Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error) {
	conn, err := r.active(ctx, ownerID, platform)
	if err != nil {
		return nil, err
	}
	if !conn.Credential.Expiring(r.now(), r.margin) {
		return conn, nil
	}

	v, err, shared := r.inflight.Do(pairKey(ownerID, platform), func() (any, error) {
		return r.refresh(ctx, ownerID, platform)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.logger.Debug("shared credential refresh", "owner_id", ownerID, "platform", platform)
	}
	refreshed := *v.(*domain.Connection)
	return &refreshed, nil
}

func (r *Registry) refresh(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error) {
	// Another caller may have refreshed between our read and entering the group.
	conn, err := r.active(ctx, ownerID, platform)
	if err != nil {
		return nil, err
	}
	now := r.now()
	if !conn.Credential.Expiring(now, r.margin) {
		return conn, nil
	}

	refresher, ok := r.refreshers[platform]
	if !ok || conn.Credential.RefreshToken == "" {
		if conn.Credential.Expired(now) {
			return nil, fmt.Errorf("%w: no refresh available for %s", domain.ErrCredentialExpired, platform)
		}
		return conn, nil
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	cred, err := refresher.Refresh(refreshCtx, conn)
	if err != nil {
		r.logger.Warn("credential refresh failed",
			"owner_id", ownerID,
			"platform", platform,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", domain.ErrCredentialExpired, err)
	}

	// The connection may have been revoked while the token endpoint was busy.
	conn.Credential = cred
	conn.UpdatedAt = r.now()
	if err := r.store.UpdateCredential(ctx, ownerID, platform, cred, conn.UpdatedAt); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("store refreshed credential: %w", err)
	}

	r.logger.Info("credential refreshed",
		"owner_id", ownerID,
		"platform", platform,
		"expires_at", cred.ExpiresAt,
	)
	return conn, nil
}

func (r *Registry) active(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error) {
	conn, err := r.store.Get(ctx, ownerID, platform)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	if !conn.Active() {
		return nil, domain.ErrNotFound
	}
	return conn, nil
}

// Put creates or replaces the connection for (owner, platform).
func (r *Registry) Put(ctx context.Context, ownerID string, platform domain.Platform, cred domain.Credential, settings map[string]string) (*domain.Connection, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(string(platform)) == "" {
		return nil, fmt.Errorf("%w: owner and platform are required", domain.ErrInvalidInput)
	}
	if cred.AccessToken == "" {
		return nil, fmt.Errorf("%w: access token is required", domain.ErrInvalidInput)
	}

	now := r.now()
	conn := &domain.Connection{
		OwnerID:    ownerID,
		Platform:   platform,
		Credential: cred,
		Settings:   settings,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := r.store.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("upsert connection: %w", err)
	}

	r.logger.Info("connection stored", "owner_id", ownerID, "platform", platform)
	return conn, nil
}

// Revoke deactivates the connection. Intents already due will fail with
// no_connection on their next attempt.
func (r *Registry) Revoke(ctx context.Context, ownerID string, platform domain.Platform) error {
	if err := r.store.Revoke(ctx, ownerID, platform, r.now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("revoke connection: %w", err)
	}
	r.logger.Info("connection revoked", "owner_id", ownerID, "platform", platform)
	return nil
}

// List returns the owner's active connections.
func (r *Registry) List(ctx context.Context, ownerID string) ([]domain.Connection, error) {
	conns, err := r.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	active := conns[:0]
	for _, c := range conns {
		if c.Active() {
			active = append(active, c)
		}
	}
	return active, nil
}

func pairKey(ownerID string, platform domain.Platform) string {
	return ownerID + "\x00" + string(platform)
}
