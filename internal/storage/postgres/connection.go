package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"crosspost/internal/domain"
)

type ConnectionStore struct {
	db *sqlx.DB
}

func NewConnectionStore(db *sqlx.DB) *ConnectionStore {
	return &ConnectionStore{db: db}
}

type connectionRow struct {
	ID         int64      `db:"id"`
	OwnerID    string     `db:"owner_id"`
	Platform   string     `db:"platform"`
	Credential []byte     `db:"credential"`
	Settings   []byte     `db:"settings"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	RevokedAt  *time.Time `db:"revoked_at"`
}

func (r connectionRow) toDomain() (*domain.Connection, error) {
	c := &domain.Connection{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Platform:  domain.Platform(r.Platform),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		RevokedAt: r.RevokedAt,
	}
	if err := json.Unmarshal(r.Credential, &c.Credential); err != nil {
		return nil, fmt.Errorf("decode credential: %w", err)
	}
	if len(r.Settings) > 0 {
		if err := json.Unmarshal(r.Settings, &c.Settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
	}
	return c, nil
}

const connectionColumns = `id, owner_id, platform, credential, settings, created_at, updated_at, revoked_at`

// Get returns the stored connection, revoked or not.
func (s *ConnectionStore) Get(ctx context.Context, ownerID string, platform domain.Platform) (*domain.Connection, error) {
	var row connectionRow
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE owner_id = $1 AND platform = $2`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, ownerID, platform)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return row.toDomain()
}

// Upsert replaces the connection for (owner, platform) and clears any
// revocation. conn.ID and conn.CreatedAt are set from the stored row.
func (s *ConnectionStore) Upsert(ctx context.Context, conn *domain.Connection) error {
	credential, err := json.Marshal(conn.Credential)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}
	settings := conn.Settings
	if settings == nil {
		settings = map[string]string{}
	}
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	updatedAt := conn.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	query := `
		INSERT INTO connections (owner_id, platform, credential, settings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (owner_id, platform) DO UPDATE SET
			credential = EXCLUDED.credential,
			settings = EXCLUDED.settings,
			updated_at = EXCLUDED.updated_at,
			revoked_at = NULL
		RETURNING id, created_at`

	err = GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		conn.OwnerID,
		conn.Platform,
		credential,
		settingsJSON,
		updatedAt,
	).Scan(&conn.ID, &conn.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}
	conn.UpdatedAt = updatedAt
	conn.RevokedAt = nil
	return nil
}

func (s *ConnectionStore) Revoke(ctx context.Context, ownerID string, platform domain.Platform, at time.Time) error {
	query := `
		UPDATE connections SET revoked_at = $3, updated_at = $3
		WHERE owner_id = $1 AND platform = $2 AND revoked_at IS NULL`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, ownerID, platform, at)
	if err != nil {
		return fmt.Errorf("revoke connection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke connection: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateCredential replaces the credential of an active connection only.
// Settings and revocation are left as stored.
func (s *ConnectionStore) UpdateCredential(ctx context.Context, ownerID string, platform domain.Platform, cred domain.Credential, at time.Time) error {
	credential, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode credential: %w", err)
	}

	query := `
		UPDATE connections SET credential = $3, updated_at = $4
		WHERE owner_id = $1 AND platform = $2 AND revoked_at IS NULL`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, ownerID, platform, credential, at)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *ConnectionStore) ListByOwner(ctx context.Context, ownerID string) ([]domain.Connection, error) {
	var rows []connectionRow
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE owner_id = $1 ORDER BY platform`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}

	out := make([]domain.Connection, 0, len(rows))
	for _, r := range rows {
		c, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}
