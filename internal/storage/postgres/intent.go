package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"crosspost/internal/domain"
)

const (
	uniqueViolation      = "23505"
	openPairIndex        = "idx_publish_intents_open_pair"
	intentColumns        = `id, project_id, owner_id, platform, due_at, seq, state, created_at, updated_at`
	terminalIntentStates = `('done', 'cancelled')`
)

type IntentStore struct {
	db *sqlx.DB
}

func NewIntentStore(db *sqlx.DB) *IntentStore {
	return &IntentStore{db: db}
}

type intentRow struct {
	ID        string             `db:"id"`
	ProjectID string             `db:"project_id"`
	OwnerID   string             `db:"owner_id"`
	Platform  string             `db:"platform"`
	DueAt     sql.NullTime       `db:"due_at"`
	Seq       int64              `db:"seq"`
	State     domain.IntentState `db:"state"`
	CreatedAt sql.NullTime       `db:"created_at"`
	UpdatedAt sql.NullTime       `db:"updated_at"`
}

func (r intentRow) toDomain() domain.PublishIntent {
	return domain.PublishIntent{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		OwnerID:   r.OwnerID,
		Platform:  domain.Platform(r.Platform),
		DueAt:     r.DueAt.Time,
		Seq:       r.Seq,
		State:     r.State,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

// Save upserts intent by id. A second open intent for the same pair violates
// the partial unique index and is reported as domain.ErrAlreadyInFlight.
func (s *IntentStore) Save(ctx context.Context, intent *domain.PublishIntent) error {
	query := `
		INSERT INTO publish_intents (` + intentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			due_at = EXCLUDED.due_at,
			seq = EXCLUDED.seq,
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		intent.ID,
		intent.ProjectID,
		intent.OwnerID,
		intent.Platform,
		intent.DueAt,
		intent.Seq,
		intent.State,
		intent.CreatedAt,
		intent.UpdatedAt,
	)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation && pqErr.Constraint == openPairIndex {
		return domain.ErrAlreadyInFlight
	}
	if err != nil {
		return fmt.Errorf("save intent: %w", err)
	}
	return nil
}

func (s *IntentStore) Get(ctx context.Context, id string) (*domain.PublishIntent, error) {
	var row intentRow
	query := `SELECT ` + intentColumns + ` FROM publish_intents WHERE id::text = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrIntentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get intent: %w", err)
	}
	intent := row.toDomain()
	return &intent, nil
}

// ListOpen returns non-terminal intents ordered by due time then sequence.
func (s *IntentStore) ListOpen(ctx context.Context) ([]domain.PublishIntent, error) {
	var rows []intentRow
	query := `
		SELECT ` + intentColumns + `
		FROM publish_intents
		WHERE state NOT IN ` + terminalIntentStates + `
		ORDER BY due_at, seq`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query); err != nil {
		return nil, fmt.Errorf("list open intents: %w", err)
	}

	out := make([]domain.PublishIntent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}
