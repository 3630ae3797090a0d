package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"crosspost/internal/domain"
)

const attemptColumns = `id, intent_id, project_id, platform, attempt_number, phase, outcome,
	content_id, content_url, error_kind, error_detail, retry_delay, recorded_at`

// AttemptStore is the append-only publish ledger. Rows are only ever inserted.
type AttemptStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewAttemptStore(db *sqlx.DB, tm *TransactionManager) *AttemptStore {
	return &AttemptStore{db: db, tm: tm}
}

// Begin reserves the next attempt number for the intent's pair. The pair is
// serialized with a transaction-scoped advisory lock so concurrent callers
// see each other's started entries.
func (s *AttemptStore) Begin(ctx context.Context, intent *domain.PublishIntent, now time.Time, inFlightTTL time.Duration) (domain.Attempt, error) {
	var started domain.Attempt
	err := s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		if _, err := exec.ExecContext(ctx,
			`SELECT pg_advisory_xact_lock(hashtext($1::text || ':' || $2::text))`,
			intent.ProjectID, intent.Platform,
		); err != nil {
			return fmt.Errorf("lock pair: %w", err)
		}

		latest, err := s.latest(ctx, exec, intent.ProjectID, intent.Platform)
		if err != nil {
			return err
		}

		number := 1
		if latest != nil {
			if latest.Phase == domain.PhaseStarted {
				if now.Sub(latest.RecordedAt) < inFlightTTL {
					return domain.ErrAlreadyInFlight
				}
				if _, err := s.insert(ctx, exec, latest.Abandon(now)); err != nil {
					return fmt.Errorf("abandon attempt %d: %w", latest.Number, err)
				}
			}
			number = latest.Number + 1
		}

		started = domain.Attempt{
			IntentID:   intent.ID,
			ProjectID:  intent.ProjectID,
			Platform:   intent.Platform,
			Number:     number,
			Phase:      domain.PhaseStarted,
			Outcome:    domain.OutcomeInFlight,
			RecordedAt: now,
		}
		started.ID, err = s.insert(ctx, exec, started)
		return err
	})
	if err != nil {
		return domain.Attempt{}, err
	}
	return started, nil
}

// Finish appends the finished entry for started. A second finish for the same
// attempt returns domain.ErrAttemptFinished.
func (s *AttemptStore) Finish(ctx context.Context, started domain.Attempt, result domain.AttemptResult, now time.Time) (domain.Attempt, error) {
	entry := started.Finish(result, now)
	id, err := s.insert(ctx, GetExecutor(ctx, s.db), entry)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptFinished
	}
	if err != nil {
		return domain.Attempt{}, err
	}
	entry.ID = id
	return entry, nil
}

func (s *AttemptStore) Latest(ctx context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error) {
	return s.latest(ctx, GetExecutor(ctx, s.db), projectID, platform)
}

func (s *AttemptStore) LastSuccess(ctx context.Context, projectID string, platform domain.Platform) (*domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM publish_attempts
		WHERE project_id = $1 AND platform = $2 AND outcome = $3
		ORDER BY attempt_number DESC, id DESC
		LIMIT 1`
	return s.getOne(ctx, GetExecutor(ctx, s.db), query, projectID, platform, domain.OutcomeSucceeded)
}

func (s *AttemptStore) CountForIntent(ctx context.Context, intentID string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &n,
		`SELECT COUNT(*) FROM publish_attempts WHERE intent_id = $1 AND phase = $2`,
		intentID, domain.PhaseStarted,
	)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *AttemptStore) LastFinishedForIntent(ctx context.Context, intentID string) (*domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM publish_attempts
		WHERE intent_id = $1 AND phase = $2
		ORDER BY id DESC
		LIMIT 1`
	return s.getOne(ctx, GetExecutor(ctx, s.db), query, intentID, domain.PhaseFinished)
}

func (s *AttemptStore) LatestByProject(ctx context.Context, projectID string) (map[domain.Platform]domain.Attempt, error) {
	var rows []domain.Attempt
	query := `SELECT DISTINCT ON (platform) ` + attemptColumns + ` FROM publish_attempts
		WHERE project_id = $1
		ORDER BY platform, attempt_number DESC, id DESC`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, projectID); err != nil {
		return nil, fmt.Errorf("latest attempts by project: %w", err)
	}

	out := make(map[domain.Platform]domain.Attempt, len(rows))
	for _, a := range rows {
		out[a.Platform] = a
	}
	return out, nil
}

func (s *AttemptStore) History(ctx context.Context, projectID string, platform domain.Platform) ([]domain.Attempt, error) {
	var rows []domain.Attempt
	query := `SELECT ` + attemptColumns + ` FROM publish_attempts
		WHERE project_id = $1 AND platform = $2
		ORDER BY attempt_number, id`

	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, projectID, platform); err != nil {
		return nil, fmt.Errorf("attempt history: %w", err)
	}
	return rows, nil
}

func (s *AttemptStore) latest(ctx context.Context, exec sqlx.ExtContext, projectID string, platform domain.Platform) (*domain.Attempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM publish_attempts
		WHERE project_id = $1 AND platform = $2
		ORDER BY attempt_number DESC, id DESC
		LIMIT 1`
	return s.getOne(ctx, exec, query, projectID, platform)
}

func (s *AttemptStore) getOne(ctx context.Context, exec sqlx.ExtContext, query string, args ...any) (*domain.Attempt, error) {
	var a domain.Attempt
	err := sqlx.GetContext(ctx, exec, &a, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return &a, nil
}

// insert returns sql.ErrNoRows when the (pair, number, phase) entry exists.
func (s *AttemptStore) insert(ctx context.Context, exec sqlx.ExtContext, a domain.Attempt) (int64, error) {
	query := `
		INSERT INTO publish_attempts (
			intent_id, project_id, platform, attempt_number, phase, outcome,
			content_id, content_url, error_kind, error_detail, retry_delay, recorded_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (project_id, platform, attempt_number, phase) DO NOTHING
		RETURNING id`

	var id int64
	err := exec.QueryRowxContext(ctx, query,
		a.IntentID,
		a.ProjectID,
		a.Platform,
		a.Number,
		a.Phase,
		a.Outcome,
		a.ContentID,
		a.ContentURL,
		a.ErrorKind,
		a.ErrorDetail,
		int64(a.RetryDelay),
		a.RecordedAt,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, err
	}
	if err != nil {
		return 0, fmt.Errorf("insert attempt: %w", err)
	}
	return id, nil
}
