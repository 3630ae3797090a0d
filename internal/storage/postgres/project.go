package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"crosspost/internal/domain"
)

// ProjectStore reads projects owned by the authoring subsystem.
type ProjectStore struct {
	db *sqlx.DB
}

func NewProjectStore(db *sqlx.DB) *ProjectStore {
	return &ProjectStore{db: db}
}

type projectRow struct {
	ID           string         `db:"id"`
	OwnerID      string         `db:"owner_id"`
	FolderID     *string        `db:"folder_id"`
	Title        string         `db:"title"`
	Body         string         `db:"body"`
	Tags         pq.StringArray `db:"tags"`
	CanonicalURL *string        `db:"canonical_url"`
	Targets      pq.StringArray `db:"targets"`
	Archived     bool           `db:"archived"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r projectRow) toDomain() *domain.Project {
	p := &domain.Project{
		ID:           r.ID,
		OwnerID:      r.OwnerID,
		FolderID:     r.FolderID,
		Title:        r.Title,
		Body:         r.Body,
		Tags:         []string(r.Tags),
		CanonicalURL: r.CanonicalURL,
		Archived:     r.Archived,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	for _, t := range r.Targets {
		p.Targets = append(p.Targets, domain.Platform(t))
	}
	return p
}

func (s *ProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	var row projectRow
	query := `
		SELECT id, owner_id, folder_id, title, body, tags, canonical_url,
			targets, archived, created_at, updated_at
		FROM projects
		WHERE id = $1`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return row.toDomain(), nil
}
