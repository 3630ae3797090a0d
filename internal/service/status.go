package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"crosspost/internal/domain"
)

type TargetReport struct {
	Platform    domain.Platform     `json:"platform"`
	Status      domain.TargetStatus `json:"status"`
	Attempt     int                 `json:"attempt"`
	ContentID   string              `json:"content_id,omitempty"`
	URL         string              `json:"url,omitempty"`
	ErrorKind   domain.ErrorKind    `json:"error_kind,omitempty"`
	ErrorDetail string              `json:"error_detail,omitempty"`
	UpdatedAt   *time.Time          `json:"updated_at,omitempty"`
}

type ProjectReport struct {
	ProjectID string               `json:"project_id"`
	Status    domain.ProjectStatus `json:"status"`
	Targets   []TargetReport       `json:"targets"`
}

// StatusService derives current publish status from the ledger.
type StatusService struct {
	projects ProjectStore
	ledger   Ledger
}

func NewStatusService(projects ProjectStore, ledger Ledger) *StatusService {
	return &StatusService{projects: projects, ledger: ledger}
}

// ProjectStatus reports per-target and aggregate status. A deleted project
// still reports the targets its ledger history covers.
func (s *StatusService) ProjectStatus(ctx context.Context, projectID string) (*ProjectReport, error) {
	latest, err := s.ledger.LatestByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load latest attempts: %w", err)
	}

	var targets []domain.Platform
	project, err := s.projects.Get(ctx, projectID)
	switch {
	case errors.Is(err, domain.ErrProjectNotFound):
		if len(latest) == 0 {
			return nil, domain.ErrProjectNotFound
		}
		for platform := range latest {
			targets = append(targets, platform)
		}
		sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
	case err != nil:
		return nil, fmt.Errorf("load project: %w", err)
	default:
		targets = project.Targets
	}

	report := &ProjectReport{ProjectID: projectID}
	statuses := make(map[domain.Platform]domain.TargetStatus, len(targets))
	for _, platform := range targets {
		t := TargetReport{Platform: platform, Status: domain.StatusPending}
		if a, ok := latest[platform]; ok {
			t.Status = domain.StatusOf(&a)
			t.Attempt = a.Number
			at := a.RecordedAt
			t.UpdatedAt = &at
			if a.ErrorKind != nil && (t.Status == domain.StatusFailed || t.Status == domain.StatusExhausted) {
				t.ErrorKind = *a.ErrorKind
				if a.ErrorDetail != nil {
					t.ErrorDetail = *a.ErrorDetail
				}
			}
		}

		success, err := s.ledger.LastSuccess(ctx, projectID, platform)
		if err != nil {
			return nil, fmt.Errorf("load last success: %w", err)
		}
		if success != nil {
			if success.ContentID != nil {
				t.ContentID = *success.ContentID
			}
			if success.ContentURL != nil {
				t.URL = *success.ContentURL
			}
		}

		statuses[platform] = t.Status
		report.Targets = append(report.Targets, t)
	}
	report.Status = domain.Aggregate(statuses, len(latest) > 0)

	return report, nil
}

// TargetStatuses returns the derived status of each target keyed by platform.
func (s *StatusService) TargetStatuses(ctx context.Context, projectID string) (map[domain.Platform]domain.TargetStatus, error) {
	report, err := s.ProjectStatus(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make(map[domain.Platform]domain.TargetStatus, len(report.Targets))
	for _, t := range report.Targets {
		out[t.Platform] = t.Status
	}
	return out, nil
}

// History returns every ledger entry for one target in recording order.
func (s *StatusService) History(ctx context.Context, projectID string, platform domain.Platform) ([]domain.Attempt, error) {
	entries, err := s.ledger.History(ctx, projectID, platform)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}
