package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosspost/internal/domain"
	"crosspost/internal/storage/memory"
)

func record(t *testing.T, ledger *memory.AttemptStore, project string, platform domain.Platform, results ...domain.AttemptResult) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	intent := &domain.PublishIntent{ID: project + "/" + string(platform), ProjectID: project, Platform: platform}
	for _, r := range results {
		started, err := ledger.Begin(ctx, intent, at, time.Minute)
		require.NoError(t, err)
		if r.Outcome == domain.OutcomeInFlight {
			return
		}
		_, err = ledger.Finish(ctx, started, r, at.Add(time.Second))
		require.NoError(t, err)
		at = at.Add(time.Minute)
	}
}

func TestStatusService_ProjectStatus(t *testing.T) {
	ok := domain.AttemptResult{Outcome: domain.OutcomeSucceeded, ContentID: "c-1", ContentURL: "https://example.com/c-1"}
	retry := domain.AttemptResult{Outcome: domain.OutcomeRetrying, ErrorKind: domain.KindTransient, ErrorDetail: "503"}
	rejected := domain.AttemptResult{Outcome: domain.OutcomeFailed, ErrorKind: domain.KindContentRejected, ErrorDetail: "too long"}
	inFlight := domain.AttemptResult{Outcome: domain.OutcomeInFlight}

	tests := []struct {
		name    string
		history map[domain.Platform][]domain.AttemptResult
		want    domain.ProjectStatus
		targets map[domain.Platform]domain.TargetStatus
	}{
		{
			name:    "nothing attempted",
			history: nil,
			want:    domain.ProjectPending,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusPending, "mastodon": domain.StatusPending},
		},
		{
			name:    "one target retrying",
			history: map[domain.Platform][]domain.AttemptResult{"devto": {ok}, "mastodon": {retry}},
			want:    domain.ProjectInProgress,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusSucceeded, "mastodon": domain.StatusPending},
		},
		{
			name:    "one target in flight",
			history: map[domain.Platform][]domain.AttemptResult{"devto": {inFlight}},
			want:    domain.ProjectInProgress,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusInFlight, "mastodon": domain.StatusPending},
		},
		{
			name:    "all succeeded",
			history: map[domain.Platform][]domain.AttemptResult{"devto": {ok}, "mastodon": {retry, ok}},
			want:    domain.ProjectSucceeded,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusSucceeded, "mastodon": domain.StatusSucceeded},
		},
		{
			name:    "partial",
			history: map[domain.Platform][]domain.AttemptResult{"devto": {ok}, "mastodon": {rejected}},
			want:    domain.ProjectPartial,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusSucceeded, "mastodon": domain.StatusFailed},
		},
		{
			name:    "all failed",
			history: map[domain.Platform][]domain.AttemptResult{"devto": {rejected}, "mastodon": {rejected}},
			want:    domain.ProjectFailed,
			targets: map[domain.Platform]domain.TargetStatus{"devto": domain.StatusFailed, "mastodon": domain.StatusFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			projects := memory.NewProjectStore()
			projects.Put(domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto", "mastodon"}})
			ledger := memory.NewAttemptStore()
			for platform, results := range tt.history {
				record(t, ledger, "p1", platform, results...)
			}

			report, err := NewStatusService(projects, ledger).ProjectStatus(context.Background(), "p1")
			require.NoError(t, err)

			assert.Equal(t, tt.want, report.Status)
			got := make(map[domain.Platform]domain.TargetStatus)
			for _, target := range report.Targets {
				got[target.Platform] = target.Status
			}
			assert.Equal(t, tt.targets, got)
		})
	}
}

func TestStatusService_ReportDetails(t *testing.T) {
	projects := memory.NewProjectStore()
	projects.Put(domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto", "mastodon"}})
	ledger := memory.NewAttemptStore()
	record(t, ledger, "p1", "devto",
		domain.AttemptResult{Outcome: domain.OutcomeSucceeded, ContentID: "c-1", ContentURL: "https://dev.to/c-1"},
		domain.AttemptResult{Outcome: domain.OutcomeRetrying, ErrorKind: domain.KindTransient, ErrorDetail: "503"},
	)
	record(t, ledger, "p1", "mastodon",
		domain.AttemptResult{Outcome: domain.OutcomeExhausted, ErrorKind: domain.KindRateLimited, ErrorDetail: "429"},
	)

	report, err := NewStatusService(projects, ledger).ProjectStatus(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, report.Targets, 2)

	devto := report.Targets[0]
	assert.Equal(t, domain.StatusPending, devto.Status)
	assert.Equal(t, 2, devto.Attempt)
	assert.Equal(t, "c-1", devto.ContentID)
	assert.Equal(t, "https://dev.to/c-1", devto.URL)
	assert.Empty(t, devto.ErrorKind)

	mastodon := report.Targets[1]
	assert.Equal(t, domain.StatusExhausted, mastodon.Status)
	assert.Equal(t, domain.KindRateLimited, mastodon.ErrorKind)
	assert.Equal(t, "429", mastodon.ErrorDetail)
	assert.NotNil(t, mastodon.UpdatedAt)
}

func TestStatusService_DeletedProjectKeepsHistory(t *testing.T) {
	projects := memory.NewProjectStore()
	ledger := memory.NewAttemptStore()
	record(t, ledger, "gone", "mastodon", domain.AttemptResult{Outcome: domain.OutcomeSucceeded, ContentID: "m-1"})

	svc := NewStatusService(projects, ledger)
	report, err := svc.ProjectStatus(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, domain.ProjectSucceeded, report.Status)
	require.Len(t, report.Targets, 1)
	assert.Equal(t, domain.Platform("mastodon"), report.Targets[0].Platform)

	_, err = svc.ProjectStatus(context.Background(), "never")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)

	statuses, err := svc.TargetStatuses(context.Background(), "gone")
	require.NoError(t, err)
	assert.Equal(t, map[domain.Platform]domain.TargetStatus{"mastodon": domain.StatusSucceeded}, statuses)

	history, err := svc.History(context.Background(), "gone", "mastodon")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
