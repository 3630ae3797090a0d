package scheduler

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"crosspost/internal/domain"
	"crosspost/internal/storage/memory"
)

type fakeConnections struct {
	byOwner map[string][]domain.Connection
}

func (f *fakeConnections) List(_ context.Context, ownerID string) ([]domain.Connection, error) {
	return f.byOwner[ownerID], nil
}

type PlannerTestSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.IntentStore
	conns   *fakeConnections
	planner *Planner
	clock   time.Time
}

func (s *PlannerTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.NewIntentStore()
	s.conns = &fakeConnections{byOwner: map[string][]domain.Connection{}}
	s.clock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.planner = NewPlanner(s.store, s.conns, Config{
		PollInterval:    10 * time.Millisecond,
		LivenessTimeout: 30 * time.Second,
	}, logger)
	s.planner.now = func() time.Time { return s.clock }
}

func TestPlannerTestSuite(t *testing.T) {
	suite.Run(t, new(PlannerTestSuite))
}

// tick runs one emission pass and returns what it emitted.
func (s *PlannerTestSuite) tick() []domain.PublishIntent {
	var got []domain.PublishIntent
	done := make(chan struct{})
	go func() {
		s.planner.emitDue(s.ctx)
		close(done)
	}()
	for {
		select {
		case intent := <-s.planner.out:
			got = append(got, intent)
		case <-done:
			return got
		}
	}
}

func ids(intents []domain.PublishIntent) []string {
	out := make([]string, len(intents))
	for i, intent := range intents {
		out[i] = intent.ID
	}
	return out
}

func (s *PlannerTestSuite) schedule(project string, platform domain.Platform, due time.Time) domain.PublishIntent {
	intent, err := s.planner.Schedule(s.ctx, project, "owner-1", platform, due)
	s.Require().NoError(err)
	return intent
}

func (s *PlannerTestSuite) TestEmit_FIFOForEqualDueTimes() {
	a := s.schedule("p1", "devto", s.clock)
	b := s.schedule("p2", "devto", s.clock)
	c := s.schedule("p3", "devto", s.clock)

	s.Equal([]string{a.ID, b.ID, c.ID}, ids(s.tick()))
}

func (s *PlannerTestSuite) TestEmit_OrdersByDueTime() {
	late := s.schedule("p1", "devto", s.clock.Add(-time.Second))
	early := s.schedule("p2", "devto", s.clock.Add(-time.Minute))
	future := s.schedule("p3", "devto", s.clock.Add(time.Minute))

	s.Equal([]string{early.ID, late.ID}, ids(s.tick()))

	s.clock = s.clock.Add(2 * time.Minute)
	s.Equal([]string{future.ID}, ids(s.tick()))
}

func (s *PlannerTestSuite) TestSchedule_ZeroDueMeansNow() {
	intent := s.schedule("p1", "devto", time.Time{})
	s.True(intent.DueAt.Equal(s.clock))
	s.Len(s.tick(), 1)
}

func (s *PlannerTestSuite) TestSchedule_ReplacesPendingIntent() {
	first := s.schedule("p1", "devto", s.clock.Add(time.Hour))
	second := s.schedule("p1", "devto", s.clock.Add(2*time.Hour))

	s.Equal(first.ID, second.ID)
	s.Greater(second.Seq, first.Seq)

	pending := s.planner.Pending(s.ctx)
	s.Require().Len(pending, 1)
	s.True(pending[0].DueAt.Equal(s.clock.Add(2 * time.Hour)))

	open, err := s.store.ListOpen(s.ctx)
	s.Require().NoError(err)
	s.Len(open, 1)
}

func (s *PlannerTestSuite) TestSchedule_InFlightPairRejected() {
	s.schedule("p1", "devto", s.clock)
	s.Require().Len(s.tick(), 1)

	_, err := s.planner.Schedule(s.ctx, "p1", "owner-1", "devto", s.clock.Add(time.Hour))
	s.ErrorIs(err, domain.ErrAlreadyInFlight)
}

func (s *PlannerTestSuite) TestSchedule_RequiresFields() {
	_, err := s.planner.Schedule(s.ctx, "", "owner-1", "devto", s.clock)
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *PlannerTestSuite) TestReorder_ReassignsSlots() {
	a := s.schedule("p1", "devto", s.clock.Add(time.Hour))
	b := s.schedule("p2", "devto", s.clock.Add(time.Hour))
	c := s.schedule("p3", "devto", s.clock.Add(2*time.Hour))

	s.Require().NoError(s.planner.Reorder(s.ctx, []string{c.ID, a.ID, b.ID}))

	pending := s.planner.Pending(s.ctx)
	s.Equal([]string{c.ID, a.ID, b.ID}, ids(pending))
	s.True(pending[0].DueAt.Equal(s.clock.Add(time.Hour)))
	s.Equal(a.Seq, pending[0].Seq)
	s.True(pending[2].DueAt.Equal(s.clock.Add(2 * time.Hour)))

	s.clock = s.clock.Add(3 * time.Hour)
	s.Equal([]string{c.ID, a.ID, b.ID}, ids(s.tick()))
}

func (s *PlannerTestSuite) TestReorder_DueIntentIsTooLate() {
	due := s.schedule("p1", "devto", s.clock)
	later := s.schedule("p2", "devto", s.clock.Add(time.Hour))
	before := s.planner.Pending(s.ctx)

	err := s.planner.Reorder(s.ctx, []string{later.ID, due.ID})
	s.ErrorIs(err, domain.ErrTooLate)
	s.Equal(before, s.planner.Pending(s.ctx))
}

func (s *PlannerTestSuite) TestReorder_EmittedIntentIsTooLate() {
	emitted := s.schedule("p1", "devto", s.clock)
	later := s.schedule("p2", "devto", s.clock.Add(time.Hour))
	s.Require().Len(s.tick(), 1)
	before := s.planner.Pending(s.ctx)

	s.ErrorIs(s.planner.Reorder(s.ctx, []string{later.ID, emitted.ID}), domain.ErrTooLate)
	s.Equal(before, s.planner.Pending(s.ctx))

	stored, err := s.store.Get(s.ctx, emitted.ID)
	s.Require().NoError(err)
	s.Equal(domain.IntentEmitted, stored.State)
}

func (s *PlannerTestSuite) TestReorder_InvalidInput() {
	a := s.schedule("p1", "devto", s.clock.Add(time.Hour))

	s.ErrorIs(s.planner.Reorder(s.ctx, nil), domain.ErrInvalidInput)
	s.ErrorIs(s.planner.Reorder(s.ctx, []string{a.ID, a.ID}), domain.ErrInvalidInput)
	s.ErrorIs(s.planner.Reorder(s.ctx, []string{a.ID, "missing"}), domain.ErrIntentNotFound)
}

func (s *PlannerTestSuite) TestCancel_Pending() {
	intent := s.schedule("p1", "devto", s.clock.Add(time.Hour))

	s.Require().NoError(s.planner.Cancel(s.ctx, intent.ID))
	s.Empty(s.planner.Pending(s.ctx))

	stored, err := s.store.Get(s.ctx, intent.ID)
	s.Require().NoError(err)
	s.Equal(domain.IntentCancelled, stored.State)

	s.NoError(s.planner.Cancel(s.ctx, intent.ID))

	s.clock = s.clock.Add(2 * time.Hour)
	s.Empty(s.tick())
}

func (s *PlannerTestSuite) TestCancel_EmittedIsTooLate() {
	intent := s.schedule("p1", "devto", s.clock)
	s.Require().Len(s.tick(), 1)

	s.ErrorIs(s.planner.Cancel(s.ctx, intent.ID), domain.ErrTooLate)

	s.Require().NoError(s.planner.Claim(s.ctx, intent.ID))
	s.ErrorIs(s.planner.Cancel(s.ctx, intent.ID), domain.ErrTooLate)
}

func (s *PlannerTestSuite) TestCancel_Unknown() {
	s.ErrorIs(s.planner.Cancel(s.ctx, "missing"), domain.ErrIntentNotFound)
}

func (s *PlannerTestSuite) TestCancel_DoneIsTooLate() {
	intent := s.schedule("p1", "devto", s.clock)
	s.Require().Len(s.tick(), 1)
	s.Require().NoError(s.planner.Claim(s.ctx, intent.ID))
	s.Require().NoError(s.planner.Complete(s.ctx, intent.ID))

	s.ErrorIs(s.planner.Cancel(s.ctx, intent.ID), domain.ErrTooLate)
}

func (s *PlannerTestSuite) TestLiveness_UnclaimedIntentIsReEmitted() {
	intent := s.schedule("p1", "devto", s.clock)
	s.Equal([]string{intent.ID}, ids(s.tick()))

	s.clock = s.clock.Add(10 * time.Second)
	s.Empty(s.tick())

	s.clock = s.clock.Add(30 * time.Second)
	s.Equal([]string{intent.ID}, ids(s.tick()))

	s.Require().NoError(s.planner.Claim(s.ctx, intent.ID))
	s.ErrorIs(s.planner.Claim(s.ctx, intent.ID), ErrNotClaimable)

	s.clock = s.clock.Add(time.Hour)
	s.Empty(s.tick())
}

func (s *PlannerTestSuite) TestRetry_RequeuesAtTime() {
	intent := s.schedule("p1", "devto", s.clock)
	s.Require().Len(s.tick(), 1)
	s.Require().NoError(s.planner.Claim(s.ctx, intent.ID))

	s.Require().NoError(s.planner.Retry(s.ctx, intent.ID, s.clock.Add(4*time.Second)))
	s.Empty(s.tick())

	s.clock = s.clock.Add(5 * time.Second)
	s.Equal([]string{intent.ID}, ids(s.tick()))
}

func (s *PlannerTestSuite) TestComplete_RemovesIntent() {
	intent := s.schedule("p1", "devto", s.clock)
	s.Require().Len(s.tick(), 1)
	s.Require().NoError(s.planner.Claim(s.ctx, intent.ID))
	s.Require().NoError(s.planner.Complete(s.ctx, intent.ID))

	s.Empty(s.planner.Pending(s.ctx))
	s.ErrorIs(s.planner.Complete(s.ctx, intent.ID), domain.ErrIntentNotFound)

	again := s.schedule("p1", "devto", s.clock)
	s.NotEqual(intent.ID, again.ID)
}

func (s *PlannerTestSuite) TestScheduleProject_RequiresConnectionPerTarget() {
	s.conns.byOwner["owner-1"] = []domain.Connection{{OwnerID: "owner-1", Platform: "devto"}}
	project := &domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto", "mastodon"}}

	_, err := s.planner.ScheduleProject(s.ctx, project, time.Time{})
	s.ErrorIs(err, domain.ErrNoConnection)
	s.Empty(s.planner.Pending(s.ctx))
}

func (s *PlannerTestSuite) TestScheduleProject_RevokedConnectionDoesNotCount() {
	revoked := s.clock.Add(-time.Hour)
	s.conns.byOwner["owner-1"] = []domain.Connection{
		{OwnerID: "owner-1", Platform: "devto", RevokedAt: &revoked},
	}
	project := &domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto"}}

	_, err := s.planner.ScheduleProject(s.ctx, project, time.Time{})
	s.ErrorIs(err, domain.ErrNoConnection)
}

func (s *PlannerTestSuite) TestScheduleProject_OneIntentPerTarget() {
	s.conns.byOwner["owner-1"] = []domain.Connection{
		{OwnerID: "owner-1", Platform: "devto"},
		{OwnerID: "owner-1", Platform: "mastodon"},
	}
	project := &domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto", "mastodon"}}

	intents, err := s.planner.ScheduleProject(s.ctx, project, s.clock.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(intents, 2)
	s.Equal(domain.Platform("devto"), intents[0].Platform)
	s.Equal(domain.Platform("mastodon"), intents[1].Platform)

	again, err := s.planner.ScheduleProject(s.ctx, project, s.clock.Add(2*time.Hour))
	s.Require().NoError(err)
	s.Equal(ids(intents), ids(again))
	s.Len(s.planner.Pending(s.ctx), 2)
}

func (s *PlannerTestSuite) TestScheduleProject_Archived() {
	project := &domain.Project{ID: "p1", OwnerID: "owner-1", Targets: []domain.Platform{"devto"}, Archived: true}
	_, err := s.planner.ScheduleProject(s.ctx, project, time.Time{})
	s.ErrorIs(err, domain.ErrInvalidInput)
}

func (s *PlannerTestSuite) TestLoad_ResetsInFlightIntents() {
	for _, intent := range []domain.PublishIntent{
		{ID: "a", ProjectID: "p1", OwnerID: "owner-1", Platform: "devto", DueAt: s.clock, Seq: 7, State: domain.IntentClaimed},
		{ID: "b", ProjectID: "p2", OwnerID: "owner-1", Platform: "devto", DueAt: s.clock, Seq: 3, State: domain.IntentPending},
		{ID: "c", ProjectID: "p3", OwnerID: "owner-1", Platform: "devto", DueAt: s.clock, Seq: 9, State: domain.IntentDone},
	} {
		s.Require().NoError(s.store.Save(s.ctx, &intent))
	}

	s.Require().NoError(s.planner.Load(s.ctx))

	pending := s.planner.Pending(s.ctx)
	s.Equal([]string{"b", "a"}, ids(pending))
	for _, intent := range pending {
		s.Equal(domain.IntentPending, intent.State)
	}

	stored, err := s.store.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal(domain.IntentPending, stored.State)

	next := s.schedule("p4", "devto", s.clock)
	s.Equal(int64(8), next.Seq)
}

func (s *PlannerTestSuite) TestStart_ClosesChannelOnStop() {
	intent := s.schedule("p1", "devto", s.clock)

	ctx, cancel := context.WithCancel(s.ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- s.planner.Start(ctx) }()

	got := <-s.planner.Emitted()
	s.Equal(intent.ID, got.ID)

	cancel()
	s.ErrorIs(<-errCh, context.Canceled)

	_, open := <-s.planner.Emitted()
	s.False(open)
}
