// Package scheduler holds the publish planner and the worker pool that drains
// it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"crosspost/internal/domain"
)

// ErrNotClaimable is returned by Claim for an emission that no longer
// matches the intent's state, e.g. a duplicate from a liveness re-emission.
var ErrNotClaimable = errors.New("intent is not awaiting a claim")

// IntentStore persists the planner's intents.
type IntentStore interface {
	Save(ctx context.Context, intent *domain.PublishIntent) error
	Get(ctx context.Context, id string) (*domain.PublishIntent, error)
	ListOpen(ctx context.Context) ([]domain.PublishIntent, error)
}

// Connections lists an owner's active connections.
type Connections interface {
	List(ctx context.Context, ownerID string) ([]domain.Connection, error)
}

type Config struct {
	PollInterval    time.Duration
	LivenessTimeout time.Duration
}

type slot struct {
	intent   domain.PublishIntent
	deadline time.Time // zero until handed to a worker
}

// Planner keeps the ordered queue of open intents and emits due ones to the
// worker pool. Open intents are held in memory and written through to the
// store.
type Planner struct {
	store       IntentStore
	connections Connections
	cfg         Config
	out         chan domain.PublishIntent
	logger      *slog.Logger
	now         func() time.Time

	mu     sync.Mutex
	open   map[string]*slot
	byPair map[domain.PairKey]string
	seq    int64
}

func NewPlanner(store IntentStore, connections Connections, cfg Config, logger *slog.Logger) *Planner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LivenessTimeout <= 0 {
		cfg.LivenessTimeout = 30 * time.Second
	}
	return &Planner{
		store:       store,
		connections: connections,
		cfg:         cfg,
		out:         make(chan domain.PublishIntent),
		logger:      logger.With("component", "planner"),
		now:         time.Now,
		open:        make(map[string]*slot),
		byPair:      make(map[domain.PairKey]string),
	}
}

// Emitted is the channel due intents are sent on. It is closed when Start
// returns.
func (p *Planner) Emitted() <-chan domain.PublishIntent {
	return p.out
}

// Load restores open intents from the store. Intents that were emitted or
// claimed by a previous process are returned to pending.
func (p *Planner) Load(ctx context.Context) error {
	intents, err := p.store.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("load intents: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var reset int
	for i := range intents {
		intent := intents[i]
		if intent.Seq > p.seq {
			p.seq = intent.Seq
		}
		if intent.State != domain.IntentPending {
			intent.State = domain.IntentPending
			intent.UpdatedAt = p.now()
			if err := p.store.Save(ctx, &intent); err != nil {
				return fmt.Errorf("reset intent %s: %w", intent.ID, err)
			}
			reset++
		}
		p.track(intent)
	}

	p.logger.Info("intents loaded", "open", len(intents), "reset", reset)
	return nil
}

// Start emits due intents every poll interval until ctx is done.
func (p *Planner) Start(ctx context.Context) error {
	defer close(p.out)

	p.logger.Info("planner started", "poll_interval", p.cfg.PollInterval)

	p.emitDue(ctx)

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("planner stopped")
			return ctx.Err()
		case <-ticker.C:
			p.emitDue(ctx)
		}
	}
}

// Schedule queues a publish of project to platform at dueAt (zero means now).
// A pending intent for the same pair is re-timed in place and keeps its id.
func (p *Planner) Schedule(ctx context.Context, projectID, ownerID string, platform domain.Platform, dueAt time.Time) (domain.PublishIntent, error) {
	if projectID == "" || ownerID == "" || platform == "" {
		return domain.PublishIntent{}, fmt.Errorf("%w: project, owner and platform are required", domain.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.scheduleLocked(ctx, projectID, ownerID, platform, dueAt)
}

// ScheduleProject queues one intent per target of project. Every target must
// have an active connection; nothing is queued otherwise.
func (p *Planner) ScheduleProject(ctx context.Context, project *domain.Project, dueAt time.Time) ([]domain.PublishIntent, error) {
	if project.Archived {
		return nil, fmt.Errorf("%w: project %s is archived", domain.ErrInvalidInput, project.ID)
	}
	if len(project.Targets) == 0 {
		return nil, fmt.Errorf("%w: project %s has no targets", domain.ErrInvalidInput, project.ID)
	}

	conns, err := p.connections.List(ctx, project.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	active := make(map[domain.Platform]bool, len(conns))
	for _, c := range conns {
		if c.Active() {
			active[c.Platform] = true
		}
	}
	for _, target := range project.Targets {
		if !active[target] {
			return nil, fmt.Errorf("%w: %s", domain.ErrNoConnection, target)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, target := range project.Targets {
		if s, ok := p.pairLocked(project.ID, target); ok && s.intent.State != domain.IntentPending {
			return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyInFlight, target)
		}
	}

	out := make([]domain.PublishIntent, 0, len(project.Targets))
	for _, target := range project.Targets {
		intent, err := p.scheduleLocked(ctx, project.ID, project.OwnerID, target, dueAt)
		if err != nil {
			return out, err
		}
		out = append(out, intent)
	}
	return out, nil
}

func (p *Planner) scheduleLocked(ctx context.Context, projectID, ownerID string, platform domain.Platform, dueAt time.Time) (domain.PublishIntent, error) {
	now := p.now()
	if dueAt.IsZero() {
		dueAt = now
	}

	if s, ok := p.pairLocked(projectID, platform); ok {
		if s.intent.State != domain.IntentPending {
			return domain.PublishIntent{}, domain.ErrAlreadyInFlight
		}
		updated := s.intent
		updated.DueAt = dueAt
		updated.Seq = p.seq + 1
		updated.UpdatedAt = now
		if err := p.store.Save(ctx, &updated); err != nil {
			return domain.PublishIntent{}, fmt.Errorf("save intent: %w", err)
		}
		p.seq++
		s.intent = updated
		p.logger.Debug("intent rescheduled", "intent_id", updated.ID, "due_at", dueAt)
		return updated, nil
	}

	intent := domain.PublishIntent{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		OwnerID:   ownerID,
		Platform:  platform,
		DueAt:     dueAt,
		Seq:       p.seq + 1,
		State:     domain.IntentPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.store.Save(ctx, &intent); err != nil {
		return domain.PublishIntent{}, fmt.Errorf("save intent: %w", err)
	}
	p.seq++
	p.track(intent)
	p.logger.Debug("intent scheduled",
		"intent_id", intent.ID,
		"project_id", projectID,
		"platform", platform,
		"due_at", dueAt,
	)
	return intent, nil
}

// Cancel drops a pending intent. An intent already handed to a worker cannot
// be recalled and yields domain.ErrTooLate.
func (p *Planner) Cancel(ctx context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.open[id]
	if !ok {
		stored, err := p.store.Get(ctx, id)
		if err != nil {
			return err
		}
		switch stored.State {
		case domain.IntentCancelled:
			return nil
		default:
			return domain.ErrTooLate
		}
	}
	if s.intent.State != domain.IntentPending {
		return domain.ErrTooLate
	}

	cancelled := s.intent
	cancelled.State = domain.IntentCancelled
	cancelled.UpdatedAt = p.now()
	if err := p.store.Save(ctx, &cancelled); err != nil {
		return fmt.Errorf("save intent: %w", err)
	}
	p.untrack(cancelled)
	p.logger.Info("intent cancelled", "intent_id", id)
	return nil
}

// Reorder reassigns the queue positions held by ids so they run in the given
// order. Every id must be pending and not yet due; otherwise nothing changes.
func (p *Planner) Reorder(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: no intents to reorder", domain.ErrInvalidInput)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	seen := make(map[string]bool, len(ids))
	slots := make([]domain.PublishIntent, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: duplicate intent %s", domain.ErrInvalidInput, id)
		}
		seen[id] = true

		s, ok := p.open[id]
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrIntentNotFound, id)
		}
		if s.intent.State != domain.IntentPending || !s.intent.DueAt.After(now) {
			return fmt.Errorf("%w: %s", domain.ErrTooLate, id)
		}
		slots = append(slots, s.intent)
	}
	sortQueue(slots)

	updated := make([]domain.PublishIntent, len(ids))
	for i, id := range ids {
		intent := p.open[id].intent
		intent.DueAt = slots[i].DueAt
		intent.Seq = slots[i].Seq
		intent.UpdatedAt = now
		updated[i] = intent
	}
	for i := range updated {
		if err := p.store.Save(ctx, &updated[i]); err != nil {
			return fmt.Errorf("save intent: %w", err)
		}
	}
	for _, intent := range updated {
		p.open[intent.ID].intent = intent
	}

	p.logger.Info("intents reordered", "count", len(ids))
	return nil
}

// Pending lists open intents in queue order.
func (p *Planner) Pending(_ context.Context) []domain.PublishIntent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queueLocked()
}

// Claim records that a worker picked up an emitted intent.
func (p *Planner) Claim(ctx context.Context, id string) error {
	return p.transition(ctx, id, func(intent *domain.PublishIntent) error {
		if intent.State != domain.IntentEmitted {
			return ErrNotClaimable
		}
		intent.State = domain.IntentClaimed
		return nil
	})
}

// Retry returns an intent to the queue, due at at.
func (p *Planner) Retry(ctx context.Context, id string, at time.Time) error {
	return p.transition(ctx, id, func(intent *domain.PublishIntent) error {
		intent.State = domain.IntentPending
		intent.DueAt = at
		intent.Seq = p.seq + 1
		return nil
	})
}

// Complete ends the intent's lifecycle.
func (p *Planner) Complete(ctx context.Context, id string) error {
	return p.transition(ctx, id, func(intent *domain.PublishIntent) error {
		intent.State = domain.IntentDone
		return nil
	})
}

func (p *Planner) transition(ctx context.Context, id string, apply func(*domain.PublishIntent) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.open[id]
	if !ok {
		return domain.ErrIntentNotFound
	}

	next := s.intent
	if err := apply(&next); err != nil {
		return err
	}
	next.UpdatedAt = p.now()
	if err := p.store.Save(ctx, &next); err != nil {
		return fmt.Errorf("save intent: %w", err)
	}
	if next.Seq > p.seq {
		p.seq = next.Seq
	}

	if next.State.Terminal() {
		p.untrack(next)
		return nil
	}
	s.intent = next
	if next.State != domain.IntentEmitted {
		s.deadline = time.Time{}
	}
	return nil
}

func (p *Planner) emitDue(ctx context.Context) {
	due := p.collectDue(ctx)

	for i, intent := range due {
		select {
		case p.out <- intent:
			p.handedOff(intent.ID)
		case <-ctx.Done():
			p.release(context.WithoutCancel(ctx), due[i:])
			return
		}
	}
}

// collectDue marks due intents emitted and returns them in queue order.
// Emitted intents whose claim deadline passed are included again.
func (p *Planner) collectDue(ctx context.Context) []domain.PublishIntent {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var due []domain.PublishIntent
	for _, intent := range p.queueLocked() {
		s := p.open[intent.ID]
		switch {
		case intent.State == domain.IntentPending && !intent.DueAt.After(now):
			emitted := intent
			emitted.State = domain.IntentEmitted
			emitted.UpdatedAt = now
			if err := p.store.Save(ctx, &emitted); err != nil {
				p.logger.Error("mark intent emitted failed", "intent_id", intent.ID, "error", err)
				continue
			}
			s.intent = emitted
			s.deadline = time.Time{}
			due = append(due, emitted)
		case intent.State == domain.IntentEmitted && !s.deadline.IsZero() && now.After(s.deadline):
			p.logger.Warn("intent not claimed in time, re-emitting", "intent_id", intent.ID)
			s.deadline = time.Time{}
			due = append(due, intent)
		}
	}
	return due
}

func (p *Planner) handedOff(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.open[id]; ok && s.intent.State == domain.IntentEmitted {
		s.deadline = p.now().Add(p.cfg.LivenessTimeout)
	}
}

// release returns emitted intents that never reached a worker to pending.
func (p *Planner) release(ctx context.Context, intents []domain.PublishIntent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, intent := range intents {
		s, ok := p.open[intent.ID]
		if !ok || s.intent.State != domain.IntentEmitted {
			continue
		}
		pending := s.intent
		pending.State = domain.IntentPending
		pending.UpdatedAt = p.now()
		if err := p.store.Save(ctx, &pending); err != nil {
			p.logger.Error("release intent failed", "intent_id", intent.ID, "error", err)
			continue
		}
		s.intent = pending
		s.deadline = time.Time{}
	}
}

func (p *Planner) pairLocked(projectID string, platform domain.Platform) (*slot, bool) {
	id, ok := p.byPair[domain.PairKey{ProjectID: projectID, Platform: platform}]
	if !ok {
		return nil, false
	}
	s, ok := p.open[id]
	return s, ok
}

func (p *Planner) track(intent domain.PublishIntent) {
	p.open[intent.ID] = &slot{intent: intent}
	p.byPair[intent.Pair()] = intent.ID
}

func (p *Planner) untrack(intent domain.PublishIntent) {
	delete(p.open, intent.ID)
	if p.byPair[intent.Pair()] == intent.ID {
		delete(p.byPair, intent.Pair())
	}
}

func (p *Planner) queueLocked() []domain.PublishIntent {
	out := make([]domain.PublishIntent, 0, len(p.open))
	for _, s := range p.open {
		out = append(out, s.intent)
	}
	sortQueue(out)
	return out
}

// sortQueue orders by due time, then insertion sequence.
func sortQueue(intents []domain.PublishIntent) {
	sort.Slice(intents, func(i, j int) bool {
		if !intents[i].DueAt.Equal(intents[j].DueAt) {
			return intents[i].DueAt.Before(intents[j].DueAt)
		}
		return intents[i].Seq < intents[j].Seq
	})
}
