package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"crosspost/internal/config"
	"crosspost/internal/domain"
)

// Orchestrator executes due publish intents: one connector call per
// attempt, every outcome appended to the ledger.
type Orchestrator struct {
	projects    ProjectStore
	ledger      Ledger
	connections Connections
	connectors  Connectors
	planner     Planner
	notifier    Notifier
	logger      *slog.Logger
	config      config.PublishConfig
	backoff     Backoff
	now         func() time.Time
}

func NewOrchestrator(
	projects ProjectStore,
	ledger Ledger,
	connections Connections,
	connectors Connectors,
	planner Planner,
	notifier Notifier,
	logger *slog.Logger,
	cfg config.PublishConfig,
) *Orchestrator {
	return &Orchestrator{
		projects:    projects,
		ledger:      ledger,
		connections: connections,
		connectors:  connectors,
		planner:     planner,
		notifier:    notifier,
		logger:      logger.With("component", "orchestrator"),
		config:      cfg,
		backoff: Backoff{
			Base: cfg.Retry.BaseInterval,
			Max:  cfg.Retry.MaxInterval,
		},
		now: time.Now,
	}
}

// SetPlanner wires the planner after construction; the planner in turn
// hands due intents back to Execute.
func (o *Orchestrator) SetPlanner(p Planner) {
	o.planner = p
}

// Execute runs one attempt for intent. It returns domain.ErrAlreadyInFlight
// when another attempt for the same (project, platform) is running, and
// otherwise only storage or planner errors: publish failures are recorded in
// the ledger, not returned.
func (o *Orchestrator) Execute(ctx context.Context, intent *domain.PublishIntent) error {
	logger := o.logger.With(
		"intent_id", intent.ID,
		"project_id", intent.ProjectID,
		"platform", intent.Platform,
	)

	started, err := o.ledger.Begin(ctx, intent, o.now(), o.config.InFlightTTL)
	if errors.Is(err, domain.ErrAlreadyInFlight) {
		logger.Warn("publish already in flight, rejecting intent")
		return domain.ErrAlreadyInFlight
	}
	if err != nil {
		return fmt.Errorf("begin attempt: %w", err)
	}
	logger = logger.With("attempt", started.Number)
	logger.Debug("attempt started")

	result, attemptErr := o.attempt(ctx, intent, started, logger)
	if attemptErr != nil {
		// The retry budget is unknown; close the attempt without spending a
		// terminal outcome and let the caller requeue the intent.
		result = domain.AttemptResult{
			Outcome:     domain.OutcomeRetrying,
			ErrorKind:   domain.KindTransient,
			ErrorDetail: attemptErr.Error(),
		}
	}

	// The attempt must be closed even when the caller is shutting down.
	writeCtx := context.WithoutCancel(ctx)

	finished, err := o.ledger.Finish(writeCtx, started, result, o.now())
	if errors.Is(err, domain.ErrAttemptFinished) {
		logger.Warn("attempt outlived in-flight ttl, result dropped", "outcome", result.Outcome)
		return o.settleAbandoned(writeCtx, intent, logger)
	}
	if err != nil {
		return fmt.Errorf("finish attempt: %w", err)
	}

	if attemptErr != nil {
		logger.Error("publish attempt interrupted by storage error", "error", attemptErr)
		return attemptErr
	}

	if result.Outcome == domain.OutcomeRetrying {
		at := o.now().Add(result.RetryDelay)
		logger.Info("publish attempt failed, retry scheduled",
			"error_kind", result.ErrorKind,
			"error", result.ErrorDetail,
			"retry_in", result.RetryDelay,
		)
		if err := o.planner.Retry(writeCtx, intent.ID, at); err != nil {
			return fmt.Errorf("schedule retry: %w", err)
		}
		return nil
	}

	logger.Info("publish finished",
		"outcome", result.Outcome,
		"content_id", result.ContentID,
		"error_kind", result.ErrorKind,
		"error", result.ErrorDetail,
	)
	o.notify(writeCtx, intent, finished, logger)

	if err := o.planner.Complete(writeCtx, intent.ID); err != nil {
		return fmt.Errorf("complete intent: %w", err)
	}
	return nil
}

// settleAbandoned resolves the planner state of an intent whose attempt was
// closed as abandoned before its own result could be written. The ledger's
// latest entry for the pair decides.
func (o *Orchestrator) settleAbandoned(ctx context.Context, intent *domain.PublishIntent, logger *slog.Logger) error {
	latest, err := o.ledger.Latest(ctx, intent.ProjectID, intent.Platform)
	if err != nil {
		return fmt.Errorf("load latest attempt: %w", err)
	}

	switch {
	case latest != nil && latest.Phase == domain.PhaseStarted && latest.IntentID == intent.ID:
		logger.Info("intent owned by a newer attempt", "latest_attempt", latest.Number)
		return nil
	case latest != nil && latest.Phase == domain.PhaseFinished && latest.Outcome.Terminal():
		if err := o.planner.Complete(ctx, intent.ID); err != nil {
			return fmt.Errorf("complete intent: %w", err)
		}
		return nil
	default:
		var delay time.Duration
		if latest != nil {
			delay = latest.RetryDelay
		}
		if err := o.planner.Retry(ctx, intent.ID, o.now().Add(delay)); err != nil {
			return fmt.Errorf("schedule retry: %w", err)
		}
		return nil
	}
}

// attempt returns the outcome to record. A non-nil error means a storage read
// needed to decide the outcome failed.
func (o *Orchestrator) attempt(ctx context.Context, intent *domain.PublishIntent, started domain.Attempt, logger *slog.Logger) (domain.AttemptResult, error) {
	project, err := o.projects.Get(ctx, intent.ProjectID)
	if errors.Is(err, domain.ErrProjectNotFound) {
		return failed(domain.KindProjectNotFound, fmt.Sprintf("project %s not found", intent.ProjectID)), nil
	}
	if err != nil {
		return o.retryOrExhaust(ctx, intent, domain.Transient(fmt.Sprintf("load project: %v", err)), logger)
	}
	if !project.HasTarget(intent.Platform) {
		return failed(domain.KindNotATarget, fmt.Sprintf("%s is not a target of project %s", intent.Platform, project.ID)), nil
	}

	conn, err := o.connections.Get(ctx, project.OwnerID, intent.Platform)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return failed(domain.KindNoConnection, fmt.Sprintf("no %s connection for owner %s", intent.Platform, project.OwnerID)), nil
	case errors.Is(err, domain.ErrCredentialExpired):
		return failed(domain.KindCredentialExpired, err.Error()), nil
	case err != nil:
		return o.retryOrExhaust(ctx, intent, domain.Transient(fmt.Sprintf("load connection: %v", err)), logger)
	}

	c, err := o.connectors.Get(intent.Platform)
	if err != nil {
		return failed(domain.KindUnsupported, err.Error()), nil
	}

	var prior string
	last, err := o.ledger.LastSuccess(ctx, intent.ProjectID, intent.Platform)
	if err != nil {
		return o.retryOrExhaust(ctx, intent, domain.Transient(fmt.Sprintf("load last success: %v", err)), logger)
	}
	if last != nil && last.ContentID != nil {
		prior = *last.ContentID
		logger.Debug("updating previously published content", "content_id", prior)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	res, err := c.Publish(callCtx, project, conn, prior)
	if err == nil {
		return domain.AttemptResult{
			Outcome:    domain.OutcomeSucceeded,
			ContentID:  res.ContentID,
			ContentURL: res.URL,
		}, nil
	}

	perr := classify(callCtx, err)
	if !perr.Retryable() {
		return failed(perr.Kind, perr.Detail), nil
	}
	return o.retryOrExhaust(ctx, intent, perr, logger)
}

func (o *Orchestrator) retryOrExhaust(ctx context.Context, intent *domain.PublishIntent, perr *domain.PublishError, logger *slog.Logger) (domain.AttemptResult, error) {
	exhausted := domain.AttemptResult{
		Outcome:     domain.OutcomeExhausted,
		ErrorKind:   perr.Kind,
		ErrorDetail: perr.Detail,
	}

	attempts, err := o.ledger.CountForIntent(ctx, intent.ID)
	if err != nil {
		return domain.AttemptResult{}, fmt.Errorf("count attempts: %w", err)
	}
	if attempts >= o.config.Retry.MaxAttempts {
		return exhausted, nil
	}

	var previous time.Duration
	last, err := o.ledger.LastFinishedForIntent(ctx, intent.ID)
	if err != nil {
		logger.Warn("load previous retry delay failed", "error", err)
	} else if last != nil {
		previous = last.RetryDelay
	}

	return domain.AttemptResult{
		Outcome:     domain.OutcomeRetrying,
		ErrorKind:   perr.Kind,
		ErrorDetail: perr.Detail,
		RetryDelay:  o.backoff.Next(attempts, previous, perr.RetryAfter),
	}, nil
}

func (o *Orchestrator) notify(ctx context.Context, intent *domain.PublishIntent, finished domain.Attempt, logger *slog.Logger) {
	if o.notifier == nil {
		return
	}
	event := &domain.StatusEvent{
		ProjectID: intent.ProjectID,
		OwnerID:   intent.OwnerID,
		Platform:  intent.Platform,
		IntentID:  intent.ID,
		Attempt:   finished.Number,
		Status:    domain.StatusOf(&finished),
		Timestamp: o.now().UTC(),
	}
	if finished.ContentID != nil {
		event.ContentID = *finished.ContentID
	}
	if finished.ContentURL != nil {
		event.URL = *finished.ContentURL
	}
	if finished.ErrorKind != nil {
		event.ErrorKind = *finished.ErrorKind
	}
	if finished.ErrorDetail != nil {
		event.ErrorDetail = *finished.ErrorDetail
	}
	if err := o.notifier.Publish(ctx, event); err != nil {
		logger.Error("notify status failed", "error", err)
	}
}

// classify keeps raw transport errors from escaping the connector boundary.
func classify(ctx context.Context, err error) *domain.PublishError {
	var perr *domain.PublishError
	if errors.As(err, &perr) {
		return perr
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return domain.Transient("timeout")
	}
	return domain.Transient(err.Error())
}

func failed(kind domain.ErrorKind, detail string) domain.AttemptResult {
	return domain.AttemptResult{
		Outcome:     domain.OutcomeFailed,
		ErrorKind:   kind,
		ErrorDetail: detail,
	}
}
