package domain

import "time"

type Phase string

const (
	PhaseStarted  Phase = "started"
	PhaseFinished Phase = "finished"
)

type Outcome string

const (
	OutcomeInFlight  Outcome = "in_flight"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeRetrying  Outcome = "retrying"
	OutcomeFailed    Outcome = "failed"
	OutcomeExhausted Outcome = "exhausted"
)

// Terminal reports whether no further attempt follows this outcome.
func (o Outcome) Terminal() bool {
	return o == OutcomeSucceeded || o == OutcomeFailed || o == OutcomeExhausted
}

// Attempt is one append-only ledger entry. Every attempt has a started entry
// written before the connector call and exactly one finished entry after it.
type Attempt struct {
	ID          int64         `db:"id"`
	IntentID    string        `db:"intent_id"`
	ProjectID   string        `db:"project_id"`
	Platform    Platform      `db:"platform"`
	Number      int           `db:"attempt_number"`
	Phase       Phase         `db:"phase"`
	Outcome     Outcome       `db:"outcome"`
	ContentID   *string       `db:"content_id"`
	ContentURL  *string       `db:"content_url"`
	ErrorKind   *ErrorKind    `db:"error_kind"`
	ErrorDetail *string       `db:"error_detail"`
	RetryDelay  time.Duration `db:"retry_delay"`
	RecordedAt  time.Time     `db:"recorded_at"`
}

// AttemptResult is what the orchestrator records when finishing an attempt.
type AttemptResult struct {
	Outcome     Outcome
	ContentID   string
	ContentURL  string
	ErrorKind   ErrorKind
	ErrorDetail string
	RetryDelay  time.Duration
}

// Finish builds the finished entry that closes a started attempt.
func (a Attempt) Finish(result AttemptResult, now time.Time) Attempt {
	f := Attempt{
		IntentID:   a.IntentID,
		ProjectID:  a.ProjectID,
		Platform:   a.Platform,
		Number:     a.Number,
		Phase:      PhaseFinished,
		Outcome:    result.Outcome,
		RetryDelay: result.RetryDelay,
		RecordedAt: now,
	}
	if result.ContentID != "" {
		f.ContentID = &result.ContentID
	}
	if result.ContentURL != "" {
		f.ContentURL = &result.ContentURL
	}
	if result.ErrorKind != "" {
		f.ErrorKind = &result.ErrorKind
	}
	if result.ErrorDetail != "" {
		f.ErrorDetail = &result.ErrorDetail
	}
	return f
}

// Abandon closes a started attempt whose worker never finished it. The
// outcome is retry-eligible so the intent can run again.
func (a Attempt) Abandon(now time.Time) Attempt {
	return a.Finish(AttemptResult{
		Outcome:     OutcomeRetrying,
		ErrorKind:   KindTransient,
		ErrorDetail: "abandoned",
	}, now)
}
