package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a connection doesn't exist or was revoked.
	ErrNotFound = errors.New("not found")
	// ErrNoConnection is returned when the owner holds no connection for a platform.
	ErrNoConnection = errors.New("no connection for platform")
	// ErrCredentialExpired is returned when a credential could not be refreshed.
	ErrCredentialExpired = errors.New("credential expired")
	// ErrAlreadyInFlight rejects a second concurrent attempt for the same pair.
	ErrAlreadyInFlight = errors.New("publish already in flight")
	// ErrTooLate is returned when reorder or cancel targets an intent no longer pending.
	ErrTooLate = errors.New("intent no longer pending")
	// ErrAttemptFinished rejects a second finished entry for one attempt.
	ErrAttemptFinished = errors.New("attempt already finished")
	ErrIntentNotFound  = errors.New("intent not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrInvalidInput    = errors.New("invalid input")
)

type ErrorKind string

const (
	KindNoConnection      ErrorKind = "no_connection"
	KindCredentialExpired ErrorKind = "credential_expired"
	KindAuthRejected      ErrorKind = "auth_rejected"
	KindRateLimited       ErrorKind = "rate_limited"
	KindContentRejected   ErrorKind = "content_rejected"
	KindTransient         ErrorKind = "transient"
	KindProjectNotFound   ErrorKind = "project_not_found"
	KindNotATarget        ErrorKind = "not_a_target"
	KindUnsupported       ErrorKind = "unsupported_platform"
)

// PublishError is the classified failure a connector returns.
type PublishError struct {
	Kind       ErrorKind
	RetryAfter time.Duration
	Detail     string
}

func (e *PublishError) Error() string {
	if e.Kind == KindRateLimited && e.RetryAfter > 0 {
		return fmt.Sprintf("%s (retry after %s): %s", e.Kind, e.RetryAfter, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Retryable reports whether the failure may succeed on a later attempt.
func (e *PublishError) Retryable() bool {
	return e.Kind == KindTransient || e.Kind == KindRateLimited
}

func AuthRejected(detail string) *PublishError {
	return &PublishError{Kind: KindAuthRejected, Detail: detail}
}

func RateLimited(retryAfter time.Duration, detail string) *PublishError {
	return &PublishError{Kind: KindRateLimited, RetryAfter: retryAfter, Detail: detail}
}

func ContentRejected(reason string) *PublishError {
	return &PublishError{Kind: KindContentRejected, Detail: reason}
}

func Transient(detail string) *PublishError {
	return &PublishError{Kind: KindTransient, Detail: detail}
}
