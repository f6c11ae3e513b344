// Package errors defines the engine's error taxonomy and retry helpers.
//
// The taxonomy splits failures into three propagation classes: transient
// (model transport failures, safe to resubmit because state was not mutated),
// terminal precondition violations (quota, incomplete input, state-machine
// misuse), and degraded-success (enhancement and per-transcript failures that
// are swallowed at their boundary and surfaced as warnings).
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for state-machine and input preconditions.
var (
	// ErrInsufficientData signals that synthesis received zero usable transcripts.
	ErrInsufficientData = errors.New("insufficient data: no completed transcripts with content")

	// ErrResultsNotReady signals that reflection was started before the
	// interview profile was computed.
	ErrResultsNotReady = errors.New("results not ready: interview has no computed profile")

	// ErrAlreadyComplete signals an attempt to advance a finished reflection.
	ErrAlreadyComplete = errors.New("reflection already complete")
)

// ModelUnavailableError wraps a failed model invocation. The enclosing turn is
// retryable: the caller's state was returned unchanged.
type ModelUnavailableError struct {
	Err error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %v", e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// ModelUnavailable wraps err as a transient model failure.
func ModelUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return &ModelUnavailableError{Err: err}
}

// IsModelUnavailable reports whether err is (or wraps) a model invocation failure.
func IsModelUnavailable(err error) bool {
	var target *ModelUnavailableError
	return errors.As(err, &target)
}

// UsageLimitExceededError is raised before any model call once a tenant's
// allowance is exhausted. Terminal for the request; no cost was incurred.
type UsageLimitExceededError struct {
	TenantID string
	Limit    int64
	Used     int64
}

func (e *UsageLimitExceededError) Error() string {
	return fmt.Sprintf("usage limit exceeded for tenant %s: %d of %d tokens used", e.TenantID, e.Used, e.Limit)
}

// IsUsageLimitExceeded reports whether err is a quota denial.
func IsUsageLimitExceeded(err error) bool {
	var target *UsageLimitExceededError
	return errors.As(err, &target)
}

// IncompleteInterviewError is raised when scoring is attempted on a history
// with fewer answers than the question script expects.
type IncompleteInterviewError struct {
	Expected int
	Got      int
}

func (e *IncompleteInterviewError) Error() string {
	return fmt.Sprintf("incomplete interview: expected %d answers, got %d", e.Expected, e.Got)
}

// IsIncompleteInterview reports whether err is an incomplete-interview failure.
func IsIncompleteInterview(err error) bool {
	var target *IncompleteInterviewError
	return errors.As(err, &target)
}

// EnhancementFailedError marks a failed enhancement synthesis. Non-fatal to
// the enclosing reflection: the original profile stays valid and untouched.
type EnhancementFailedError struct {
	Err error
}

func (e *EnhancementFailedError) Error() string {
	return fmt.Sprintf("enhancement failed: %v", e.Err)
}

func (e *EnhancementFailedError) Unwrap() error { return e.Err }

// EnhancementFailed wraps err as a degraded-success enhancement failure.
func EnhancementFailed(err error) error {
	if err == nil {
		return nil
	}
	return &EnhancementFailedError{Err: err}
}

// IsEnhancementFailed reports whether err is a degraded enhancement failure.
func IsEnhancementFailed(err error) bool {
	var target *EnhancementFailedError
	return errors.As(err, &target)
}

// IsTransient reports whether the caller may safely retry the same call.
// Only model transport failures qualify; precondition and quota errors do not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return IsModelUnavailable(err)
}
