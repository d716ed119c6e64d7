// Package ai adapts the external completion provider behind a narrow
// gateway interface. This file defines the normalized error type every
// provider failure is mapped to.
package ai

import (
	"errors"
	"fmt"
)

// Error is the single error type surfaced by the gateway. Provider timeouts,
// rate limits, and malformed responses are all normalized into it; the
// Retryable flag tells callers whether resubmitting the same request can
// succeed. The gateway itself never retries — that policy belongs to the
// orchestrator and its callers.
type Error struct {
	Op        string // "completion" or "title"
	Status    int    // HTTP status from the provider, 0 when unknown
	Retryable bool
	Err       error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ai %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ai %s failed", e.Op)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// IsRetryable reports whether err is (or wraps) a retryable gateway error.
// A non-gateway error is never considered retryable.
func IsRetryable(err error) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Retryable
	}
	return false
}

// ErrEmptyCompletion indicates the provider answered successfully but with
// no usable text. Not retryable: the same request yields the same nothing.
var ErrEmptyCompletion = errors.New("empty completion response")
