// Package services defines the business logic for chats and messages.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer. The send-message flow distinguishes its failure points
// because each has different retry implications for the caller:
//
//   - validation / not-found: rejected before any side effect
//   - user-message persistence: rejected, nothing was written
//   - ErrAIUnavailable: the user message IS persisted; resubmitting is safe
//     and the retryable flag (ai.IsRetryable) says whether it is worthwhile
//   - ErrReplyNotSaved: the provider answered but the reply was lost; the
//     provider is NOT re-invoked automatically
package services

import "errors"

var (
	// ErrChatNotFound indicates that the requested chat does not exist or is
	// not accessible to the current user. Ownership failures deliberately
	// look identical to missing chats so existence never leaks across users.
	ErrChatNotFound = errors.New("chat not found")

	// ErrEmptyPrompt is returned when a send-message request contains an
	// empty (or whitespace-only) content field.
	ErrEmptyPrompt = errors.New("prompt is empty")

	// ErrTooLong is returned when message content exceeds the configured
	// maximum rune count.
	ErrTooLong = errors.New("prompt too long")

	// ErrEmptyTitle is returned when a rename request carries a blank title.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrAIUnavailable wraps any gateway failure during the completion step.
	// The user message has already been committed and is never rolled back.
	ErrAIUnavailable = errors.New("ai provider unavailable")

	// ErrReplyNotSaved wraps a persistence failure AFTER a successful AI
	// completion: the assistant content is lost from this response and the
	// caller decides whether to retry the whole send.
	ErrReplyNotSaved = errors.New("assistant reply not saved")
)
