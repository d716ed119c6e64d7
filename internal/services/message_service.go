// Package services – MessageService
//
// This file implements MessageService, the component that owns the lifecycle
// of a send-message request. Given an incoming user message it assembles the
// conversation context, invokes the AI gateway, persists both sides of the
// exchange, and triggers one-time title generation after the first complete
// exchange.
//
// The flow is deliberately ordered so each failure leaves consistent state:
//
//	validate → persist user message → AI completion → persist assistant
//	message → (first exchange only) generate title → build response
//
// Persisting the user message before the provider call means conversational
// history survives an AI outage; persisting the assistant message before
// titling means the title step only ever runs with a complete exchange
// available, and its failure is isolated from the primary deliverable.
//
// Observability: public methods are OpenTelemetry-instrumented; spans carry
// chat/user identifiers and pagination parameters where applicable.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/converseai/converse-backend/internal/ai"
	"github.com/converseai/converse-backend/internal/domain"
	"github.com/converseai/converse-backend/internal/repo"
	"github.com/converseai/converse-backend/internal/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TitleGenerator derives a chat title from the first exchange. It never
// fails: implementations fall back to a deterministic default internally.
type TitleGenerator interface {
	Generate(ctx context.Context, firstUser, firstAssistant string) string
}

// ChatSummary is the refreshed chat state returned with every successful
// send, so clients can update their sidebar without a second round-trip.
type ChatSummary struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	MessageCount   int    `json:"message_count"`
	TitleGenerated bool   `json:"title_generated"`
	// TitleJustGenerated is true only on the request that produced the title.
	TitleJustGenerated bool `json:"title_just_generated"`
}

// SendResult carries both persisted messages plus the refreshed chat summary.
type SendResult struct {
	UserMessage      *domain.Message `json:"user_message"`
	AssistantMessage *domain.Message `json:"assistant_message"`
	Chat             ChatSummary     `json:"chat"`
}

// MessageService coordinates message persistence and AI completions.
type MessageService struct {
	DB      *gorm.DB
	Gateway ai.Gateway
	Titler  TitleGenerator

	// SystemPrompt primes every completion; defaults to ai.SystemPrompt.
	SystemPrompt string

	// ContextWindow caps how many recent messages (including the new user
	// message) are sent to the provider. <= 0 sends the full history.
	ContextWindow int

	// MaxPromptRunes guards against oversized prompts. <= 0 disables the cap.
	MaxPromptRunes int
}

// Send runs the full send-message flow for one user message and returns the
// persisted exchange. Error returns identify the failed step:
// ErrEmptyPrompt/ErrTooLong (no side effects), ErrChatNotFound (no side
// effects), a storage error from the user-message append (no side effects),
// ErrAIUnavailable (user message persisted), or ErrReplyNotSaved (user
// message persisted, provider answered, reply lost).
func (s *MessageService) Send(ctx context.Context, userID, chatID, content string) (*SendResult, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "Send",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.String("user.id", userID),
		),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(content) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}

	// Ownership check before any write. Not-owned behaves like missing.
	chat, err := repo.GetChat(ctx, s.DB, chatID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("load chat: %w", err)
	}

	// Persist the user message in its own committed transaction. From here
	// on the conversational intent is durable and is never rolled back.
	userMsg, err := repo.AppendMessage(ctx, s.DB, chatID, domain.RoleUser, content)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	span.AddEvent("user message persisted")

	// Assemble the bounded context (ends with the message just appended)
	// and invoke the provider. On failure the user message stays visible in
	// history and the caller may resubmit.
	window, err := repo.RecentMessages(ctx, s.DB, chatID, s.ContextWindow)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}
	turns := make([]ai.Turn, len(window))
	for i, m := range window {
		turns[i] = ai.Turn{Role: m.Role, Content: m.Content}
	}

	reply, err := s.Gateway.Complete(ctx, turns, s.systemPrompt())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAIUnavailable, err)
	}
	span.AddEvent("completion received")

	// Persist the assistant message. A failure here is surfaced distinctly:
	// the completion was already paid for and is NOT re-requested.
	asstMsg, err := repo.AppendMessage(ctx, s.DB, chatID, domain.RoleAssistant, reply)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReplyNotSaved, err)
	}
	span.AddEvent("assistant message persisted")

	// Best-effort tail: refresh the chat and, when this request completed
	// the chat's first exchange, generate the title exactly once.
	titleJust := false
	refreshed, rerr := repo.GetChat(ctx, s.DB, chatID, userID)
	if rerr != nil {
		log.Warn().Err(rerr).Str("chat_id", chatID).Msg("chat refresh after send failed")
		refreshed = chat
		refreshed.MessageCount = chat.MessageCount + 2
	} else if refreshed.MessageCount == 2 && !refreshed.TitleGenerated {
		titleJust = s.generateTitle(ctx, refreshed, content, reply)
	}

	return &SendResult{
		UserMessage:      userMsg,
		AssistantMessage: asstMsg,
		Chat: ChatSummary{
			ID:                 refreshed.ID,
			Title:              refreshed.Title,
			MessageCount:       refreshed.MessageCount,
			TitleGenerated:     refreshed.TitleGenerated,
			TitleJustGenerated: titleJust,
		},
	}, nil
}

// generateTitle claims the one-way latch and, as the claim winner, derives
// and stores the title. Concurrent first exchanges race on the conditional
// update; exactly one proceeds. Every failure on this path is swallowed —
// titling must never fail the send that triggered it.
func (s *MessageService) generateTitle(ctx context.Context, chat *domain.Chat, firstUser, firstAssistant string) bool {
	claimed, err := repo.ClaimTitleGeneration(ctx, s.DB, chat.ID)
	if err != nil {
		log.Warn().Err(err).Str("chat_id", chat.ID).Msg("title latch claim failed")
		return false
	}
	if !claimed {
		// Another request got here first.
		chat.TitleGenerated = true
		return false
	}

	title := ai.FallbackTitle(firstUser)
	if s.Titler != nil {
		title = s.Titler.Generate(ctx, firstUser, firstAssistant)
	}
	if err := repo.SetGeneratedTitle(ctx, s.DB, chat.ID, title); err != nil {
		// Latch stays set: titling is attempted at most once per chat.
		log.Warn().Err(err).Str("chat_id", chat.ID).Msg("storing generated title failed")
		chat.TitleGenerated = true
		return false
	}

	log.Info().Str("chat_id", chat.ID).Str("title", title).Msg("chat title generated")
	chat.Title = title
	chat.TitleGenerated = true
	return true
}

// ListPage returns paginated messages for a chat owned by userID, oldest
// first with a deterministic tie-break.
func (s *MessageService) ListPage(ctx context.Context, userID, chatID string, page, pageSize int) ([]domain.Message, int64, error) {
	tr := otel.Tracer("services/MessageService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("chat.id", chatID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := utils.PageOffset(page, pageSize)

	if _, err := repo.GetChat(ctx, s.DB, chatID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrChatNotFound
		}
		return nil, 0, err
	}

	total, err := repo.CountMessages(ctx, s.DB, chatID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Message{}, 0, nil
	}

	items, err := repo.ListMessagesPage(ctx, s.DB, chatID, offset, pageSize)
	return items, total, err
}

func (s *MessageService) systemPrompt() string {
	if s.SystemPrompt != "" {
		return s.SystemPrompt
	}
	return ai.SystemPrompt
}
