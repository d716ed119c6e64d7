// Message HTTP handlers.
//
// This file exposes REST endpoints for chat messages:
//   - POST /chats/{id}/messages   (run a conversation turn)
//   - GET  /chats/{id}/messages   (list paginated messages for a chat)
//
// Handlers are transport-thin:
//   - validate & normalize inputs (including newline and length constraints)
//   - delegate to application services (MessageService)
//   - implement conditional responses (ETag) and idempotency semantics
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a previous successful
// result exists for (user, chat, key), the handler returns the recorded
// assistant message and sets `Idempotency-Replayed: true`.
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/converseai/converse-backend/internal/ai"
	"github.com/converseai/converse-backend/internal/domain"
	"github.com/converseai/converse-backend/internal/repo"
	"github.com/converseai/converse-backend/internal/services"
	"github.com/converseai/converse-backend/internal/utils"
)

//
// DTOs
//

// PostMessageRequest is the JSON payload for sending a user message.
//
// Content is normalized by the handler (line endings and excessive blank lines)
// before being passed to the service layer. The service also enforces a
// maximum rune count, which can be configured in MessageService.
type PostMessageRequest struct {
	// Content is the user prompt. It must be non-empty.
	Content string `json:"content" binding:"required,min=1" example:"What should I pack for three days of hiking in Patagonia?"`
}

// PostMessageResponse is the JSON envelope for a completed conversation turn.
// It carries both persisted messages plus the refreshed chat summary so
// clients can update the chat list (title, message count) without re-fetching.
type PostMessageResponse struct {
	// UserMessage is the persisted user message. Omitted on idempotent replays.
	UserMessage *domain.Message `json:"user_message,omitempty"`
	// AssistantMessage is the persisted assistant reply.
	AssistantMessage *domain.Message `json:"assistant_message"`
	// Chat summarizes the chat state after the turn.
	Chat services.ChatSummary `json:"chat"`
}

// ListMessagesResponse contains a page of chat messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.Message `json:"messages"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampMsgPagination parses page/page_size from query parameters, applies sane
// defaults and caps, and returns the validated (page, pageSize).
func clampMsgPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 50
		maxPageSize     = 200
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// nlCollapseRE collapses runs of 3+ newlines to two, preserving paragraphs.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeContent normalizes user text for consistent downstream behavior:
//   - converts CRLF/CR to LF,
//   - collapses runs of 3+ LFs to exactly two (paragraph separation),
//   - trims surrounding whitespace.
func sanitizeContent(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = nlCollapseRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// discoverMaxPromptRunes inspects the concrete MessageService for a configured
// prompt-length limit. If unavailable, it returns a conservative fallback.
func discoverMaxPromptRunes(msgSvc MessageService) int {
	const fallback = 4000
	if ms, ok := msgSvc.(*services.MessageService); ok {
		if ms.MaxPromptRunes > 0 {
			return ms.MaxPromptRunes
		}
	}
	return fallback
}

//
// Handlers
//

// PostMessage godoc
// @ID          postMessage
// @Summary     Send a message and get assistant reply
// @Description Appends the user message to the chat, generates an assistant reply,
// @Description and returns both together with the updated chat summary. After the
// @Description first exchange the chat title is generated automatically.
// @Description Supports idempotency via the Idempotency-Key header (same key → same reply).
// @Tags        Messages
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  true  "User ID that owns the chat"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       id               path    string  true  "Chat ID (UUID)"              format(uuid)
// @Param       body             body    handlers.PostMessageRequest  true  "User message payload"
//
// @Success     200  {object}  handlers.PostMessageResponse  "Completed turn"
// @Failure     400  {object}  handlers.ErrorResponse        "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse        "Chat not found"
// @Failure     500  {object}  handlers.ErrorResponse        "Internal error"
// @Failure     502  {object}  handlers.ErrorResponse        "Assistant unavailable"
// @Router      /chats/{id}/messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	ctx := c.Request.Context()
	chatID := c.Param("id")

	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	// Sanitize + early size cap to fail fast at the edge.
	content := sanitizeContent(req.Content)
	maxRunes := discoverMaxPromptRunes(h.msgSvc)
	if maxRunes > 0 && utf8.RuneCountInString(content) > maxRunes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		return
	}
	if content == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		return
	}

	currentUser := userID(c)

	// Idempotency (replay path) – return the recorded reply if one exists.
	idemKey := idempotencyKey(c)
	if idemKey != "" {
		if resp, found := h.replayIdempotent(c, currentUser, chatID, idemKey); found {
			c.Header("Idempotency-Replayed", "true")
			ok(c, http.StatusOK, resp)
			return
		}
	}

	// Normal processing (service has a second guard for length).
	res, err := h.msgSvc.Send(ctx, currentUser, chatID, content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrChatNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, fmt.Sprintf("content too long: max %d runes", maxRunes))
		case errors.Is(err, services.ErrEmptyPrompt):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content required")
		case errors.Is(err, services.ErrAIUnavailable):
			failRetryable(c, http.StatusBadGateway, ErrCodeAIUnavailable,
				"assistant is temporarily unavailable", ai.IsRetryable(err))
		case errors.Is(err, services.ErrReplyNotSaved):
			fail(c, http.StatusInternalServerError, ErrCodeReplyNotSaved, "assistant reply could not be saved")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" && res.AssistantMessage != nil {
		if svc, ok := h.msgSvc.(*services.MessageService); ok && svc.DB != nil {
			ttl := h.IdempotencyTTL
			if ttl <= 0 {
				ttl = 24 * time.Hour
			}
			_, _ = repo.CreateIdempotency(ctx, svc.DB, currentUser, chatID, idemKey,
				res.AssistantMessage.ID, http.StatusOK, ttl)
		}
	}

	ok(c, http.StatusOK, PostMessageResponse{
		UserMessage:      res.UserMessage,
		AssistantMessage: res.AssistantMessage,
		Chat:             res.Chat,
	})
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List messages in a chat
// @Description Returns a paginated list of messages for the given chat in
// @Description chronological order. Supports weak ETag via If-None-Match.
// @Tags        Messages
// @Produce     json
//
// @Param       X-User-ID  header string  true  "User ID that owns the chat"  example(user123)
// @Param       id         path   string  true  "Chat ID (UUID)"  format(uuid)
// @Param       page       query  int     false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"  minimum(1) maximum(200) default(50)
//
// @Success     200  {object} handlers.ListMessagesResponse
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Chat not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chats/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	chatID := c.Param("id")

	if _, err := uuid.Parse(chatID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "chat id must be a UUID")
		return
	}

	// ETag pre-check (best effort). Ownership is verified before the stats
	// query so a non-owner response never carries another chat's message
	// count or activity timestamp.
	var db *gorm.DB
	if svc, ok := h.msgSvc.(*services.MessageService); ok {
		db = svc.DB
	}
	if db != nil {
		if _, err := repo.GetChat(ctx, db, chatID, userID(c)); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
				return
			}
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
			return
		}
		count, maxTS, err := repo.MessagesStats(ctx, db, chatID)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, chatID, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampMsgPagination(c)

	items, total, err := h.msgSvc.ListPage(ctx, userID(c), chatID, page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrChatNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "chat not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListMessagesResponse{
		Messages: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// idempotencyKey reads the Idempotency-Key header, trimmed; empty when absent.
func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}

// replayIdempotent looks up a previously recorded result for (user, chat, key)
// and rebuilds the response from the stored assistant message plus the current
// chat state. Returns found=false on any miss or lookup error, which sends the
// request down the normal processing path.
func (h *Handlers) replayIdempotent(c *gin.Context, userID, chatID, key string) (PostMessageResponse, bool) {
	svc, okSvc := h.msgSvc.(*services.MessageService)
	if !okSvc || svc.DB == nil {
		return PostMessageResponse{}, false
	}
	ctx := c.Request.Context()

	rec, err := repo.GetIdempotency(ctx, svc.DB, userID, chatID, key, time.Now().UTC())
	if err != nil || rec == nil {
		return PostMessageResponse{}, false
	}
	prev, err := repo.GetMessage(ctx, svc.DB, rec.MessageID)
	if err != nil {
		return PostMessageResponse{}, false
	}
	ch, err := repo.GetChat(ctx, svc.DB, chatID, userID)
	if err != nil {
		return PostMessageResponse{}, false
	}
	return PostMessageResponse{
		AssistantMessage: prev,
		Chat: services.ChatSummary{
			ID:             ch.ID,
			Title:          ch.Title,
			MessageCount:   ch.MessageCount,
			TitleGenerated: ch.TitleGenerated,
		},
	}, true
}
