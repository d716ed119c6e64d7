// Package ai adapts the external completion provider behind a narrow
// gateway interface. The orchestrator hands it an ordered conversation
// window and receives back a single assistant reply; everything
// provider-specific (wire format, auth, parameter tuning) stays here.
package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Turn is one prior utterance handed to the provider as context.
// Role is domain.RoleUser or domain.RoleAssistant.
type Turn struct {
	Role    string
	Content string
}

// Gateway produces one assistant reply for an ordered conversation window.
// Implementations issue exactly one outbound provider call per invocation
// and never retry internally.
type Gateway interface {
	Complete(ctx context.Context, turns []Turn, systemPrompt string) (string, error)
}

// Config holds provider settings. Defaults target an OpenAI-compatible
// endpoint; the zero values for tuning parameters are filled in by NewClient.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string

	// Timeout bounds each outbound call. Exceeding it yields a retryable
	// gateway error.
	Timeout time.Duration

	// ContextWindow caps how many of the most recent turns are sent with
	// each completion. <= 0 sends the full history.
	ContextWindow int

	Temperature float32
	TopP        float32
	MaxTokens   int
}

// Client is the production Gateway backed by go-openai. It also serves the
// title generator through the summarize call, which uses a tighter token
// budget and lower temperature than regular completions.
type Client struct {
	cfg Config
	api *openai.Client
}

// NewClient validates cfg, applies defaults, and returns a ready Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("ai: API key is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("ai: model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.TopP == 0 {
		cfg.TopP = 0.95
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2048
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return &Client{cfg: cfg, api: openai.NewClientWithConfig(oc)}, nil
}

// Complete sends the bounded conversation window plus the system prompt and
// returns the assistant's reply text. All failures are normalized to *Error.
func (c *Client) Complete(ctx context.Context, turns []Turn, systemPrompt string) (string, error) {
	if n := c.cfg.ContextWindow; n > 0 && len(turns) > n {
		turns = turns[len(turns)-n:]
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(turns)+1)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, t := range turns {
		role := openai.ChatMessageRoleUser
		if t.Role == "assistant" {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Content})
	}

	return c.chat(ctx, "completion", openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		Messages:    msgs,
		Temperature: c.cfg.Temperature,
		TopP:        c.cfg.TopP,
		MaxTokens:   c.cfg.MaxTokens,
	})
}

// Summarize issues the small, low-temperature completion used for title
// generation. The tiny token cap keeps the call cheap; callers that cannot
// tolerate failure (the title generator) fall back on their own.
func (c *Client) Summarize(ctx context.Context, prompt string) (string, error) {
	return c.chat(ctx, "title", openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.5,
		MaxTokens:   20,
	})
}

// chat performs one provider round-trip with the configured timeout and
// records metrics for it.
func (c *Client) chat(ctx context.Context, op string, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, req)
	observe(op, time.Since(start), err == nil)

	if err != nil {
		return "", classify(op, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &Error{Op: op, Retryable: false, Err: ErrEmptyCompletion}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps a go-openai failure onto the gateway error taxonomy.
// Timeouts, rate limits, and provider 5xx are retryable; client-side 4xx
// (bad request, auth, quota exhausted for good) are not.
func classify(op string, err error) *Error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Op:        op,
			Status:    apiErr.HTTPStatusCode,
			Retryable: retryableStatus(apiErr.HTTPStatusCode),
			Err:       err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Op:        op,
			Status:    reqErr.HTTPStatusCode,
			Retryable: retryableStatus(reqErr.HTTPStatusCode),
			Err:       err,
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Op: op, Retryable: true, Err: fmt.Errorf("provider timeout: %w", err)}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return &Error{Op: op, Retryable: true, Err: fmt.Errorf("provider timeout: %w", err)}
	}
	// Transport-level failures (DNS, refused connections) are worth retrying.
	return &Error{Op: op, Retryable: true, Err: err}
}

// retryableStatus reports whether an HTTP status from the provider is worth
// resubmitting. 0 means the status never arrived (connection-level failure).
func retryableStatus(status int) bool {
	switch {
	case status == 0:
		return true
	case status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
