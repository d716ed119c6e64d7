package ai

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// titleMaxWords / titleMaxRunes bound generated titles regardless of
	// what the model returns.
	titleMaxWords = 6
	titleMaxRunes = 60
)

// summarizer is the slice of the gateway the title generator needs.
type summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}

// Titler derives a short chat title from the first user/assistant exchange.
// It is invoked at most once per chat, after the first assistant reply has
// been persisted, and it never fails outward: any provider problem falls
// back to a deterministic truncation of the first user message, so titling
// can never block or break message delivery.
type Titler struct {
	ai summarizer
}

// NewTitler returns a Titler backed by the given gateway. A nil gateway is
// allowed and always produces the fallback title.
func NewTitler(ai summarizer) *Titler { return &Titler{ai: ai} }

// Generate returns a cleaned title for the exchange. The error path is
// logged, not returned.
func (t *Titler) Generate(ctx context.Context, firstUser, firstAssistant string) string {
	if t.ai != nil {
		raw, err := t.ai.Summarize(ctx, fmt.Sprintf(titlePrompt, firstUser))
		if err == nil {
			if title := cleanTitle(raw); title != "" {
				return title
			}
		} else {
			log.Warn().Err(err).Msg("title generation failed, using fallback")
		}
	}
	return FallbackTitle(firstUser)
}

// cleanTitle strips wrapping quotes and whitespace, then enforces the word
// and rune caps. Returns "" when nothing usable remains.
func cleanTitle(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	s = strings.Join(words, " ")
	return clipRunes(s, titleMaxRunes)
}

// FallbackTitle derives a deterministic title from the first user message:
// the leading words, title-cased and clipped. Exported because the
// orchestrator uses it when the provider is unreachable for titling.
func FallbackTitle(firstUser string) string {
	words := strings.Fields(strings.TrimSpace(firstUser))
	if len(words) == 0 {
		return "New Chat"
	}
	if len(words) > titleMaxWords {
		words = words[:titleMaxWords]
	}
	title := cases.Title(language.English).String(strings.Join(words, " "))
	return clipRunes(title, titleMaxRunes)
}

// clipRunes truncates s to at most max runes.
func clipRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
