package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose")
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port default = %q", cfg.Port)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode default = %q", cfg.GinMode)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty || cfg.SwaggerEnabled {
		t.Errorf("logging defaults wrong: %q %v %v", cfg.LogLevel, cfg.LogPretty, cfg.SwaggerEnabled)
	}
	if cfg.APIBasePath != "/api/v1" {
		t.Errorf("APIBasePath default = %q", cfg.APIBasePath)
	}
	if cfg.DBPath != "app.db" || cfg.MaxPromptRunes != 4000 {
		t.Errorf("app defaults wrong: %q %d", cfg.DBPath, cfg.MaxPromptRunes)
	}
	if cfg.AI.BaseURL != "https://api.groq.com/openai/v1" || cfg.AI.Model != "llama-3.3-70b-versatile" {
		t.Errorf("AI endpoint defaults wrong: %q %q", cfg.AI.BaseURL, cfg.AI.Model)
	}
	if cfg.AI.Timeout != 60*time.Second || cfg.AI.ContextWindow != 10 || cfg.AI.MaxTokens != 2048 {
		t.Errorf("AI tuning defaults wrong: %v %d %d", cfg.AI.Timeout, cfg.AI.ContextWindow, cfg.AI.MaxTokens)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Errorf("JWTSecret must default to empty (header auth mode)")
	}
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Errorf("rate limit defaults wrong: %v %d", cfg.RateRPS, cfg.RateBurst)
	}
	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Errorf("IdempotencyTTL default = %v", cfg.IdempotencyTTL)
	}
	if cfg.OTEL.Enabled || cfg.OTEL.ServiceName != "converse-backend" || cfg.OTEL.SampleRatio != 1.0 {
		t.Errorf("OTEL defaults wrong: %+v", cfg.OTEL)
	}
	if cfg.CORS.AllowedOrigins != nil {
		t.Errorf("CORS default must be nil (allow all), got %v", cfg.CORS.AllowedOrigins)
	}
	// WriteTimeout must leave room for a full provider call.
	if cfg.WriteTimeout <= cfg.AI.Timeout {
		t.Errorf("WriteTimeout %v must exceed AI timeout %v", cfg.WriteTimeout, cfg.AI.Timeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GIN_MODE", "DEBUG")
	t.Setenv("LOG_LEVEL", "WARNING") // alias + case normalization
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("API_BASE_PATH", "v2/")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("MAX_PROMPT_RUNES", "512")
	t.Setenv("AI_API_KEY", "sk-test")
	t.Setenv("AI_MODEL", "mixtral-8x7b")
	t.Setenv("AI_TIMEOUT", "5s")
	t.Setenv("AI_CONTEXT_WINDOW", "0") // 0 = unbounded history
	t.Setenv("JWT_SECRET", "hunter2")
	t.Setenv("RATE_RPS", "2.5")
	t.Setenv("RATE_BURST", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , https://b.example ,")
	t.Setenv("IDEMPOTENCY_TTL", "1h")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "9090" || cfg.GinMode != "debug" {
		t.Errorf("server overrides wrong: %q %q", cfg.Port, cfg.GinMode)
	}
	if cfg.LogLevel != "warn" || !cfg.LogPretty {
		t.Errorf("logging overrides wrong: %q %v", cfg.LogLevel, cfg.LogPretty)
	}
	if cfg.APIBasePath != "/v2" {
		t.Errorf("base path not normalized: %q", cfg.APIBasePath)
	}
	if cfg.MaxPromptRunes != 512 {
		t.Errorf("MaxPromptRunes = %d", cfg.MaxPromptRunes)
	}
	if cfg.AI.APIKey != "sk-test" || cfg.AI.Model != "mixtral-8x7b" || cfg.AI.Timeout != 5*time.Second {
		t.Errorf("AI overrides wrong: %+v", cfg.AI)
	}
	if cfg.AI.ContextWindow != 0 {
		t.Errorf("ContextWindow = %d", cfg.AI.ContextWindow)
	}
	if cfg.Auth.JWTSecret != "hunter2" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.RateRPS != 2.5 || cfg.RateBurst != 3 {
		t.Errorf("rate overrides wrong: %v %d", cfg.RateRPS, cfg.RateBurst)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, want) {
		t.Errorf("CORS origins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.IdempotencyTTL != time.Hour {
		t.Errorf("IdempotencyTTL = %v", cfg.IdempotencyTTL)
	}
	if !cfg.OTEL.Enabled || cfg.OTEL.SampleRatio != 0.25 {
		t.Errorf("OTEL overrides wrong: %+v", cfg.OTEL)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		key     string
		val     string
		wantSub string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"negative timeout", "READ_TIMEOUT", "-1s", "timeouts"},
		{"zero header bytes", "MAX_HEADER_BYTES", "0", "MAX_HEADER_BYTES"},
		{"zero prompt cap", "MAX_PROMPT_RUNES", "0", "MAX_PROMPT_RUNES"},
		{"negative ai timeout", "AI_TIMEOUT", "-5s", "AI_TIMEOUT"},
		{"negative context window", "AI_CONTEXT_WINDOW", "-1", "AI_CONTEXT_WINDOW"},
		{"temperature too high", "AI_TEMPERATURE", "2.5", "AI_TEMPERATURE"},
		{"top_p too high", "AI_TOP_P", "1.5", "AI_TOP_P"},
		{"zero max tokens", "AI_MAX_TOKENS", "0", "AI_MAX_TOKENS"},
		{"negative rps", "RATE_RPS", "-1", "RATE_RPS"},
		{"zero burst", "RATE_BURST", "0", "RATE_BURST"},
		{"negative hsts", "HSTS_MAX_AGE", "-1h", "HSTS_MAX_AGE"},
		{"zero idempotency ttl", "IDEMPOTENCY_TTL", "-1s", "IDEMPOTENCY_TTL"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.val)
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("error %q does not mention %q", err, tc.wantSub)
			}
		})
	}
}

func TestLoad_GinModeFallsBackToRelease(t *testing.T) {
	t.Setenv("GIN_MODE", "production")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GinMode != "release" {
		t.Fatalf("GinMode = %q", cfg.GinMode)
	}
}

func TestLoad_InvalidNumbersKeepDefaults(t *testing.T) {
	t.Setenv("MAX_PROMPT_RUNES", "lots")
	t.Setenv("RATE_RPS", "fast")
	t.Setenv("AI_TIMEOUT", "soon")
	t.Setenv("OTEL_ENABLED", "maybe")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxPromptRunes != 4000 || cfg.RateRPS != 5.0 || cfg.AI.Timeout != 60*time.Second || cfg.OTEL.Enabled {
		t.Fatalf("unparseable values must fall back to defaults: %d %v %v %v",
			cfg.MaxPromptRunes, cfg.RateRPS, cfg.AI.Timeout, cfg.OTEL.Enabled)
	}
}

func TestNormalizeBasePath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"", "/"},
		{"/", "/"},
		{"api", "/api"},
		{"/api/v1", "/api/v1"},
		{"/api/v1/", "/api/v1"},
		{"  /api//  ", "/api"},
	}
	for _, tc := range cases {
		if got := normalizeBasePath(tc.in); got != tc.want {
			t.Errorf("normalizeBasePath(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Fatalf("empty input must yield nil, got %v", got)
	}
	got := splitCSV("a, b ,, c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV = %v; want %v", got, want)
	}
}
