package assist

import (
	"context"
	"errors"
	"strings"

	"notes-backend/internal/llm"
	"notes-backend/internal/shared/config"
)

// DefaultTitleFallback is used when title generation fails or returns nothing.
const DefaultTitleFallback = "Meeting Recording"

// TitleResult is the outcome of a title request. On failure Title holds the
// fallback, Fallback is set and Err explains why.
type TitleResult struct {
	Title    string
	Fallback bool
	Err      *TitleError
}

// Titler generates short titles for transcripts or summaries.
type Titler struct {
	Client       llm.ChatClient
	Model        string
	Temperature  float32
	MaxTokens    int
	InputBudget  int
	FallbackText string
}

func NewTitler(client llm.ChatClient, cfg config.AIConfig) *Titler {
	return &Titler{
		Client:       client,
		Model:        cfg.ChatModel,
		Temperature:  cfg.TitleTemperature,
		MaxTokens:    cfg.TitleMaxTokens,
		InputBudget:  cfg.TitleInputBudget,
		FallbackText: cfg.TitleFallback,
	}
}

// Generate never fails: upstream errors degrade to the fallback title.
func (t *Titler) Generate(ctx context.Context, text string) TitleResult {
	out, err := t.Client.Chat(ctx, llm.ChatRequest{
		Model: t.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt(titleSystem)},
			{Role: "user", Content: render(titleUser, map[string]string{"text": truncateRunes(text, t.InputBudget)})},
		},
		Temperature: t.Temperature,
		MaxTokens:   t.MaxTokens,
	})
	if err != nil {
		return t.fallback(&TitleError{Message: upstreamOr(err, titleFailed), Err: err})
	}
	title := CleanTitle(out)
	if title == "" {
		return t.fallback(&TitleError{Message: "empty title", Err: errors.New("model returned an empty title")})
	}
	return TitleResult{Title: title}
}

func (t *Titler) fallback(err *TitleError) TitleResult {
	text := t.FallbackText
	if text == "" {
		text = DefaultTitleFallback
	}
	return TitleResult{Title: text, Fallback: true, Err: err}
}

// CleanTitle trims whitespace and strips one leading and one trailing quote.
func CleanTitle(raw string) string {
	s := strings.TrimSpace(raw)
	if s != "" && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if n := len(s); n > 0 && (s[n-1] == '"' || s[n-1] == '\'') {
		s = s[:n-1]
	}
	return s
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
