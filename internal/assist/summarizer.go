package assist

import (
	"context"

	"notes-backend/internal/llm"
	"notes-backend/internal/shared/config"
)

// Summarizer turns a transcript into structured meeting notes.
type Summarizer struct {
	Client      llm.ChatClient
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewSummarizer(client llm.ChatClient, cfg config.AIConfig) *Summarizer {
	return &Summarizer{
		Client:      client,
		Model:       cfg.ChatModel,
		Temperature: cfg.SummaryTemperature,
		MaxTokens:   cfg.SummaryMaxTokens,
	}
}

// Summarize returns the model output unvalidated, or a *SummaryError.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	out, err := s.Client.Chat(ctx, llm.ChatRequest{
		Model: s.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt(summarySystem)},
			{Role: "user", Content: render(summaryUser, map[string]string{"transcript": transcript})},
		},
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	})
	if err != nil {
		return "", &SummaryError{Message: upstreamOr(err, summaryFailed), Err: err}
	}
	return out, nil
}
