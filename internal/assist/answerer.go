package assist

import (
	"context"

	"notes-backend/internal/llm"
	"notes-backend/internal/shared/config"
)

// Answerer answers questions grounded in a single transcript.
type Answerer struct {
	Client      llm.ChatClient
	Model       string
	Temperature float32
	MaxTokens   int
}

func NewAnswerer(client llm.ChatClient, cfg config.AIConfig) *Answerer {
	return &Answerer{
		Client:      client,
		Model:       cfg.ChatModel,
		Temperature: cfg.QATemperature,
		MaxTokens:   cfg.QAMaxTokens,
	}
}

// Answer returns the model's answer or a *QAError.
func (a *Answerer) Answer(ctx context.Context, question, transcript string) (string, error) {
	out, err := a.Client.Chat(ctx, llm.ChatRequest{
		Model: a.Model,
		Messages: []llm.Message{
			{Role: "system", Content: systemPrompt(qaSystem)},
			{Role: "user", Content: render(qaUser, map[string]string{"transcript": transcript, "question": question})},
		},
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
	})
	if err != nil {
		return "", &QAError{Message: upstreamOr(err, qaFailed), Err: err}
	}
	return out, nil
}
