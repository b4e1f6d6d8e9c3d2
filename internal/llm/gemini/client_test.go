package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"notes-backend/internal/llm"
)

type fakeModels struct {
	model    string
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	resp     *genai.GenerateContentResponse
	err      error
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.contents = contents
	f.config = config
	return f.resp, f.err
}

func TestChatMapsRolesAndConfig(t *testing.T) {
	fake := &fakeModels{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: "Weekly "}, {Text: "Sync"}}},
		}},
	}}
	c := &Client{models: fake}

	out, err := c.Chat(context.Background(), llm.ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []llm.Message{
			{Role: "system", Content: "You are a title generator."},
			{Role: "user", Content: "Generate a concise title"},
		},
		Temperature: 0.7,
		MaxTokens:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, "Weekly Sync", out)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	require.Len(t, fake.contents, 1)
	assert.Equal(t, "user", fake.contents[0].Role)
	require.NotNil(t, fake.config.SystemInstruction)
	assert.Equal(t, "You are a title generator.", fake.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(50), fake.config.MaxOutputTokens)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.7, *fake.config.Temperature, 0.001)
}

func TestChatWrapsUpstreamError(t *testing.T) {
	c := &Client{models: &fakeModels{err: errors.New("RESOURCE_EXHAUSTED: quota")}}
	_, err := c.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	assert.Equal(t, "RESOURCE_EXHAUSTED: quota", llm.UpstreamMessage(err))
}

func TestChatEmptyResponse(t *testing.T) {
	c := &Client{models: &fakeModels{resp: &genai.GenerateContentResponse{}}}
	_, err := c.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	assert.Error(t, err)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "")
	assert.Error(t, err)
}
