package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"notes-backend/internal/llm"
	"notes-backend/internal/shared/telemetry"
)

// DefaultBaseURL is Groq's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Client talks to an OpenAI-compatible chat and transcription API.
type Client struct {
	apiKey     string
	baseURL    string
	provider   string
	httpClient *http.Client
}

// NewClient constructs a client. A zero timeout leaves calls unbounded except
// by the caller's context.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		provider:   providerName(baseURL),
		httpClient: hc,
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *chatResponseUsage `json:"usage,omitempty"`
}

type chatResponseUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Chat posts to /chat/completions and returns choices[0].message.content as sent.
func (c *Client) Chat(ctx context.Context, in llm.ChatRequest) (string, error) {
	if strings.TrimSpace(in.Model) == "" {
		return "", fmt.Errorf("chat model is required")
	}
	temp := in.Temperature
	payload, err := json.Marshal(chatRequest{
		Model:       in.Model,
		Messages:    in.Messages,
		Temperature: &temp,
		MaxTokens:   in.MaxTokens,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s response parse: %w", c.provider, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s response missing choices", c.provider)
	}
	logUsage(c.provider, in.Model, parsed.Usage)
	return parsed.Choices[0].Message.Content, nil
}

// Transcribe uploads audio as multipart form data to /audio/transcriptions.
func (c *Client) Transcribe(ctx context.Context, in llm.TranscriptionRequest) (string, error) {
	if in.Audio == nil {
		return "", fmt.Errorf("audio is required")
	}
	fileName := in.FileName
	if fileName == "" {
		fileName = "audio.webm"
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, in.Audio); err != nil {
		return "", fmt.Errorf("buffer audio: %w", err)
	}
	fields := [][2]string{
		{"model", in.Model},
		{"language", in.Language},
		{"response_format", in.ResponseFormat},
	}
	for _, f := range fields {
		if f[1] == "" {
			continue
		}
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.do(req)
	if err != nil {
		return "", err
	}

	if in.ResponseFormat == "text" {
		return string(body), nil
	}
	var parsed transcriptionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s transcription parse: %w", c.provider, err)
	}
	telemetry.Info("llm.transcription", map[string]any{
		"provider": c.provider,
		"model":    in.Model,
		"chars":    len([]rune(parsed.Text)),
	})
	return parsed.Text, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return nil, fmt.Errorf("%s request timeout: %w", c.provider, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		upstream := &llm.UpstreamError{Provider: c.provider, Status: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && env.Error != nil {
			upstream.Message = env.Error.Message
		}
		return nil, upstream
	}
	return body, nil
}

func logUsage(provider, model string, usage *chatResponseUsage) {
	fields := map[string]any{"provider": provider, "model": model}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

func providerName(baseURL string) string {
	switch {
	case strings.Contains(baseURL, "groq.com"):
		return "groq"
	case strings.Contains(baseURL, "openai.com"):
		return "openai"
	default:
		return "llm"
	}
}

var (
	_ llm.ChatClient   = (*Client)(nil)
	_ llm.SpeechClient = (*Client)(nil)
)
