package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"notes-backend/internal/llm"
)

func TestChatSendsParametersAndReturnsContent(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth")
		}
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  **Summary**\n"}}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	out, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:       "llama-3.3-70b-versatile",
		Messages:    []llm.Message{{Role: "system", Content: "s"}, {Role: "user", Content: "u"}},
		Temperature: 0.7,
		MaxTokens:   2000,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if out != "  **Summary**\n" {
		t.Fatalf("content must be returned unmodified, got %q", out)
	}
	if got["model"] != "llama-3.3-70b-versatile" {
		t.Fatalf("unexpected model %v", got["model"])
	}
	if got["max_tokens"] != float64(2000) {
		t.Fatalf("unexpected max_tokens %v", got["max_tokens"])
	}
	if temp, ok := got["temperature"].(float64); !ok || temp < 0.69 || temp > 0.71 {
		t.Fatalf("unexpected temperature %v", got["temperature"])
	}
	msgs, _ := got["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
}

func TestChatUpstreamErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached","type":"tokens"}}`))
	}))
	defer server.Close()

	client, _ := NewClient("k", server.URL, 0)
	_, err := client.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	var up *llm.UpstreamError
	if !errors.As(err, &up) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if up.Status != http.StatusTooManyRequests || up.Message != "Rate limit reached" {
		t.Fatalf("unexpected upstream error %+v", up)
	}
}

func TestChatUpstreamErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	client, _ := NewClient("k", server.URL, 0)
	_, err := client.Chat(context.Background(), llm.ChatRequest{Model: "m"})
	if msg := llm.UpstreamMessage(err); msg != "" {
		t.Fatalf("expected no upstream message, got %q", msg)
	}
}

func TestTranscribeSendsMultipart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		for key, want := range map[string]string{"model": "whisper-large-v3", "language": "en", "response_format": "json"} {
			if got := r.FormValue(key); got != want {
				t.Errorf("field %s = %q, want %q", key, got, want)
			}
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		if hdr.Filename != "audio.webm" || string(data) != "webm-bytes" {
			t.Errorf("unexpected file %s %q", hdr.Filename, data)
		}
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer server.Close()

	client, _ := NewClient("k", server.URL, 0)
	text, err := client.Transcribe(context.Background(), llm.TranscriptionRequest{
		Model:          "whisper-large-v3",
		Language:       "en",
		ResponseFormat: "json",
		Audio:          strings.NewReader("webm-bytes"),
	})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "", 0); err == nil {
		t.Fatalf("expected error for missing key")
	}
}

func TestNoDefaultTimeout(t *testing.T) {
	client, err := NewClient("k", "", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if client.httpClient.Timeout != 0 {
		t.Fatalf("expected no client timeout, got %s", client.httpClient.Timeout)
	}
	if client.baseURL != DefaultBaseURL || client.provider != "groq" {
		t.Fatalf("unexpected defaults %s %s", client.baseURL, client.provider)
	}
}
