package assist

import (
	"context"
	"io"

	"notes-backend/internal/llm"
)

type fakeChat struct {
	reply string
	err   error
	calls []llm.ChatRequest
}

func (f *fakeChat) Chat(ctx context.Context, req llm.ChatRequest) (string, error) {
	f.calls = append(f.calls, req)
	return f.reply, f.err
}

type fakeSpeech struct {
	text  string
	err   error
	req   llm.TranscriptionRequest
	audio string
}

func (f *fakeSpeech) Transcribe(ctx context.Context, req llm.TranscriptionRequest) (string, error) {
	f.req = req
	if req.Audio != nil {
		b, _ := io.ReadAll(req.Audio)
		f.audio = string(b)
	}
	return f.text, f.err
}
