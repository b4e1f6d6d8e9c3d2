package main

import (
	"errors"
	"testing"

	"notes-backend/internal/workerproc"
)

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"pipeline failure", workerproc.ErrProcess{Err: errors.New("boom")}, false},
		{"store unavailable", workerproc.ErrProcess{Retryable: true, Err: errors.New("timeout")}, true},
		{"bad json", workerproc.ErrDecode{Err: errors.New("eof")}, false},
		{"missing field", workerproc.ErrMissingField{Field: "user id"}, false},
		{"empty body", workerproc.ErrEmptyBody{}, false},
		{"unconfigured", errors.New("recording pipeline not configured"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := retryable(tt.err); got != tt.want {
				t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
