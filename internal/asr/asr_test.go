package asr

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
)

func writeTempAudio(t *testing.T) string {
	t.Helper()
	tmp, err := os.CreateTemp("", "asr-test-*.wav")
	if err != nil {
		t.Fatalf("CreateTemp failed: %v", err)
	}
	if _, err := tmp.Write([]byte("test")); err != nil {
		_ = tmp.Close()
		t.Fatalf("write temp file failed: %v", err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatalf("close temp file failed: %v", err)
	}
	t.Cleanup(func() { _ = os.Remove(tmp.Name()) })
	return tmp.Name()
}

func TestTranscribeRetryExhaustedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("fail"))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.TEXTPath = "text"
	cfg.MaxRetry = 2
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 2

	client, err := New(cfg, &http.Client{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	_, _, err = client.Transcribe(context.Background(), writeTempAudio(t))
	if err == nil {
		t.Fatalf("expected error")
	}

	var re *RetryExhaustedError
	if !errors.As(err, &re) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if re.Attempts != cfg.MaxRetry {
		t.Fatalf("expected attempts %d, got %d", cfg.MaxRetry, re.Attempts)
	}
	if re.MaxRetry != cfg.MaxRetry {
		t.Fatalf("expected MaxRetry %d, got %d", cfg.MaxRetry, re.MaxRetry)
	}
	if string(re.LastResponse) != "fail" {
		t.Fatalf("expected last response body, got %q", re.LastResponse)
	}
}

func TestTranscribeExtractsTextAfterTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.MaxRetry = 3
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 2

	client, err := New(cfg, &http.Client{Timeout: time.Second})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	text, raw, err := client.Transcribe(context.Background(), writeTempAudio(t))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("text = %q, want %q", text, "hello world")
	}
	if len(raw) == 0 {
		t.Fatalf("expected raw response body")
	}
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
}
