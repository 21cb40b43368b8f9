package sink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/asr"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/segment"
)

func testUtterance(frames int) segment.Utterance {
	u := segment.Utterance{SampleRate: 16000}
	for i := 0; i < frames; i++ {
		f := make([]int16, 480)
		for j := range f {
			f[j] = int16(i*100 + j%50)
		}
		u.Frames = append(u.Frames, f)
	}
	return u
}

func newTestSink(t *testing.T, serverURL string, injected *[]string) *Sink {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.APIEndpoint = serverURL
	cfg.CONTAINER = "wav" // skip ffmpeg in tests
	cfg.MaxRetry = 1
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 2

	client, err := asr.New(cfg, &http.Client{Timeout: time.Second})
	if err != nil {
		t.Fatalf("asr.New failed: %v", err)
	}
	s := New(cfg, client, t.TempDir())
	s.inject = func(text string) error {
		*injected = append(*injected, text)
		return nil
	}
	return s
}

func TestProcessInjectsTranscribedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"hello there"}`))
	}))
	defer server.Close()

	var injected []string
	s := newTestSink(t, server.URL, &injected)
	s.Process(context.Background(), testUtterance(3))

	if len(injected) != 1 || injected[0] != "hello there" {
		t.Fatalf("injected = %v, want [hello there]", injected)
	}

	// Temp files are removed when caching is off.
	entries, err := os.ReadDir(s.tempDir)
	if err != nil {
		t.Fatalf("read temp dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("temp dir not cleaned: %v", entries)
	}
}

func TestServiceErrorDropsUtteranceAndPipelineContinues(t *testing.T) {
	fail := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"text":"second try"}`))
	}))
	defer server.Close()

	var injected []string
	s := newTestSink(t, server.URL, &injected)

	s.Process(context.Background(), testUtterance(2))
	if len(injected) != 0 {
		t.Fatalf("failed utterance must not inject, got %v", injected)
	}

	fail = false
	s.Process(context.Background(), testUtterance(2))
	if len(injected) != 1 || injected[0] != "second try" {
		t.Fatalf("next utterance should succeed, injected = %v", injected)
	}
}

func TestRunDrainsChannelUntilClose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer server.Close()

	var injected []string
	s := newTestSink(t, server.URL, &injected)

	ch := make(chan segment.Utterance, 2)
	ch <- testUtterance(1)
	ch <- testUtterance(1)
	close(ch)

	done := make(chan struct{})
	go func() {
		s.Run(context.Background(), ch)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after channel close")
	}
	if len(injected) != 2 {
		t.Fatalf("injected %d texts, want 2", len(injected))
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	samples := make([]int16, 960)
	for i := range samples {
		samples[i] = int16(i - 480)
	}
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := EncodeWAV(path, samples, 16000); err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open wav: %v", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode wav: %v", err)
	}
	if dec.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", dec.SampleRate)
	}
	if dec.NumChans != 1 {
		t.Fatalf("channels = %d, want 1", dec.NumChans)
	}
	if dec.BitDepth != 16 {
		t.Fatalf("bit depth = %d, want 16", dec.BitDepth)
	}
	if len(buf.Data) != len(samples) {
		t.Fatalf("decoded %d samples, want %d", len(buf.Data), len(samples))
	}
	for i, v := range samples {
		if buf.Data[i] != int(v) {
			t.Fatalf("sample %d = %d, want %d", i, buf.Data[i], v)
		}
	}
}

func TestProcessSkipsEmptyUtterance(t *testing.T) {
	var injected []string
	s := newTestSink(t, "http://127.0.0.1:0", &injected)
	s.Process(context.Background(), segment.Utterance{SampleRate: 16000})
	if len(injected) != 0 {
		t.Fatalf("empty utterance must be ignored")
	}
}
