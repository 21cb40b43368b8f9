package app

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/asr"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/record"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/sink"
)

// fakeSource stands in for the microphone: scripted frames, channel
// closed on Stop.
type fakeSource struct {
	mu      sync.Mutex
	ch      chan []int16
	stopped bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan []int16, 256)}
}

func (f *fakeSource) Start() error           { return nil }
func (f *fakeSource) Frames() <-chan []int16 { return f.ch }

func (f *fakeSource) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.stopped {
		f.stopped = true
		close(f.ch)
	}
}

func (f *fakeSource) Stopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *fakeSource) feed(n int) {
	frame := make([]int16, 480)
	for i := range frame {
		frame[i] = 4000
	}
	for i := 0; i < n; i++ {
		f.ch <- frame
	}
}

type testEnv struct {
	ctrl     *Controller
	sources  []*fakeSource
	injected []string
	mu       sync.Mutex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":"transcript"}`))
	}))
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.APIEndpoint = server.URL
	cfg.CONTAINER = "wav"
	cfg.Notification = false
	cfg.MaxRetry = 1
	cfg.RetryBaseDelay = 0
	cfg.RequestTimeout = 2

	client, err := asr.New(cfg, &http.Client{Timeout: time.Second})
	if err != nil {
		t.Fatalf("asr.New failed: %v", err)
	}
	snk := sink.New(cfg, client, t.TempDir())

	env := &testEnv{}
	snk.SetInjector(func(text string) error {
		env.mu.Lock()
		env.injected = append(env.injected, text)
		env.mu.Unlock()
		return nil
	})

	env.ctrl = NewController(cfg, snk, func() record.FrameSource {
		src := newFakeSource()
		env.mu.Lock()
		env.sources = append(env.sources, src)
		env.mu.Unlock()
		return src
	})
	return env
}

func (e *testEnv) lastSource(t *testing.T) *fakeSource {
	t.Helper()
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.sources) == 0 {
		t.Fatalf("no capture source was created")
	}
	return e.sources[len(e.sources)-1]
}

func (e *testEnv) injectedTexts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.injected))
	copy(out, e.injected)
	return out
}

func TestStopIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.ctrl.Stop()
	env.ctrl.Stop()
	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
}

func TestToggleRecordingRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleRecording()
	if env.ctrl.Mode() != ModeRecording {
		t.Fatalf("mode = %v, want recording", env.ctrl.Mode())
	}

	src := env.lastSource(t)
	src.feed(10)
	waitDrained(t, src)

	env.ctrl.ToggleRecording()
	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
	if got := env.injectedTexts(); len(got) != 1 || got[0] != "transcript" {
		t.Fatalf("injected = %v, want [transcript]", got)
	}
	if !src.Stopped() {
		t.Fatalf("capture source should be stopped")
	}
}

func TestCancelDiscardsRecording(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleRecording()
	env.lastSource(t).feed(5)
	env.ctrl.Cancel()

	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
	if got := env.injectedTexts(); len(got) != 0 {
		t.Fatalf("canceled take must not be transcribed, got %v", got)
	}
}

func TestToggleListeningStartsAndStops(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleListening()
	if env.ctrl.Mode() != ModeListening {
		t.Fatalf("mode = %v, want listening", env.ctrl.Mode())
	}
	src := env.lastSource(t)

	env.ctrl.ToggleListening()
	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
	if !src.Stopped() {
		t.Fatalf("listen source should be stopped")
	}
}

func TestListeningStopsActiveRecording(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleRecording()
	recSrc := env.lastSource(t)
	recSrc.feed(3)
	waitDrained(t, recSrc)

	env.ctrl.ToggleListening()
	if env.ctrl.Mode() != ModeListening {
		t.Fatalf("mode = %v, want listening", env.ctrl.Mode())
	}
	if !recSrc.Stopped() {
		t.Fatalf("recording source should have been stopped")
	}
	// The interrupted take is still transcribed.
	if got := env.injectedTexts(); len(got) != 1 {
		t.Fatalf("interrupted take should be transcribed, injected = %v", got)
	}

	env.ctrl.Stop()
	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
}

func TestRecordingStopsActiveListening(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleListening()
	listenSrc := env.lastSource(t)

	env.ctrl.ToggleRecording()
	if env.ctrl.Mode() != ModeRecording {
		t.Fatalf("mode = %v, want recording", env.ctrl.Mode())
	}
	if !listenSrc.Stopped() {
		t.Fatalf("listen source should have been stopped")
	}

	env.ctrl.Cancel()
}

func TestDeviceLossDuringListeningStopsController(t *testing.T) {
	env := newTestEnv(t)

	env.ctrl.ToggleListening()
	if env.ctrl.Mode() != ModeListening {
		t.Fatalf("mode = %v, want listening", env.ctrl.Mode())
	}

	// The source dying on its own (device loss severs the stream) drains
	// the pipeline and must drop the controller back to stopped.
	env.lastSource(t).Stop()

	deadline := time.Now().Add(2 * time.Second)
	for env.ctrl.Mode() != ModeStopped {
		if time.Now().After(deadline) {
			t.Fatalf("controller still %v after stream ended", env.ctrl.Mode())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPauseOutsideRecordingIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	env.ctrl.TogglePause()
	if env.ctrl.Mode() != ModeStopped {
		t.Fatalf("mode = %v, want stopped", env.ctrl.Mode())
	}
}

func waitDrained(t *testing.T, src *fakeSource) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(src.ch) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("frames were not drained")
		}
		time.Sleep(time.Millisecond)
	}
	time.Sleep(5 * time.Millisecond)
}
