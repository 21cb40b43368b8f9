package record

import (
	"testing"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
)

// fakeSource hands out scripted frames and closes its channel on Stop.
type fakeSource struct {
	ch      chan []int16
	stopped bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan []int16, 64)}
}

func (f *fakeSource) Start() error          { return nil }
func (f *fakeSource) Frames() <-chan []int16 { return f.ch }
func (f *fakeSource) Stop() {
	if !f.stopped {
		f.stopped = true
		close(f.ch)
	}
}

func (f *fakeSource) feed(n int, marker int16) {
	for i := 0; i < n; i++ {
		f.ch <- []int16{marker, int16(i)}
	}
}

func TestRecordStopReturnsTake(t *testing.T) {
	src := newFakeSource()
	r := New(config.DefaultConfig(), func() FrameSource { return src })

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("state = %v, want recording", r.State())
	}
	src.feed(5, 1)
	waitDrained(t, src)

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if res.Canceled {
		t.Fatalf("take should not be canceled")
	}
	if len(res.Utterance.Frames) != 5 {
		t.Fatalf("take has %d frames, want 5", len(res.Utterance.Frames))
	}
	if res.Utterance.SampleRate != 16000 {
		t.Fatalf("sample rate = %d, want 16000", res.Utterance.SampleRate)
	}
	if r.State() != StateIdle {
		t.Fatalf("recorder should be idle after stop")
	}
}

func TestCancelDiscardsTake(t *testing.T) {
	src := newFakeSource()
	r := New(config.DefaultConfig(), func() FrameSource { return src })

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.feed(3, 1)

	res, err := r.Cancel()
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if !res.Canceled {
		t.Fatalf("expected canceled result")
	}
	if len(res.Utterance.Frames) != 0 {
		t.Fatalf("canceled take must be empty")
	}
}

func TestPauseDiscardsFrames(t *testing.T) {
	src := newFakeSource()
	r := New(config.DefaultConfig(), func() FrameSource { return src })

	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	src.feed(2, 1)
	waitDrained(t, src)

	if err := r.TogglePause(); err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	src.feed(4, 2)
	waitDrained(t, src)

	if err := r.TogglePause(); err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	src.feed(3, 3)
	waitDrained(t, src)

	res, err := r.Stop()
	if err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if len(res.Utterance.Frames) != 5 {
		t.Fatalf("take has %d frames, want 5 (paused frames discarded)", len(res.Utterance.Frames))
	}
}

func TestStopWhenIdleFails(t *testing.T) {
	r := New(config.DefaultConfig(), func() FrameSource { return newFakeSource() })
	if _, err := r.Stop(); err == nil {
		t.Fatalf("Stop on idle recorder should fail")
	}
	if _, err := r.Cancel(); err == nil {
		t.Fatalf("Cancel on idle recorder should fail")
	}
	if err := r.TogglePause(); err == nil {
		t.Fatalf("TogglePause on idle recorder should fail")
	}
}

func TestStartWhileRecordingFails(t *testing.T) {
	src := newFakeSource()
	r := New(config.DefaultConfig(), func() FrameSource { return src })
	if err := r.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := r.Start(); err == nil {
		t.Fatalf("second Start should fail")
	}
	if _, err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

// waitDrained blocks until the record loop consumed everything queued.
func waitDrained(t *testing.T, src *fakeSource) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for len(src.ch) > 0 {
		if time.Now().After(deadline) {
			t.Fatalf("record loop did not drain frames")
		}
		time.Sleep(time.Millisecond)
	}
	// One extra tick so the in-flight frame lands in the take.
	time.Sleep(5 * time.Millisecond)
}
