package capture

import (
	"errors"
	"testing"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
)

// runLoop drives readLoop against a scripted read function, without
// touching a real device.
func runLoop(read func() error) *Source {
	s := New(config.DefaultConfig())
	s.read = read
	go s.readLoop()
	return s
}

func TestPersistentReadFailureSeversStream(t *testing.T) {
	s := runLoop(func() error { return errors.New("device gone") })

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-s.Frames():
			if !ok {
				return // stream severed, channel closed
			}
		case <-deadline:
			t.Fatalf("frame channel not closed after persistent device failure")
		}
	}
}

func TestTransientReadFailuresKeepStreamOpen(t *testing.T) {
	calls := 0
	s := runLoop(func() error {
		calls++
		// Every read fails except each tenth-minus-one, so the failure
		// streak never reaches the limit.
		if calls%(maxConsecutiveReadErrors-1) == 0 {
			return nil
		}
		return errors.New("overrun")
	})

	deadline := time.After(2 * time.Second)
	got := 0
	for got < 3 {
		select {
		case _, ok := <-s.Frames():
			if !ok {
				t.Fatalf("stream severed despite recovering reads")
			}
			got++
		case <-deadline:
			t.Fatalf("no frames delivered")
		}
	}

	close(s.stop)
	<-s.done
}

func TestNormalizePadsShortFrames(t *testing.T) {
	frame := []int16{100, -200, 300}
	got := Normalize(frame, 6)
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	for i, v := range []int16{100, -200, 300, 0, 0, 0} {
		if got[i] != v {
			t.Fatalf("sample %d = %d, want %d", i, got[i], v)
		}
	}
}

func TestNormalizeTruncatesLongFrames(t *testing.T) {
	frame := []int16{1, 2, 3, 4, 5}
	got := Normalize(frame, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != 1 || got[2] != 3 {
		t.Fatalf("truncated content wrong: %v", got)
	}
}

func TestNormalizeExactLengthIsUntouched(t *testing.T) {
	frame := []int16{7, 8}
	got := Normalize(frame, 2)
	if &got[0] != &frame[0] {
		t.Fatalf("exact-length frame should not be reallocated")
	}
}
