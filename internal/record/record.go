package record

import (
	"fmt"
	"sync"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/segment"
)

// FrameSource produces mono 16-bit PCM frames until stopped, then closes
// its channel. *capture.Source satisfies it.
type FrameSource interface {
	Start() error
	Frames() <-chan []int16
	Stop()
}

// State represents recorder state.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopping
	StateCanceled
)

// Result is returned when a recording completes or is canceled.
type Result struct {
	Utterance segment.Utterance
	Canceled  bool
	Err       error
}

// Recorder captures one manually bounded take: every frame between Start
// and Stop, no voice-activity classification. The finished take is
// returned as a single utterance for the sink to process.
type Recorder struct {
	mu        sync.Mutex
	state     State
	cfg       config.Config
	newSource func() FrameSource
	src       FrameSource
	done      chan Result
	started   time.Time
}

// New creates a recorder. newSource is called once per take.
func New(cfg config.Config, newSource func() FrameSource) *Recorder {
	return &Recorder{cfg: cfg, newSource: newSource, state: StateIdle}
}

// Start begins recording.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return fmt.Errorf("recorder not idle")
	}
	src := r.newSource()
	if err := src.Start(); err != nil {
		r.mu.Unlock()
		return fmt.Errorf("start capture failed: %w", err)
	}
	r.state = StateRecording
	r.src = src
	r.done = make(chan Result, 1)
	r.started = time.Now()
	r.mu.Unlock()

	if r.cfg.RECORD_DEBUG {
		fmt.Println("[record] recording started")
	}
	go r.recordLoop(src)
	return nil
}

// Stop requests a clean stop and waits for the finished take.
func (r *Recorder) Stop() (Result, error) {
	return r.end(StateStopping)
}

// Cancel requests immediate stop, discarding the take.
func (r *Recorder) Cancel() (Result, error) {
	return r.end(StateCanceled)
}

func (r *Recorder) end(next State) (Result, error) {
	r.mu.Lock()
	if r.state != StateRecording && r.state != StatePaused {
		r.mu.Unlock()
		return Result{}, fmt.Errorf("recorder not running")
	}
	r.state = next
	src := r.src
	done := r.done
	r.mu.Unlock()

	src.Stop()
	res := <-done
	return res, res.Err
}

// TogglePause toggles pause/resume. Frames captured while paused are
// discarded rather than buffered.
func (r *Recorder) TogglePause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StatePaused:
		r.state = StateRecording
	case StateRecording:
		r.state = StatePaused
	default:
		return fmt.Errorf("recorder not running")
	}
	return nil
}

// State returns the current recorder state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) recordLoop(src FrameSource) {
	var take [][]int16
	for frame := range src.Frames() {
		if r.isPaused() {
			continue
		}
		take = append(take, frame)
	}

	if r.isCanceled() {
		if r.cfg.RECORD_DEBUG {
			fmt.Println("[record] recording canceled")
		}
		r.finish(Result{Canceled: true})
		return
	}

	if r.cfg.RECORD_DEBUG {
		fmt.Printf("[record] recording stopped after %v (%d frames)\n",
			time.Since(r.started).Round(time.Millisecond), len(take))
	}
	r.finish(Result{Utterance: segment.Utterance{
		Frames:     take,
		SampleRate: r.cfg.SAMPLING_RATE,
	}})
}

func (r *Recorder) finish(res Result) {
	r.mu.Lock()
	r.state = StateIdle
	r.src = nil
	done := r.done
	r.mu.Unlock()
	done <- res
}

func (r *Recorder) isPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StatePaused
}

func (r *Recorder) isCanceled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateCanceled
}
