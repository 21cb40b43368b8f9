package segment

import (
	"fmt"
	"time"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/vad"
)

// Utterance is a contiguous span of frames bounded by speech onset and
// the silence-hold timeout. Ownership of the frame slice transfers to the
// consumer on emission; the processor allocates a fresh buffer per
// utterance and never touches an emitted one again.
type Utterance struct {
	Frames     [][]int16
	SampleRate int
}

// Samples flattens the utterance into one contiguous sample slice.
func (u *Utterance) Samples() []int16 {
	n := 0
	for _, f := range u.Frames {
		n += len(f)
	}
	out := make([]int16, 0, n)
	for _, f := range u.Frames {
		out = append(out, f...)
	}
	return out
}

// Duration returns the audio length of the utterance.
func (u *Utterance) Duration() time.Duration {
	n := 0
	for _, f := range u.Frames {
		n += len(f)
	}
	if u.SampleRate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(u.SampleRate)
}

// Classifier is the per-frame speech/non-speech judgment the processor
// consults. *vad.Detector satisfies it.
type Classifier interface {
	IsSpeech(samples []int16, sampleRate int) (bool, error)
}

// Settings are the immutable tunables of one listening session.
type Settings struct {
	SampleRate      int
	FrameDurationMS int
	// SilenceHold is the trailing silence that concludes an utterance.
	SilenceHold time.Duration
	// EnergyGate, when true, requires the first speech frame of an
	// utterance to also clear EnergyThreshold (mean-abs amplitude,
	// 0..1). Once in speech only the classifier verdict matters.
	EnergyGate      bool
	EnergyThreshold float64
	// InactivityMultiplier scales SilenceHold into the wall-clock
	// watchdog that force-emits a stalled utterance.
	InactivityMultiplier float64
	Debug                bool
}

// watchdogPoll is how long Run waits for a frame before re-checking the
// inactivity watchdog. It only bounds reaction latency; silence detection
// itself is frame-counted.
const watchdogPoll = 500 * time.Millisecond

// Processor is the segmentation state machine: Idle until a speech frame
// (optionally energy-gated) arrives, then accumulates every frame —
// trailing silence included — until the silence hold expires, at which
// point the buffer is emitted as one Utterance and the machine returns to
// Idle. It is single-goroutine: frames must be processed in arrival order.
type Processor struct {
	st  Settings
	cls Classifier

	inSpeech      bool
	buf           [][]int16
	silenceFrames int
	maxSilence    int
	lastSpeech    time.Time

	now func() time.Time
}

// NewProcessor creates a Processor. Settings must already be validated;
// in particular SampleRate/FrameDurationMS must be a combination the
// classifier supports.
func NewProcessor(st Settings, cls Classifier) *Processor {
	// Emission requires silenceFrames * frameMS >= SilenceHold, so the
	// frame count rounds up when the hold is not a frame multiple.
	holdMS := int(st.SilenceHold.Milliseconds())
	maxSilence := (holdMS + st.FrameDurationMS - 1) / st.FrameDurationMS
	if maxSilence < 1 {
		maxSilence = 1
	}
	return &Processor{
		st:         st,
		cls:        cls,
		maxSilence: maxSilence,
		now:        time.Now,
	}
}

// InSpeech reports whether an utterance is currently being accumulated.
func (p *Processor) InSpeech() bool {
	return p.inSpeech
}

// ProcessFrame advances the state machine by one frame and returns a
// completed Utterance when the frame concludes one, else nil.
func (p *Processor) ProcessFrame(frame []int16) *Utterance {
	speech, err := p.cls.IsSpeech(frame, p.st.SampleRate)
	if err != nil {
		// One bad frame must never take down the stream.
		fmt.Printf("[segment] classifier error, frame skipped: %v\n", err)
		return nil
	}

	if !p.inSpeech {
		if !speech {
			return nil
		}
		if p.st.EnergyGate {
			if e := vad.Energy(frame); e < p.st.EnergyThreshold {
				if p.st.Debug {
					fmt.Printf("[segment] speech frame below energy gate (%.6f < %.6f), staying idle\n", e, p.st.EnergyThreshold)
				}
				return nil
			}
		}
		p.inSpeech = true
		p.buf = [][]int16{frame}
		p.silenceFrames = 0
		p.lastSpeech = p.now()
		if p.st.Debug {
			fmt.Println("[segment] speech started")
		}
		return nil
	}

	// Trailing silence stays in the buffer so the emitted utterance keeps
	// its natural pause.
	p.buf = append(p.buf, frame)
	if speech {
		p.silenceFrames = 0
		p.lastSpeech = p.now()
		return nil
	}

	p.silenceFrames++
	if p.silenceFrames >= p.maxSilence {
		if p.st.Debug {
			fmt.Printf("[segment] silence hold reached after %d frames\n", p.silenceFrames)
		}
		return p.emit()
	}
	return p.CheckTimeout()
}

// CheckTimeout applies the wall-clock watchdog: if no speech frame has
// arrived for SilenceHold × InactivityMultiplier while in speech, the
// buffered utterance is force-emitted. Guards against starvation when the
// per-frame counter cannot advance.
func (p *Processor) CheckTimeout() *Utterance {
	if !p.inSpeech {
		return nil
	}
	limit := time.Duration(float64(p.st.SilenceHold) * p.st.InactivityMultiplier)
	if p.now().Sub(p.lastSpeech) < limit {
		return nil
	}
	if p.st.Debug {
		fmt.Println("[segment] inactivity watchdog fired, emitting")
	}
	return p.emit()
}

// Flush emits the in-progress utterance, if any. Called on end of stream
// so no audio is silently dropped on shutdown.
func (p *Processor) Flush() *Utterance {
	if !p.inSpeech {
		return nil
	}
	if p.st.Debug {
		fmt.Println("[segment] stream ended, flushing partial utterance")
	}
	return p.emit()
}

func (p *Processor) emit() *Utterance {
	frames := p.buf
	p.inSpeech = false
	p.buf = nil
	p.silenceFrames = 0
	if len(frames) == 0 {
		return nil
	}
	return &Utterance{Frames: frames, SampleRate: p.st.SampleRate}
}

// Run drains the frame channel in arrival order, sending completed
// utterances on out. It returns when the frame channel closes, after
// flushing any partial utterance, and closes out so the downstream
// consumer terminates deterministically.
func (p *Processor) Run(frames <-chan []int16, out chan<- Utterance) {
	defer close(out)
	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				if u := p.Flush(); u != nil {
					out <- *u
				}
				return
			}
			if u := p.ProcessFrame(frame); u != nil {
				out <- *u
			}
		case <-time.After(watchdogPoll):
			if u := p.CheckTimeout(); u != nil {
				out <- *u
			}
		}
	}
}
