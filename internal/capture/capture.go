package capture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
)

// Source captures fixed-duration frames of mono 16-bit PCM from the
// default input device and delivers them on a bounded channel. The
// channel is closed when capture stops or the device is lost, which
// serves as the end-of-stream marker for downstream consumers.
//
// The reader goroutine never blocks on a slow consumer: when the channel
// is full the oldest queued frame is dropped and counted. The capacity
// covers QUEUE_SECONDS of audio, enough to absorb short consumer stalls
// (a transcription request must never be able to back up into the device).
// maxConsecutiveReadErrors is how many device reads may fail in a row
// before capture gives up and severs the stream. A lost device returns an
// error on every read; transient under/overruns recover within a few.
const maxConsecutiveReadErrors = 10

type Source struct {
	cfg     config.Config
	stream  *portaudio.Stream
	in      []int16
	frames  chan []int16
	stop    chan struct{}
	done    chan struct{}
	dropped atomic.Int64

	// read is swappable for tests; nil means read from the stream.
	read func() error

	mu      sync.Mutex
	started bool
	stopped bool
}

// New creates a Source for the configured sample rate and frame duration.
func New(cfg config.Config) *Source {
	return &Source{
		cfg:    cfg,
		in:     make([]int16, cfg.FrameSamples()),
		frames: make(chan []int16, cfg.QueueFrames()),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Frames returns the output channel. It is closed after Stop, once the
// device has been released.
func (s *Source) Frames() <-chan []int16 {
	return s.frames
}

// Dropped returns how many frames were discarded because the consumer
// lagged more than the queue capacity.
func (s *Source) Dropped() int64 {
	return s.dropped.Load()
}

// Start opens the input device and begins producing frames.
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return fmt.Errorf("capture already started")
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(s.cfg.SAMPLING_RATE), len(s.in), s.in)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("open stream failed: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("start stream failed: %w", err)
	}
	s.stream = stream
	s.started = true

	go s.readLoop()
	return nil
}

// Stop ends capture, releases the device and closes the frame channel.
// Safe to call more than once; later calls are no-ops.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

func (s *Source) readLoop() {
	defer func() {
		if s.stream != nil {
			_ = s.stream.Stop()
			_ = s.stream.Close()
			portaudio.Terminate()
		}
		close(s.frames)
		close(s.done)
	}()

	want := s.cfg.FrameSamples()
	failures := 0
	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if err := s.readFrame(); err != nil {
			// Under/overruns are transient and recover on the next read.
			// A dead device fails every read; past the limit the stream
			// is severed so the downstream pipeline flushes and stops.
			failures++
			if failures >= maxConsecutiveReadErrors {
				fmt.Printf("[capture] %d consecutive device read failures, stopping capture: %v\n", failures, err)
				return
			}
			if s.cfg.RECORD_DEBUG {
				fmt.Printf("[capture] stream read error: %v\n", err)
			}
			continue
		}
		failures = 0

		frame := make([]int16, len(s.in))
		copy(frame, s.in)
		s.push(Normalize(frame, want))
	}
}

func (s *Source) readFrame() error {
	if s.read != nil {
		return s.read()
	}
	return s.stream.Read()
}

// push enqueues a frame without ever blocking the capture loop. On a full
// queue the oldest frame is dropped so segmentation sees the freshest
// audio.
func (s *Source) push(frame []int16) {
	select {
	case s.frames <- frame:
		return
	default:
	}

	select {
	case <-s.frames:
		n := s.dropped.Add(1)
		if s.cfg.LISTEN_DEBUG {
			fmt.Printf("[capture] frame queue full; dropped oldest (total %d)\n", n)
		}
	default:
	}
	select {
	case s.frames <- frame:
	default:
		s.dropped.Add(1)
	}
}

// Normalize pads a short frame with silence or truncates a long one so
// the classifier always sees exactly want samples. Frames are never
// rejected for being the wrong length.
func Normalize(frame []int16, want int) []int16 {
	switch {
	case len(frame) == want:
		return frame
	case len(frame) < want:
		padded := make([]int16, want)
		copy(padded, frame)
		return padded
	default:
		return frame[:want]
	}
}
