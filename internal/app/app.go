package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/http2"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/asr"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/audio/ffmpeg"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/capture"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/hotkey"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/notify"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/record"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/segment"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/sink"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/vad"
)

// Hotkey action ids.
const (
	actionRecordToggle = 1
	actionPauseToggle  = 2
	actionCancel       = 3
	actionListenToggle = 4
)

// workerJoinTimeout bounds how long a stop request waits for the listen
// pipeline to drain. A laggard is logged, never waited on forever.
const workerJoinTimeout = 5 * time.Second

// Mode is the controller's top-level state.
type Mode int

const (
	ModeStopped Mode = iota
	ModeRecording
	ModeListening
)

func (m Mode) String() string {
	switch m {
	case ModeRecording:
		return "recording"
	case ModeListening:
		return "listening"
	default:
		return "stopped"
	}
}

// Controller owns the application state machine. At most one capture mode
// is active at a time: toggling one while the other runs stops the other
// first. All transitions are serialized behind the mutex, so a hotkey
// storm cannot interleave start and stop halfway.
type Controller struct {
	mu        sync.Mutex
	cfg       config.Config
	snk       *sink.Sink
	rec       *record.Recorder
	newSource func() record.FrameSource
	mode      Mode
	listener  *listenSession
}

// listenSession is one running listen pipeline: source goroutine feeding
// the segmentation worker feeding the sink worker. done closes when the
// sink worker returns, which implies the whole chain has drained.
type listenSession struct {
	src  record.FrameSource
	done chan struct{}
}

// NewController creates a Controller. newSource is called once per
// capture session (manual take or listen pipeline).
func NewController(cfg config.Config, snk *sink.Sink, newSource func() record.FrameSource) *Controller {
	return &Controller{
		cfg:       cfg,
		snk:       snk,
		rec:       record.New(cfg, newSource),
		newSource: newSource,
	}
}

func defaultSourceFactory(cfg config.Config) func() record.FrameSource {
	return func() record.FrameSource {
		return capture.New(cfg)
	}
}

// Mode returns the current controller mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// ToggleRecording starts a manual take, or stops and transcribes the
// running one. An active listen session is stopped first.
func (c *Controller) ToggleRecording() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeListening:
		c.stopListeningLocked()
		fallthrough
	case ModeStopped:
		if err := c.rec.Start(); err != nil {
			fmt.Printf("[record] start failed: %v\n", err)
			return
		}
		c.mode = ModeRecording
		if c.cfg.Notification {
			notify.Notify("STT", "Recording started")
		}
	case ModeRecording:
		c.stopRecordingLocked()
	}
}

// ToggleListening starts or stops hands-free segmentation. A running
// manual take is stopped and transcribed first.
func (c *Controller) ToggleListening() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeListening:
		c.stopListeningLocked()
		return
	case ModeRecording:
		c.stopRecordingLocked()
	}

	if err := c.startListeningLocked(); err != nil {
		fmt.Printf("[listen] start failed: %v\n", err)
		return
	}
	if c.cfg.Notification {
		notify.Notify("STT", "Listening started")
	}
}

// TogglePause pauses or resumes a manual take. Listening has no pause;
// stopping it is the way out.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mode != ModeRecording {
		if c.cfg.HOTKEY_DEBUG {
			fmt.Println("[hotkey] not recording; cannot pause/resume")
		}
		return
	}
	if err := c.rec.TogglePause(); err != nil {
		fmt.Printf("[record] pause failed: %v\n", err)
		return
	}
	if c.cfg.HOTKEY_DEBUG {
		fmt.Println("[hotkey] paused:", c.rec.State() == record.StatePaused)
	}
}

// Cancel discards a manual take. In listening mode it acts as a stop;
// a buffered partial utterance is still flushed and transcribed.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeRecording:
		if _, err := c.rec.Cancel(); err != nil {
			fmt.Printf("[record] cancel failed: %v\n", err)
		}
		c.mode = ModeStopped
		if c.cfg.HOTKEY_DEBUG {
			fmt.Println("[hotkey] cancel requested")
		}
	case ModeListening:
		c.stopListeningLocked()
	default:
		if c.cfg.HOTKEY_DEBUG {
			fmt.Println("[hotkey] nothing to cancel")
		}
	}
}

// Stop stops whatever is active. Safe to call repeatedly and from any
// mode; a stopped controller stays stopped.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.mode {
	case ModeRecording:
		c.stopRecordingLocked()
	case ModeListening:
		c.stopListeningLocked()
	}
}

func (c *Controller) stopRecordingLocked() {
	res, err := c.rec.Stop()
	c.mode = ModeStopped
	if err != nil {
		fmt.Printf("[record] stop failed: %v\n", err)
		return
	}
	if res.Canceled {
		return
	}
	if c.cfg.Notification {
		notify.Notify("STT", "Recording finished")
	}
	c.snk.Process(context.Background(), res.Utterance)
}

func (c *Controller) startListeningLocked() error {
	det, err := vad.New(c.cfg.VADAggressiveness)
	if err != nil {
		return err
	}

	src := c.newSource()
	if err := src.Start(); err != nil {
		return fmt.Errorf("start capture failed: %w", err)
	}

	proc := segment.NewProcessor(segment.Settings{
		SampleRate:           c.cfg.SAMPLING_RATE,
		FrameDurationMS:      c.cfg.FrameDurationMS,
		SilenceHold:          c.cfg.SilenceHoldDuration(),
		EnergyGate:           c.cfg.EnergyGate,
		EnergyThreshold:      c.cfg.EnergyThreshold,
		InactivityMultiplier: c.cfg.InactivityMultiplier,
		Debug:                c.cfg.VAD_DEBUG,
	}, det)

	utterances := make(chan segment.Utterance, 4)
	ls := &listenSession{src: src, done: make(chan struct{})}

	go proc.Run(src.Frames(), utterances)
	go func() {
		c.snk.Run(context.Background(), utterances)
		close(ls.done)
		c.sessionEnded(ls)
	}()

	c.listener = ls
	c.mode = ModeListening
	if c.cfg.LISTEN_DEBUG {
		fmt.Println("[listen] pipeline started")
	}
	return nil
}

// sessionEnded runs when a listen pipeline drains on its own, which only
// happens when the capture stream was severed (device loss) rather than
// stopped through the controller. The controller then drops back to
// Stopped so the mode reflects that nothing is being captured.
func (c *Controller) sessionEnded(ls *listenSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener != ls {
		return // ended through a controller stop, already accounted for
	}
	c.listener = nil
	c.mode = ModeStopped
	fmt.Println("[listen] capture stream ended; listening stopped")
	if c.cfg.Notification {
		notify.Notify("STT", "Listening stopped: audio device lost")
	}
}

// stopListeningLocked stops the source; the closed frame channel flushes
// the segmentation worker, which closes the utterance channel, which lets
// the sink worker return. The join is bounded so a hung upload cannot
// freeze the hotkey thread.
func (c *Controller) stopListeningLocked() {
	ls := c.listener
	c.listener = nil
	c.mode = ModeStopped
	if ls == nil {
		return
	}

	ls.src.Stop()
	select {
	case <-ls.done:
		if c.cfg.LISTEN_DEBUG {
			fmt.Println("[listen] pipeline drained")
		}
	case <-time.After(workerJoinTimeout):
		fmt.Printf("[listen] pipeline did not drain within %v\n", workerJoinTimeout)
	}
	if c.cfg.Notification {
		notify.Notify("STT", "Listening stopped")
	}
}

// RunRecordMode starts hotkeys and blocks, dispatching hotkey actions to
// the controller.
func RunRecordMode(cfg config.Config) error {
	ctrl, err := setup(cfg)
	if err != nil {
		return err
	}

	handler := func(id int) {
		switch id {
		case actionRecordToggle:
			ctrl.ToggleRecording()
		case actionPauseToggle:
			ctrl.TogglePause()
		case actionCancel:
			ctrl.Cancel()
		case actionListenToggle:
			ctrl.ToggleListening()
		}
	}

	bindings := []hotkey.Binding{
		{ID: actionRecordToggle, Spec: cfg.StartKey},
		{ID: actionPauseToggle, Spec: cfg.PauseKey},
		{ID: actionCancel, Spec: cfg.CancelKey},
		{ID: actionListenToggle, Spec: cfg.ListenKey},
	}
	if err := hotkey.Register(bindings, cfg.HotKeyHook, handler, cfg.HOTKEY_DEBUG); err != nil {
		return err
	}

	fmt.Println("[main] ready. Use hotkeys to record, listen, pause or cancel.")
	waitForInterrupt()
	ctrl.Stop()
	return nil
}

// RunListenMode starts hands-free segmentation immediately and runs until
// interrupted.
func RunListenMode(cfg config.Config) error {
	ctrl, err := setup(cfg)
	if err != nil {
		return err
	}

	ctrl.ToggleListening()
	if ctrl.Mode() != ModeListening {
		return fmt.Errorf("listen pipeline failed to start")
	}

	fmt.Println("[main] listening. Speak; utterances are transcribed and pasted. Ctrl+C to stop.")
	waitForInterrupt()
	ctrl.Stop()
	return nil
}

func setup(cfg config.Config) (*Controller, error) {
	tempDir := config.TempDir(&cfg)
	cleanupOldTempFiles(tempDir)

	httpClient := newHTTPClient(cfg)
	asrClient, err := asr.New(cfg, httpClient)
	if err != nil {
		return nil, err
	}
	snk := sink.New(cfg, asrClient, tempDir)
	return NewController(cfg, snk, defaultSourceFactory(cfg)), nil
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	fmt.Println("[main] shutting down")
}

// RunFileMode uploads an existing file and writes the result to a .txt file.
func RunFileMode(cfg config.Config, inputPath string, outputPath string) error {
	tempDir := config.TempDir(&cfg)
	cleanupOldTempFiles(tempDir)

	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("file '%s' stat failed: %w", inputPath, err)
	}

	httpClient := newHTTPClient(cfg)
	asrClient, err := asr.New(cfg, httpClient)
	if err != nil {
		return err
	}

	tempOut := tempOutputPath(tempDir, config.ContainerExt(cfg.CONTAINER))
	if err := ffmpeg.Convert(cfg, inputPath, tempOut, cfg.SAMPLING_RATE); err != nil {
		_ = os.Remove(tempOut)
		return err
	}

	text, raw, err := asrClient.Transcribe(context.Background(), tempOut)
	uploadOk := err == nil
	if err != nil {
		if cfg.Notification {
			notify.Notify("STT", "Upload failed")
		}
		sink.CacheArtifacts(cfg, "", tempOut, uploadOk, raw)
		return err
	}

	outPath := outputPath
	if outPath == "" {
		base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
		outPath = filepath.Join(".", base+".txt")
	}

	if err := os.WriteFile(outPath, []byte(text), 0644); err != nil {
		sink.CacheArtifacts(cfg, "", tempOut, uploadOk, raw)
		return err
	}

	sink.CacheArtifacts(cfg, "", tempOut, uploadOk, raw)
	return nil
}

func newHTTPClient(cfg config.Config) *http.Client {
	tr := &http.Transport{
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if !cfg.VerifySSL {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if cfg.EnableHTTP2 {
		_ = http2.ConfigureTransport(tr)
	}
	return &http.Client{
		Transport: tr,
		Timeout:   time.Duration(cfg.RequestTimeout) * time.Second,
	}
}

func cleanupOldTempFiles(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Printf("[cleanup] read dir '%s' failed: %v\n", dir, err)
		return
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "RecordTemp_") {
			path := filepath.Join(dir, name)
			if err := os.Remove(path); err != nil {
				fmt.Printf("[cleanup] failed remove %s: %v\n", path, err)
			} else {
				fmt.Printf("[cleanup] removed %s\n", path)
			}
		}
	}
}

func tempOutputPath(dir, ext string) string {
	return filepath.Join(tempDirOrCwd(dir), fmt.Sprintf("RecordTemp_%s.%s", randomID(), ext))
}

func tempDirOrCwd(dir string) string {
	if dir != "" {
		return dir
	}
	cwd, _ := os.Getwd()
	return cwd
}

func randomID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
}
