package sink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"

	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/asr"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/audio/ffmpeg"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/clipboard"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/config"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/notify"
	"github.com/allrounder02/Voice-to-text-Lemonfox-whisper-application/internal/segment"
)

// Transcriber turns an audio file into text. *asr.Client satisfies it.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, []byte, error)
}

// Sink consumes completed utterances: each one is serialized to a mono
// 16-bit PCM WAV, optionally converted to the configured container,
// uploaded for transcription and the returned text injected into the
// active application. A failed utterance is logged and dropped; the sink
// keeps accepting the next one.
type Sink struct {
	cfg     config.Config
	asr     Transcriber
	tempDir string

	// inject and convert are swappable for tests.
	inject  func(text string) error
	convert func(cfg config.Config, inPath, outPath string, rate int) error
}

// New creates a Sink writing temp files under tempDir.
func New(cfg config.Config, t Transcriber, tempDir string) *Sink {
	return &Sink{
		cfg:     cfg,
		asr:     t,
		tempDir: tempDir,
		inject:  clipboard.PasteText,
		convert: ffmpeg.Convert,
	}
}

// SetInjector replaces the text injection step. The default pastes into
// the active application via the clipboard.
func (s *Sink) SetInjector(fn func(text string) error) {
	s.inject = fn
}

// Run drains the utterance channel until it closes. Runs on its own
// worker so transcription latency never stalls segmentation.
func (s *Sink) Run(ctx context.Context, utterances <-chan segment.Utterance) {
	for u := range utterances {
		s.Process(ctx, u)
	}
}

// Process handles one utterance end to end. Errors are contained here:
// nothing an utterance does can stop the pipeline.
func (s *Sink) Process(ctx context.Context, u segment.Utterance) {
	if len(u.Frames) == 0 {
		return
	}
	if s.cfg.LISTEN_DEBUG {
		fmt.Printf("[sink] utterance: %d frames, %v\n", len(u.Frames), u.Duration())
	}

	wavPath := s.tempPath("wav")
	if err := EncodeWAV(wavPath, u.Samples(), u.SampleRate); err != nil {
		fmt.Printf("[sink] wav write failed: %v\n", err)
		_ = os.Remove(wavPath)
		return
	}

	upPath := wavPath
	converted := false
	if ext := config.ContainerExt(s.cfg.CONTAINER); ext != "wav" {
		outPath := strings.TrimSuffix(wavPath, ".wav") + "." + ext
		if err := s.convert(s.cfg, wavPath, outPath, u.SampleRate); err != nil {
			fmt.Printf("[ffmpeg] failed: %v\n", err)
			_ = os.Remove(wavPath)
			_ = os.Remove(outPath)
			return
		}
		upPath = outPath
		converted = true
	}

	text, raw, err := s.asr.Transcribe(ctx, upPath)
	uploadOk := err == nil
	switch {
	case err != nil:
		fmt.Printf("[upload] failed: %v\n", err)
		if s.cfg.Notification {
			notify.Notify("STT", "Upload failed")
		}
		if s.cfg.RequestFailedNotification {
			var re *asr.RetryExhaustedError
			if errors.As(err, &re) {
				if err := s.inject("[request failed]"); err != nil {
					fmt.Printf("[paste] failed: %v\n", err)
				}
			}
		}
	case text == "":
		fmt.Println("[upload] empty result")
		if s.cfg.Notification {
			notify.Notify("STT", "Empty result from ASR")
		}
	default:
		if err := s.inject(text); err != nil {
			fmt.Printf("[paste] failed: %v\n", err)
			if s.cfg.Notification {
				notify.Notify("STT", "Paste failed")
			}
		} else if s.cfg.Notification {
			notify.Notify("STT", "Paste success")
		}
	}

	if converted {
		s.finish(wavPath, upPath, uploadOk, raw)
	} else {
		s.finish("", upPath, uploadOk, raw)
	}
}

func (s *Sink) finish(wavPath, outPath string, uploadOk bool, resBody []byte) {
	CacheArtifacts(s.cfg, wavPath, outPath, uploadOk, resBody)
}

// CacheArtifacts moves recording artifacts into the cache dir, or removes
// them when caching is off. The response body is written next to the
// audio as a .json file when the upload succeeded.
func CacheArtifacts(cfg config.Config, wavPath, outPath string, uploadOk bool, resBody []byte) {
	if cfg.KeepCache && cfg.CacheDir != "" {
		timestamp := time.Now().Format("2006-01-02-15.04.05")
		base := fmt.Sprintf("audio-%s", timestamp)

		if wavPath != "" {
			newWav := filepath.Join(cfg.CacheDir, base+filepath.Ext(wavPath))
			if err := os.Rename(wavPath, newWav); err != nil {
				fmt.Printf("[cache] failed to move wav to %s: %v\n", newWav, err)
				_ = os.Remove(wavPath)
			}
		}
		if outPath != "" {
			newOut := filepath.Join(cfg.CacheDir, base+filepath.Ext(outPath))
			if err := os.Rename(outPath, newOut); err != nil {
				fmt.Printf("[cache] failed to move output to %s: %v\n", newOut, err)
				_ = os.Remove(outPath)
			}
		}
		if uploadOk && len(resBody) > 0 {
			jsonPath := filepath.Join(cfg.CacheDir, base+".json")
			if err := os.WriteFile(jsonPath, resBody, 0644); err != nil {
				fmt.Printf("[cache] failed to write json to %s: %v\n", jsonPath, err)
			}
		}
		return
	}

	if wavPath != "" {
		_ = os.Remove(wavPath)
	}
	if outPath != "" {
		_ = os.Remove(outPath)
	}
}

func (s *Sink) tempPath(ext string) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]
	dir := s.tempDir
	if dir == "" {
		cwd, _ := os.Getwd()
		dir = cwd
	}
	return filepath.Join(dir, fmt.Sprintf("RecordTemp_%s.%s", id, ext))
}

// EncodeWAV writes samples as a mono 16-bit little-endian PCM WAV file.
func EncodeWAV(path string, samples []int16, rate int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav failed: %w", err)
	}

	enc := wav.NewEncoder(file, rate, 16, 1, 1)
	intBuf := make([]int, len(samples))
	for i, v := range samples {
		intBuf[i] = int(v)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: rate},
		Data:           intBuf,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		_ = file.Close()
		return fmt.Errorf("wav write failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = file.Close()
		return fmt.Errorf("wav close failed: %w", err)
	}
	return file.Close()
}
