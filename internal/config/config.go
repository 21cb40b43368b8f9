package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds configurable parameters.
type Config struct {
	APIEndpoint               string  `json:"API_ENDPOINT"`
	Token                     string  `json:"TOKEN"`
	Model                     string  `json:"MODEL"`
	Language                  string  `json:"LANGUAGE"`
	Prompt                    string  `json:"PROMPT"`
	TEXTPath                  string  `json:"TEXT_PATH"`
	ExtraConfig               string  `json:"ExtraConfig"`
	Channels                  int     `json:"CHANNELS"`
	SAMPLING_RATE             int     `json:"SAMPLING_RATE"`
	SAMPLING_RATE_DEPTH       int     `json:"SAMPLING_RATE_DEPTH"`
	BIT_RATE                  int     `json:"BIT_RATE"`
	CODECS                    string  `json:"CODECS"`
	CONTAINER                 string  `json:"CONTAINER"`
	FrameDurationMS           int     `json:"FRAME_DURATION_MS"`
	VADAggressiveness         int     `json:"VAD_AGGRESSIVENESS"`
	SilenceHold               float64 `json:"SILENCE_HOLD"`
	EnergyGate                bool    `json:"ENERGY_GATE"`
	EnergyThreshold           float64 `json:"ENERGY_THRESHOLD"`
	InactivityMultiplier      float64 `json:"INACTIVITY_MULTIPLIER"`
	QueueSeconds              float64 `json:"QUEUE_SECONDS"`
	RequestTimeout            int     `json:"REQUEST_TIMEOUT"`
	MaxRetry                  int     `json:"MAX_RETRY"`
	RetryBaseDelay            float64 `json:"RETRY_BASE_DELAY"`
	EnableHTTP2               bool    `json:"ENABLE_HTTP2"`
	VerifySSL                 bool    `json:"VERIFY_SSL"`
	HotKeyHook                bool    `json:"HOTKEY_HOOK"`
	StartKey                  string  `json:"START_KEY"`
	ListenKey                 string  `json:"LISTEN_KEY"`
	PauseKey                  string  `json:"PAUSE_KEY"`
	CancelKey                 string  `json:"CANCEL_KEY"`
	CacheDir                  string  `json:"CACHE_DIR"`
	KeepCache                 bool    `json:"KEEP_CACHE"`
	Notification              bool    `json:"NOTIFICATION"`
	RequestFailedNotification bool    `json:"REQUEST_FAILED_NOTIFICATION"`
	FFMPEG_DEBUG              bool    `json:"FFMPEG_DEBUG"`
	RECORD_DEBUG              bool    `json:"RECORD_DEBUG"`
	LISTEN_DEBUG              bool    `json:"LISTEN_DEBUG"`
	VAD_DEBUG                 bool    `json:"VAD_DEBUG"`
	HOTKEY_DEBUG              bool    `json:"HOTKEY_DEBUG"`
	UPLOAD_DEBUG              bool    `json:"UPLOAD_DEBUG"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		TEXTPath:             "text",
		Channels:             1,
		SAMPLING_RATE:        16000,
		SAMPLING_RATE_DEPTH:  16,
		BIT_RATE:             128,
		CODECS:               "opus",
		CONTAINER:            "ogg",
		FrameDurationMS:      30,
		VADAggressiveness:    3,
		SilenceHold:          1.0,
		EnergyGate:           true,
		EnergyThreshold:      0.01,
		InactivityMultiplier: 2.0,
		QueueSeconds:         2.0,
		RequestTimeout:       30,
		MaxRetry:             3,
		RetryBaseDelay:       0.5,
		EnableHTTP2:          true,
		VerifySSL:            true,
		StartKey:             "alt+q",
		ListenKey:            "alt+l",
		PauseKey:             "alt+s",
		CancelKey:            "esc",
		HOTKEY_DEBUG:         true,
	}
}

// FrameSamples returns the number of samples in one VAD frame.
func (c *Config) FrameSamples() int {
	return c.SAMPLING_RATE * c.FrameDurationMS / 1000
}

// QueueFrames returns the frame channel capacity derived from QueueSeconds.
func (c *Config) QueueFrames() int {
	n := int(c.QueueSeconds * 1000 / float64(c.FrameDurationMS))
	if n < 1 {
		n = 1
	}
	return n
}

// SilenceHoldDuration returns SilenceHold as a time.Duration.
func (c *Config) SilenceHoldDuration() time.Duration {
	return time.Duration(c.SilenceHold * float64(time.Second))
}

// Load loads config from JSON file if provided.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SaveDefault writes a default config JSON to the provided path.
func SaveDefault(path string) error {
	cfg := DefaultConfig()
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// LoadEnv fills credentials from a .env file or the environment when the
// config leaves them empty. A missing .env file is not an error.
func LoadEnv(cfg *Config) {
	_ = godotenv.Load()
	if cfg.Token == "" {
		cfg.Token = os.Getenv("LEMONFOX_API_KEY")
	}
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = os.Getenv("LEMONFOX_API_ENDPOINT")
	}
	if cfg.Language == "" {
		cfg.Language = os.Getenv("LEMONFOX_DEFAULT_LANGUAGE")
	}
}

// vadRates are the sample rates the speech detector supports.
var vadRates = map[int]bool{8000: true, 16000: true, 32000: true, 48000: true}

// Validate verifies config fields and returns an error if any value is invalid.
// Classifier preconditions (sample rate, frame duration) are checked here so
// that an unsupported combination fails at startup, not per frame.
func Validate(cfg *Config) error {
	if cfg.Channels < 1 || cfg.Channels > 8 {
		return fmt.Errorf("invalid CHANNELS: %d (allowed 1..8)", cfg.Channels)
	}
	if !vadRates[cfg.SAMPLING_RATE] {
		return fmt.Errorf("invalid SAMPLING_RATE: %d (allowed: 8000, 16000, 32000, 48000)", cfg.SAMPLING_RATE)
	}
	switch cfg.FrameDurationMS {
	case 10, 20, 30:
	default:
		return fmt.Errorf("invalid FRAME_DURATION_MS: %d (allowed: 10, 20, 30)", cfg.FrameDurationMS)
	}
	if cfg.VADAggressiveness < 0 || cfg.VADAggressiveness > 3 {
		return fmt.Errorf("invalid VAD_AGGRESSIVENESS: %d (allowed 0..3)", cfg.VADAggressiveness)
	}
	if cfg.SilenceHold <= 0 {
		return fmt.Errorf("invalid SILENCE_HOLD: %v (must be > 0)", cfg.SilenceHold)
	}
	if cfg.EnergyThreshold < 0 || cfg.EnergyThreshold >= 1 {
		return fmt.Errorf("invalid ENERGY_THRESHOLD: %v (allowed 0 <= t < 1)", cfg.EnergyThreshold)
	}
	if cfg.InactivityMultiplier < 1 {
		return fmt.Errorf("invalid INACTIVITY_MULTIPLIER: %v (must be >= 1)", cfg.InactivityMultiplier)
	}
	if cfg.QueueSeconds <= 0 {
		return fmt.Errorf("invalid QUEUE_SECONDS: %v (must be > 0)", cfg.QueueSeconds)
	}
	allowedDepth := map[int]bool{8: true, 16: true, 24: true, 32: true}
	if !allowedDepth[cfg.SAMPLING_RATE_DEPTH] {
		return fmt.Errorf("invalid SAMPLING_RATE_DEPTH: %d (allowed: 8,16,24,32)", cfg.SAMPLING_RATE_DEPTH)
	}
	if cfg.BIT_RATE <= 0 {
		return fmt.Errorf("invalid BIT_RATE: %d (must be > 0)", cfg.BIT_RATE)
	}
	if !allowedCodecs[strings.ToLower(cfg.CODECS)] {
		return fmt.Errorf("invalid CODECS: %s", cfg.CODECS)
	}
	if !allowedContainers[strings.ToLower(cfg.CONTAINER)] {
		return fmt.Errorf("invalid CONTAINER: %s", cfg.CONTAINER)
	}
	return nil
}

var allowedCodecs = map[string]bool{
	"opus": true, "libopus": true, "wavpack": true, "aac": true,
	"ac3": true, "eac3": true, "mp3": true, "mp2": true, "mp1": true,
	"flac": true, "alac": true, "pcm": true, "vorbis": true,
	"libvorbis": true, "vorb": true, "adpcm": true, "amr": true,
	"pcm_f32be": true, "pcm_f32le": true, "pcm_f64be": true,
	"pcm_f64le": true, "pcm_s16be": true, "pcm_s16le": true,
	"pcm_s24be": true, "pcm_s24le": true, "pcm_s32be": true,
	"pcm_s32le": true, "pcm_s64be": true, "pcm_s64le": true,
	"pcm_s8": true,
}

var allowedContainers = map[string]bool{
	"wav": true, "ac3": true, "ac4": true, "ogg": true, "oga": true,
	"mp3": true, "flac": true, "eac3": true, "aac": true, "m4a": true,
	"mp4": true, "opus": true, "webm": true, "s8": true,
	"s16be": true, "s16le": true, "s24be": true, "s24le": true,
	"s32be": true, "s32le": true, "f32be": true, "f32le": true,
	"f64be": true, "f64le": true,
}

// InitCacheDir validates/creates the configured cache directory.
// It mutates cfg.CacheDir to an absolute path or clears it on failure.
func InitCacheDir(cfg *Config) {
	if cfg.CacheDir == "" {
		return
	}
	abs, err := filepath.Abs(cfg.CacheDir)
	if err != nil {
		fmt.Printf("[main] cache-dir path invalid '%s': %v. Falling back to cwd.\n", cfg.CacheDir, err)
		cfg.CacheDir = ""
		return
	}
	info, err := os.Stat(abs)
	if err == nil {
		if !info.IsDir() {
			fmt.Printf("[main] cache-dir '%s' exists but is not a directory. Falling back to cwd.\n", abs)
			cfg.CacheDir = ""
			return
		}
		cfg.CacheDir = abs
		return
	}
	if os.IsNotExist(err) {
		if err := os.MkdirAll(abs, 0755); err != nil {
			fmt.Printf("[main] cannot create cache-dir '%s': %v. Falling back to cwd.\n", abs, err)
			cfg.CacheDir = ""
			return
		}
		cfg.CacheDir = abs
		fmt.Printf("[main] created cache-dir: %s\n", cfg.CacheDir)
		return
	}
	fmt.Printf("[main] cannot access cache-dir '%s': %v. Falling back to cwd.\n", abs, err)
	cfg.CacheDir = ""
}

// TempDir returns the directory to use for temporary files.
func TempDir(cfg *Config) string {
	if cfg.CacheDir != "" {
		return cfg.CacheDir
	}
	cwd, _ := os.Getwd()
	return cwd
}

// ContainerExt maps container names to file extensions (lowercase).
func ContainerExt(container string) string {
	c := strings.ToLower(container)
	if c == "" {
		return "ogg"
	}
	return c
}
