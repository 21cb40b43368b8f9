package vad

import (
	"encoding/binary"
	"fmt"

	"github.com/visvasity/webrtcvad"
)

// Detector classifies single frames of 16-bit mono PCM as speech or
// non-speech. It is a thin wrapper around the WebRTC VAD; aggressiveness
// ranges from 0 (most permissive) to 3 (most conservative).
type Detector struct {
	vad  *webrtcvad.VAD
	mode int
}

// New creates a Detector with the given aggressiveness (0..3).
func New(aggressiveness int) (*Detector, error) {
	if aggressiveness < 0 || aggressiveness > 3 {
		return nil, fmt.Errorf("aggressiveness %d out of range 0..3", aggressiveness)
	}
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("create webrtc vad: %w", err)
	}
	if err := v.SetMode(aggressiveness); err != nil {
		return nil, fmt.Errorf("set vad mode %d: %w", aggressiveness, err)
	}
	return &Detector{vad: v, mode: aggressiveness}, nil
}

// Mode returns the configured aggressiveness.
func (d *Detector) Mode() int {
	return d.mode
}

// IsSpeech reports whether the frame contains speech. The frame must be
// 10, 20 or 30 ms of samples at an 8/16/32/48 kHz rate; the caller (the
// frame source) is responsible for delivering exact-length frames.
func (d *Detector) IsSpeech(samples []int16, sampleRate int) (bool, error) {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	ok, err := d.vad.Process(sampleRate, buf)
	if err != nil {
		return false, fmt.Errorf("vad process (%d samples @ %d Hz): %w", len(samples), sampleRate, err)
	}
	return ok, nil
}

// ValidFrame reports whether the rate/duration pair is one the detector
// supports.
func ValidFrame(sampleRate, durationMS int) bool {
	switch sampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return false
	}
	switch durationMS {
	case 10, 20, 30:
		return true
	}
	return false
}

// Energy returns the mean absolute amplitude of the frame normalized to
// 0..1. Used only as the bootstrap gate on the first speech-onset
// decision, never while already inside an utterance.
func Energy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		if v < 0 {
			v = -v
		}
		sum += v
	}
	return sum / float64(len(samples)) / 32768.0
}
