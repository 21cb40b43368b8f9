package config

import (
	"flag"
	"testing"
)

func TestValidateDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(&cfg); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsUnsupportedVADCombos(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"rate 44100", func(c *Config) { c.SAMPLING_RATE = 44100 }},
		{"frame 25ms", func(c *Config) { c.FrameDurationMS = 25 }},
		{"aggressiveness 4", func(c *Config) { c.VADAggressiveness = 4 }},
		{"aggressiveness -1", func(c *Config) { c.VADAggressiveness = -1 }},
		{"zero silence hold", func(c *Config) { c.SilenceHold = 0 }},
		{"energy threshold 1", func(c *Config) { c.EnergyThreshold = 1 }},
		{"multiplier below 1", func(c *Config) { c.InactivityMultiplier = 0.5 }},
		{"zero queue", func(c *Config) { c.QueueSeconds = 0 }},
	}
	for _, tc := range cases {
		cfg := DefaultConfig()
		tc.mutate(&cfg)
		if err := Validate(&cfg); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}

func TestDerivedQuantities(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.FrameSamples(); got != 480 {
		t.Fatalf("FrameSamples = %d, want 480", got)
	}
	if got := cfg.QueueFrames(); got != 66 {
		t.Fatalf("QueueFrames = %d, want 66", got)
	}
}

func TestApplyFlagsOnlyOverridesSetValues(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fv := BindFlags(fs)
	if err := fs.Parse([]string{"-silence-hold", "0.9", "-energy-gate", "false"}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	cfg := DefaultConfig()
	ApplyFlags(&cfg, fv)

	if cfg.SilenceHold != 0.9 {
		t.Fatalf("SilenceHold = %v, want 0.9", cfg.SilenceHold)
	}
	if cfg.EnergyGate {
		t.Fatalf("EnergyGate should be overridden to false")
	}
	if cfg.VADAggressiveness != 3 {
		t.Fatalf("unset flag must not override default, got %d", cfg.VADAggressiveness)
	}
	if !fv.AnySet() {
		t.Fatalf("AnySet should report true")
	}
}
