package vad

import (
	"math"
	"testing"
)

func TestEnergy(t *testing.T) {
	if got := Energy(nil); got != 0 {
		t.Fatalf("Energy(nil) = %v, want 0", got)
	}
	if got := Energy(make([]int16, 480)); got != 0 {
		t.Fatalf("Energy(silence) = %v, want 0", got)
	}

	loud := make([]int16, 480)
	for i := range loud {
		loud[i] = 16384
		if i%2 == 1 {
			loud[i] = -16384
		}
	}
	if got := Energy(loud); math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("Energy(half scale) = %v, want 0.5", got)
	}

	faint := make([]int16, 480)
	for i := range faint {
		faint[i] = 30
	}
	if got := Energy(faint); got >= 0.01 {
		t.Fatalf("faint noise energy %v should stay below default threshold", got)
	}
}

func TestValidFrame(t *testing.T) {
	valid := [][2]int{{8000, 10}, {16000, 30}, {32000, 20}, {48000, 10}}
	for _, v := range valid {
		if !ValidFrame(v[0], v[1]) {
			t.Errorf("ValidFrame(%d, %d) = false, want true", v[0], v[1])
		}
	}
	invalid := [][2]int{{44100, 30}, {16000, 25}, {22050, 20}, {16000, 0}}
	for _, v := range invalid {
		if ValidFrame(v[0], v[1]) {
			t.Errorf("ValidFrame(%d, %d) = true, want false", v[0], v[1])
		}
	}
}

func TestNewRejectsOutOfRangeAggressiveness(t *testing.T) {
	if _, err := New(4); err == nil {
		t.Fatalf("expected error for aggressiveness 4")
	}
	if _, err := New(-1); err == nil {
		t.Fatalf("expected error for aggressiveness -1")
	}
}
