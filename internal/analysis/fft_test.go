package analysis

import (
	"errors"
	"math"
	"testing"
)

func sine(freq, dt float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 3 + math.Sin(2*math.Pi*freq*float64(i)*dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		freq float64
		dt   float64
		n    int
	}{
		{2, 0.01, 1000},
		{0.5, 1.0 / 60.0, 1200},
		{7, 0.01, 512},
	}

	for _, tt := range tests {
		f, err := DominantFrequency(sine(tt.freq, tt.dt, tt.n), tt.dt)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		resolution := 1 / (float64(tt.n) * tt.dt)
		if math.Abs(f-tt.freq) > resolution {
			t.Errorf("expected %.3f Hz, got %.3f Hz", tt.freq, f)
		}
	}
}

func TestSpectrumBins(t *testing.T) {
	bins, err := Spectrum(sine(2, 0.01, 100), 0.01)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(bins) != 50 {
		t.Errorf("expected 50 bins, got %d", len(bins))
	}
	if math.Abs(bins[1].Frequency-1) > 1e-12 {
		t.Errorf("expected 1 Hz spacing, got %f", bins[1].Frequency)
	}
}

func TestSpectrumErrors(t *testing.T) {
	if _, err := Spectrum([]float64{1, 2}, 0.01); !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
	if _, err := Spectrum(make([]float64, 16), 0); err == nil {
		t.Error("expected error for zero dt")
	}
}
