package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const minSamples = 4

var ErrTooShort = errors.New("analysis: too few samples")

// Bin is one frequency bin of a spectrum.
type Bin struct {
	Frequency float64
	Magnitude float64
}

// Spectrum returns the magnitude of the first N/2 bins of samples taken
// every dt seconds. The mean is removed and a Hann window applied first.
func Spectrum(samples []float64, dt float64) ([]Bin, error) {
	n := len(samples)
	if n < minSamples {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooShort, n, minSamples)
	}
	if !(dt > 0) {
		return nil, fmt.Errorf("analysis: dt must be positive, got %f", dt)
	}

	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)

	windowed := make([]float64, n)
	for i, v := range samples {
		window := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
		windowed[i] = (v - mean) * window
	}

	spectrum := fft.FFTReal(windowed)

	bins := make([]Bin, n/2)
	for k := range bins {
		bins[k] = Bin{
			Frequency: float64(k) / (float64(n) * dt),
			Magnitude: cmplx.Abs(spectrum[k]),
		}
	}
	return bins, nil
}

// DominantFrequency is the frequency of the strongest non-DC bin.
func DominantFrequency(samples []float64, dt float64) (float64, error) {
	bins, err := Spectrum(samples, dt)
	if err != nil {
		return 0, err
	}

	best := 1
	for k := 2; k < len(bins); k++ {
		if bins[k].Magnitude > bins[best].Magnitude {
			best = k
		}
	}
	return bins[best].Frequency, nil
}
