package analysis

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

var (
	ErrTooShort      = errors.New("analysis: series too short")
	ErrNoOscillation = errors.New("analysis: series does not oscillate")
)

const minSamples = 4

// PowerSpectrum returns the magnitude of bins 0..n/2 of the series with its
// mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin of
// a series sampled every interval seconds.
func DominantFrequency(data []float64, interval float64) (float64, error) {
	if len(data) < minSamples {
		return 0, fmt.Errorf("%w: %d samples", ErrTooShort, len(data))
	}
	if !(interval > 0) {
		return 0, fmt.Errorf("analysis: sample interval must be positive, got %g", interval)
	}

	ps := PowerSpectrum(data)
	best, peak := 0, 0.0
	for i := 1; i < len(ps); i++ {
		if ps[i] > peak {
			best, peak = i, ps[i]
		}
	}
	if peak < 1e-12 {
		return 0, ErrNoOscillation
	}

	return float64(best) / (float64(len(data)) * interval), nil
}

// SettleTime returns the earliest time after which every sample stays within
// tol of the last sample.
func SettleTime(times, data []float64, tol float64) float64 {
	if len(data) == 0 || len(times) != len(data) {
		return math.NaN()
	}

	final := data[len(data)-1]
	settled := times[len(times)-1]
	for i := len(data) - 1; i >= 0; i-- {
		if math.Abs(data[i]-final) > tol {
			break
		}
		settled = times[i]
	}
	return settled
}

type Summary struct {
	Samples    int
	Final      float64
	Amplitude  float64
	Frequency  float64
	SettleTime float64
}

// Summarize analyzes a uniformly sampled series. Amplitude is half the
// peak-to-peak range over the second half of the series.
func Summarize(times, data []float64, tol float64) (Summary, error) {
	if len(data) < minSamples || len(times) != len(data) {
		return Summary{}, fmt.Errorf("%w: %d samples", ErrTooShort, len(data))
	}

	s := Summary{
		Samples:    len(data),
		Final:      data[len(data)-1],
		SettleTime: SettleTime(times, data, tol),
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data[len(data)/2:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	s.Amplitude = (hi - lo) / 2

	interval := (times[len(times)-1] - times[0]) / float64(len(times)-1)
	freq, err := DominantFrequency(data, interval)
	if err != nil && !errors.Is(err, ErrNoOscillation) {
		return s, err
	}
	s.Frequency = freq
	return s, nil
}
