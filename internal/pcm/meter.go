package pcm

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Meter accumulates RMS and peak level over normalized float64 samples.
type Meter struct {
	sumSquares float64
	peak       float64
	count      int64
}

// Add folds samples into the running level.
func (m *Meter) Add(samples []float64) {
	if len(samples) == 0 {
		return
	}
	m.sumSquares += floats.Dot(samples, samples)
	peak := math.Max(math.Abs(floats.Max(samples)), math.Abs(floats.Min(samples)))
	if peak > m.peak {
		m.peak = peak
	}
	m.count += int64(len(samples))
}

// Count returns the number of samples measured.
func (m *Meter) Count() int64 { return m.count }

// RMS returns the root mean square level, 0 when nothing was measured.
func (m *Meter) RMS() float64 {
	if m.count == 0 {
		return 0
	}
	return math.Sqrt(m.sumSquares / float64(m.count))
}

// Peak returns the largest absolute sample value seen.
func (m *Meter) Peak() float64 { return m.peak }

// RMSdBFS returns the RMS level in dB relative to full scale.
func (m *Meter) RMSdBFS() float64 { return ToDBFS(m.RMS()) }

// PeakdBFS returns the peak level in dB relative to full scale.
func (m *Meter) PeakdBFS() float64 { return ToDBFS(m.peak) }

// ToDBFS converts a linear amplitude to dBFS. Silence is -Inf.
func ToDBFS(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
