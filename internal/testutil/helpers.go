// Package testutil provides signal generators, WAV fixtures and assertions
// shared by the resampler and conversion tests.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

// WAVE format tags written by the fixture helpers.
const (
	formatTagPCM   = 1
	formatTagFloat = 3
)

const int16Scale = 32768.0

// Sine returns frames of an interleaved sine wave at freq Hz with the given
// amplitude, identical on every channel.
func Sine(frames, channels, rate int, freq, amplitude float64) []float64 {
	out := make([]float64, frames*channels)
	for i := range frames {
		v := amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(rate))
		for ch := range channels {
			out[i*channels+ch] = v
		}
	}
	return out
}

// Int16s converts normalized samples to int16, rounding and saturating.
func Int16s(s []float64) []int16 {
	out := make([]int16, len(s))
	for i, v := range s {
		out[i] = int16(max(math.MinInt16, min(math.MaxInt16, math.Round(v*int16Scale))))
	}
	return out
}

// Float32s converts samples to float32.
func Float32s(s []float64) []float32 {
	out := make([]float32, len(s))
	for i, v := range s {
		out[i] = float32(v)
	}
	return out
}

// Float64s converts int16 or float32 samples to normalized float64.
func Float64s[S int16 | float32](s []S) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	var zero S
	if _, ok := any(zero).(int16); ok {
		for i := range out {
			out[i] /= int16Scale
		}
	}
	return out
}

// RMS returns the root mean square of s.
func RMS(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(s, s) / float64(len(s)))
}

// WriteWAV16 writes a 16-bit PCM WAV file into t's temp dir and returns its
// path.
func WriteWAV16(t *testing.T, name string, rate, channels int, samples []int16) string {
	t.Helper()
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v)
	}
	return writeWAV(t, name, rate, channels, 16, formatTagPCM, data)
}

// WriteWAVFloat32 writes a 32-bit IEEE float WAV file into t's temp dir and
// returns its path.
func WriteWAVFloat32(t *testing.T, name string, rate, channels int, samples []float32) string {
	t.Helper()
	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(int32(math.Float32bits(v)))
	}
	return writeWAV(t, name, rate, channels, 32, formatTagFloat, data)
}

// WriteWAV24 writes a 24-bit PCM WAV file of silence with the given frame
// count into t's temp dir and returns its path.
func WriteWAV24(t *testing.T, name string, rate, channels, frames int) string {
	t.Helper()
	return writeWAV(t, name, rate, channels, 24, formatTagPCM, make([]int, frames*channels))
}

func writeWAV(t *testing.T, name string, rate, channels, bitDepth, formatTag int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	f, err := os.Create(path)
	require.NoError(t, err)

	enc := wav.NewEncoder(f, rate, bitDepth, channels, formatTag)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	require.NoError(t, enc.Write(buf))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	return path
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertAllInRange verifies that all elements are within [min, max].
func AssertAllInRange(t *testing.T, s []float64, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v < minVal || v > maxVal {
			return assert.Fail(t, "value out of range",
				"s[%d]=%f is outside range [%f, %f]", i, v, minVal, maxVal)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}
