// Package pcm converts between interleaved integer or float sample buffers
// and the planar float64 representation the resampling engines work on.
package pcm

import (
	"math"

	"github.com/tphakala/simd/f64"
)

// Sample is the set of interleaved sample types a sound file is read into.
type Sample interface {
	int16 | float32
}

// Channel and scaling constants
const (
	monoChannels   = 1
	stereoChannels = 2

	// Int16Scale maps full-scale int16 onto [-1.0, 1.0).
	Int16Scale = 32768.0

	maxInt16 = math.MaxInt16
	minInt16 = math.MinInt16
)

// isInt16 reports whether S is int16.
func isInt16[S Sample]() bool {
	var zero S
	_, ok := any(zero).(int16)
	return ok
}

// Deinterleave splits interleaved samples into one float64 plane per
// channel and returns the number of frames written. int16 samples are
// normalized to [-1.0, 1.0). Each plane must hold len(in)/len(planes)
// values.
func Deinterleave[S Sample](planes [][]float64, in []S) int {
	channels := len(planes)
	if channels == 0 {
		return 0
	}
	frames := len(in) / channels

	// Fast paths for mono and stereo
	switch channels {
	case monoChannels:
		p := planes[0][:frames]
		for i := range frames {
			p[i] = float64(in[i])
		}
	case stereoChannels:
		l, r := planes[0][:frames], planes[1][:frames]
		for i := range frames {
			l[i] = float64(in[i*stereoChannels])
			r[i] = float64(in[i*stereoChannels+1])
		}
	default:
		for i := range frames {
			base := i * channels
			for ch := range channels {
				planes[ch][i] = float64(in[base+ch])
			}
		}
	}

	if isInt16[S]() {
		for ch := range channels {
			p := planes[ch][:frames]
			f64.Scale(p, p, 1/Int16Scale)
		}
	}

	return frames
}

// Interleave writes frames frames from planes into out, converting to S.
// int16 output is scaled, rounded and clamped. scratch is reused when large
// enough; the buffer actually used is returned for the next call.
func Interleave[S Sample](out []S, planes [][]float64, frames int, scratch []float64) []float64 {
	channels := len(planes)
	n := frames * channels
	if n == 0 {
		return scratch
	}
	if cap(scratch) < n {
		scratch = make([]float64, n)
	}
	buf := scratch[:n]

	switch channels {
	case monoChannels:
		copy(buf, planes[0][:frames])
	case stereoChannels:
		f64.Interleave2(buf, planes[0][:frames], planes[1][:frames])
	default:
		for i := range frames {
			base := i * channels
			for ch := range channels {
				buf[base+ch] = planes[ch][i]
			}
		}
	}

	switch o := any(out).(type) {
	case []int16:
		f64.Scale(buf, buf, Int16Scale)
		for i, v := range buf {
			o[i] = ClampInt16(v)
		}
	case []float32:
		for i, v := range buf {
			o[i] = float32(v)
		}
	}

	return scratch
}

// ToFloat64 converts interleaved samples to float64 in dst, growing it if
// needed. int16 samples are normalized to [-1.0, 1.0).
func ToFloat64[S Sample](dst []float64, src []S) []float64 {
	if cap(dst) < len(src) {
		dst = make([]float64, len(src))
	}
	dst = dst[:len(src)]
	for i, v := range src {
		dst[i] = float64(v)
	}
	if isInt16[S]() && len(dst) > 0 {
		f64.Scale(dst, dst, 1/Int16Scale)
	}
	return dst
}

// ClampInt16 rounds v to the nearest integer and saturates it to the int16
// range.
func ClampInt16(v float64) int16 {
	r := math.Round(v)
	if r > maxInt16 {
		return maxInt16
	}
	if r < minInt16 {
		return minInt16
	}
	return int16(r)
}
