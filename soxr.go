package srctest

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/tphakala/src-test/internal/pcm"
)

// soxrResampler adapts the soxr-style engine, which takes planar float64
// input of any length and returns whatever output it has ready. One mono
// engine runs per channel. Output that does not fit the caller's buffer is
// queued per channel, and no new input is accepted while the queue already
// holds a full buffer.
type soxrResampler[S Sample] struct {
	engines []resampling.Resampler
	planes  [][]float64
	pending [][]float64
	scratch []float64
	flushed bool
}

// recipePreset maps a soxr recipe onto the engine's quality presets.
func recipePreset(r Recipe) resampling.QualityPreset {
	switch r {
	case RecipeLQ:
		return resampling.QualityLow
	case RecipeMQ:
		return resampling.QualityMedium
	case RecipeHQ:
		return resampling.QualityHigh
	case RecipeVHQ:
		return resampling.QualityVeryHigh
	default:
		return resampling.QualityQuick
	}
}

func newSoxrResampler[S Sample](cfg Config, recipe Recipe) (Resampler[S], error) {
	r := &soxrResampler[S]{
		engines: make([]resampling.Resampler, cfg.Channels),
		planes:  make([][]float64, cfg.Channels),
		pending: make([][]float64, cfg.Channels),
	}

	for ch := range cfg.Channels {
		engine, err := resampling.New(&resampling.Config{
			InputRate:  float64(cfg.InputRate),
			OutputRate: float64(cfg.OutputRate),
			Channels:   monoChannels,
			Quality:    resampling.QualitySpec{Preset: recipePreset(recipe)},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: soxr channel %d: %w", ErrEngineInit, ch, err)
		}
		r.engines[ch] = engine
	}

	return r, nil
}

// Process implements Resampler.
func (r *soxrResampler[S]) Process(in, out []S) (consumed, produced int, err error) {
	if r.engines == nil {
		return 0, 0, fmt.Errorf("%w: soxr: resampler is closed", ErrProcess)
	}

	capacity := len(out) / len(r.engines)

	switch {
	case len(in) == 0:
		if !r.flushed {
			if err := r.flush(); err != nil {
				return 0, 0, err
			}
		}
	case r.queued() < capacity:
		consumed, err = r.push(in)
		if err != nil {
			return 0, 0, err
		}
	}

	produced = min(r.queued(), capacity)
	if produced > 0 {
		r.scratch = pcm.Interleave(out, r.pending, produced, r.scratch)
		r.pop(produced)
	}

	return consumed, produced, nil
}

// push feeds every whole frame of in to the engines and queues the output.
func (r *soxrResampler[S]) push(in []S) (int, error) {
	frames := len(in) / len(r.engines)
	for ch := range r.planes {
		if cap(r.planes[ch]) < frames {
			r.planes[ch] = make([]float64, frames)
		}
		r.planes[ch] = r.planes[ch][:frames]
	}

	pcm.Deinterleave(r.planes, in[:frames*len(r.engines)])

	for ch, engine := range r.engines {
		resampled, err := engine.Process(r.planes[ch])
		if err != nil {
			return 0, fmt.Errorf("%w: soxr channel %d: %w", ErrProcess, ch, err)
		}
		r.pending[ch] = append(r.pending[ch], resampled...)
	}

	return frames, nil
}

// flush drains every engine once and pads the channels to equal length.
func (r *soxrResampler[S]) flush() error {
	longest := 0
	for ch, engine := range r.engines {
		tail, err := engine.Flush()
		if err != nil {
			return fmt.Errorf("%w: soxr channel %d flush: %w", ErrProcess, ch, err)
		}
		r.pending[ch] = append(r.pending[ch], tail...)
		longest = max(longest, len(r.pending[ch]))
	}

	for ch := range r.pending {
		if pad := longest - len(r.pending[ch]); pad > 0 {
			r.pending[ch] = append(r.pending[ch], make([]float64, pad)...)
		}
	}

	r.flushed = true
	return nil
}

// queued returns the number of whole frames ready on every channel.
func (r *soxrResampler[S]) queued() int {
	n := len(r.pending[0])
	for _, p := range r.pending[1:] {
		n = min(n, len(p))
	}
	return n
}

// pop drops n frames from the front of every channel queue.
func (r *soxrResampler[S]) pop(n int) {
	for ch, p := range r.pending {
		m := copy(p, p[n:])
		r.pending[ch] = p[:m]
	}
}

// Close implements Resampler.
func (r *soxrResampler[S]) Close() error {
	r.engines = nil
	r.planes = nil
	r.pending = nil
	r.scratch = nil
	return nil
}
