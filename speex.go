package srctest

import (
	"fmt"

	"github.com/tphakala/src-test/internal/speexdsp"
)

// speexResampler adapts the speexdsp engine. The same engine state serves
// both sample types; the buffer type selects the int or float entry point.
type speexResampler[S Sample] struct {
	state *speexdsp.State
}

// SpeexAvailable reports whether the speex family was compiled in.
func SpeexAvailable() bool {
	return speexdsp.Available
}

func newSpeexResampler[S Sample](cfg Config, quality int) (Resampler[S], error) {
	state, err := speexdsp.New(cfg.Channels, cfg.InputRate, cfg.OutputRate, quality)
	if err != nil {
		return nil, fmt.Errorf("%w: speex: %w", ErrEngineInit, err)
	}
	return &speexResampler[S]{state: state}, nil
}

// Process implements Resampler.
func (r *speexResampler[S]) Process(in, out []S) (consumed, produced int, err error) {
	switch o := any(out).(type) {
	case []int16:
		i, _ := any(in).([]int16)
		consumed, produced, err = r.state.ProcessInt16(i, o)
	case []float32:
		i, _ := any(in).([]float32)
		consumed, produced, err = r.state.ProcessFloat32(i, o)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("%w: speex: %w", ErrProcess, err)
	}
	return consumed, produced, nil
}

// InputLatency implements LatencyReporter.
func (r *speexResampler[S]) InputLatency() int {
	return r.state.InputLatency()
}

// Close implements Resampler.
func (r *speexResampler[S]) Close() error {
	return r.state.Close()
}
