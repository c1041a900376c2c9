//go:build cgo && speexdsp

package speexdsp

/*
#cgo pkg-config: speexdsp

#include <stdint.h>
#include <speex/speex_resampler.h>
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

// Available reports whether the speexdsp binding was compiled in.
const Available = true

// State owns one SpeexResamplerState.
type State struct {
	st       *C.SpeexResamplerState
	channels int
}

// New creates a resampler for interleaved audio with the given channel
// count, rates in Hz and quality (0-10). Leading zeros the filter would
// otherwise emit are skipped.
func New(channels, inRate, outRate, quality int) (*State, error) {
	if channels < 1 {
		return nil, fmt.Errorf("speexdsp: invalid channel count %d", channels)
	}

	var code C.int
	st := C.speex_resampler_init(
		C.spx_uint32_t(channels),
		C.spx_uint32_t(inRate),
		C.spx_uint32_t(outRate),
		C.int(quality),
		&code,
	)
	if st == nil {
		return nil, strError(code)
	}

	C.speex_resampler_skip_zeros(st)

	return &State{st: st, channels: channels}, nil
}

// ProcessInt16 resamples interleaved int16 frames. A nil in drains the
// filter. Counts are in frames.
func (s *State) ProcessInt16(in, out []int16) (consumed, produced int, err error) {
	if s.st == nil {
		return 0, 0, ErrClosed
	}

	inLen := C.spx_uint32_t(len(in) / s.channels)
	outLen := C.spx_uint32_t(len(out) / s.channels)
	if outLen == 0 {
		return 0, 0, nil
	}

	var inPtr *C.spx_int16_t
	if inLen > 0 {
		inPtr = (*C.spx_int16_t)(unsafe.Pointer(&in[0]))
	}

	code := C.speex_resampler_process_interleaved_int(
		s.st,
		inPtr, &inLen,
		(*C.spx_int16_t)(unsafe.Pointer(&out[0])), &outLen,
	)
	if code != C.RESAMPLER_ERR_SUCCESS {
		return 0, 0, strError(code)
	}

	return int(inLen), int(outLen), nil
}

// ProcessFloat32 resamples interleaved float32 frames. A nil in drains the
// filter. Counts are in frames.
func (s *State) ProcessFloat32(in, out []float32) (consumed, produced int, err error) {
	if s.st == nil {
		return 0, 0, ErrClosed
	}

	inLen := C.spx_uint32_t(len(in) / s.channels)
	outLen := C.spx_uint32_t(len(out) / s.channels)
	if outLen == 0 {
		return 0, 0, nil
	}

	var inPtr *C.float
	if inLen > 0 {
		inPtr = (*C.float)(unsafe.Pointer(&in[0]))
	}

	code := C.speex_resampler_process_interleaved_float(
		s.st,
		inPtr, &inLen,
		(*C.float)(unsafe.Pointer(&out[0])), &outLen,
	)
	if code != C.RESAMPLER_ERR_SUCCESS {
		return 0, 0, strError(code)
	}

	return int(inLen), int(outLen), nil
}

// InputLatency returns the filter latency in input frames.
func (s *State) InputLatency() int {
	if s.st == nil {
		return 0
	}
	return int(C.speex_resampler_get_input_latency(s.st))
}

// Close destroys the resampler state.
func (s *State) Close() error {
	if s.st != nil {
		C.speex_resampler_destroy(s.st)
		s.st = nil
	}
	return nil
}

func strError(code C.int) error {
	msg := C.speex_resampler_strerror(code)
	if msg == nil {
		return fmt.Errorf("speexdsp: error %d", int(code))
	}
	return errors.New("speexdsp: " + C.GoString(msg))
}
