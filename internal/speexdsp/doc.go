// Package speexdsp binds the speexdsp polyphase resampler.
//
// The binding needs cgo and the speexdsp development package (found through
// pkg-config). It is compiled only with the speexdsp build tag:
//
//	go build -tags speexdsp ./...
//	go test -tags speexdsp ./...
//
// Tests that need the binding skip themselves in the default build.
//
// Without the tag, or with cgo disabled, New returns ErrUnavailable and
// Available is false.
package speexdsp

import "errors"

var (
	// ErrUnavailable is returned by New when the binding was not compiled in.
	ErrUnavailable = errors.New("speexdsp: not available in this build (rebuild with cgo and -tags speexdsp)")

	// ErrClosed is returned when processing on a destroyed state.
	ErrClosed = errors.New("speexdsp: resampler is closed")
)
