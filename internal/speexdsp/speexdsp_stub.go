//go:build !cgo || !speexdsp

package speexdsp

// Available reports whether the speexdsp binding was compiled in.
const Available = false

// State is a placeholder for builds without speexdsp.
type State struct{}

// New always fails with ErrUnavailable.
func New(_, _, _, _ int) (*State, error) {
	return nil, ErrUnavailable
}

// ProcessInt16 always fails with ErrUnavailable.
func (s *State) ProcessInt16(_, _ []int16) (consumed, produced int, err error) {
	return 0, 0, ErrUnavailable
}

// ProcessFloat32 always fails with ErrUnavailable.
func (s *State) ProcessFloat32(_, _ []float32) (consumed, produced int, err error) {
	return 0, 0, ErrUnavailable
}

// InputLatency returns 0.
func (s *State) InputLatency() int { return 0 }

// Close is a no-op.
func (s *State) Close() error { return nil }
