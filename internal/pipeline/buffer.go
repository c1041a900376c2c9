package pipeline

// Window is the input staging buffer of the conversion loop. New frames are
// appended at the tail and consumed frames are removed from the front by
// shifting the remainder down, so the staged frames are always contiguous
// and start at index 0.
type Window[S any] struct {
	data     []S
	channels int
	frames   int // staged frames
}

// NewWindow creates a window holding up to capacity frames of channels
// interleaved samples.
func NewWindow[S any](capacity, channels int) *Window[S] {
	if capacity < 1 {
		capacity = 1
	}
	if channels < 1 {
		channels = 1
	}

	return &Window[S]{
		data:     make([]S, capacity*channels),
		channels: channels,
	}
}

// Capacity returns the window size in frames.
func (w *Window[S]) Capacity() int {
	return len(w.data) / w.channels
}

// Frames returns the number of staged frames.
func (w *Window[S]) Frames() int {
	return w.frames
}

// Space returns the number of frames that can still be appended.
func (w *Window[S]) Space() int {
	return w.Capacity() - w.frames
}

// Staged returns the staged frames. The slice aliases the window.
func (w *Window[S]) Staged() []S {
	return w.data[:w.frames*w.channels]
}

// Tail returns room for n more frames after the staged ones. n is clamped
// to Space. The slice aliases the window; call Commit after filling it.
func (w *Window[S]) Tail(n int) []S {
	n = min(max(n, 0), w.Space())
	start := w.frames * w.channels
	return w.data[start : start+n*w.channels]
}

// Commit marks n frames written through Tail as staged.
func (w *Window[S]) Commit(n int) {
	w.frames = min(w.frames+max(n, 0), w.Capacity())
}

// Consume removes n frames from the front and moves the rest to index 0.
func (w *Window[S]) Consume(n int) {
	n = min(max(n, 0), w.frames)
	if n == 0 {
		return
	}
	copy(w.data, w.data[n*w.channels:w.frames*w.channels])
	w.frames -= n
}
