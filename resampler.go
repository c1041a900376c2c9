package srctest

import "github.com/tphakala/src-test/internal/pcm"

// Sample is the set of in-memory sample types a resampler operates on:
// int16 for 16-bit PCM files and float32 for floating point files.
type Sample = pcm.Sample

// Resampler is the uniform contract over every resampling engine.
//
// Process consumes interleaved frames from in and writes interleaved frames
// to out. Both counts are in frames (one sample per channel). consumed may
// be less than len(in)/channels when the output capacity is the limiting
// factor, and produced may be zero when too little input is buffered.
// A nil or empty in switches the engine to flush mode: it emits buffered
// output until it reports zero produced frames.
//
// Close releases the engine handle. It is safe to call more than once.
type Resampler[S Sample] interface {
	Process(in, out []S) (consumed, produced int, err error)
	Close() error
}

// LatencyReporter is implemented by resamplers that know their nominal
// filter latency in input frames.
type LatencyReporter interface {
	InputLatency() int
}
