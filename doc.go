// Package srctest is a harness for comparing sample-rate converters.
//
// It puts several resampling engines behind one streaming contract,
// Resampler, so a single conversion loop can drive any of them and measure
// the delay each one introduces.
//
// # Engines
//
// Two families are available, chosen with a selector string:
//
//   - "speex-N" selects the speexdsp resampler with quality N from 0 to 10.
//     It requires libspeexdsp and the speexdsp build tag.
//   - "soxr-qq", "soxr-lq", "soxr-mq", "soxr-hq" and "soxr-vhq" select a
//     quality recipe of the pure Go soxr-style engine. Any other "soxr-"
//     suffix selects the quick recipe.
//
// Both families work on interleaved int16 (16-bit PCM) or float32 buffers.
//
// # Usage
//
//	cfg := srctest.Config{
//	    InputRate:  44100,
//	    OutputRate: 48000,
//	    Channels:   2,
//	    Format:     srctest.FormatFloat32,
//	}
//	rs, err := srctest.New[float32]("soxr-hq", cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rs.Close()
//
//	consumed, produced, err := rs.Process(in, out)
//	...
//	// Drain buffered output after the last input.
//	for {
//	    _, produced, err := rs.Process(nil, out)
//	    if err != nil || produced == 0 {
//	        break
//	    }
//	    ...
//	}
//
// Counts passed to and returned from Process are in frames. The streaming
// loop that stages input, measures the delay and drains the engine lives in
// internal/pipeline, and the src-test command wires it to WAV files.
//
// # Errors
//
// Every error wraps one of ErrConfig, ErrEngineInit, ErrOpen,
// ErrReadShortfall, ErrWriteShortfall or ErrProcess and can be tested with
// errors.Is.
package srctest
