package srctest

import "errors"

// Errors returned by the harness. Callers wrap them with fmt.Errorf("%w: ...")
// to attach context and test for them with errors.Is.
var (
	// ErrConfig indicates invalid arguments, an unsupported format or channel
	// combination, or an unrecognized resampler selector.
	ErrConfig = errors.New("invalid configuration")

	// ErrEngineInit indicates the resampling engine rejected its parameters,
	// failed to allocate, or is not available in this build.
	ErrEngineInit = errors.New("failed to create resampler")

	// ErrOpen indicates a source or sink file could not be opened.
	ErrOpen = errors.New("failed to open file")

	// ErrReadShortfall indicates the source returned fewer frames than requested.
	ErrReadShortfall = errors.New("failed to read samples from the input file")

	// ErrWriteShortfall indicates the sink accepted fewer frames than offered.
	ErrWriteShortfall = errors.New("failed to write samples to the output file")

	// ErrProcess indicates the engine reported an error while processing.
	ErrProcess = errors.New("resampler processing failed")
)
