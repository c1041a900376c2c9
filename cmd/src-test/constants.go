package main

// Exit codes
const (
	exitSuccess = 0
	exitFailure = 1
)

// CLI defaults and argument positions
const (
	defaultFrameMs = 20
	maxFrameMs     = 1000
	requiredArgs   = 4

	argInput    = 0
	argSelector = 1
	argRate     = 2
	argOutput   = 3
)

// Log formats
const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// Batch placeholders
const (
	resamplerPlaceholder = "{resampler}"
)
