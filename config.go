package srctest

import "fmt"

// SampleFormat identifies the encoding of one sample in a sound file.
type SampleFormat int

const (
	// FormatUnknown is any encoding the harness does not recognize.
	FormatUnknown SampleFormat = iota

	// FormatPCM16 is signed 16-bit integer PCM.
	FormatPCM16

	// FormatPCM24 is signed 24-bit integer PCM. Detected but not supported.
	FormatPCM24

	// FormatPCM32 is signed 32-bit integer PCM. Detected but not supported.
	FormatPCM32

	// FormatFloat32 is 32-bit IEEE floating point.
	FormatFloat32

	// FormatFloat64 is 64-bit IEEE floating point. Detected but not supported.
	FormatFloat64
)

// String returns the libsndfile-style subtype name.
func (f SampleFormat) String() string {
	switch f {
	case FormatPCM16:
		return "PCM_16"
	case FormatPCM24:
		return "PCM_24"
	case FormatPCM32:
		return "PCM_32"
	case FormatFloat32:
		return "FLOAT"
	case FormatFloat64:
		return "DOUBLE"
	default:
		return "UNKNOWN"
	}
}

// Supported reports whether the streaming loop can convert this format.
func (f SampleFormat) Supported() bool {
	return f == FormatPCM16 || f == FormatFloat32
}

// BitDepth returns the number of bits per sample, or 0 for FormatUnknown.
func (f SampleFormat) BitDepth() int {
	switch f {
	case FormatPCM16:
		return 16
	case FormatPCM24:
		return 24
	case FormatPCM32, FormatFloat32:
		return 32
	case FormatFloat64:
		return 64
	default:
		return 0
	}
}

// Config fixes the parameters of one resampler. It is built once from the
// input file and the command line and never changes after the resampler is
// created.
type Config struct {
	// InputRate is the sample rate of the source in Hz.
	InputRate int

	// OutputRate is the target sample rate in Hz.
	OutputRate int

	// Channels is the interleaved channel count, 1 or 2.
	Channels int

	// Format is the sample encoding shared by input and output.
	Format SampleFormat
}

// Validate checks the configuration and returns an ErrConfig-wrapped error
// describing the first problem found.
func (c Config) Validate() error {
	if err := c.validateStream(); err != nil {
		return err
	}

	if !c.Format.Supported() {
		return fmt.Errorf("%w: unsupported sample format %s", ErrConfig, c.Format)
	}

	return nil
}

// validateStream checks rates and channel count.
func (c Config) validateStream() error {
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive (got %d -> %d)", ErrConfig, c.InputRate, c.OutputRate)
	}

	if c.Channels != monoChannels && c.Channels != stereoChannels {
		return fmt.Errorf("%w: unsupported input channel count %d", ErrConfig, c.Channels)
	}

	return nil
}

// FormatOf returns the sample format carried by buffers of type S.
func FormatOf[S Sample]() SampleFormat {
	var zero S
	switch any(zero).(type) {
	case int16:
		return FormatPCM16
	case float32:
		return FormatFloat32
	default:
		return FormatUnknown
	}
}
