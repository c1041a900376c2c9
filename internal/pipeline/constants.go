package pipeline

import (
	"math"
	"time"
)

// Chunk sizing
const (
	// DefaultFrameDuration is the wall-clock length of one processing chunk.
	DefaultFrameDuration = 20 * time.Millisecond

	// MaxFrameDuration bounds the chunk length.
	MaxFrameDuration = time.Second

	// maxRate keeps rate * MaxFrameDuration within int64 nanoseconds.
	maxRate = math.MaxInt64 / int64(MaxFrameDuration)

	msPerSecond = 1000
)

// Progress reporting
const (
	progressInterval = 10 // Log progress every N%
	percentScale     = 100
)
