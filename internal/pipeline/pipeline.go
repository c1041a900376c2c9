// Package pipeline implements the streaming conversion loop: it moves a
// source through a resampler into a sink in fixed-duration chunks, measures
// the resampler delay on the first output, and drains the resampler once the
// source is exhausted.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	srctest "github.com/tphakala/src-test"
)

// ErrStalled is returned when the processor neither consumes nor produces
// anything and no new input could be staged.
var ErrStalled = errors.New("resampler made no progress")

// Source supplies interleaved frames.
type Source[S srctest.Sample] interface {
	// ReadFrames fills dst with len(dst)/channels frames and returns the
	// number of frames read.
	ReadFrames(dst []S) (int, error)
}

// Sink accepts interleaved frames.
type Sink[S srctest.Sample] interface {
	// WriteFrames writes all frames in src and returns the number of frames
	// written.
	WriteFrames(src []S) (int, error)
}

// Processor is the resampler contract the loop depends on. A nil in
// requests buffered output only.
type Processor[S srctest.Sample] interface {
	Process(in, out []S) (consumed, produced int, err error)
}

// Delay is the resampler's input-to-output latency measured at its first
// output.
type Delay struct {
	// Frames is the delay in input-domain frames.
	Frames float64

	// Milliseconds is Frames expressed in time at the input rate.
	Milliseconds float64
}

// Config parameterizes one run.
type Config struct {
	InputRate  int
	OutputRate int
	Channels   int

	// TotalFrames is the number of frames the source declares.
	TotalFrames int64

	// FrameDuration is the chunk length. Zero means DefaultFrameDuration.
	FrameDuration time.Duration

	// OnDelay is called once, when the first output is produced.
	OnDelay func(Delay)

	// Logger receives progress at debug level. Nil uses the standard logger.
	Logger *logrus.Entry
}

// Stats describes a finished (or aborted) run.
type Stats struct {
	Consumed      int64
	Produced      int64
	Delay         Delay
	DelayReported bool

	// Chunks is the number of Process calls with input.
	Chunks int

	// DrainRounds is the number of flush calls that produced output.
	DrainRounds int
}

// ChunkFrames returns the number of frames covering d at rate, rounded up.
// rate * d must fit in int64 nanoseconds; Run checks this before calling it.
func ChunkFrames(rate int, d time.Duration) int {
	ns := int64(rate) * d.Nanoseconds()
	return int((ns + int64(time.Second) - 1) / int64(time.Second))
}

func (c *Config) validate() error {
	if c.InputRate <= 0 || c.OutputRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive", srctest.ErrConfig)
	}
	if c.Channels < 1 {
		return fmt.Errorf("%w: channel count must be at least 1", srctest.ErrConfig)
	}
	if c.TotalFrames < 0 {
		return fmt.Errorf("%w: negative frame count", srctest.ErrConfig)
	}
	if c.FrameDuration < 0 || c.FrameDuration > MaxFrameDuration {
		return fmt.Errorf("%w: frame duration %s outside 0..%s", srctest.ErrConfig, c.FrameDuration, MaxFrameDuration)
	}
	if int64(c.InputRate) > maxRate || int64(c.OutputRate) > maxRate {
		return fmt.Errorf("%w: sample rate too high", srctest.ErrConfig)
	}
	return nil
}

func (c *Config) frameDuration() time.Duration {
	if c.FrameDuration == 0 {
		return DefaultFrameDuration
	}
	return c.FrameDuration
}

func (c *Config) logger() *logrus.Entry {
	if c.Logger != nil {
		return c.Logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// converter holds the state of one run.
type converter[S srctest.Sample] struct {
	cfg      Config
	src      Source[S]
	dst      Sink[S]
	proc     Processor[S]
	window   *Window[S]
	out      []S
	stats    Stats
	log      *logrus.Entry
	progress *progressTracker
}

// Run converts cfg.TotalFrames frames from src through p into dst.
//
// Each iteration stages up to one input chunk behind any frames the
// processor left unconsumed, processes everything staged into one output
// chunk, compacts the staging window and writes the output. The first
// output of the run triggers the delay measurement. After the input is
// consumed the processor is drained until it produces nothing.
func Run[S srctest.Sample](src Source[S], dst Sink[S], p Processor[S], cfg Config) (Stats, error) {
	if err := cfg.validate(); err != nil {
		return Stats{}, err
	}

	d := cfg.frameDuration()
	inChunk := ChunkFrames(cfg.InputRate, d)
	outChunk := ChunkFrames(cfg.OutputRate, d)

	c := &converter[S]{
		cfg:      cfg,
		src:      src,
		dst:      dst,
		proc:     p,
		window:   NewWindow[S](inChunk, cfg.Channels),
		out:      make([]S, outChunk*cfg.Channels),
		log:      cfg.logger(),
		progress: newProgressTracker(cfg.TotalFrames),
	}

	c.log.WithFields(logrus.Fields{
		"input_chunk":  inChunk,
		"output_chunk": outChunk,
		"total_frames": cfg.TotalFrames,
	}).Debug("Starting conversion")

	if err := c.convert(); err != nil {
		return c.stats, err
	}
	if err := c.drain(); err != nil {
		return c.stats, err
	}

	c.log.WithFields(logrus.Fields{
		"consumed":     c.stats.Consumed,
		"produced":     c.stats.Produced,
		"chunks":       c.stats.Chunks,
		"drain_rounds": c.stats.DrainRounds,
	}).Debug("Conversion finished")

	return c.stats, nil
}

// convert runs fill, convert, compact and emit until all input is consumed.
func (c *converter[S]) convert() error {
	for c.stats.Consumed < c.cfg.TotalFrames {
		read, err := c.fill()
		if err != nil {
			return err
		}

		staged := c.window.Frames()
		consumed, produced, err := c.proc.Process(c.window.Staged(), c.out)
		if err != nil {
			return err
		}
		if err := c.checkCounts(consumed, staged, produced); err != nil {
			return err
		}

		c.window.Consume(consumed)
		c.stats.Consumed += int64(consumed)
		c.stats.Chunks++

		if produced > 0 {
			if err := c.emit(produced); err != nil {
				return err
			}
		} else if consumed == 0 && read == 0 {
			return fmt.Errorf("%w: %d frames staged, %d of %d consumed",
				ErrStalled, staged, c.stats.Consumed, c.cfg.TotalFrames)
		}

		if pct, ok := c.progress.update(c.stats.Consumed); ok {
			c.log.WithField("progress", pct).Debug("Conversion progress")
		}
	}
	return nil
}

// fill appends as many frames as fit and remain in the source.
func (c *converter[S]) fill() (int, error) {
	remaining := c.cfg.TotalFrames - c.stats.Consumed - int64(c.window.Frames())
	want := int(min(int64(c.window.Space()), remaining))
	if want <= 0 {
		return 0, nil
	}

	n, err := c.src.ReadFrames(c.window.Tail(want))
	if n != want {
		if err != nil {
			return 0, fmt.Errorf("%w: read %d of %d frames: %w", srctest.ErrReadShortfall, n, want, err)
		}
		return 0, fmt.Errorf("%w: read %d of %d frames", srctest.ErrReadShortfall, n, want)
	}
	c.window.Commit(n)
	return n, nil
}

// drain flushes the processor until it produces nothing.
func (c *converter[S]) drain() error {
	for {
		_, produced, err := c.proc.Process(nil, c.out)
		if err != nil {
			return err
		}
		if err := c.checkCounts(0, 0, produced); err != nil {
			return err
		}
		if produced == 0 {
			return nil
		}

		c.stats.DrainRounds++
		if err := c.emit(produced); err != nil {
			return err
		}
	}
}

// emit writes produced frames from the output buffer, measuring the delay
// on the first output of the run.
func (c *converter[S]) emit(produced int) error {
	if !c.stats.DelayReported {
		c.stats.Delay = c.measureDelay(produced)
		c.stats.DelayReported = true

		c.log.WithFields(logrus.Fields{
			"delay_frames": c.stats.Delay.Frames,
			"delay_ms":     c.stats.Delay.Milliseconds,
		}).Debug("First output produced")

		if c.cfg.OnDelay != nil {
			c.cfg.OnDelay(c.stats.Delay)
		}
	}

	c.stats.Produced += int64(produced)

	n, err := c.dst.WriteFrames(c.out[:produced*c.cfg.Channels])
	if n != produced {
		if err != nil {
			return fmt.Errorf("%w: wrote %d of %d frames: %w", srctest.ErrWriteShortfall, n, produced, err)
		}
		return fmt.Errorf("%w: wrote %d of %d frames", srctest.ErrWriteShortfall, n, produced)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", srctest.ErrWriteShortfall, err)
	}
	return nil
}

// measureDelay computes consumed - produced*inRate/outRate in input frames.
func (c *converter[S]) measureDelay(produced int) Delay {
	frames := float64(c.stats.Consumed) -
		float64(produced)*float64(c.cfg.InputRate)/float64(c.cfg.OutputRate)
	return Delay{
		Frames:       frames,
		Milliseconds: frames * msPerSecond / float64(c.cfg.InputRate),
	}
}

// checkCounts rejects processor results outside the buffers it was given.
func (c *converter[S]) checkCounts(consumed, staged, produced int) error {
	if consumed < 0 || consumed > staged {
		return fmt.Errorf("%w: consumed %d of %d staged frames", srctest.ErrProcess, consumed, staged)
	}
	if capacity := len(c.out) / c.cfg.Channels; produced < 0 || produced > capacity {
		return fmt.Errorf("%w: produced %d frames into a %d frame buffer", srctest.ErrProcess, produced, capacity)
	}
	return nil
}

// progressTracker reports consumption progress in progressInterval steps.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
}

func newProgressTracker(totalFrames int64) *progressTracker {
	return &progressTracker{totalFrames: totalFrames}
}

// update returns the new percentage when another threshold was crossed.
func (p *progressTracker) update(consumed int64) (int, bool) {
	if p.totalFrames == 0 {
		return 0, false
	}

	progress := int(consumed * percentScale / p.totalFrames)
	if progress >= p.lastProgress+progressInterval {
		p.lastProgress = progress
		return progress, true
	}
	return 0, false
}
