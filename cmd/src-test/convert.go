package main

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	srctest "github.com/tphakala/src-test"
	"github.com/tphakala/src-test/internal/pcm"
	"github.com/tphakala/src-test/internal/pipeline"
	"github.com/tphakala/src-test/internal/wavio"
)

// convertOptions describes one conversion.
type convertOptions struct {
	inputPath     string
	selector      string
	outputRate    int
	outputPath    string
	frameDuration time.Duration
}

// convertResult summarizes a finished conversion.
type convertResult struct {
	input    wavio.Info
	output   wavio.Info
	stats    pipeline.Stats
	elapsed  time.Duration
	rmsDBFS  float64
	peakDBFS float64
}

// speed returns the processing speed relative to realtime.
func (r convertResult) speed() float64 {
	if r.elapsed <= 0 {
		return 0
	}
	return r.input.Duration().Seconds() / r.elapsed.Seconds()
}

// convertFile resamples opts.inputPath into opts.outputPath, writing the
// report to report.
func convertFile(opts convertOptions, report io.Writer, log *logrus.Entry) (convertResult, error) {
	if opts.outputRate <= 0 {
		return convertResult{}, fmt.Errorf("%w: invalid sample rate %d", srctest.ErrConfig, opts.outputRate)
	}

	sel, err := srctest.ParseSelector(opts.selector)
	if err != nil {
		return convertResult{}, err
	}

	in, err := wavio.Open(opts.inputPath)
	if err != nil {
		return convertResult{}, err
	}
	defer func() { _ = in.Close() }()

	info := in.Info()
	printInfo(report, opts.inputPath, info)

	log.WithFields(logrus.Fields{
		"input":      opts.inputPath,
		"resampler":  sel.String(),
		"input_rate": info.SampleRate,
		"rate":       opts.outputRate,
		"frames":     info.Frames,
		"duration":   info.Duration(),
	}).Debug("Input opened")

	cfg := srctest.Config{
		InputRate:  info.SampleRate,
		OutputRate: opts.outputRate,
		Channels:   info.Channels,
		Format:     info.Format,
	}
	if err := cfg.Validate(); err != nil {
		return convertResult{}, err
	}

	switch cfg.Format {
	case srctest.FormatPCM16:
		return runConversion[int16](in, sel, cfg, opts, report, log)
	default:
		return runConversion[float32](in, sel, cfg, opts, report, log)
	}
}

// runConversion builds the resampler and output file for sample type S and
// runs the streaming loop.
func runConversion[S srctest.Sample](
	in *wavio.Reader,
	sel srctest.Selector,
	cfg srctest.Config,
	opts convertOptions,
	report io.Writer,
	log *logrus.Entry,
) (result convertResult, err error) {
	rs, err := srctest.NewFromSelector[S](sel, cfg)
	if err != nil {
		return convertResult{}, err
	}
	defer func() { _ = rs.Close() }()

	if lr, ok := rs.(srctest.LatencyReporter); ok {
		log.WithField("input_latency", lr.InputLatency()).Debug("Resampler created")
	}

	src, err := wavio.NewSource[S](in)
	if err != nil {
		return convertResult{}, err
	}

	out, err := wavio.Create(opts.outputPath, cfg.OutputRate, cfg.Channels, cfg.Format)
	if err != nil {
		return convertResult{}, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("%w: closing output file %s: %w", srctest.ErrWriteShortfall, opts.outputPath, closeErr)
		}
	}()

	printInfo(report, opts.outputPath, out.Info())

	sink, err := wavio.NewSink[S](out)
	if err != nil {
		return convertResult{}, err
	}
	metered := &meteredSink[S]{next: sink, channels: cfg.Channels}

	start := time.Now()
	stats, err := pipeline.Run[S](src, metered, rs, pipeline.Config{
		InputRate:     cfg.InputRate,
		OutputRate:    cfg.OutputRate,
		Channels:      cfg.Channels,
		TotalFrames:   in.Info().Frames,
		FrameDuration: opts.frameDuration,
		Logger:        log.WithField("resampler", sel.String()),
		OnDelay: func(d pipeline.Delay) {
			fmt.Fprintf(report, "Resampler delay: %.3f samples (%.3f ms)\n", d.Frames, d.Milliseconds)
		},
	})
	result = convertResult{
		input:    in.Info(),
		output:   out.Info(),
		stats:    stats,
		elapsed:  time.Since(start),
		rmsDBFS:  metered.meter.RMSdBFS(),
		peakDBFS: metered.meter.PeakdBFS(),
	}
	if err != nil {
		return result, err
	}

	printSummary(report, result)
	return result, nil
}

// printInfo writes the "opened" block for one file.
func printInfo(w io.Writer, path string, info wavio.Info) {
	fmt.Fprintf(w, "%s opened:\n", path)
	fmt.Fprintf(w, "Sample rate: %d\n", info.SampleRate)
	fmt.Fprintf(w, "Sample format: %s\n", info.Format)
	fmt.Fprintf(w, "Channels: %d\n", info.Channels)
}

func printSummary(w io.Writer, r convertResult) {
	fmt.Fprintf(w, "Frames: %d -> %d\n", r.stats.Consumed, r.stats.Produced)
	fmt.Fprintf(w, "Duration: %.2fs, Speed: %.1fx realtime\n", r.elapsed.Seconds(), r.speed())
	fmt.Fprintf(w, "Output level: %.2f dBFS RMS, %.2f dBFS peak\n", r.rmsDBFS, r.peakDBFS)
}

// meteredSink measures the level of everything written through it.
type meteredSink[S srctest.Sample] struct {
	next     pipeline.Sink[S]
	channels int
	meter    pcm.Meter
	scratch  []float64
}

func (m *meteredSink[S]) WriteFrames(src []S) (int, error) {
	n, err := m.next.WriteFrames(src)
	if n > 0 {
		m.scratch = pcm.ToFloat64(m.scratch, src[:n*m.channels])
		m.meter.Add(m.scratch)
	}
	return n, err
}

