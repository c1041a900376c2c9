// Command src-test resamples a WAV file with a selectable resampling engine
// and reports the resampler's output delay.
//
// Usage:
//
//	src-test [flags] <input.wav> <resampler> <output-rate> <output.wav>
//	src-test batch [flags] <jobs.yaml>
//
// Resamplers:
//
//	speex-0 ... speex-10   speexdsp polyphase resampler (build with -tags speexdsp)
//	soxr-qq                quick (cubic), also used for unrecognized soxr- names
//	soxr-lq, soxr-mq       low and medium quality
//	soxr-hq, soxr-vhq      high and very high quality
//
// Examples:
//
//	src-test speech.wav speex-5 16000 speech_16k.wav
//	src-test -v music.wav soxr-vhq 48000 music_48k.wav
//	src-test batch jobs.yaml
//
// Flags must come before the positional arguments. On failure the command
// prints "FAILURE: <message>" to standard output and exits with status 1.
package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	srctest "github.com/tphakala/src-test"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit status.
func execute(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(stdout, "FAILURE: %v\n", err)
		return exitFailure
	}
	return exitSuccess
}

// globalOptions holds flags shared by every command.
type globalOptions struct {
	verbose    bool
	logFormat  string
	frameMs    int
	cpuProfile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "src-test [flags] <input> <resampler> <output-rate> <output>",
		Short: "Resample a WAV file and report the resampler delay",
		Long: `Resample a WAV file to a new sample rate with a selectable resampler.

The input is processed in 20 ms chunks. The delay of the resampler is
measured when it produces its first output, and the resampler is drained
once the input is exhausted. The output file keeps the input's sample
format and channel count.

Supported inputs: mono or stereo, 16-bit PCM or 32-bit float.`,
		Args:          positionalArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := parseRate(args[argRate])
			if err != nil {
				return err
			}
			frame, err := frameDuration(opts.frameMs)
			if err != nil {
				return err
			}

			log, err := newLogger(opts, stderr)
			if err != nil {
				return err
			}

			return withProfile(opts.cpuProfile, func() error {
				_, err := convertFile(convertOptions{
					inputPath:     args[argInput],
					selector:      args[argSelector],
					outputRate:    rate,
					outputPath:    args[argOutput],
					frameDuration: frame,
				}, stdout, log)
				return err
			})
		},
	}

	// Positional values such as "-5" must not be taken for flags.
	cmd.Flags().SetInterspersed(false)
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&opts.logFormat, "log-format", logFormatText, "Log format: text or json")
	flags.IntVar(&opts.frameMs, "frame-ms", defaultFrameMs, "Chunk duration in milliseconds")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write CPU profile to file")

	cmd.AddCommand(newBatchCmd(opts, stdout, stderr))

	return cmd
}

// positionalArgs requires exactly the four positional arguments.
func positionalArgs(_ *cobra.Command, args []string) error {
	if len(args) != requiredArgs {
		return fmt.Errorf("%w: usage: src-test <input> <resampler> <output rate> <output>", srctest.ErrConfig)
	}
	return nil
}

// parseRate parses a positive output sample rate.
func parseRate(s string) (int, error) {
	rate, err := strconv.Atoi(s)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("%w: invalid sample rate %q", srctest.ErrConfig, s)
	}
	return rate, nil
}

// frameDuration converts the --frame-ms flag; non-positive values fall back
// to the default chunk length.
func frameDuration(ms int) (time.Duration, error) {
	if ms > maxFrameMs {
		return 0, fmt.Errorf("%w: frame duration %d ms exceeds %d ms", srctest.ErrConfig, ms, maxFrameMs)
	}
	if ms <= 0 {
		ms = defaultFrameMs
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// newLogger builds the diagnostic logger. Diagnostics go to stderr so that
// stdout carries only the report.
func newLogger(opts *globalOptions, stderr io.Writer) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(stderr)
	logger.SetLevel(logrus.InfoLevel)
	if opts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	switch opts.logFormat {
	case logFormatText:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case logFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", srctest.ErrConfig, opts.logFormat)
	}

	return logrus.NewEntry(logger), nil
}

// withProfile runs fn, recording a CPU profile to path when it is set.
func withProfile(path string, fn func() error) error {
	if path == "" {
		return fn()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("could not start CPU profile: %w", err)
	}
	defer func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}()

	return fn()
}
