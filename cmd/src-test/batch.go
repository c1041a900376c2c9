package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	srctest "github.com/tphakala/src-test"
)

// errJobsFailed is returned by the batch command when any job fails.
var errJobsFailed = errors.New("batch jobs failed")

// batchFile is the on-disk job list.
//
//	frame_ms: 20
//	jobs:
//	  - name: speech
//	    input: speech.wav
//	    resampler: [speex-5, soxr-hq]
//	    rate: 16000
//	    output: out/speech_{resampler}.wav
type batchFile struct {
	FrameMs int        `yaml:"frame_ms"`
	Jobs    []batchJob `yaml:"jobs"`
}

type batchJob struct {
	Name      string       `yaml:"name"`
	Input     string       `yaml:"input"`
	Resampler selectorList `yaml:"resampler"`
	Rate      int          `yaml:"rate"`
	Output    string       `yaml:"output"`
	FrameMs   int          `yaml:"frame_ms"`
}

// selectorList accepts a single selector or a sequence of them.
type selectorList []string

func (l *selectorList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = selectorList{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*l = list
		return nil
	default:
		return fmt.Errorf("line %d: resampler must be a string or a list of strings", node.Line)
	}
}

// batchRun is one expanded job: a single input, selector and output.
type batchRun struct {
	name string
	opts convertOptions
}

// batchOutcome pairs a run with its result.
type batchOutcome struct {
	run    batchRun
	result convertResult
	err    error
}

func newBatchCmd(global *globalOptions, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <jobs.yaml>",
		Short: "Run every conversion listed in a YAML job file",
		Long: `Run every conversion listed in a YAML job file.

Relative paths are resolved against the directory of the job file. A job
with several resamplers runs once per resampler; its output path must then
contain the {resampler} placeholder. Every job runs even when an earlier
one fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(global, stderr)
			if err != nil {
				return err
			}

			runs, err := loadBatch(args[0], global.frameMs)
			if err != nil {
				return err
			}

			return withProfile(global.cpuProfile, func() error {
				outcomes := runBatch(runs, stdout, log)
				fmt.Fprintln(stdout)
				fmt.Fprint(stdout, renderBatchTable(outcomes))

				failed := 0
				for _, o := range outcomes {
					if o.err != nil {
						failed++
					}
				}
				if failed > 0 {
					return fmt.Errorf("%w: %d of %d", errJobsFailed, failed, len(outcomes))
				}
				return nil
			})
		},
	}
}

// loadBatch reads and expands the job file at path. flagFrameMs applies to
// jobs that set neither their own nor a file-wide chunk length.
func loadBatch(path string, flagFrameMs int) ([]batchRun, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: job file %s: %w", srctest.ErrOpen, path, err)
	}

	var file batchFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: job file %s: %w", srctest.ErrConfig, path, err)
	}
	if len(file.Jobs) == 0 {
		return nil, fmt.Errorf("%w: job file %s lists no jobs", srctest.ErrConfig, path)
	}

	base := filepath.Dir(path)
	var runs []batchRun
	for i, job := range file.Jobs {
		expanded, err := expandJob(job, i, base, file.FrameMs, flagFrameMs)
		if err != nil {
			return nil, err
		}
		runs = append(runs, expanded...)
	}
	return runs, nil
}

// expandJob turns one job into a run per selector.
func expandJob(job batchJob, index int, base string, fileFrameMs, flagFrameMs int) ([]batchRun, error) {
	name := job.Name
	if name == "" {
		name = fmt.Sprintf("job %d", index+1)
	}

	if job.Input == "" || job.Output == "" {
		return nil, fmt.Errorf("%w: %s: input and output are required", srctest.ErrConfig, name)
	}
	if len(job.Resampler) == 0 {
		return nil, fmt.Errorf("%w: %s: no resampler given", srctest.ErrConfig, name)
	}
	if len(job.Resampler) > 1 && !strings.Contains(job.Output, resamplerPlaceholder) {
		return nil, fmt.Errorf("%w: %s: output must contain %s when several resamplers are listed",
			srctest.ErrConfig, name, resamplerPlaceholder)
	}

	frameMs := flagFrameMs
	switch {
	case job.FrameMs > 0:
		frameMs = job.FrameMs
	case fileFrameMs > 0:
		frameMs = fileFrameMs
	}
	frame, err := frameDuration(frameMs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	runs := make([]batchRun, 0, len(job.Resampler))
	for _, sel := range job.Resampler {
		runs = append(runs, batchRun{
			name: name,
			opts: convertOptions{
				inputPath:     resolvePath(base, job.Input),
				selector:      sel,
				outputRate:    job.Rate,
				outputPath:    resolvePath(base, strings.ReplaceAll(job.Output, resamplerPlaceholder, sel)),
				frameDuration: frame,
			},
		})
	}
	return runs, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// runBatch runs every job in order. A failing job is logged and recorded;
// it does not stop the remaining jobs.
func runBatch(runs []batchRun, report io.Writer, log *logrus.Entry) []batchOutcome {
	outcomes := make([]batchOutcome, 0, len(runs))
	for _, run := range runs {
		jobLog := log.WithFields(logrus.Fields{
			"job":       run.name,
			"resampler": run.opts.selector,
		})

		fmt.Fprintf(report, "== %s (%s) ==\n", run.name, run.opts.selector)
		result, err := convertFile(run.opts, report, jobLog)
		if err != nil {
			jobLog.WithError(err).Error("Job failed")
			fmt.Fprintf(report, "FAILURE: %v\n", err)
		}
		outcomes = append(outcomes, batchOutcome{run: run, result: result, err: err})
	}
	return outcomes
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f87"))
)

// renderBatchTable formats the outcome summary.
func renderBatchTable(outcomes []batchOutcome) string {
	header := []string{"JOB", "RESAMPLER", "DELAY (ms)", "FRAMES", "ELAPSED", "SPEED", "STATUS"}

	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		delay := "-"
		if o.result.stats.DelayReported {
			delay = fmt.Sprintf("%.3f", o.result.stats.Delay.Milliseconds)
		}
		status := "ok"
		if o.err != nil {
			status = "failed"
		}
		rows = append(rows, []string{
			o.run.name,
			o.run.opts.selector,
			delay,
			fmt.Sprintf("%d -> %d", o.result.stats.Consumed, o.result.stats.Produced),
			fmt.Sprintf("%.2fs", o.result.elapsed.Seconds()),
			fmt.Sprintf("%.1fx", o.result.speed()),
			status,
		})
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], len(cell))
		}
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render(formatRow(header, widths)))
	b.WriteByte('\n')
	for i, row := range rows {
		line := formatRow(row, widths)
		if outcomes[i].err != nil {
			line = failStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func formatRow(cells []string, widths []int) string {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = cell + strings.Repeat(" ", widths[i]-len(cell))
	}
	return strings.TrimRight(strings.Join(padded, "  "), " ")
}
