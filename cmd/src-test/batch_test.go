package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	srctest "github.com/tphakala/src-test"
	"github.com/tphakala/src-test/internal/pipeline"
	"github.com/tphakala/src-test/internal/testutil"
)

func writeJobs(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "jobs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// copyInto copies the file at src into dir under name.
func copyInto(t *testing.T, src, dir, name string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o600))
}

func TestSelectorList_UnmarshalYAML(t *testing.T) {
	var job batchJob

	require.NoError(t, yaml.Unmarshal([]byte("resampler: soxr-hq"), &job))
	assert.Equal(t, selectorList{"soxr-hq"}, job.Resampler)

	require.NoError(t, yaml.Unmarshal([]byte("resampler: [speex-3, soxr-vhq]"), &job))
	assert.Equal(t, selectorList{"speex-3", "soxr-vhq"}, job.Resampler)

	err := yaml.Unmarshal([]byte("resampler: {name: soxr}"), &job)
	assert.Error(t, err)
}

func TestExpandJob(t *testing.T) {
	job := batchJob{
		Input:     "in.wav",
		Resampler: selectorList{"soxr-qq", "soxr-hq"},
		Rate:      16000,
		Output:    "out/{resampler}.wav",
	}

	runs, err := expandJob(job, 2, "/data", 0, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "job 3", runs[0].name)
	assert.Equal(t, filepath.Join("/data", "in.wav"), runs[0].opts.inputPath)
	assert.Equal(t, filepath.Join("/data", "out", "soxr-qq.wav"), runs[0].opts.outputPath)
	assert.Equal(t, filepath.Join("/data", "out", "soxr-hq.wav"), runs[1].opts.outputPath)
	assert.Equal(t, "soxr-hq", runs[1].opts.selector)
	assert.Equal(t, 16000, runs[1].opts.outputRate)
	assert.Equal(t, 20*time.Millisecond, runs[0].opts.frameDuration)
}

func TestExpandJob_FrameDurationPrecedence(t *testing.T) {
	job := batchJob{Input: "/in.wav", Resampler: selectorList{"soxr-qq"}, Rate: 8000, Output: "/out.wav"}

	runs, err := expandJob(job, 0, "/", 0, 40)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Millisecond, runs[0].opts.frameDuration, "flag value")

	runs, err = expandJob(job, 0, "/", 30, 40)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Millisecond, runs[0].opts.frameDuration, "file value beats flag")

	job.FrameMs = 5
	runs, err = expandJob(job, 0, "/", 30, 40)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Millisecond, runs[0].opts.frameDuration, "job value beats file")
	assert.Equal(t, "/in.wav", runs[0].opts.inputPath, "absolute paths are kept")
}

func TestExpandJob_Errors(t *testing.T) {
	tests := []struct {
		name string
		job  batchJob
	}{
		{"no_input", batchJob{Resampler: selectorList{"soxr-qq"}, Output: "o.wav"}},
		{"no_output", batchJob{Input: "i.wav", Resampler: selectorList{"soxr-qq"}}},
		{"no_resampler", batchJob{Input: "i.wav", Output: "o.wav"}},
		{"no_placeholder", batchJob{Input: "i.wav", Output: "o.wav", Resampler: selectorList{"soxr-qq", "soxr-hq"}}},
		{"frame_too_long", batchJob{Input: "i.wav", Output: "o.wav", Resampler: selectorList{"soxr-qq"}, FrameMs: maxFrameMs + 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expandJob(tt.job, 0, ".", 0, 0)
			assert.ErrorIs(t, err, srctest.ErrConfig)
		})
	}
}

func TestLoadBatch_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadBatch(filepath.Join(dir, "missing.yaml"), 0)
	assert.ErrorIs(t, err, srctest.ErrOpen)

	_, err = loadBatch(writeJobs(t, dir, "jobs: [unclosed"), 0)
	assert.ErrorIs(t, err, srctest.ErrConfig)

	_, err = loadBatch(writeJobs(t, dir, "frame_ms: 20\n"), 0)
	assert.ErrorIs(t, err, srctest.ErrConfig)
}

func TestExecute_Batch(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteWAV16(t, "speech.wav", 16000, 1, testutil.Int16s(testutil.Sine(3200, 1, 16000, 440, 0.5)))
	copyInto(t, src, dir, "speech.wav")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))

	jobs := writeJobs(t, dir, `
frame_ms: 20
jobs:
  - name: speech
    input: speech.wav
    resampler: [soxr-qq, soxr-hq]
    rate: 8000
    output: out/speech_{resampler}.wav
  - name: upsample
    input: speech.wav
    resampler: soxr-mq
    rate: 48000
    output: out/speech_48k.wav
`)

	code, stdout, _ := run(t, "batch", jobs)
	require.Equal(t, exitSuccess, code, stdout)

	for _, name := range []string{"speech_soxr-qq.wav", "speech_soxr-hq.wav", "speech_48k.wav"} {
		assert.FileExists(t, filepath.Join(dir, "out", name))
	}
	assert.Equal(t, 8000, openInfo(t, filepath.Join(dir, "out", "speech_soxr-hq.wav")).SampleRate)

	assert.Equal(t, 3, strings.Count(stdout, "Resampler delay: "))
	assert.Contains(t, stdout, "RESAMPLER")
	assert.NotContains(t, stdout, "failed")
}

func TestExecute_BatchContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteWAV16(t, "in.wav", 8000, 1, testutil.Int16s(testutil.Sine(800, 1, 8000, 440, 0.5)))
	copyInto(t, src, dir, "in.wav")

	jobs := writeJobs(t, dir, `
jobs:
  - name: broken
    input: missing.wav
    resampler: soxr-qq
    rate: 16000
    output: broken.wav
  - name: fine
    input: in.wav
    resampler: soxr-qq
    rate: 16000
    output: fine.wav
`)

	code, stdout, _ := run(t, "batch", jobs)

	assert.Equal(t, exitFailure, code)
	assert.FileExists(t, filepath.Join(dir, "fine.wav"))
	assert.NoFileExists(t, filepath.Join(dir, "broken.wav"))
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stdout, "FAILURE: batch jobs failed: 1 of 2")
}

func TestRenderBatchTable(t *testing.T) {
	outcomes := []batchOutcome{
		{
			run: batchRun{name: "a", opts: convertOptions{selector: "soxr-hq"}},
			result: convertResult{
				stats: pipeline.Stats{Delay: pipeline.Delay{Milliseconds: 1.5}, DelayReported: true},
			},
		},
		{
			run: batchRun{name: "b", opts: convertOptions{selector: "speex-5"}},
			err: srctest.ErrEngineInit,
		},
	}

	table := renderBatchTable(outcomes)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "DELAY (ms)")
	assert.Contains(t, lines[1], "1.500")
	assert.Contains(t, lines[1], "ok")
	assert.Contains(t, lines[2], "failed")
	assert.Contains(t, lines[2], " - ")
}
