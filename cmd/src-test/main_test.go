package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	srctest "github.com/tphakala/src-test"
	"github.com/tphakala/src-test/internal/testutil"
	"github.com/tphakala/src-test/internal/wavio"
)

func run(t *testing.T, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func openInfo(t *testing.T, path string) wavio.Info {
	t.Helper()
	r, err := wavio.Open(path)
	require.NoError(t, err)
	defer r.Close()
	return r.Info()
}

func TestExecute_SoxrPCM16Stereo(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 44100, 2, testutil.Int16s(testutil.Sine(22050, 2, 44100, 1000, 0.5)))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, in, "soxr-hq", "48000", out)
	require.Equal(t, exitSuccess, code, stdout)

	assert.Contains(t, stdout, in+" opened:\nSample rate: 44100\nSample format: PCM_16\nChannels: 2\n")
	assert.Contains(t, stdout, out+" opened:\nSample rate: 48000\nSample format: PCM_16\nChannels: 2\n")
	assert.Equal(t, 1, strings.Count(stdout, "Resampler delay: "))
	assert.Regexp(t, `Resampler delay: -?\d+\.\d{3} samples \(-?\d+\.\d{3} ms\)`, stdout)
	assert.Contains(t, stdout, "dBFS")
	assert.NotContains(t, stdout, "FAILURE")

	info := openInfo(t, out)
	assert.Equal(t, 48000, info.SampleRate)
	assert.Equal(t, 2, info.Channels)
	assert.Equal(t, srctest.FormatPCM16, info.Format)
	testutil.AssertRelativeError(t, 24000, float64(info.Frames), 0.1)
}

func TestExecute_SoxrFloat32Mono(t *testing.T) {
	in := testutil.WriteWAVFloat32(t, "in.wav", 48000, 1, testutil.Float32s(testutil.Sine(24000, 1, 48000, 440, 0.25)))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, "--frame-ms", "10", in, "soxr-vhq", "16000", out)
	require.Equal(t, exitSuccess, code, stdout)
	assert.Contains(t, stdout, "Sample format: FLOAT\n")

	info := openInfo(t, out)
	assert.Equal(t, 16000, info.SampleRate)
	assert.Equal(t, srctest.FormatFloat32, info.Format)
	testutil.AssertRelativeError(t, 8000, float64(info.Frames), 0.1)
}

func TestExecute_UnknownSoxrRecipeFallsBack(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 8000, 1, testutil.Int16s(testutil.Sine(800, 1, 8000, 440, 0.5)))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, in, "soxr-ultra", "16000", out)
	require.Equal(t, exitSuccess, code, stdout)
	assert.FileExists(t, out)
}

func TestExecute_NegativeRateFailsBeforeOpening(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, "does-not-exist.wav", "soxr-hq", "-5", out)

	assert.Equal(t, exitFailure, code)
	assert.True(t, strings.HasPrefix(stdout, "FAILURE: "), stdout)
	assert.Contains(t, stdout, "invalid sample rate")
	assert.NotContains(t, stdout, "opened")
	assert.NoFileExists(t, out)
}

func TestExecute_Failures(t *testing.T) {
	dir := t.TempDir()
	mono := testutil.WriteWAV16(t, "mono.wav", 8000, 1, make([]int16, 800))
	pcm24 := testutil.WriteWAV24(t, "pcm24.wav", 48000, 2, 480)
	surround := testutil.WriteWAV16(t, "surround.wav", 48000, 3, make([]int16, 3*480))

	tests := []struct {
		name        string
		args        []string
		wantMessage string
		wantOpened  bool
	}{
		{"too_few_args", []string{mono, "soxr-hq", "16000"}, "usage", false},
		{"too_many_args", []string{mono, "soxr-hq", "16000", "a.wav", "b.wav"}, "usage", false},
		{"zero_rate", []string{mono, "soxr-hq", "0", ""}, "invalid sample rate", false},
		{"text_rate", []string{mono, "soxr-hq", "fast", ""}, "invalid sample rate", false},
		{"unknown_resampler", []string{mono, "libsamplerate-best", "16000", ""}, "unrecognized resampler", false},
		{"speex_quality_out_of_range", []string{mono, "speex-11", "16000", ""}, "invalid speex quality", false},
		{"missing_input", []string{filepath.Join(dir, "missing.wav"), "soxr-hq", "16000", ""}, "failed to open file", false},
		{"pcm24_input", []string{pcm24, "soxr-hq", "44100", ""}, "unsupported sample format PCM_24", true},
		{"three_channels", []string{surround, "soxr-hq", "44100", ""}, "unsupported input channel count 3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := filepath.Join(t.TempDir(), "out.wav")
			args := append([]string(nil), tt.args...)
			if len(args) == requiredArgs && args[argOutput] == "" {
				args[argOutput] = out
			}

			code, stdout, _ := run(t, args...)

			assert.Equal(t, exitFailure, code)
			assert.Contains(t, stdout, "FAILURE: ")
			assert.Contains(t, stdout, tt.wantMessage)
			assert.Equal(t, tt.wantOpened, strings.Contains(stdout, " opened:"))
			assert.NotContains(t, stdout, "Resampler delay")
			assert.NoFileExists(t, out)
		})
	}
}

func TestExecute_Speex(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 8000, 1, testutil.Int16s(testutil.Sine(3200, 1, 8000, 440, 0.5)))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, in, "speex-5", "16000", out)

	if !srctest.SpeexAvailable() {
		assert.Equal(t, exitFailure, code)
		assert.Contains(t, stdout, "FAILURE: failed to create resampler")
		assert.NoFileExists(t, out)
		return
	}

	require.Equal(t, exitSuccess, code, stdout)
	assert.Equal(t, 1, strings.Count(stdout, "Resampler delay: "))

	info := openInfo(t, out)
	assert.Equal(t, 16000, info.SampleRate)
	testutil.AssertRelativeError(t, 6400, float64(info.Frames), 0.1)
}

func TestExecute_InvalidLogFormat(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 8000, 1, make([]int16, 80))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, "--log-format", "xml", in, "soxr-qq", "16000", out)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "unknown log format")
	assert.NoFileExists(t, out)
}

func TestExecute_VerboseLogsToStderr(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 8000, 1, testutil.Int16s(testutil.Sine(800, 1, 8000, 440, 0.5)))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, stderr := run(t, "-v", "--log-format", "json", in, "soxr-lq", "11025", out)

	require.Equal(t, exitSuccess, code, stdout)
	assert.Contains(t, stderr, `"msg":"Conversion finished"`)
	assert.NotContains(t, stdout, "Conversion finished")
}

func TestParseRate(t *testing.T) {
	rate, err := parseRate("44100")
	require.NoError(t, err)
	assert.Equal(t, 44100, rate)

	for _, s := range []string{"0", "-5", "", "48k", "1.5"} {
		_, err := parseRate(s)
		assert.ErrorIs(t, err, srctest.ErrConfig, s)
	}
}

func TestFrameDuration(t *testing.T) {
	tests := []struct {
		ms   int
		want string
	}{
		{0, "20ms"},
		{-3, "20ms"},
		{5, "5ms"},
		{maxFrameMs, "1s"},
	}

	for _, tt := range tests {
		d, err := frameDuration(tt.ms)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.String())
	}

	for _, ms := range []int{maxFrameMs + 1, 200000000} {
		_, err := frameDuration(ms)
		assert.ErrorIs(t, err, srctest.ErrConfig, ms)
	}
}

func TestExecute_FrameDurationTooLong(t *testing.T) {
	in := testutil.WriteWAV16(t, "in.wav", 8000, 1, make([]int16, 80))
	out := filepath.Join(t.TempDir(), "out.wav")

	code, stdout, _ := run(t, "--frame-ms", "200000000", in, "soxr-qq", "48000", out)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "FAILURE: invalid configuration: frame duration")
	assert.NotContains(t, stdout, "opened")
	assert.NoFileExists(t, out)
}
