// Package wavio reads and writes RIFF/WAVE files as streams of interleaved
// frames.
//
// Headers and samples go through go-audio/wav. The decoder hands 32-bit
// samples back as raw little-endian words, so float files are read by
// reinterpreting those words as IEEE 754 bit patterns.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	srctest "github.com/tphakala/src-test"
)

// WAVE format tags
const (
	formatTagPCM        = 1
	formatTagIEEEFloat  = 3
	formatTagExtensible = 0xFFFE
)

const bitsPerByte = 8

// Info describes the stream inside a WAV file.
type Info struct {
	SampleRate int
	Channels   int
	Format     srctest.SampleFormat

	// Frames is the number of frames declared by the data chunk.
	Frames int64
}

// Duration returns the playing time of Frames at SampleRate.
func (i Info) Duration() time.Duration {
	if i.SampleRate <= 0 {
		return 0
	}
	return time.Duration(i.Frames) * time.Second / time.Duration(i.SampleRate)
}

// DetectFormat maps a WAVE format tag and bit depth onto a sample format.
// Extensible files are classified by bit depth alone except at 32 bits,
// where integer and float cannot be told apart without the sub-format GUID.
func DetectFormat(tag uint16, bitDepth int) srctest.SampleFormat {
	switch tag {
	case formatTagPCM:
		switch bitDepth {
		case 16:
			return srctest.FormatPCM16
		case 24:
			return srctest.FormatPCM24
		case 32:
			return srctest.FormatPCM32
		}
	case formatTagIEEEFloat:
		switch bitDepth {
		case 32:
			return srctest.FormatFloat32
		case 64:
			return srctest.FormatFloat64
		}
	case formatTagExtensible:
		switch bitDepth {
		case 16:
			return srctest.FormatPCM16
		case 24:
			return srctest.FormatPCM24
		}
	}
	return srctest.FormatUnknown
}

// formatTag returns the WAVE format tag written for f.
func formatTag(f srctest.SampleFormat) int {
	if f == srctest.FormatFloat32 || f == srctest.FormatFloat64 {
		return formatTagIEEEFloat
	}
	return formatTagPCM
}

// Reader is an open WAV file positioned at its sample data.
type Reader struct {
	file *os.File
	dec  *wav.Decoder
	info Info
}

// Open opens path and parses its header. The returned error wraps
// srctest.ErrOpen when the file cannot be opened or is not a WAV file.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: input file %s: %w", srctest.ErrOpen, path, err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("%w: input file %s: invalid WAV file", srctest.ErrOpen, path)
	}

	if err := dec.FwdToPCM(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: input file %s: no sample data: %w", srctest.ErrOpen, path, err)
	}

	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Format:     DetectFormat(dec.WavAudioFormat, int(dec.BitDepth)),
	}

	if blockAlign := int64(dec.NumChans) * int64(dec.BitDepth) / bitsPerByte; blockAlign > 0 {
		info.Frames = dec.PCMLen() / blockAlign
	}

	return &Reader{
		file: f,
		dec:  dec,
		info: info,
	}, nil
}

// Info returns the stream description.
func (r *Reader) Info() Info {
	return r.info
}

// Close closes the file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Source reads frames of type S from a Reader.
type Source[S srctest.Sample] struct {
	r   *Reader
	buf *audio.IntBuffer

	// remaining counts frames left in the data chunk. The decoder reads
	// from the file itself, so reads past the chunk would return trailing
	// chunks as samples.
	remaining int64
}

// NewSource returns a frame source for r. The file's sample format must be
// the one S carries.
func NewSource[S srctest.Sample](r *Reader) (*Source[S], error) {
	if want := srctest.FormatOf[S](); r.info.Format != want {
		return nil, fmt.Errorf("%w: cannot read %s samples as %s", srctest.ErrConfig, r.info.Format, want)
	}
	return &Source[S]{
		r:         r,
		buf:       &audio.IntBuffer{},
		remaining: r.info.Frames,
	}, nil
}

// ReadFrames fills dst with len(dst)/channels frames. It returns the number
// of whole frames read; fewer than requested comes with a non-nil error.
func (s *Source[S]) ReadFrames(dst []S) (int, error) {
	channels := s.r.info.Channels
	want := len(dst) / channels
	frames := int(min(int64(want), s.remaining))
	samples := frames * channels

	if cap(s.buf.Data) < samples {
		s.buf.Data = make([]int, samples)
	}
	data := s.buf.Data[:samples]

	// PCMBuffer issues a single read, so loop until the request is met.
	read := 0
	var err error
	for read < samples {
		s.buf.Data = data[read:]
		var n int
		n, err = s.r.dec.PCMBuffer(s.buf)
		// A lone partial sample at the end of the file counts as -1.
		n = max(n, 0)
		read += n
		if err != nil || n == 0 {
			break
		}
	}
	s.buf.Data = data

	switch d := any(dst).(type) {
	case []int16:
		for i, v := range data[:read] {
			d[i] = int16(v)
		}
	case []float32:
		for i, v := range data[:read] {
			d[i] = math.Float32frombits(uint32(int32(v)))
		}
	}

	got := read / channels
	s.remaining -= int64(got)

	if got < want && err == nil {
		err = io.ErrUnexpectedEOF
	}
	return got, err
}

// Writer is a WAV file being written.
type Writer struct {
	file   *os.File
	enc    *wav.Encoder
	info   Info
	closed bool
}

// Create creates path as a WAV file with the given rate, channel count and
// sample format.
func Create(path string, sampleRate, channels int, format srctest.SampleFormat) (*Writer, error) {
	if !format.Supported() {
		return nil, fmt.Errorf("%w: cannot write %s samples", srctest.ErrConfig, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: output file %s: %w", srctest.ErrOpen, path, err)
	}

	return &Writer{
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, format.BitDepth(), channels, formatTag(format)),
		info: Info{
			SampleRate: sampleRate,
			Channels:   channels,
			Format:     format,
		},
	}, nil
}

// Info returns the stream description; Frames counts frames written so far.
func (w *Writer) Info() Info {
	return w.info
}

// Close writes the final header sizes and closes the file.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	encErr := w.enc.Close()
	fileErr := w.file.Close()
	return errors.Join(encErr, fileErr)
}

// Sink writes frames of type S to a Writer.
type Sink[S srctest.Sample] struct {
	w   *Writer
	buf *audio.IntBuffer
}

// NewSink returns a frame sink for w. The writer's sample format must be
// the one S carries.
func NewSink[S srctest.Sample](w *Writer) (*Sink[S], error) {
	if want := srctest.FormatOf[S](); w.info.Format != want {
		return nil, fmt.Errorf("%w: cannot write %s samples as %s", srctest.ErrConfig, want, w.info.Format)
	}

	return &Sink[S]{
		w: w,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: w.info.Channels,
				SampleRate:  w.info.SampleRate,
			},
			SourceBitDepth: w.info.Format.BitDepth(),
		},
	}, nil
}

// WriteFrames writes every whole frame in src and returns the number of
// frames written.
func (s *Sink[S]) WriteFrames(src []S) (int, error) {
	channels := s.w.info.Channels
	frames := len(src) / channels
	n := frames * channels

	data := s.buf.Data[:0]
	switch v := any(src).(type) {
	case []int16:
		for _, x := range v[:n] {
			data = append(data, int(x))
		}
	case []float32:
		// The encoder stores 32-bit samples as little-endian words, so the
		// float bit pattern passes through unchanged.
		for _, x := range v[:n] {
			data = append(data, int(int32(math.Float32bits(x))))
		}
	}
	s.buf.Data = data

	if err := s.w.enc.Write(s.buf); err != nil {
		return 0, err
	}

	s.w.info.Frames += int64(frames)
	return frames, nil
}
