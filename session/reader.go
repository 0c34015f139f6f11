package session

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
)

// Format is a raw PCM sample encoding.
type Format int

const (
	FormatFloat32LE Format = iota
	FormatInt16LE
)

func (f Format) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32le"
	case FormatInt16LE:
		return "s16le"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts ffmpeg-style format names.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "f32le", "float32":
		return FormatFloat32LE, nil
	case "s16le", "int16":
		return FormatInt16LE, nil
	default:
		return 0, fmt.Errorf("session: unknown sample format %q", name)
	}
}

func (f Format) bytesPerSample() int {
	if f == FormatInt16LE {
		return 2
	}
	return 4
}

// ReaderCapture streams mono little-endian PCM from an io.Reader, one
// frame per snapshot. It can be opened once.
type ReaderCapture struct {
	R    io.Reader
	Rate float64
	Fmt  Format

	once sync.Once
}

// Open implements [Capture].
func (c *ReaderCapture) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.R == nil {
		return nil, errors.New("reader capture: nil reader")
	}
	if !(c.Rate > 0) || math.IsInf(c.Rate, 0) {
		return nil, fmt.Errorf("reader capture: invalid sample rate %v", c.Rate)
	}
	if c.Fmt != FormatFloat32LE && c.Fmt != FormatInt16LE {
		return nil, fmt.Errorf("reader capture: unsupported format %v", c.Fmt)
	}

	opened := false
	c.once.Do(func() { opened = true })
	if !opened {
		return nil, errors.New("reader capture: already opened")
	}

	return &readerStream{r: c.R, rate: c.Rate, fmt: c.Fmt}, nil
}

type readerStream struct {
	r    io.Reader
	rate float64
	fmt  Format
	raw  []byte
	eof  bool
}

func (s *readerStream) SampleRate() float64 { return s.rate }

// Snapshot reads up to len(dst) samples. A trailing partial frame is
// delivered before io.EOF.
func (s *readerStream) Snapshot(dst []float64) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	width := s.fmt.bytesPerSample()
	need := len(dst) * width
	if cap(s.raw) < need {
		s.raw = make([]byte, need)
	}
	s.raw = s.raw[:need]

	got, err := io.ReadFull(s.r, s.raw)
	switch {
	case errors.Is(err, io.EOF):
		s.eof = true
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
	case err != nil:
		return 0, err
	}

	n := got / width
	for i := 0; i < n; i++ {
		b := s.raw[i*width:]
		switch s.fmt {
		case FormatInt16LE:
			dst[i] = float64(int16(binary.LittleEndian.Uint16(b))) / 32768
		default:
			dst[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		}
	}

	return n, nil
}

func (s *readerStream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
