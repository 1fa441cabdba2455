// @focus: #sys { record }
// Package record captures the rendered byte stream of a grid to a
// zstd-compressed file and plays captures back with their original pacing.
//
// A capture is one zstd stream holding a magic line followed by frames:
//
//	magic  "cellgrid-capture/1\n"
//	frame  uvarint delay-since-previous-frame (ns), uvarint length, payload
package record

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"
)

const magic = "cellgrid-capture/1\n"

// maxFrameSize rejects corrupt length fields before allocating
const maxFrameSize = 64 << 20

// ErrBadCapture is returned for streams that are not captures or are corrupt
var ErrBadCapture = errors.New("not a cellgrid capture")

// Recorder tees writes to an output and to a compressed capture.
// Call EndFrame after each rendered frame; bytes written since the last
// EndFrame become one frame of the capture.
type Recorder struct {
	dst   io.Writer
	enc   *zstd.Encoder
	file  *os.File // closed by Close when the recorder opened it
	frame []byte
	hdr   [2 * binary.MaxVarintLen64]byte
	last  time.Time
	now   func() time.Time
	err   error
}

// Create opens path for writing and records everything written to dst
func Create(path string, dst io.Writer) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create capture: %w", err)
	}
	r, err := NewRecorder(dst, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// NewRecorder records everything written to dst into capture
func NewRecorder(dst, capture io.Writer) (*Recorder, error) {
	enc, err := zstd.NewWriter(capture, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	if _, err := io.WriteString(enc, magic); err != nil {
		enc.Close()
		return nil, fmt.Errorf("write capture header: %w", err)
	}
	return &Recorder{dst: dst, enc: enc, now: time.Now}, nil
}

// Write passes p to the output and buffers it for the current frame.
// Capture errors never fail the output; they surface from EndFrame and Close.
func (r *Recorder) Write(p []byte) (int, error) {
	n, err := r.dst.Write(p)
	if r.err == nil {
		r.frame = append(r.frame, p[:n]...)
	}
	return n, err
}

// EndFrame appends the buffered bytes as one frame
func (r *Recorder) EndFrame() error {
	if r.err != nil {
		r.frame = nil
		return r.err
	}
	if len(r.frame) == 0 {
		return nil
	}

	now := r.now()
	var delay time.Duration
	if !r.last.IsZero() {
		delay = max(now.Sub(r.last), 0)
	}
	r.last = now

	n := binary.PutUvarint(r.hdr[:], uint64(delay))
	n += binary.PutUvarint(r.hdr[n:], uint64(len(r.frame)))
	_, err := r.enc.Write(r.hdr[:n])
	if err == nil {
		_, err = r.enc.Write(r.frame)
	}
	r.frame = r.frame[:0]
	if err != nil {
		// Capture is abandoned; later output is passed through without buffering
		r.err = fmt.Errorf("write capture: %w", err)
		r.frame = nil
		return r.err
	}
	return nil
}

// Close writes any pending frame and finishes the zstd stream
func (r *Recorder) Close() error {
	err := r.EndFrame()
	if cerr := r.enc.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("close capture: %w", cerr)
	}
	if r.file != nil {
		if cerr := r.file.Close(); cerr != nil && err == nil {
			err = cerr
		}
		r.file = nil
	}
	return err
}

// Replay decodes a capture from src and writes each frame to dst.
// speed scales the recorded delays: 1 is real time, 2 twice as fast, 0 no delay.
func Replay(ctx context.Context, dst io.Writer, src io.Reader, speed float64) error {
	dec, err := zstd.NewReader(src)
	if err != nil {
		return fmt.Errorf("zstd decoder: %w", err)
	}
	defer dec.Close()

	br := bufio.NewReader(dec)
	head := make([]byte, len(magic))
	if _, err := io.ReadFull(br, head); err != nil || string(head) != magic {
		return ErrBadCapture
	}

	var buf []byte
	for {
		delay, err := binary.ReadUvarint(br)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		size, err := binary.ReadUvarint(br)
		if err != nil {
			return fmt.Errorf("read frame: %w", err)
		}
		if size > maxFrameSize {
			return fmt.Errorf("%w: frame of %d bytes", ErrBadCapture, size)
		}

		if cap(buf) < int(size) {
			buf = make([]byte, size)
		}
		buf = buf[:size]
		if _, err := io.ReadFull(br, buf); err != nil {
			return fmt.Errorf("read frame: %w", err)
		}

		if speed > 0 && delay > 0 {
			t := time.NewTimer(time.Duration(float64(delay) / speed))
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := dst.Write(buf); err != nil {
			return err
		}
	}
}

// ReplayFile opens and replays a capture file
func ReplayFile(ctx context.Context, dst io.Writer, path string, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()
	return Replay(ctx, dst, f, speed)
}
