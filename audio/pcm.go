package audio

import (
	"encoding/binary"

	"github.com/gopxl/beep"
)

const (
	sampleRate    = 44100
	bytesPerFrame = 4 // s16le stereo
	streamChunk   = 512
)

// encodePCM drains s into interleaved stereo int16 LE bytes
func encodePCM(s beep.Streamer) []byte {
	if s == nil {
		return nil
	}

	var out []byte
	buf := make([][2]float64, streamChunk)
	for {
		n, ok := s.Stream(buf)
		if n > 0 {
			start := len(out)
			out = append(out, make([]byte, n*bytesPerFrame)...)
			framesToBytes(buf[:n], out[start:])
		}
		if !ok {
			return out
		}
	}
}

// framesToBytes converts float stereo frames to int16 LE bytes
// Applies soft limiting before hard clip
func framesToBytes(in [][2]float64, out []byte) {
	for i, f := range in {
		idx := i * bytesPerFrame
		binary.LittleEndian.PutUint16(out[idx:], uint16(toInt16(f[0])))   // L
		binary.LittleEndian.PutUint16(out[idx+2:], uint16(toInt16(f[1]))) // R
	}
}

func toInt16(v float64) int16 {
	// Soft limiter (tanh-style)
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}

	// Hard clip
	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return int16(v * 32767)
}
