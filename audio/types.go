package audio

import (
	"errors"
)

// Sound identifies a chime
type Sound int

const (
	SoundSwitch Sound = iota // Scene advanced
	SoundWrap                // Playlist wrapped to the first scene
	soundCount
)

// BackendType identifies the audio backend
type BackendType int

const (
	BackendPulse BackendType = iota
	BackendPipeWire
	BackendALSA
	BackendSoX
	BackendFFplay
	BackendOSS
)

// BackendConfig describes a CLI audio backend
type BackendConfig struct {
	Type BackendType
	Name string
	Path string
	Args []string
}

// Sentinel errors
var (
	ErrNoAudioBackend = errors.New("no compatible audio backend found")
	ErrPipeClosed     = errors.New("audio pipe closed")
)

// Config controls the chime player
type Config struct {
	Enabled    bool
	Volume     float64 // 0.0-1.0
	SampleRate int
}

// DefaultConfig returns a disabled player at half volume
func DefaultConfig() Config {
	return Config{
		Enabled:    false,
		Volume:     0.5,
		SampleRate: sampleRate,
	}
}
