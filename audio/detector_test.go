package audio

import (
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeLookPath(found ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, f := range found {
			if f == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", errors.New("not found")
	}
}

func TestDetectBackendPriority(t *testing.T) {
	b, err := detectBackend(48000, fakeLookPath("aplay", "pacat"))
	require.NoError(t, err)
	assert.Equal(t, BackendPulse, b.Type)
	assert.Equal(t, "/usr/bin/pacat", b.Path)
	assert.Contains(t, b.Args, "--rate=48000")

	b, err = detectBackend(44100, fakeLookPath("ffplay", "aplay"))
	require.NoError(t, err)
	assert.Equal(t, BackendALSA, b.Type)
	assert.Equal(t, []string{"-t", "raw", "-f", "S16_LE", "-r", "44100", "-c", "2", "-q"}, b.Args)
}

func TestDetectBackendNone(t *testing.T) {
	if runtime.GOOS == "freebsd" {
		t.Skip("OSS fallback may be present")
	}
	_, err := detectBackend(44100, fakeLookPath())
	assert.ErrorIs(t, err, ErrNoAudioBackend)
}
