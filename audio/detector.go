// @focus: #sys { audio }
package audio

import (
	"os"
	"os/exec"
	"runtime"
	"strconv"
)

// candidate builds the argument list of one CLI player for a sample rate
type candidate struct {
	typ  BackendType
	name string
	args func(rate string) []string
}

// Priority: pacat > pw-cat > aplay > play (sox) > ffplay
var candidates = []candidate{
	{BackendPulse, "pacat", func(rate string) []string {
		return []string{"--raw", "--format=s16le", "--rate=" + rate, "--channels=2", "--latency-msec=50", "--playback"}
	}},
	{BackendPipeWire, "pw-cat", func(rate string) []string {
		return []string{"--playback", "--format=s16", "--rate=" + rate, "--channels=2", "--latency=50ms", "-"}
	}},
	{BackendALSA, "aplay", func(rate string) []string {
		return []string{"-t", "raw", "-f", "S16_LE", "-r", rate, "-c", "2", "-q"}
	}},
	{BackendSoX, "play", func(rate string) []string {
		return []string{"-t", "raw", "-e", "signed", "-b", "16", "-c", "2", "-r", rate, "-", "-d", "-q"}
	}},
	{BackendFFplay, "ffplay", func(rate string) []string {
		return []string{"-nodisp", "-autoexit", "-f", "s16le", "-ac", "2", "-ar", rate,
			"-probesize", "32", "-analyzeduration", "0", "-i", "pipe:0", "-loglevel", "quiet"}
	}},
}

// DetectBackend searches PATH for a raw PCM player
func DetectBackend(rate int) (*BackendConfig, error) {
	return detectBackend(rate, exec.LookPath)
}

func detectBackend(rate int, lookPath func(string) (string, error)) (*BackendConfig, error) {
	r := strconv.Itoa(rate)
	for _, c := range candidates {
		if path, err := lookPath(c.name); err == nil {
			return &BackendConfig{Type: c.typ, Name: c.name, Path: path, Args: c.args(r)}, nil
		}
	}

	// FreeBSD OSS (direct device write, no exec needed)
	if runtime.GOOS == "freebsd" {
		if _, err := os.Stat("/dev/dsp"); err == nil {
			return &BackendConfig{Type: BackendOSS, Name: "oss", Path: "/dev/dsp"}, nil
		}
	}

	return nil, ErrNoAudioBackend
}
