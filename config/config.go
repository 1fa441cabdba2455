// @focus: #sys { config }
// Package config loads cellgrid settings from defaults, a TOML file,
// CELLGRID_* environment variables and finally command-line flags.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config holds every tunable of the demo and the SSH server
type Config struct {
	FPS          int      `toml:"fps"`
	Scenes       []string `toml:"scenes"`        // empty plays every registered scene
	SceneSeconds float64  `toml:"scene_seconds"` // 0 disables automatic switching
	ScriptDir    string   `toml:"script_dir"`
	Record       string   `toml:"record"`
	Debug        bool     `toml:"debug"`

	Chime  bool    `toml:"chime"`
	Volume float64 `toml:"volume"` // 0.0-1.0

	SSH SSHConfig `toml:"ssh"`
}

// SSHConfig configures cmd/gridsrv
type SSHConfig struct {
	Listen      string `toml:"listen"`
	HostKey     string `toml:"host_key"` // PEM file; generated in memory when empty
	MaxSessions int    `toml:"max_sessions"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		FPS:          30,
		SceneSeconds: 8,
		ScriptDir:    "scripts",
		Volume:       0.5,
		SSH: SSHConfig{
			Listen:      ":2323",
			MaxSessions: 16,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("parsing %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables read by ApplyEnv
const (
	EnvFPS          = "CELLGRID_FPS"
	EnvScenes       = "CELLGRID_SCENES"
	EnvSceneSeconds = "CELLGRID_SCENE_SECONDS"
	EnvScriptDir    = "CELLGRID_SCRIPT_DIR"
	EnvAudio        = "CELLGRID_AUDIO_ENABLED"
	EnvVolume       = "CELLGRID_VOLUME" // 0-100
	EnvSSHListen    = "CELLGRID_SSH_LISTEN"
	EnvSSHHostKey   = "CELLGRID_SSH_HOST_KEY"
)

// ApplyEnv overrides fields from CELLGRID_* variables
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvFPS); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvFPS, err)
		}
		c.FPS = n
	}
	if v, ok := os.LookupEnv(EnvScenes); ok {
		c.Scenes = SplitList(v)
	}
	if v, ok := os.LookupEnv(EnvSceneSeconds); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSceneSeconds, err)
		}
		c.SceneSeconds = f
	}
	if v, ok := os.LookupEnv(EnvScriptDir); ok {
		c.ScriptDir = v
	}
	if v, ok := os.LookupEnv(EnvAudio); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvAudio, err)
		}
		c.Chime = b
	}
	// Master volume as 0-100, converted to 0.0-1.0
	if v, ok := os.LookupEnv(EnvVolume); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvVolume, err)
		}
		c.Volume = min(max(float64(n)/100.0, 0), 1)
	}
	if v, ok := os.LookupEnv(EnvSSHListen); ok {
		c.SSH.Listen = v
	}
	if v, ok := os.LookupEnv(EnvSSHHostKey); ok {
		c.SSH.HostKey = v
	}
	return nil
}

// Validate rejects values the demo cannot run with
func (c *Config) Validate() error {
	var errs []error
	if c.FPS < 1 || c.FPS > 240 {
		errs = append(errs, fmt.Errorf("fps %d out of range 1-240", c.FPS))
	}
	if c.SceneSeconds < 0 {
		errs = append(errs, fmt.Errorf("scene_seconds %v is negative", c.SceneSeconds))
	}
	if c.Volume < 0 || c.Volume > 1 {
		errs = append(errs, fmt.Errorf("volume %v out of range 0-1", c.Volume))
	}
	if c.SSH.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("ssh.max_sessions %d is negative", c.SSH.MaxSessions))
	}
	return errors.Join(errs...)
}

// FrameInterval is the time between frames
func (c *Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(c.FPS)
}

// Dwell is how long each scene stays on screen
func (c *Config) Dwell() time.Duration {
	return time.Duration(c.SceneSeconds * float64(time.Second))
}

// SplitList splits a comma separated list, dropping empty entries
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
