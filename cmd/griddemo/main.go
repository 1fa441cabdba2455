// Command griddemo cycles cell-grid scenes in the local terminal
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"slices"
	"syscall"
	"time"

	"github.com/lixenwraith/cellgrid/audio"
	"github.com/lixenwraith/cellgrid/config"
	"github.com/lixenwraith/cellgrid/record"
	"github.com/lixenwraith/cellgrid/scene"
	"github.com/lixenwraith/cellgrid/script"
	"github.com/lixenwraith/cellgrid/terminal"
)

var (
	configPath = flag.String("config", "cellgrid.toml", "Config file (missing file uses defaults)")
	fpsFlag    = flag.Int("fps", 0, "Frames per second")
	sceneFlag  = flag.String("scene", "", "Comma separated scene list (default: all)")
	dwellFlag  = flag.Float64("dwell", 0, "Seconds per scene, 0 keeps the config value")
	scriptFlag = flag.String("script", "", "Directory of Lua scenes")
	recordFlag = flag.String("record", "", "Record output to a capture file")
	replayFlag = flag.String("replay", "", "Replay a capture file and exit")
	speedFlag  = flag.Float64("speed", 1, "Replay speed multiplier, 0 for no delay")
	chimeFlag  = flag.Bool("chime", false, "Play a chime on scene switch")
	debugFlag  = flag.Bool("debug", false, "Write logs to logs/cellgrid.log")
	listFlag   = flag.Bool("list", false, "List available scenes and exit")
)

func main() {
	// Restore the terminal even if a scene crashes
	defer func() {
		if r := recover(); r != nil {
			terminal.EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\n\x1b[31mGRIDDEMO CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()

	flag.Parse()
	os.Exit(run())
}

func run() int {
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "griddemo: %v\n", err)
		return 2
	}

	if logFile := setupLogging(cfg.Debug); logFile != nil {
		defer logFile.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *replayFlag != "" {
		return replay(ctx, *replayFlag, *speedFlag)
	}

	reg := buildRegistry(cfg)
	if *listFlag {
		for _, name := range reg.Names() {
			fmt.Println(name)
		}
		return 0
	}

	scenes, err := reg.Resolve(cfg.Scenes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "griddemo: %v\n", err)
		return 2
	}

	term := terminal.New()
	if err := term.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		return 1
	}
	defer term.Fini()

	player := startAudio(cfg)
	defer player.Close()

	var out io.Writer = term
	flush := term.Flush
	if cfg.Record != "" {
		rec, err := record.Create(cfg.Record, term)
		if err != nil {
			log.Printf("ERROR: %v (continuing without recording)", err)
		} else {
			defer func() {
				if err := rec.Close(); err != nil {
					log.Printf("ERROR: Closing capture: %v", err)
				}
			}()
			out, flush = rec, recordingFlush(rec, term)
			log.Printf("INFO: Recording to %s", cfg.Record)
		}
	}

	runner := scene.NewRunner(out, term.Size, scene.NewPlaylist(scenes, cfg.Dwell(), time.Now()), cfg.FrameInterval())
	runner.Flush = flush
	runner.OnSwitch = func(_ string, wrapped bool) {
		if wrapped {
			player.Play(audio.SoundWrap)
		} else {
			player.Play(audio.SoundSwitch)
		}
	}
	defer runner.Close()

	if watcher := watchConfig(*configPath, cfg, reg, runner); watcher != nil {
		defer watcher.Stop()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	ctrl := make(chan scene.Control, 8)
	go forwardInput(ctx, term, ctrl, cancel)

	if err := runner.Run(ctx, ctrl); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("ERROR: %v", err)
		return 1
	}
	return 0
}

// loadConfig layers defaults, the config file, CELLGRID_* variables and flags
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags over cfg
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "fps":
			cfg.FPS = *fpsFlag
		case "scene":
			cfg.Scenes = config.SplitList(*sceneFlag)
		case "dwell":
			cfg.SceneSeconds = *dwellFlag
		case "script":
			cfg.ScriptDir = *scriptFlag
		case "record":
			cfg.Record = *recordFlag
		case "chime":
			cfg.Chime = *chimeFlag
		case "debug":
			cfg.Debug = *debugFlag
		}
	})
}

func buildRegistry(cfg *config.Config) *scene.Registry {
	reg := scene.Builtin()
	if cfg.ScriptDir == "" {
		return reg
	}
	names, err := script.Register(reg, cfg.ScriptDir)
	if err != nil {
		log.Printf("WARN: Lua scenes unavailable: %v", err)
		return reg
	}
	log.Printf("INFO: Loaded %d Lua scenes from %s", len(names), cfg.ScriptDir)
	return reg
}

func startAudio(cfg *config.Config) *audio.Player {
	acfg := audio.DefaultConfig()
	acfg.Enabled = cfg.Chime
	acfg.Volume = cfg.Volume
	player := audio.NewPlayer(acfg)
	if err := player.Start(); err != nil {
		log.Printf("WARN: Audio start failed: %v (continuing without audio)", err)
	}
	return player
}

// recordingFlush flushes the terminal then closes the capture frame.
// A failing capture is dropped after the first error; the display keeps running.
func recordingFlush(rec *record.Recorder, term *terminal.Console) func() error {
	failed := false
	return func() error {
		if err := term.Flush(); err != nil {
			return err
		}
		if failed {
			return nil
		}
		if err := rec.EndFrame(); err != nil {
			log.Printf("ERROR: Recording stopped: %v", err)
			failed = true
		}
		return nil
	}
}

// watchConfig reloads frame rate and playlist when the config file changes
func watchConfig(path string, current *config.Config, reg *scene.Registry, runner *scene.Runner) *config.Watcher {
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	applied := *current
	w, err := config.NewWatcher(path, func(next *config.Config) {
		applyFlags(next)
		runner.SetInterval(next.FrameInterval())

		if slices.Equal(next.Scenes, applied.Scenes) && next.SceneSeconds == applied.SceneSeconds {
			applied = *next
			return
		}
		scenes, err := reg.Resolve(next.Scenes)
		if err != nil {
			log.Printf("ERROR: Config reload: %v", err)
			return
		}
		runner.SetPlaylist(scene.NewPlaylist(scenes, next.Dwell(), time.Now()))
		applied = *next
	})
	if err != nil {
		log.Printf("WARN: Config hot reload disabled: %v", err)
		return nil
	}
	return w
}

// forwardInput turns key presses and resizes into runner controls
func forwardInput(ctx context.Context, term *terminal.Console, ctrl chan<- scene.Control, quit context.CancelFunc) {
	keys, resized := term.Keys(), term.Resized()
	for {
		var c scene.Control
		select {
		case <-ctx.Done():
			return
		case <-resized:
			c = scene.ControlRedraw
		case k, ok := <-keys:
			if !ok {
				quit()
				return
			}
			switch k {
			case terminal.KeyQuit:
				quit()
				return
			case terminal.KeyNext:
				c = scene.ControlNext
			case terminal.KeyPrev:
				c = scene.ControlPrev
			default:
				continue
			}
		}
		select {
		case ctrl <- c:
		default:
		}
	}
}

func replay(ctx context.Context, path string, speed float64) int {
	if err := terminal.Enter(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "griddemo: %v\n", err)
		return 1
	}
	err := record.ReplayFile(ctx, os.Stdout, path, speed)
	terminal.Leave(os.Stdout)

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "griddemo: replay: %v\n", err)
		return 1
	}
	return 0
}
