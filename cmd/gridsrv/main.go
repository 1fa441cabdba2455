// Command gridsrv serves the scene playlist to SSH clients
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lixenwraith/cellgrid/config"
	"github.com/lixenwraith/cellgrid/scene"
	"github.com/lixenwraith/cellgrid/script"
	"github.com/lixenwraith/cellgrid/sshserve"
)

var (
	configPath  = flag.String("config", "cellgrid.toml", "Config file (missing file uses defaults)")
	listenFlag  = flag.String("listen", "", "Listen address, overrides ssh.listen")
	hostKeyFlag = flag.String("hostkey", "", "PEM host key, overrides ssh.host_key")
	maxFlag     = flag.Int("max-sessions", -1, "Concurrent session limit, 0 for unlimited")
	debugFlag   = flag.Bool("debug", false, "Log with microsecond timestamps and file positions")
)

const shutdownGrace = 5 * time.Second

func main() {
	flag.Parse()

	log.SetOutput(os.Stderr)
	if *debugFlag {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err == nil {
		err = cfg.ApplyEnv()
	}
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	if *listenFlag != "" {
		cfg.SSH.Listen = *listenFlag
	}
	if *hostKeyFlag != "" {
		cfg.SSH.HostKey = *hostKeyFlag
	}
	if *maxFlag >= 0 {
		cfg.SSH.MaxSessions = *maxFlag
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	reg := scene.Builtin()
	if cfg.ScriptDir != "" {
		if names, err := script.Register(reg, cfg.ScriptDir); err != nil {
			log.Printf("WARN: Lua scenes unavailable: %v", err)
		} else {
			log.Printf("INFO: Loaded %d Lua scenes from %s", len(names), cfg.ScriptDir)
		}
	}

	srv, err := sshserve.New(sshserve.Config{
		Addr:        cfg.SSH.Listen,
		HostKeyPath: cfg.SSH.HostKey,
		MaxSessions: cfg.SSH.MaxSessions,
		Scenes:      cfg.Scenes,
		Dwell:       cfg.Dwell(),
		Interval:    cfg.FrameInterval(),
	}, reg)
	if err != nil {
		log.Fatalf("FATAL: Failed to create SSH server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("FATAL: SSH server error: %v", err)
		}
	case <-ctx.Done():
		log.Printf("INFO: Shutting down, %d sessions active", srv.Active())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			log.Printf("WARN: Forcing close: %v", err)
			srv.Close()
		}
	}
	log.Println("INFO: SSH server shut down.")
}
