package script

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/lixenwraith/cellgrid/grid"
	"github.com/lixenwraith/cellgrid/scene"
)

// Register compiles every *.lua file in dir and registers it under its base name.
// Each registry lookup gets its own Lua state. Scripts that fail to compile are
// logged and skipped; the names of registered scripts are returned.
func Register(reg *scene.Registry, dir string, opts ...Option) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.lua"))
	if err != nil {
		return nil, fmt.Errorf("scan scripts: %w", err)
	}
	sort.Strings(paths)

	var names []string
	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			log.Printf("WARN: script %s: %v", path, err)
			continue
		}
		name := sceneName(path)

		// Validate once so broken scripts never reach a playlist
		s, err := LoadString(name, string(src), opts...)
		if err != nil {
			log.Printf("WARN: %v", err)
			continue
		}
		s.Close()

		reg.Register(name, factory(name, string(src), opts))
		names = append(names, name)
	}
	return names, nil
}

func factory(name, src string, opts []Option) scene.Factory {
	return func() scene.Scene {
		s, err := LoadString(name, src, opts...)
		if err != nil {
			return brokenScene{name: name, err: err}
		}
		return s
	}
}

// brokenScene reports its load error on every frame
type brokenScene struct {
	name string
	err  error
}

func (b brokenScene) Name() string { return b.name }
func (b brokenScene) Frame(*grid.Grid, int) error { return b.err }
