// @focus: #sys { scene }
// Package scene holds the demo animations that drive a grid frame by frame,
// the name registry they are selected from, and the runner that paces them.
package scene

import (
	"github.com/lixenwraith/cellgrid/grid"
)

// Scene draws one animation frame into g. tick counts frames since the scene
// became current, starting at 0. The grid's logical size is the viewport of
// the previous render, already fitted to the terminal.
type Scene interface {
	Name() string
	Frame(g *grid.Grid, tick int) error
}

// Factory creates a fresh scene instance; stateful scenes get one per output target
type Factory func() Scene

// Func adapts a stateless draw function to Scene
type Func struct {
	SceneName string
	Draw      func(g *grid.Grid, tick int)
}

func (f Func) Name() string { return f.SceneName }

func (f Func) Frame(g *grid.Grid, tick int) error {
	f.Draw(g, tick)
	return nil
}
