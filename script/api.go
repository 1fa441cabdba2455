package script

import (
	"strings"
	"unicode/utf8"

	"github.com/lixenwraith/cellgrid/colors"
	"github.com/lixenwraith/cellgrid/grid"
	lua "github.com/yuin/gopher-lua"
)

var boxStyles = map[string]grid.BoxStyle{
	"thin":   grid.BoxThin,
	"double": grid.BoxDouble,
	"ascii":  grid.BoxASCII,
}

// installAPI registers the grid and color tables
func (s *Scene) installAPI() {
	L := s.L

	L.SetGlobal("grid", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"set":   s.withGrid(luaSet),
		"get":   s.withGrid(luaGet),
		"clear": s.withGrid(luaClear),
		"fill":  s.withGrid(luaFill),
		"hline": s.withGrid(luaHLine),
		"vline": s.withGrid(luaVLine),
		"text":  s.withGrid(luaText),
		"box":   s.withGrid(luaBox),
		"size":  s.withGrid(luaSize),
	}))

	L.SetGlobal("color", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"rgb":   luaRGB,
		"hsv":   luaHSV,
		"named": luaNamed,
	}))
}

// withGrid binds a grid function to the frame's target; outside a frame the grid is 0x0
func (s *Scene) withGrid(fn func(L *lua.LState, g *grid.Grid) int) lua.LGFunction {
	return func(L *lua.LState) int {
		g := s.target
		if g == nil {
			g = emptyGrid
		}
		return fn(L, g)
	}
}

// emptyGrid absorbs drawing from a script's top level
var emptyGrid = grid.New(0, 0)

// checkColor reads a palette index argument, clamped to 0-255
func checkColor(L *lua.LState, n int) uint8 {
	v := L.CheckInt(n)
	return uint8(min(max(v, 0), 255))
}

func optColor(L *lua.LState, n int, def uint8) uint8 {
	if L.Get(n) == lua.LNil {
		return def
	}
	return checkColor(L, n)
}

// optGlyph reads a one-character string argument, space when absent or empty
func optGlyph(L *lua.LState, n int) rune {
	s := L.OptString(n, " ")
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return ' '
	}
	return r
}

func luaSet(L *lua.LState, g *grid.Grid) int {
	g.SetCell(L.CheckInt(1), L.CheckInt(2), checkColor(L, 3), checkColor(L, 4), optGlyph(L, 5))
	return 0
}

func luaGet(L *lua.LState, g *grid.Grid) int {
	c := g.CellAt(L.CheckInt(1), L.CheckInt(2))
	L.Push(lua.LString(string(c.Glyph)))
	L.Push(lua.LNumber(c.Bg))
	L.Push(lua.LNumber(c.Fg))
	return 3
}

func luaClear(L *lua.LState, g *grid.Grid) int {
	g.Clear(optColor(L, 1, colors.DefaultBg), optColor(L, 2, colors.DefaultFg))
	return 0
}

func luaFill(L *lua.LState, g *grid.Grid) int {
	g.FillRect(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4),
		checkColor(L, 5), checkColor(L, 6), optGlyph(L, 7))
	return 0
}

func luaHLine(L *lua.LState, g *grid.Grid) int {
	g.DrawHorizontalLine(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3),
		checkColor(L, 4), checkColor(L, 5), optGlyph(L, 6))
	return 0
}

func luaVLine(L *lua.LState, g *grid.Grid) int {
	g.DrawVerticalLine(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3),
		checkColor(L, 4), checkColor(L, 5), optGlyph(L, 6))
	return 0
}

func luaText(L *lua.LState, g *grid.Grid) int {
	g.DrawText(L.CheckInt(1), L.CheckInt(2), L.CheckString(3), checkColor(L, 4), checkColor(L, 5))
	return 0
}

func luaBox(L *lua.LState, g *grid.Grid) int {
	style := checkBoxStyle(L, 7)
	g.DrawBox(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3), L.CheckInt(4),
		checkColor(L, 5), checkColor(L, 6), style)
	return 0
}

// checkBoxStyle accepts a style name or its number (0 thin, 1 double, 2 ascii)
func checkBoxStyle(L *lua.LState, n int) grid.BoxStyle {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return grid.BoxThin
	case lua.LNumber:
		idx := int(v)
		if lua.LNumber(idx) != v || idx < int(grid.BoxThin) || idx > int(grid.BoxASCII) {
			L.ArgError(n, "box style out of range 0-2: "+v.String())
		}
		return grid.BoxStyle(idx)
	case lua.LString:
		name := strings.ToLower(string(v))
		style, ok := boxStyles[name]
		if !ok {
			L.ArgError(n, "unknown box style "+name)
		}
		return style
	default:
		L.TypeError(n, lua.LTString)
		return grid.BoxThin
	}
}

func luaSize(L *lua.LState, g *grid.Grid) int {
	w, h := g.Size()
	L.Push(lua.LNumber(w))
	L.Push(lua.LNumber(h))
	return 2
}

func luaRGB(L *lua.LState) int {
	L.Push(lua.LNumber(colors.FromRGB(checkColor(L, 1), checkColor(L, 2), checkColor(L, 3))))
	return 1
}

func luaHSV(L *lua.LState) int {
	h := float64(L.CheckNumber(1))
	sat := float64(L.OptNumber(2, 1))
	v := float64(L.OptNumber(3, 1))
	L.Push(lua.LNumber(colors.FromHSV(h, sat, v)))
	return 1
}

func luaNamed(L *lua.LState) int {
	idx, ok := colors.Lookup(L.CheckString(1))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(idx))
	return 1
}
