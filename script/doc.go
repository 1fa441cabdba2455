// Package script runs grid scenes written in Lua.
//
// A script defines a global function frame(tick) and draws through two tables:
//
//	grid.set(x, y, bg, fg, ch)      grid.get(x, y) -> ch, bg, fg
//	grid.clear(bg, fg)              grid.size() -> w, h
//	grid.fill(x, y, w, h, bg, fg, ch)
//	grid.hline(x, y, len, bg, fg, ch)
//	grid.vline(x, y, len, bg, fg, ch)
//	grid.text(x, y, s, bg, fg)
//	grid.box(x, y, w, h, bg, fg, style)   style: "thin", "double", "ascii" or 0, 1, 2
//	color.rgb(r, g, b) -> idx       color.hsv(h, s, v) -> idx
//	color.named(name) -> idx or nil
//
// Only the base, table, string and math libraries are opened. Each frame runs
// under a deadline; a script that overruns it is interrupted and the frame
// fails with ErrFrameTimeout.
package script
