// @focus: #sys { term }
// Package terminal is the console driver behind the grid's size and output capabilities.
//
// Features:
//   - Raw mode, alternate screen and hidden cursor for the lifetime of a Console
//   - Window size via TIOCGWINSZ (unix) or the console API (windows)
//   - Buffered output, flushed once per frame
//   - Minimal key decoding for quit and scene navigation
//   - Clean terminal restoration on exit/panic
//
// Sequences are emitted directly; terminfo is not consulted.
package terminal
