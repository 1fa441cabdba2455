// @focus: #sys { grid }
// Package grid implements a pre-encoded cell buffer for full-frame terminal painting.
//
// Every cell is stored as its final SGR byte run (256-color background, foreground,
// one glyph) so a frame is a cursor move plus one contiguous copy per row:
//   - Fixed CellWidth encoding, colors written in place as 3 decimal digits
//   - Capacity grows monotonically, logical viewport follows the terminal
//   - Screen clear only after a terminal resize, erase-to-EOL only after a shrink
//
// No diffing, layering or double buffering: each Render repaints the whole viewport.
package grid
