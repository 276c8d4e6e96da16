// Package ddram models the display data RAM layout of HD44780-class 16x2
// character LCDs.
//
// The controller backs each of its 2 visible rows with a 40-cell buffer, of
// which only 16 consecutive cells are shown. Shifting the display slides the
// visible window over the buffer ring, so three coordinate spaces coexist:
//
//   - Display space: column 0-15 within the visible window.
//   - Buffer space: column 0-39 within a row's ring buffer.
//   - Physical space: the DDRAM address (row base 0x00 or 0x40 plus the
//     buffer column) written into the set-address command.
//
// With a shift of s, display column c sits at buffer column (s+c) mod 40,
// and the window occupies the arc [s, s+15] mod 40, which may itself wrap
// across the ring boundary.
//
// This package provides:
//
// - Mod: wrap-aware modulo over the 40-cell ring (negative-safe)
// - Window: display/buffer column translation for a given shift
// - Address: buffer cell to physical DDRAM address
// - Window.Split: chunking of an arbitrary-length write into addressable runs
// - Advance: cursor arithmetic for sequential buffer-space writes
//
// Split is where the geometry earns its keep: a single run may not cross the
// physical end of a buffer row nor spill past the window's right edge, and a
// write overflowing the window continues on the next row at the window's
// left edge rather than at buffer column 0.
//
// Example usage:
//
//	w := ddram.Window{Shift: 10}
//
//	// Display column 0 is buffer column 10.
//	col := w.ToBuffer(0)
//
//	// 20 bytes starting there need two runs: buffer columns 10..25 on
//	// row 0, then 10..13 on row 1.
//	runs, endRow, endCol := w.Split(0, col, 20)
//	_ = runs
//	_, _ = endRow, endCol
package ddram
