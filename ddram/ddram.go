// Package ddram models the display data RAM of an HD44780-class 16x2 LCD:
// a 2x40 character ring buffer viewed through a 16-column window whose left
// edge floats with the display shift.
package ddram

// Display geometry. The controller has 2 logical rows of 40 buffer cells
// each, of which a 16-column window is visible at any time.
const (
	Rows        = 2
	VisibleCols = 16
	BufferCols  = 40
)

// DDRAM base address of each row.
var rowAddr = [Rows]byte{0x00, 0x40}

// Mod reduces n into [0, BufferCols), correct for negative n.
func Mod(n int) int {
	n %= BufferCols
	if n < 0 {
		n += BufferCols
	}
	return n
}

// Address returns the physical DDRAM address of a buffer cell.
// row must be in [0, Rows) and col in [0, BufferCols).
func Address(row, col int) byte {
	return rowAddr[row] + byte(col)
}

// Window is the visible 16-column view onto a buffer row. Shift is the
// buffer column currently aligned to the window's left edge.
type Window struct {
	Shift int
}

// ToBuffer maps a display column to its buffer column.
func (w Window) ToBuffer(col int) int {
	return Mod(w.Shift + col)
}

// ToDisplay maps a buffer column to its display column. ok is false when the
// cell is outside the visible window, in which case col is -1.
func (w Window) ToDisplay(bufferCol int) (col int, ok bool) {
	col = Mod(bufferCol - w.Shift)
	if col >= VisibleCols {
		return -1, false
	}
	return col, true
}

// RightEdge returns the buffer column at the window's right edge.
func (w Window) RightEdge() int {
	return Mod(w.Shift + VisibleCols - 1)
}

// Run is a contiguous span of a write that fits in one physically addressed
// segment. Off and Len slice the source bytes; Row and Col are the buffer
// position of the first byte.
type Run struct {
	Row, Col int
	Off, Len int
}

// Split breaks an n-byte write starting at buffer position (row, col) into
// runs. Each run stops at whichever comes first: the physical end of the
// 40-cell buffer row, or the window's right edge. A write overflowing the
// right edge continues at the window's left edge (the shift column) on the
// next row, wrapping from the last row back to the first. It returns the
// runs and the buffer position one past the final byte; for n <= 0 it
// returns no runs and the position unchanged.
//
// The input may span the ring more than once; rows are simply revisited.
func (w Window) Split(row, col, n int) ([]Run, int, int) {
	if n <= 0 {
		return nil, row, col
	}
	edge := w.RightEdge()
	var runs []Run
	off := 0
	for n > 0 {
		var length int
		if col > edge {
			// Past the window in ring order; only the physical row
			// end bounds the run.
			length = min(n, BufferCols-col)
		} else {
			length = min(n, edge-col+1)
		}
		runs = append(runs, Run{Row: row, Col: col, Off: off, Len: length})
		n -= length
		off += length
		col = Mod(col + length)
		if n > 0 && col == Mod(edge+1) {
			col = w.Shift
			row = (row + 1) % Rows
		}
	}
	return runs, row, col
}

// Advance returns the cursor position after writing n bytes sequentially
// from (row, col) in buffer space, with the column wrapping modulo
// BufferCols and the carry advancing the row modulo Rows.
func Advance(row, col, n int) (int, int) {
	col += n
	return (row + col/BufferCols) % Rows, Mod(col)
}
