// Package lcd1602 controls an HD44780-class 16x2 character LCD through an
// I2C GPIO expander backpack (PCF8574).
//
// The display has 2 rows of 40 buffer cells each, of which a 16-column
// window is visible. The driver tracks the cursor and window shift so text
// can be placed by display position, buffer position, or at the cursor.
//
// See the examples for how to use this package.
package lcd1602

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/devices/v3/lcd1602/ddram"
)

// HD44780 instruction set.
const (
	cmdClear    byte = 0x01
	cmdHome     byte = 0x02
	cmdEntry    byte = 0x04
	cmdDisplay  byte = 0x08
	cmdShift    byte = 0x10
	cmdFunction byte = 0x20
	cmdCGRAM    byte = 0x40
	cmdDDRAM    byte = 0x80
)

// PCF8574 backpack bit assignments.
const (
	pinRS        byte = 0x01
	pinEnable    byte = 0x04
	pinBacklight byte = 0x08
)

// Settle times after clocking a nibble onto the bus. The backpack has no
// busy-flag readback, so writes pace themselves with fixed delays.
const (
	settleShort = time.Millisecond
	settleInit  = 5 * time.Millisecond
	settleClear = 2 * time.Millisecond
)

// GlyphHeight is the number of pattern rows in a CGRAM glyph.
const GlyphHeight = 8

const glyphSlots = 8

const space byte = 0x20

// Alignment selects how text is placed within the visible row.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// String returns the alignment name.
func (a Alignment) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	}
	return fmt.Sprintf("Alignment(%d)", int(a))
}

// RangeError reports an argument outside its valid range. All range checks
// run before any bus I/O, so a rejected call has no partial side effect.
type RangeError struct {
	Param    string
	Value    int
	Min, Max int
}

func (e *RangeError) Error() string {
	if e.Max < e.Min {
		return fmt.Sprintf("lcd1602: invalid %s=%d, must be %d or greater", e.Param, e.Value, e.Min)
	}
	return fmt.Sprintf("lcd1602: invalid %s=%d, must be %d to %d", e.Param, e.Value, e.Min, e.Max)
}

// ErrNotImplemented is returned for display.TextDisplay features the HD44780
// does not support.
var ErrNotImplemented = fmt.Errorf("lcd1602: %w", display.ErrNotImplemented)

var errHalted = errors.New("lcd1602: halted")

// Opts is the initial configuration of the display.
type Opts struct {
	Cursor    bool // Show the underline cursor
	Blink     bool // Blink the cursor cell
	Backlight bool // Turn the backlight on
}

// Dev is the device handle for the LCD.
type Dev struct {
	// Communication
	c *i2c.Dev

	// Tracked controller state. row/col is the buffer-space cursor (the
	// next write position); shift is the buffer column at the window's
	// left edge. The cursor may legitimately sit outside the window.
	row, col int
	shift    int

	on        bool
	cursor    bool
	blink     bool
	backlight bool

	halted bool
}

// NewI2C creates an LCD device on an I2C bus.
//
// addr is the expander's I2C address, commonly 0x27 or 0x3F. opts can be nil
// for defaults (cursor shown, no blink, backlight on). The display is
// initialized into 4-bit mode and cleared.
func NewI2C(bus i2c.Bus, addr uint16, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{Cursor: true, Backlight: true}
	}
	d := &Dev{
		c:         &i2c.Dev{Bus: bus, Addr: addr},
		backlight: opts.Backlight,
	}
	if err := d.init(opts); err != nil {
		return nil, err
	}
	return d, nil
}

// init runs the 4-bit mode initialization handshake and configures the
// display.
func (d *Dev) init(opts *Opts) error {
	// 0b0011 three times, then 0b0010 to drop to 4-bit transfers.
	if err := d.writeByte(0x33, 0, settleInit, settleShort); err != nil {
		return err
	}
	if err := d.writeByte(0x32, 0, settleShort, settleShort); err != nil {
		return err
	}
	// 4-bit interface, 2 display lines.
	if err := d.sendCommand(cmdFunction | 0x0C); err != nil {
		return err
	}
	if err := d.Clear(); err != nil {
		return err
	}
	if err := d.commandDisplay(true, opts.Cursor, opts.Blink); err != nil {
		return err
	}
	// Cursor increments right, no automatic display shift.
	return d.sendCommand(cmdEntry | 0x02)
}

func wrap(err error) error {
	if err == nil || strings.HasPrefix(err.Error(), "lcd1602") {
		return err
	}
	return fmt.Errorf("lcd1602: %w", err)
}

// strobe puts a nibble on the expander with the enable line raised, then
// drops enable to latch it.
func (d *Dev) strobe(nib byte) error {
	if err := d.c.Tx([]byte{nib | pinEnable}, nil); err != nil {
		return wrap(err)
	}
	return wrap(d.c.Tx([]byte{nib &^ pinEnable}, nil))
}

// writeByte clocks one byte onto the bus as two strobed nibbles, high first.
// rs selects the data register (pinRS) or the instruction register (0).
func (d *Dev) writeByte(b, rs byte, settleHi, settleLo time.Duration) error {
	var bl byte
	if d.backlight {
		bl = pinBacklight
	}
	if err := d.strobe(b&0xF0 | rs | bl); err != nil {
		return err
	}
	time.Sleep(settleHi)
	if err := d.strobe(b<<4&0xF0 | rs | bl); err != nil {
		return err
	}
	time.Sleep(settleLo)
	return nil
}

func (d *Dev) sendCommand(b byte) error {
	return d.writeByte(b, 0, settleShort, settleShort)
}

func (d *Dev) sendData(b byte) error {
	return d.writeByte(b, pinRS, settleShort, settleShort)
}

// setAddress points the controller's address counter at a buffer cell.
func (d *Dev) setAddress(row, col int) error {
	return d.sendCommand(cmdDDRAM | ddram.Address(row, col))
}

func checkRow(row int) error {
	if row < 0 || row >= ddram.Rows {
		return &RangeError{Param: "row", Value: row, Min: 0, Max: ddram.Rows - 1}
	}
	return nil
}

func checkCol(col, cols int) error {
	if col < 0 || col >= cols {
		return &RangeError{Param: "col", Value: col, Min: 0, Max: cols - 1}
	}
	return nil
}

// window returns the current visible window.
func (d *Dev) window() ddram.Window {
	return ddram.Window{Shift: d.shift}
}

// writeRuns writes p starting at a buffer position, splitting it into runs
// that respect the visible window, and leaves the cursor one past the final
// byte. Zero-length input is a no-op.
func (d *Dev) writeRuns(p []byte, row, col int) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	runs, endRow, endCol := d.window().Split(row, col, len(p))
	n := 0
	for _, r := range runs {
		if err := d.setAddress(r.Row, r.Col); err != nil {
			return n, err
		}
		for _, b := range p[r.Off : r.Off+r.Len] {
			if err := d.sendData(b); err != nil {
				return n, err
			}
			n++
		}
	}
	return n, d.SetCursorBuffer(endRow, endCol)
}

// Write writes p at the cursor using display-space semantics and moves the
// cursor past the written text. If the cursor is off the display, writing
// starts at the beginning of the current row. It implements io.Writer; on a
// bus error it returns the number of bytes clocked out before the failure.
func (d *Dev) Write(p []byte) (int, error) {
	if d.halted {
		return 0, errHalted
	}
	col, ok := d.window().ToDisplay(d.col)
	if !ok {
		col = 0
	}
	return d.writeRuns(p, d.row, d.window().ToBuffer(col))
}

// WriteString writes text at the cursor. See Write.
func (d *Dev) WriteString(text string) (int, error) {
	return d.Write([]byte(text))
}

// WriteAt writes p starting at a display position. Text overflowing the
// window's right edge continues at the start of the next row; the cursor
// ends one past the final byte.
func (d *Dev) WriteAt(p []byte, row, col int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.VisibleCols); err != nil {
		return err
	}
	_, err := d.writeRuns(p, row, d.window().ToBuffer(col))
	return err
}

// WriteStringAt writes text starting at a display position. See WriteAt.
func (d *Dev) WriteStringAt(text string, row, col int) error {
	return d.WriteAt([]byte(text), row, col)
}

// WriteBufferAt writes p starting at a buffer position as one sequential
// run, relying on the controller's address auto-increment. The cursor ends
// one past the final byte, with the column wrapping modulo the buffer width
// and the carry advancing the row.
func (d *Dev) WriteBufferAt(p []byte, row, col int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.BufferCols); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	if err := d.setAddress(row, col); err != nil {
		return err
	}
	for _, b := range p {
		if err := d.sendData(b); err != nil {
			return err
		}
	}
	d.row, d.col = ddram.Advance(row, col, len(p))
	return nil
}

// WriteBuffer writes p at the cursor's buffer position. See WriteBufferAt.
func (d *Dev) WriteBuffer(p []byte) error {
	if d.halted {
		return errHalted
	}
	return d.WriteBufferAt(p, d.row, d.col)
}

// WriteStringBufferAt writes text starting at a buffer position. See
// WriteBufferAt.
func (d *Dev) WriteStringBufferAt(text string, row, col int) error {
	return d.WriteBufferAt([]byte(text), row, col)
}

// WriteStringBuffer writes text at the cursor's buffer position. See
// WriteBuffer.
func (d *Dev) WriteStringBuffer(text string) error {
	return d.WriteBuffer([]byte(text))
}

// alignSlice pads or truncates p for placement within the visible row,
// returning the bytes to write and the starting display column.
func alignSlice(p []byte, align Alignment, fill bool) ([]byte, int) {
	if fill || len(p) > ddram.VisibleCols {
		pad := bytes.Repeat([]byte{space}, ddram.VisibleCols)
		switch align {
		case AlignCenter:
			// Extra padding, if any, leads.
			buf := append(append(append([]byte{}, pad...), p...), pad...)
			start := (len(buf) - ddram.VisibleCols) / 2
			return buf[start : start+ddram.VisibleCols], 0
		case AlignRight:
			buf := append(append([]byte{}, pad...), p...)
			return buf[len(buf)-ddram.VisibleCols:], 0
		default:
			buf := append(append([]byte{}, p...), pad...)
			return buf[:ddram.VisibleCols], 0
		}
	}
	switch align {
	case AlignCenter:
		return p, (ddram.VisibleCols - len(p)) / 2
	case AlignRight:
		return p, ddram.VisibleCols - len(p)
	}
	return p, 0
}

// WriteAligned writes p on a row with left, center, or right placement.
// With fill true, or when p exceeds the row width, exactly one full row of
// bytes is written, padded and truncated according to the alignment;
// otherwise only p itself is written and surrounding cells keep their
// content.
func (d *Dev) WriteAligned(p []byte, row int, align Alignment, fill bool) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if align < AlignLeft || align > AlignRight {
		return &RangeError{Param: "align", Value: int(align), Min: int(AlignLeft), Max: int(AlignRight)}
	}
	out, col := alignSlice(p, align, fill)
	return d.WriteAt(out, row, col)
}

// WriteStringAligned writes text on a row with alignment. See WriteAligned.
func (d *Dev) WriteStringAligned(text string, row int, align Alignment, fill bool) error {
	return d.WriteAligned([]byte(text), row, align, fill)
}

// Clear clears the whole buffer, resets the window shift and moves the
// cursor to the top-left corner.
func (d *Dev) Clear() error {
	if d.halted {
		return errHalted
	}
	if err := d.writeByte(cmdClear, 0, settleShort, settleClear); err != nil {
		return err
	}
	d.shift, d.row, d.col = 0, 0, 0
	return nil
}

// Home resets the window shift and moves the cursor to the top-left corner
// without clearing any content.
func (d *Dev) Home() error {
	if d.halted {
		return errHalted
	}
	if err := d.writeByte(cmdHome, 0, settleShort, settleClear); err != nil {
		return err
	}
	d.shift, d.row, d.col = 0, 0, 0
	return nil
}

// ClearRange fills length display cells with spaces starting at a display
// position, moving the cursor past them. A length of 0 clears to the end of
// the visible row; longer lengths are capped at two full rows.
func (d *Dev) ClearRange(row, col, length int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.VisibleCols); err != nil {
		return err
	}
	if length < 0 {
		return &RangeError{Param: "length", Value: length, Min: 0, Max: -1}
	}
	if length == 0 {
		length = ddram.VisibleCols - col
	} else {
		length = min(length, 2*ddram.VisibleCols)
	}
	return d.WriteAt(bytes.Repeat([]byte{space}, length), row, col)
}

// ClearRow clears the visible part of a row and moves the cursor to the
// row's first display column.
func (d *Dev) ClearRow(row int) error {
	if err := d.ClearRange(row, 0, ddram.VisibleCols); err != nil {
		return err
	}
	return d.CursorHome(row)
}

// ClearBufferRange fills length buffer cells with spaces starting at a
// buffer position, moving the cursor past them. A length of 0 clears to the
// end of the buffer row; longer lengths are capped at two full buffer rows.
func (d *Dev) ClearBufferRange(row, col, length int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.BufferCols); err != nil {
		return err
	}
	if length < 0 {
		return &RangeError{Param: "length", Value: length, Min: 0, Max: -1}
	}
	if length == 0 {
		length = ddram.BufferCols - col
	} else {
		length = min(length, 2*ddram.BufferCols)
	}
	return d.WriteBufferAt(bytes.Repeat([]byte{space}, length), row, col)
}

// ClearRowBuffer clears a row's whole buffer, shifts the window back to its
// home position and moves the cursor to the row's first cell.
func (d *Dev) ClearRowBuffer(row int) error {
	if err := d.ClearBufferRange(row, 0, ddram.BufferCols); err != nil {
		return err
	}
	return d.BufferHome(row)
}

// CursorHome moves the cursor to the first display column of a row.
func (d *Dev) CursorHome(row int) error {
	return d.SetCursor(row, 0)
}

// BufferHome moves the cursor to the first buffer cell of a row and shifts
// the window back to its home position.
func (d *Dev) BufferHome(row int) error {
	if err := d.SetCursorBuffer(row, 0); err != nil {
		return err
	}
	return d.ShiftTo(0)
}

// SetCursor moves the cursor to a display position.
func (d *Dev) SetCursor(row, col int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.VisibleCols); err != nil {
		return err
	}
	return d.SetCursorBuffer(row, d.window().ToBuffer(col))
}

// SetCursorBuffer moves the cursor to a buffer position, which may be
// outside the visible window.
func (d *Dev) SetCursorBuffer(row, col int) error {
	if d.halted {
		return errHalted
	}
	if err := checkRow(row); err != nil {
		return err
	}
	if err := checkCol(col, ddram.BufferCols); err != nil {
		return err
	}
	if err := d.setAddress(row, col); err != nil {
		return err
	}
	d.row, d.col = row, col
	return nil
}

// MoveCursor moves the display cursor by offset columns. Motion saturates
// at the visible edges instead of wrapping or scrolling the window.
func (d *Dev) MoveCursor(offset int) error {
	if d.halted {
		return errHalted
	}
	col := ddram.Mod(d.col - d.shift + offset)
	if col >= ddram.VisibleCols {
		if offset < 0 {
			col = 0
		} else {
			col = ddram.VisibleCols - 1
		}
	}
	return d.SetCursor(d.row, col)
}

// MoveCursorBuffer moves the buffer cursor by offset cells, wrapping around
// the buffer ring.
func (d *Dev) MoveCursorBuffer(offset int) error {
	if d.halted {
		return errHalted
	}
	return d.SetCursorBuffer(d.row, ddram.Mod(d.col+offset))
}

// Shift slides the visible window by offset buffer columns, one shift pulse
// per column, wrapping modulo the buffer width. Positive offsets move the
// window right over the buffer (the content appears to move left). The
// cursor's buffer position is unchanged; only its mapping to the display
// moves.
func (d *Dev) Shift(offset int) error {
	if d.halted {
		return errHalted
	}
	pulse := cmdShift | 0x08
	if offset < 0 {
		pulse |= 0x04
	}
	n := offset
	if n < 0 {
		n = -n
	}
	for range n % ddram.BufferCols {
		if err := d.sendCommand(pulse); err != nil {
			return err
		}
	}
	d.shift = ddram.Mod(d.shift + offset)
	return nil
}

// ShiftTo shifts the window so the given buffer column sits at the
// display's left edge.
func (d *Dev) ShiftTo(col int) error {
	if d.halted {
		return errHalted
	}
	if err := checkCol(col, ddram.BufferCols); err != nil {
		return err
	}
	return d.Shift(col - d.shift)
}

// commandDisplay issues the display-control instruction and records the
// resulting state.
func (d *Dev) commandDisplay(on, cursor, blink bool) error {
	b := cmdDisplay
	if on {
		b |= 0x04
	}
	if cursor {
		b |= 0x02
	}
	if blink {
		b |= 0x01
	}
	if err := d.sendCommand(b); err != nil {
		return err
	}
	d.on, d.cursor, d.blink = on, cursor, blink
	return nil
}

// Display turns the display on or off. Content and state are kept.
func (d *Dev) Display(on bool) error {
	if d.halted {
		return errHalted
	}
	return d.commandDisplay(on, d.cursor, d.blink)
}

// SetCursorMode sets cursor visibility and blinking.
func (d *Dev) SetCursorMode(show, blink bool) error {
	if d.halted {
		return errHalted
	}
	return d.commandDisplay(d.on, show, blink)
}

// Backlight turns the backlight on (intensity > 0) or off. The expander has
// a single switched backlight line, so intermediate intensities are not
// available.
func (d *Dev) Backlight(intensity display.Intensity) error {
	if d.halted {
		return errHalted
	}
	d.backlight = intensity > 0
	// Refresh so the backlight bit goes out with the next transfer.
	return d.commandDisplay(d.on, d.cursor, d.blink)
}

// SetGlyph programs a custom glyph into CGRAM slot code (0-7), pattern being
// its 8 rows top to bottom, 5 valid bits per row. The glyph is displayed by
// writing the slot number as a character.
func (d *Dev) SetGlyph(code int, pattern []byte) error {
	if d.halted {
		return errHalted
	}
	if code < 0 || code >= glyphSlots {
		return &RangeError{Param: "code", Value: code, Min: 0, Max: glyphSlots - 1}
	}
	if len(pattern) != GlyphHeight {
		return &RangeError{Param: "len(pattern)", Value: len(pattern), Min: GlyphHeight, Max: GlyphHeight}
	}
	if err := d.sendCommand(cmdCGRAM | byte(code)*GlyphHeight); err != nil {
		return err
	}
	for _, b := range pattern {
		if err := d.sendData(b); err != nil {
			return err
		}
	}
	// Writing CGRAM moved the address counter; point it back at the cursor.
	return d.setAddress(d.row, d.col)
}

// ClearGlyph blanks the custom glyph in CGRAM slot code.
func (d *Dev) ClearGlyph(code int) error {
	return d.SetGlyph(code, make([]byte, GlyphHeight))
}

// Position returns the cursor's display position, or (-1, -1) when the
// cursor sits outside the visible window.
func (d *Dev) Position() (row, col int) {
	col, ok := d.window().ToDisplay(d.col)
	if !ok {
		return -1, -1
	}
	return d.row, col
}

// BufferPosition returns the cursor's buffer position.
func (d *Dev) BufferPosition() (row, col int) {
	return d.row, d.col
}

// ShiftOffset returns the buffer column at the window's left edge.
func (d *Dev) ShiftOffset() int {
	return d.shift
}

// Rows returns the number of display rows.
func (d *Dev) Rows() int {
	return ddram.Rows
}

// Cols returns the number of visible display columns.
func (d *Dev) Cols() int {
	return ddram.VisibleCols
}

// BufferCols returns the buffer width per row.
func (d *Dev) BufferCols() int {
	return ddram.BufferCols
}

// MinRow returns the min row position.
func (d *Dev) MinRow() int {
	return 0
}

// MinCol returns the min column position.
func (d *Dev) MinCol() int {
	return 0
}

// AutoScroll is not supported by this device. Returns ErrNotImplemented.
func (d *Dev) AutoScroll(enabled bool) error {
	return ErrNotImplemented
}

// Cursor sets the cursor mode. Multiple modes can be passed:
// Cursor(display.CursorOff).
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	if d.halted {
		return errHalted
	}
	var show, blink bool
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			show, blink = false, false
		case display.CursorUnderline:
			show = true
		case display.CursorBlink, display.CursorBlock:
			show, blink = true, true
		default:
			return fmt.Errorf("lcd1602: unexpected cursor mode %d", mode)
		}
	}
	return d.commandDisplay(d.on, show, blink)
}

// Move moves the cursor one display column forward or backward. Vertical
// movement is not supported.
func (d *Dev) Move(dir display.CursorDirection) error {
	switch dir {
	case display.Forward:
		return d.MoveCursor(1)
	case display.Backward:
		return d.MoveCursor(-1)
	}
	return ErrNotImplemented
}

// MoveTo moves the cursor to a display position. See SetCursor.
func (d *Dev) MoveTo(row, col int) error {
	return d.SetCursor(row, col)
}

// Halt turns the backlight and display off and clears the buffer. After
// calling Halt, the device no longer responds to operations until it is
// re-initialized.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	d.backlight = false
	if err := d.commandDisplay(false, false, false); err != nil {
		return err
	}
	if err := d.writeByte(cmdClear, 0, settleShort, settleClear); err != nil {
		return err
	}
	d.shift, d.row, d.col = 0, 0, 0
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("lcd1602.Dev{%dx%d}", ddram.VisibleCols, ddram.Rows)
}

var _ conn.Resource = &Dev{}
var _ display.TextDisplay = &Dev{}
var _ display.DisplayBacklight = &Dev{}
