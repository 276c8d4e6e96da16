// Package lcd1602 controls an HD44780-class 16x2 character LCD over I2C.
//
// The display is driven through a PCF8574 GPIO expander backpack in 4-bit
// mode. This driver implements the display.TextDisplay and
// display.DisplayBacklight interfaces from periph.io.
//
// # Display Characteristics
//
// - 2 rows x 16 visible columns, backed by 40 buffer cells per row
// - Horizontal shifting slides the visible window over the buffer
// - Underline cursor with optional blink
// - 8 CGRAM slots for custom glyphs (codes 0x00-0x07)
// - Switched backlight via the expander
//
// # Coordinate Spaces
//
// Three coordinate spaces coexist and the driver translates between them:
//
//   - Display position: (row 0-1, column 0-15) within the visible window.
//   - Buffer position: (row 0-1, column 0-39) within the scroll buffer.
//   - Physical DDRAM address: row base (0x00/0x40) plus the buffer column.
//
// Writes are available in all three flavors: WriteAt places text by display
// position and wraps past the window's right edge onto the next row;
// WriteBufferAt places text by buffer position and runs straight through the
// buffer; Write continues at the cursor. WriteAligned adds left/center/right
// placement within the visible row.
//
// # Hardware Connection
//
// Connect the backpack to the I2C bus:
//
//	Backpack Pin → System Pin
//	GND          → GND
//	VCC          → 5V
//	SDA          → I2C Data (SDA)
//	SCL          → I2C Clock (SCL)
//
// The expander usually answers at address 0x27 or 0x3F.
//
// # Basic Usage
//
//	package main
//
//	import (
//		"log"
//
//		"periph.io/x/conn/v3/i2c/i2creg"
//		"periph.io/x/devices/v3/lcd1602"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//
//		// Open the I2C bus
//		bus, err := i2creg.Open("")
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer bus.Close()
//
//		// Create the device
//		dev, err := lcd1602.NewI2C(bus, 0x27, nil)
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Halt()
//
//		dev.WriteStringAligned("Hello", 0, lcd1602.AlignCenter, true)
//		dev.WriteStringAt("periph.io", 1, 0)
//	}
//
// # Scrolling Long Text
//
// Text longer than the window can be written into the buffer and revealed by
// shifting:
//
//	dev.WriteBufferAt([]byte("The quick brown fox jumps over..."), 0, 0)
//	for i := 0; i < 24; i++ {
//		dev.Shift(1)
//		time.Sleep(300 * time.Millisecond)
//	}
package lcd1602
