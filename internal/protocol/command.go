// Package protocol implements the Magic Lantern lamp wire protocol:
// fixed 9-byte command frames written to a single BLE characteristic.
package protocol

import "github.com/dokzlo13/ambilightd/internal/color"

// BLE UUIDs of the lamp's command surface.
const (
	ServiceUUID     = "0000fff0-0000-1000-8000-00805f9b34fb"
	CommandCharUUID = "0000fff3-0000-1000-8000-00805f9b34fb"
)

// FrameSize is the fixed length of every command frame.
const FrameSize = 9

// Frame header and footer bytes. The device rejects anything else.
const (
	frameHeader0 = 0x7E
	frameHeader1 = 0x00
	frameHeader2 = 0x05
	frameHeader3 = 0x03
	frameFooter0 = 0x00
	frameFooter1 = 0xEF
)

// Frame is a single write-once command frame.
type Frame [FrameSize]byte

// Encode builds the RGB command frame for a color. The payload carries
// green before red - the device's documented channel order, not a bug.
func Encode(c color.RGB) Frame {
	return Frame{
		frameHeader0,
		frameHeader1,
		frameHeader2,
		frameHeader3,
		c.G,
		c.R,
		c.B,
		frameFooter0,
		frameFooter1,
	}
}

// Bytes returns the frame as a slice suitable for a characteristic write.
func (f Frame) Bytes() []byte {
	b := make([]byte, FrameSize)
	copy(b, f[:])
	return b
}

// Preset frames. These are ordinary RGB commands, pre-encoded for
// convenience; there is no separate protocol path for them.

// Off turns the lamp off (black).
func Off() Frame { return Encode(color.RGB{}) }

// Red sets the lamp to full red.
func Red() Frame { return Encode(color.RGB{R: 255}) }

// Green sets the lamp to full green.
func Green() Frame { return Encode(color.RGB{G: 255}) }

// Blue sets the lamp to full blue.
func Blue() Frame { return Encode(color.RGB{B: 255}) }

// White sets the lamp to full white.
func White() Frame { return Encode(color.RGB{R: 255, G: 255, B: 255}) }
