package protocol

import (
	"testing"

	"github.com/dokzlo13/ambilightd/internal/color"
)

func TestEncodeLayout(t *testing.T) {
	tests := []struct {
		name string
		in   color.RGB
	}{
		{"black", color.RGB{}},
		{"white", color.RGB{R: 255, G: 255, B: 255}},
		{"mixed", color.RGB{R: 17, G: 34, B: 51}},
		{"red_only", color.RGB{R: 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Encode(tt.in)

			if len(f) != FrameSize {
				t.Fatalf("frame length = %d, want %d", len(f), FrameSize)
			}
			if f[0] != 0x7E || f[1] != 0x00 || f[2] != 0x05 || f[3] != 0x03 {
				t.Errorf("bad header: % X", f[:4])
			}
			if f[7] != 0x00 || f[8] != 0xEF {
				t.Errorf("bad footer: % X", f[7:])
			}
			// Payload order is G, R, B.
			if f[4] != tt.in.G || f[5] != tt.in.R || f[6] != tt.in.B {
				t.Errorf("payload = % X, want G=%02X R=%02X B=%02X", f[4:7], tt.in.G, tt.in.R, tt.in.B)
			}
		})
	}
}

func TestPresets(t *testing.T) {
	tests := []struct {
		name  string
		frame Frame
		want  color.RGB
	}{
		{"off", Off(), color.RGB{}},
		{"red", Red(), color.RGB{R: 255}},
		{"green", Green(), color.RGB{G: 255}},
		{"blue", Blue(), color.RGB{B: 255}},
		{"white", White(), color.RGB{R: 255, G: 255, B: 255}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.frame != Encode(tt.want) {
				t.Errorf("preset %s = % X, want % X", tt.name, tt.frame, Encode(tt.want))
			}
		})
	}
}

func TestFrameBytes(t *testing.T) {
	f := Encode(color.RGB{R: 1, G: 2, B: 3})
	b := f.Bytes()

	if len(b) != FrameSize {
		t.Fatalf("bytes length = %d, want %d", len(b), FrameSize)
	}

	// Mutating the slice must not touch the frame.
	b[4] = 0xFF
	if f[4] != 2 {
		t.Error("Bytes() aliases the frame array")
	}
}
