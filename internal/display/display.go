// Package display models monitor geometry and the sampling zones
// derived from it. Descriptors are immutable once enumerated; zone
// derivation happens once per session.
package display

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrNoDisplays is returned when enumeration finds no active displays.
var ErrNoDisplays = errors.New("no displays found")

// Descriptor describes one monitor. Bounds are in logical (DPI-scaled)
// coordinates and may have a negative origin for monitors positioned
// left of or above the primary.
type Descriptor struct {
	ID           int
	Name         string
	Bounds       image.Rectangle
	Scale        float64 // 1.0, 1.25, 1.5 or 2.0
	UltraHighRes bool
	Primary      bool
}

// CaptureBounds returns the physical-pixel rectangle of the display,
// applying the scale factor so capture coordinates match real pixels.
func (d Descriptor) CaptureBounds() image.Rectangle {
	return scaleRect(d.Bounds, d.scale())
}

func (d Descriptor) scale() float64 {
	if d.Scale <= 0 {
		return 1.0
	}
	return d.Scale
}

// Zone is a sub-rectangle of a display assigned to one lamp for color
// sampling. Rect is in the display's logical coordinates.
type Zone struct {
	Display Descriptor
	Rect    image.Rectangle
}

// CaptureRect returns the zone's rectangle in physical pixels.
func (z Zone) CaptureRect() image.Rectangle {
	return scaleRect(z.Rect, z.Display.scale())
}

// SplitZones derives sampling zones from a display: one full-frame zone
// for a single lamp, or left/right vertical halves for a dual-lamp
// setup. Any other split count is rejected.
func SplitZones(d Descriptor, n int) ([]Zone, error) {
	b := d.Bounds
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("display %d has empty bounds %v", d.ID, b)
	}

	switch n {
	case 1:
		return []Zone{{Display: d, Rect: b}}, nil
	case 2:
		mid := b.Min.X + b.Dx()/2
		left := image.Rect(b.Min.X, b.Min.Y, mid, b.Max.Y)
		right := image.Rect(mid, b.Min.Y, b.Max.X, b.Max.Y)
		return []Zone{
			{Display: d, Rect: left},
			{Display: d, Rect: right},
		}, nil
	default:
		return nil, fmt.Errorf("invalid zone split %d: only 1 or 2 lamps supported", n)
	}
}

// scaleRect multiplies a rectangle by a scale factor, rounding each
// edge. Works for negative coordinates too.
func scaleRect(r image.Rectangle, s float64) image.Rectangle {
	if s == 1.0 {
		return r
	}
	return image.Rect(
		roundScale(r.Min.X, s),
		roundScale(r.Min.Y, s),
		roundScale(r.Max.X, s),
		roundScale(r.Max.Y, s),
	)
}

func roundScale(v int, s float64) int {
	return int(math.Round(float64(v) * s))
}
