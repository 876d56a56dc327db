// Package capture reduces screen regions to representative colors.
// The actual pixel grab sits behind the Source interface so the
// pipeline can be driven by a real screen or by scripted test images.
package capture

import (
	"image"

	"github.com/kbinani/screenshot"
)

// Source grabs a rectangle of physical screen pixels.
type Source interface {
	// Grab captures rect (physical pixels, negative origins allowed)
	// and returns the image. An error means "no sample available".
	Grab(rect image.Rectangle) (*image.RGBA, error)
}

// ScreenSource captures from the real screen.
type ScreenSource struct{}

// NewScreenSource creates the default screen-backed source.
func NewScreenSource() *ScreenSource {
	return &ScreenSource{}
}

// Grab implements Source.
func (s *ScreenSource) Grab(rect image.Rectangle) (*image.RGBA, error) {
	return screenshot.CaptureRect(rect)
}
