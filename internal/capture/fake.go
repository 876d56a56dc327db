package capture

import (
	"image"
	stdcolor "image/color"
	"sync"
	"time"
)

// FakeSource is a test double that serves scripted images.
type FakeSource struct {
	mu sync.Mutex

	// Img is returned for every Grab, cropped to the requested rect.
	Img *image.RGBA

	// GrabErr, if set, is returned by Grab.
	GrabErr error

	// Delay simulates slow capture.
	Delay time.Duration

	// Grabs counts Grab calls.
	Grabs int
}

// NewFakeSource creates a fake source serving the given image.
func NewFakeSource(img *image.RGBA) *FakeSource {
	return &FakeSource{Img: img}
}

// Grab implements Source.
func (f *FakeSource) Grab(rect image.Rectangle) (*image.RGBA, error) {
	f.mu.Lock()
	err := f.GrabErr
	img := f.Img
	delay := f.Delay
	f.Grabs++
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return nil, err
	}

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out, nil
}

// SetErr sets the error returned by subsequent grabs.
func (f *FakeSource) SetErr(err error) {
	f.mu.Lock()
	f.GrabErr = err
	f.mu.Unlock()
}

// GrabCount returns how many grabs happened.
func (f *FakeSource) GrabCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Grabs
}

// SolidImage builds a uniformly colored test image.
func SolidImage(rect image.Rectangle, c stdcolor.RGBA) *image.RGBA {
	img := image.NewRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// SplitImage builds an image whose left half is one color and right
// half another, for dual-zone tests.
func SplitImage(rect image.Rectangle, left, right stdcolor.RGBA) *image.RGBA {
	img := image.NewRGBA(rect)
	mid := rect.Min.X + rect.Dx()/2
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if x < mid {
				img.SetRGBA(x, y, left)
			} else {
				img.SetRGBA(x, y, right)
			}
		}
	}
	return img
}
