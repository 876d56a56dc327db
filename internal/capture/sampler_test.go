package capture

import (
	"errors"
	"image"
	stdcolor "image/color"
	"testing"

	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/display"
)

func absDiff(a, b uint8) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func colorsClose(got, want color.RGB, tolerance int) bool {
	return absDiff(got.R, want.R) <= tolerance &&
		absDiff(got.G, want.G) <= tolerance &&
		absDiff(got.B, want.B) <= tolerance
}

func TestSampleSolidColor(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)
	src := NewFakeSource(SolidImage(bounds, stdcolor.RGBA{R: 120, G: 80, B: 40, A: 255}))
	sampler := NewSampler(src, Config{})

	d := display.Descriptor{ID: 0, Bounds: bounds}
	zones, err := display.SplitZones(d, 1)
	if err != nil {
		t.Fatalf("SplitZones: %v", err)
	}

	got, err := sampler.Sample(zones[0])
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	want := color.RGB{R: 120, G: 80, B: 40}
	if !colorsClose(got, want, 1) {
		t.Errorf("Sample = %v, want ~%v", got, want)
	}
}

func TestSampleFrameDualZones(t *testing.T) {
	bounds := image.Rect(0, 0, 200, 100)
	left := stdcolor.RGBA{R: 200, A: 255}
	right := stdcolor.RGBA{B: 200, A: 255}
	src := NewFakeSource(SplitImage(bounds, left, right))
	sampler := NewSampler(src, Config{})

	d := display.Descriptor{ID: 0, Bounds: bounds}
	zones, err := display.SplitZones(d, 2)
	if err != nil {
		t.Fatalf("SplitZones: %v", err)
	}

	colors, err := sampler.SampleFrame(zones)
	if err != nil {
		t.Fatalf("SampleFrame: %v", err)
	}
	if len(colors) != 2 {
		t.Fatalf("color count = %d, want 2", len(colors))
	}
	if !colorsClose(colors[0], color.RGB{R: 200}, 2) {
		t.Errorf("left = %v, want ~{200 0 0}", colors[0])
	}
	if !colorsClose(colors[1], color.RGB{B: 200}, 2) {
		t.Errorf("right = %v, want ~{0 0 200}", colors[1])
	}

	// Both zones must come from the same grab.
	if src.GrabCount() != 1 {
		t.Errorf("grabs = %d, want 1 per frame", src.GrabCount())
	}
}

func TestSampleAppliesScaleFactor(t *testing.T) {
	// Logical 100x50 display at 200% scale: capture must read the
	// 200x100 physical pixels.
	physical := image.Rect(0, 0, 200, 100)
	src := NewFakeSource(SolidImage(physical, stdcolor.RGBA{G: 150, A: 255}))
	sampler := NewSampler(src, Config{})

	d := display.Descriptor{ID: 0, Bounds: image.Rect(0, 0, 100, 50), Scale: 2.0}
	zones, _ := display.SplitZones(d, 1)

	got, err := sampler.Sample(zones[0])
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !colorsClose(got, color.RGB{G: 150}, 1) {
		t.Errorf("Sample = %v, want ~{0 150 0}", got)
	}
}

func TestSampleNegativeOrigin(t *testing.T) {
	bounds := image.Rect(-200, 0, 0, 100)
	src := NewFakeSource(SolidImage(bounds, stdcolor.RGBA{R: 10, G: 20, B: 30, A: 255}))
	sampler := NewSampler(src, Config{})

	d := display.Descriptor{ID: 1, Bounds: bounds}
	zones, _ := display.SplitZones(d, 1)

	got, err := sampler.Sample(zones[0])
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if !colorsClose(got, color.RGB{R: 10, G: 20, B: 30}, 1) {
		t.Errorf("Sample = %v, want ~{10 20 30}", got)
	}
}

func TestSampleEdgeOnly(t *testing.T) {
	// Red border, blue center: edge-only sampling must see mostly red.
	bounds := image.Rect(0, 0, 200, 200)
	img := SolidImage(bounds, stdcolor.RGBA{R: 255, A: 255})
	for y := 50; y < 150; y++ {
		for x := 50; x < 150; x++ {
			img.SetRGBA(x, y, stdcolor.RGBA{B: 255, A: 255})
		}
	}
	src := NewFakeSource(img)
	sampler := NewSampler(src, Config{EdgeOnly: true, EdgeWidth: 20})

	d := display.Descriptor{ID: 0, Bounds: bounds}
	zones, _ := display.SplitZones(d, 1)

	got, err := sampler.Sample(zones[0])
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if got.R != 255 || got.B != 0 {
		t.Errorf("edge sample = %v, want pure red border", got)
	}
}

func TestSampleCaptureFailure(t *testing.T) {
	src := NewFakeSource(nil)
	src.SetErr(errors.New("access denied"))
	sampler := NewSampler(src, Config{})

	d := display.Descriptor{ID: 0, Bounds: image.Rect(0, 0, 100, 100)}
	zones, _ := display.SplitZones(d, 1)

	_, err := sampler.Sample(zones[0])
	if !errors.Is(err, ErrNoSample) {
		t.Errorf("err = %v, want ErrNoSample", err)
	}
}
