package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/display"
)

// ErrNoSample is returned when the screen cannot be captured (access
// denied, display vanished). Callers keep the previous tick's color.
var ErrNoSample = errors.New("no sample")

// downscaleWidth bounds the working size for full-area averaging.
// Averaging a Lanczos-downscaled image is close enough to a true mean
// and far cheaper on 4K regions.
const downscaleWidth = 64

// Config controls how zones are reduced to a single color.
type Config struct {
	// EdgeOnly samples only the zone's border bands instead of the
	// whole area, classic Ambilight behavior.
	EdgeOnly bool
	// EdgeWidth is the band width in physical pixels when EdgeOnly.
	EdgeWidth int
}

// Sampler reduces display zones to average colors.
type Sampler struct {
	src Source
	cfg Config
}

// NewSampler creates a sampler over the given pixel source.
func NewSampler(src Source, cfg Config) *Sampler {
	if cfg.EdgeWidth <= 0 {
		cfg.EdgeWidth = 80
	}
	return &Sampler{src: src, cfg: cfg}
}

// Sample captures a single zone and returns its representative color.
func (s *Sampler) Sample(zone display.Zone) (color.RGB, error) {
	colors, err := s.SampleFrame([]display.Zone{zone})
	if err != nil {
		return color.RGB{}, err
	}
	return colors[0], nil
}

// SampleFrame captures all zones from one grab so that multi-lamp
// colors always come from the same capture instant.
func (s *Sampler) SampleFrame(zones []display.Zone) ([]color.RGB, error) {
	if len(zones) == 0 {
		return nil, errors.New("no zones to sample")
	}

	bounds := zones[0].CaptureRect()
	for _, z := range zones[1:] {
		bounds = bounds.Union(z.CaptureRect())
	}

	img, err := s.src.Grab(bounds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSample, err)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: empty capture", ErrNoSample)
	}

	colors := make([]color.RGB, len(zones))
	for i, z := range zones {
		// Zone rect relative to the grabbed image's origin.
		rel := z.CaptureRect().Sub(bounds.Min)
		region := imaging.Crop(img, rel)
		colors[i] = s.reduce(region)
	}
	return colors, nil
}

// reduce turns a zone image into its average color.
func (s *Sampler) reduce(region *image.NRGBA) color.RGB {
	w := region.Bounds().Dx()
	h := region.Bounds().Dy()
	if w == 0 || h == 0 {
		return color.RGB{}
	}

	if s.cfg.EdgeOnly && 2*s.cfg.EdgeWidth < w && 2*s.cfg.EdgeWidth < h {
		return edgeAverage(region, s.cfg.EdgeWidth)
	}
	return fullAverage(region)
}

// fullAverage downscales the region and averages the result.
func fullAverage(region *image.NRGBA) color.RGB {
	w := region.Bounds().Dx()
	h := region.Bounds().Dy()
	if w > downscaleWidth {
		scaled := downscaleWidth * h / w
		if scaled < 1 {
			scaled = 1
		}
		region = imaging.Resize(region, downscaleWidth, scaled, imaging.Lanczos)
	}

	sumR, sumG, sumB, count := sumPixels(region)
	return meanColor(sumR, sumG, sumB, count)
}

// edgeAverage averages the four border bands of the region.
func edgeAverage(region *image.NRGBA, edge int) color.RGB {
	w := region.Bounds().Dx()
	h := region.Bounds().Dy()

	bands := []image.Rectangle{
		image.Rect(0, 0, edge, h),           // left
		image.Rect(w-edge, 0, w, h),         // right
		image.Rect(edge, 0, w-edge, edge),   // top (minus corners already counted)
		image.Rect(edge, h-edge, w-edge, h), // bottom
	}

	var sumR, sumG, sumB, count uint64
	for _, band := range bands {
		r, g, b, n := sumPixels(imaging.Crop(region, band))
		sumR += r
		sumG += g
		sumB += b
		count += n
	}
	return meanColor(sumR, sumG, sumB, count)
}

func sumPixels(img *image.NRGBA) (sumR, sumG, sumB, count uint64) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for x := 0; x < len(row); x += 4 {
			sumR += uint64(row[x])
			sumG += uint64(row[x+1])
			sumB += uint64(row[x+2])
			count++
		}
	}
	return sumR, sumG, sumB, count
}

func meanColor(sumR, sumG, sumB, count uint64) color.RGB {
	if count == 0 {
		return color.RGB{}
	}
	return color.RGB{
		R: uint8(sumR / count),
		G: uint8(sumG / count),
		B: uint8(sumB / count),
	}
}
