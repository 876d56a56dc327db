package display

import (
	"fmt"

	"github.com/kbinani/screenshot"
	"github.com/rs/zerolog/log"
)

// ultraHighResWidth is the physical width from which a display counts
// as ultra-high-resolution (4K and up).
const ultraHighResWidth = 3840

// Enumerate lists the active displays. The capture backend reports
// physical pixels, so descriptors carry scale 1.0; an externally known
// scale factor can be set on the descriptor afterwards.
func Enumerate() ([]Descriptor, error) {
	n := screenshot.NumActiveDisplays()
	if n <= 0 {
		return nil, ErrNoDisplays
	}

	descriptors := make([]Descriptor, 0, n)
	for i := 0; i < n; i++ {
		bounds := screenshot.GetDisplayBounds(i)
		d := Descriptor{
			ID:           i,
			Name:         fmt.Sprintf("display-%d", i),
			Bounds:       bounds,
			Scale:        1.0,
			UltraHighRes: bounds.Dx() >= ultraHighResWidth,
			Primary:      i == 0,
		}
		descriptors = append(descriptors, d)

		log.Debug().
			Int("id", d.ID).
			Str("bounds", bounds.String()).
			Bool("uhd", d.UltraHighRes).
			Bool("primary", d.Primary).
			Msg("Enumerated display")
	}

	return descriptors, nil
}

// Find returns the descriptor with the given id.
func Find(descriptors []Descriptor, id int) (Descriptor, error) {
	for _, d := range descriptors {
		if d.ID == id {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("display %d not found (%d available)", id, len(descriptors))
}
