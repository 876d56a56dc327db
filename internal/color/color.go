// Package color holds the RGB color model and the perceptual
// enhancement applied to sampled screen colors before they are sent to
// the lamps.
package color

// RGB is a color with 8-bit channels. Zero value is black.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// ClampRGB builds an RGB from unclamped integer channels.
func ClampRGB(r, g, b int) RGB {
	return RGB{
		R: uint8(clampInt(r, 0, 255)),
		G: uint8(clampInt(g, 0, 255)),
		B: uint8(clampInt(b, 0, 255)),
	}
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
