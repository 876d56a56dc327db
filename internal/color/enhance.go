package color

import "math"

// naturalMixFloor is the lower bound for the natural-mix tolerance so
// that dim colors still classify correctly.
const naturalMixFloor = 24

// darkThreshold: colors darker than this are passed through untouched,
// boosting near-black noise just makes the lamps flicker.
const darkThreshold = 40

// Enhance applies the vivid-ambient transform: colors dominated by a
// single channel get their channel spread scaled by saturationFactor and
// a uniform brightnessBoost added; "natural mixes" (white, cyan, yellow,
// magenta - two or more channels near the max) are exempt from
// saturation boosting so mixed content keeps its hue. Pure and
// deterministic; every output channel is clamped to [0,255].
func Enhance(c RGB, saturationFactor float64, brightnessBoost int) RGB {
	r, g, b := int(c.R), int(c.G), int(c.B)

	maxCh := maxInt3(r, g, b)
	minCh := minInt3(r, g, b)

	if maxCh < darkThreshold {
		return c
	}

	if isNaturalMix(r, g, b, maxCh) {
		// Half boost only: full boost on an already-bright mix just
		// washes everything toward white.
		half := brightnessBoost / 2
		return ClampRGB(r+half, g+half, b+half)
	}

	// Single-channel dominance: scale the spread between each channel
	// and the minimum, then lift uniformly.
	return ClampRGB(
		minCh+int(math.Round(float64(r-minCh)*saturationFactor))+brightnessBoost,
		minCh+int(math.Round(float64(g-minCh)*saturationFactor))+brightnessBoost,
		minCh+int(math.Round(float64(b-minCh)*saturationFactor))+brightnessBoost,
	)
}

// isNaturalMix reports whether at least two channels sit within the
// tolerance band below the max. Detects white and the additive pairs
// cyan/yellow/magenta.
func isNaturalMix(r, g, b, maxCh int) bool {
	tolerance := maxCh / 10
	if tolerance < naturalMixFloor {
		tolerance = naturalMixFloor
	}

	near := 0
	for _, ch := range [3]int{r, g, b} {
		if maxCh-ch <= tolerance {
			near++
		}
	}
	return near >= 2
}

func maxInt3(a, b, c int) int {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}

func minInt3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
