package color

import "math"

// Smoother interpolates between successive colors to soften tick-to-tick
// jumps. Factor is the fraction of the remaining distance covered per
// step: 0 or >= 1 means instant (no smoothing), small values are smooth.
type Smoother struct {
	factor  float64
	current RGB
	started bool
}

// NewSmoother creates a smoother with the given factor.
func NewSmoother(factor float64) *Smoother {
	return &Smoother{factor: factor}
}

// Next advances toward target and returns the smoothed color.
// The first call returns target directly.
func (s *Smoother) Next(target RGB) RGB {
	if !s.started || s.factor <= 0 || s.factor >= 1 {
		s.current = target
		s.started = true
		return s.current
	}

	s.current = RGB{
		R: lerpChannel(s.current.R, target.R, s.factor),
		G: lerpChannel(s.current.G, target.G, s.factor),
		B: lerpChannel(s.current.B, target.B, s.factor),
	}
	return s.current
}

// Reset clears history so the next call returns its target directly.
func (s *Smoother) Reset() {
	s.started = false
	s.current = RGB{}
}

func lerpChannel(from, to uint8, factor float64) uint8 {
	v := float64(from) + (float64(to)-float64(from))*factor
	return uint8(clampInt(int(math.Round(v)), 0, 255))
}
