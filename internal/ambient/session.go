// Package ambient contains the Ambilight pacing loop: it ties screen
// sampling, color enhancement and lamp channels together at a target
// frame rate, and the dual-lamp supervisor on top of it.
package ambient

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dokzlo13/ambilightd/internal/color"
	"github.com/dokzlo13/ambilightd/internal/display"
)

// Params are the tunables of one ambient session.
type Params struct {
	FPS             int     // target frame rate; ignored when Unlimited
	Unlimited       bool    // run as fast as capture+send allow (single lamp only)
	Saturation      float64 // nominal 2.2-2.5
	BrightnessBoost int     // additive per channel
	Smoothing       float64 // 0 = no smoothing
}

// Session is one run of the ambient loop, from start to cancellation.
// It never outlives the loop that created it.
type Session struct {
	ID     uuid.UUID
	Zones  []display.Zone
	Params Params

	limiter   *rate.Limiter
	smoothers []*color.Smoother
}

// NewSession validates parameters and builds a session. Validation
// failures here are the only fatal errors of the ambient pipeline;
// everything after start is absorbed and reported.
func NewSession(zones []display.Zone, p Params) (*Session, error) {
	if len(zones) < 1 || len(zones) > 2 {
		return nil, fmt.Errorf("invalid zone count %d: need 1 or 2", len(zones))
	}
	if !p.Unlimited && p.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps %d: must be > 0 (or unlimited)", p.FPS)
	}
	if p.Unlimited && len(zones) > 1 {
		return nil, fmt.Errorf("unlimited mode supports a single lamp only")
	}
	if p.Saturation < 1.0 {
		return nil, fmt.Errorf("invalid saturation factor %.2f: must be >= 1.0", p.Saturation)
	}
	if p.BrightnessBoost < 0 || p.BrightnessBoost > 255 {
		return nil, fmt.Errorf("invalid brightness boost %d: must be in [0,255]", p.BrightnessBoost)
	}
	if p.Smoothing < 0 || p.Smoothing >= 1 {
		if p.Smoothing != 0 {
			return nil, fmt.Errorf("invalid smoothing %.2f: must be in [0,1)", p.Smoothing)
		}
	}

	limit := rate.Inf
	if !p.Unlimited {
		limit = rate.Limit(p.FPS)
	}

	smoothers := make([]*color.Smoother, len(zones))
	for i := range smoothers {
		smoothers[i] = color.NewSmoother(p.Smoothing)
	}

	return &Session{
		ID:     uuid.New(),
		Zones:  zones,
		Params: p,
		// Burst 1: an over-budget tick proceeds immediately, but there
		// is never a catch-up burst after that.
		limiter:   rate.NewLimiter(limit, 1),
		smoothers: smoothers,
	}, nil
}

// Interval returns the target frame interval, 0 when unlimited.
func (s *Session) Interval() time.Duration {
	if s.Params.Unlimited {
		return 0
	}
	return time.Second / time.Duration(s.Params.FPS)
}
