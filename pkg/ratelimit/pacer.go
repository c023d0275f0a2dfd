package ratelimit

import "time"

// AdaptivePacer controls the inter-request delay of the sequential download
// loop. Rate-limit responses grow the delay multiplicatively up to a ceiling;
// successes shrink it back toward (never below) the floor. The floor is also
// the initial delay.
type AdaptivePacer struct {
	floor        time.Duration
	ceiling      time.Duration
	growthFactor float64
	decayFactor  float64
	current      time.Duration
}

// NewAdaptivePacer creates a pacer with the given floor/ceiling delays and
// adjustment factors. growthFactor must exceed 1, decayFactor must be in (0,1).
func NewAdaptivePacer(floor, ceiling time.Duration, growthFactor, decayFactor float64) *AdaptivePacer {
	return &AdaptivePacer{
		floor:        floor,
		ceiling:      ceiling,
		growthFactor: growthFactor,
		decayFactor:  decayFactor,
		current:      floor,
	}
}

// Delay returns the current inter-request delay
func (p *AdaptivePacer) Delay() time.Duration {
	return p.current
}

// Floor returns the minimum delay
func (p *AdaptivePacer) Floor() time.Duration {
	return p.floor
}

// AboveFloor reports whether the current delay exceeds the floor, i.e.
// whether the scheduler needs to suspend between records at all
func (p *AdaptivePacer) AboveFloor() bool {
	return p.current > p.floor
}

// RateLimited grows the delay after a 429 response, bounded by the ceiling
func (p *AdaptivePacer) RateLimited() {
	p.current = time.Duration(float64(p.current) * p.growthFactor)
	if p.current > p.ceiling {
		p.current = p.ceiling
	}
}

// Success decays the delay after a successful download, never below the floor
func (p *AdaptivePacer) Success() {
	p.current = time.Duration(float64(p.current) * p.decayFactor)
	if p.current < p.floor {
		p.current = p.floor
	}
}

// Reset restores the initial delay
func (p *AdaptivePacer) Reset() {
	p.current = p.floor
}
