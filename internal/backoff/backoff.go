// Package backoff computes retry delays for failed jobs.
package backoff

import (
	"math"
	"time"
)

// Exponential doubles the delay with each attempt.
// Delay = min(Base * 2^attempt, Max).
type Exponential struct {
	Base time.Duration
	Max  time.Duration
}

// NewExponential creates an exponential backoff strategy.
func NewExponential(base, maxDelay time.Duration) Exponential {
	return Exponential{Base: base, Max: maxDelay}
}

// Delay returns Base * 2^attempt, capped at Max. attempt is the number of
// failures recorded so far (1 after the first failure).
func (e Exponential) Delay(attempt int) time.Duration {
	if e.Base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	d := e.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if e.Max > 0 && d >= e.Max {
			return e.Max
		}
		if d <= 0 {
			// overflow
			return math.MaxInt64
		}
	}
	if e.Max > 0 && d > e.Max {
		return e.Max
	}
	return d
}
