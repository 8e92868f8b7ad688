// Package overload decides whether rate-limit denials show the API is over capacity.
package overload

import (
	"time"

	"github.com/kjstillabower/bank-service/internal/traffic"
)

// Threshold is the denial count within Window above which the API reports
// itself overloaded: RPS*Window*Pct/100.
type Threshold struct {
	Window time.Duration
	RPS    int
	Pct    int
}

// Enabled reports whether the threshold can ever trigger.
func (t Threshold) Enabled() bool {
	return t.Window > 0 && t.RPS > 0 && t.Pct > 0
}

// Limit returns the denial count that must be exceeded.
func (t Threshold) Limit() float64 {
	return float64(t.RPS) * t.Window.Seconds() * float64(t.Pct) / 100
}

// Exceeded reports whether denials recorded on the process-wide traffic
// tracker within the window exceed the limit.
func (t Threshold) Exceeded() bool {
	return t.ExceededOn(traffic.DenialCount)
}

// ExceededOn is Exceeded against an arbitrary denial counter.
func (t Threshold) ExceededOn(denials func(window time.Duration) int) bool {
	if !t.Enabled() {
		return false
	}
	return float64(denials(t.Window)) > t.Limit()
}
