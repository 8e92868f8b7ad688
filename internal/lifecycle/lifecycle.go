// Package lifecycle holds process-wide shutdown state read by the health check.
package lifecycle

import (
	"sync"
	"time"
)

var (
	mu     sync.RWMutex
	since  time.Time
	reason string
)

// BeginShutdown marks the process as draining. The first reason wins; later
// calls are ignored.
func BeginShutdown(why string) {
	mu.Lock()
	defer mu.Unlock()
	if !since.IsZero() {
		return
	}
	since = time.Now()
	reason = why
}

// IsShuttingDown reports whether the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return !since.IsZero()
}

// ShutdownReason returns why shutdown began and when, or "" and the zero time.
func ShutdownReason() (string, time.Time) {
	mu.RLock()
	defer mu.RUnlock()
	return reason, since
}

// Reset clears shutdown state. For tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	since = time.Time{}
	reason = ""
}
