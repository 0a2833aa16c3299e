package clock

import (
	"sync"
	"time"
)

// HLC is a hybrid logical clock: it tracks wall-clock time but never lets
// two successive readings collide or go backwards, incrementing the
// fractional field by one logical tick when the wall clock has not
// visibly advanced since the last reading. One HLC is shared by every
// runner of a dataflow instance, so their emissions are strictly
// monotonic across all of them (spec §4.6).
type HLC struct {
	mu   sync.Mutex
	last NTP64
	now  func() time.Time
}

// NewHLC constructs an HLC driven by the real wall clock.
func NewHLC() *HLC {
	return &HLC{now: time.Now}
}

// newHLCWithClock is used by tests to inject a deterministic clock.
func newHLCWithClock(now func() time.Time) *HLC {
	return &HLC{now: now}
}

// Now returns the next timestamp, guaranteed to be strictly greater than
// every timestamp previously returned by this HLC.
func (h *HLC) Now() NTP64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	candidate := FromTime(h.now())
	if candidate <= h.last {
		candidate = h.last + 1
	}
	h.last = candidate
	return candidate
}

// Update folds a timestamp observed from another HLC (e.g. received over
// a cross-runtime connector) into this clock, so downstream timestamps
// stay causally ordered after consuming remote data.
func (h *HLC) Update(remote NTP64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if remote > h.last {
		h.last = remote
	}
}
