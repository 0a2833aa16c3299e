package clock

import "sync"

// SnapToPeriod floors t onto the nearest period boundary at or before it,
// following the spec's floor(t/P)*P rule for periodic sources: every
// emission within the same period window collapses onto one timestamp so
// duplicate detection downstream is exact rather than approximate.
func SnapToPeriod(t NTP64, period NTP64) NTP64 {
	if period == 0 {
		return t
	}
	return (t / period) * period
}

// PeriodGate enforces the "at most one emission per distinct snapped
// timestamp" rule for a single periodic source: repeated calls within the
// same period window are suppressed, and the gate also rejects a snapped
// timestamp that is not strictly greater than the last one it accepted,
// preserving the monotonicity invariant even if the wall clock is adjusted
// backwards between calls.
type PeriodGate struct {
	mu     sync.Mutex
	period NTP64
	last   NTP64
	seen   bool
}

// NewPeriodGate creates a gate that snaps timestamps onto the given
// period in the same units as the NTP64 values it will be fed.
func NewPeriodGate(period NTP64) *PeriodGate {
	return &PeriodGate{period: period}
}

// Admit snaps raw onto the period boundary and reports whether this
// snapped timestamp should be emitted: true the first time a given
// period window is observed, false on any subsequent call for the same
// or an earlier window.
func (g *PeriodGate) Admit(raw NTP64) (snapped NTP64, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	snapped = SnapToPeriod(raw, g.period)
	if g.seen && snapped <= g.last {
		return snapped, false
	}
	g.last = snapped
	g.seen = true
	return snapped, true
}
