// Package clock implements the hybrid logical clock used to timestamp
// data produced by sources: an NTP64 wall-clock/logical-counter pair that
// is strictly monotonic per producer and lets periodic sources snap their
// timestamps onto period boundaries for cross-runtime deduplication.
package clock

import "time"

// NTP64 is a 64-bit NTP-format timestamp: the upper 32 bits are seconds
// since the Unix epoch, the lower 32 bits are a fractional second. The
// low bits of the fractional part double as the HLC's logical counter
// when two events land in the same physical tick.
type NTP64 uint64

const fracBits = 32

// FromTime converts a wall-clock time.Time into an NTP64 timestamp.
func FromTime(t time.Time) NTP64 {
	secs := uint64(t.Unix())
	frac := uint64(float64(t.Nanosecond()) / float64(time.Second) * (1 << fracBits))
	return NTP64(secs<<fracBits | frac)
}

// Time converts an NTP64 timestamp back to a wall-clock time.Time.
func (n NTP64) Time() time.Time {
	secs := int64(n >> fracBits)
	frac := uint64(n & (1<<fracBits - 1))
	nanos := int64(float64(frac) / float64(uint64(1)<<fracBits) * float64(time.Second))
	return time.Unix(secs, nanos).UTC()
}

// FromDuration converts a duration into the same fixed-point units as
// FromTime, for constructing the period argument to NewPeriodGate from a
// source descriptor's configured period.
func FromDuration(d time.Duration) NTP64 {
	secs := uint64(d / time.Second)
	frac := uint64(float64(d%time.Second) / float64(time.Second) * (1 << fracBits))
	return NTP64(secs<<fracBits | frac)
}

// Before reports whether n happened strictly before other.
func (n NTP64) Before(other NTP64) bool { return n < other }

// After reports whether n happened strictly after other.
func (n NTP64) After(other NTP64) bool { return n > other }
