package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNTP64RoundTripsThroughTime(t *testing.T) {
	original := time.Date(2026, 3, 1, 12, 30, 0, 500_000_000, time.UTC)
	n := FromTime(original)
	back := n.Time()

	assert.Equal(t, original.Unix(), back.Unix())
	assert.InDelta(t, original.Nanosecond(), back.Nanosecond(), float64(time.Millisecond))
}

func TestHLCMonotonicEvenWhenClockStalls(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := newHLCWithClock(func() time.Time { return fixed })

	a := h.Now()
	b := h.Now()
	c := h.Now()

	assert.True(t, b.After(a))
	assert.True(t, c.After(b))
}

func TestHLCMonotonicWhenClockGoesBackwards(t *testing.T) {
	times := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC),
	}
	i := 0
	h := newHLCWithClock(func() time.Time {
		defer func() { i++ }()
		return times[i]
	})

	a := h.Now()
	b := h.Now()
	assert.True(t, b.After(a))
}

func TestHLCUpdateAdvancesPastRemote(t *testing.T) {
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := newHLCWithClock(func() time.Time { return fixed })

	remote := FromTime(fixed) + 1000
	h.Update(remote)

	next := h.Now()
	assert.True(t, next.After(remote))
}

func TestSnapToPeriodFloors(t *testing.T) {
	period := NTP64(1000)
	assert.Equal(t, NTP64(3000), SnapToPeriod(NTP64(3500), period))
	assert.Equal(t, NTP64(3000), SnapToPeriod(NTP64(3000), period))
	assert.Equal(t, NTP64(3000), SnapToPeriod(NTP64(3999), period))
}

func TestSnapToPeriodZeroIsIdentity(t *testing.T) {
	assert.Equal(t, NTP64(1234), SnapToPeriod(NTP64(1234), NTP64(0)))
}

func TestPeriodGateDeduplicatesWithinWindow(t *testing.T) {
	gate := NewPeriodGate(NTP64(1000))

	_, ok1 := gate.Admit(NTP64(3500))
	_, ok2 := gate.Admit(NTP64(3600))
	snapped3, ok3 := gate.Admit(NTP64(4200))

	require.True(t, ok1)
	assert.False(t, ok2)
	assert.True(t, ok3)
	assert.Equal(t, NTP64(4000), snapped3)
}

func TestPeriodGateRejectsEarlierWindow(t *testing.T) {
	gate := NewPeriodGate(NTP64(1000))

	_, _ = gate.Admit(NTP64(5000))
	_, ok := gate.Admit(NTP64(3000))

	assert.False(t, ok)
}
