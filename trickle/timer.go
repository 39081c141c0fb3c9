// Package trickle implements the Trickle interval state machine used by
// the multicast forwarder: exponentially doubling intervals with a
// randomised transmit point in [I/2, I) and suppression bookkeeping.
//
// Two timers run side by side in the engine, one per parametrization.
// The package only computes state transitions; scheduling the resulting
// delays is the engine's job, so a virtual clock can drive everything
// in tests.
package trickle

import (
	"github.com/roll-mcast/trickled/utils"
)

// InfiniteRedundancy disables suppression for a timer.
const InfiniteRedundancy = 0xFF

// Params are the per-parametrization configuration constants.
type Params struct {
	IMin    uint64 // minimum interval, clock ticks
	IMax    uint8  // max doublings
	K       uint8  // redundancy constant
	TActive uint8  // active budget, units of Imax
	TDwell  uint8  // dwell budget, units of Imax
}

// Timer is one Trickle interval state machine.
type Timer struct {
	Params

	ICurrent     uint8  // current doublings from IMin
	TStart       uint64 // interval start, absolute ticks
	TEnd         uint64 // interval end, absolute ticks
	TNext        uint64 // delay to the next scheduled callback
	TLastTrigger uint64 // absolute tick of the last transmit-point pass
	C            uint8  // consistency counter

	Inconsistency bool
}

// Configure installs the parametrization and stamps the trigger clock.
func (t *Timer) Configure(p Params, now uint64) {
	t.Params = p
	t.ICurrent = 0
	t.C = 0
	t.Inconsistency = false
	t.TLastTrigger = now
}

// SuppressionEnabled reports whether transmissions are gated by c < k.
func (t *Timer) SuppressionEnabled() bool {
	return t.K != InfiniteRedundancy
}

// IMaxTicks returns I_max expressed in clock ticks.
func (t *Timer) IMaxTicks() uint64 {
	return t.IMin << t.IMax
}

// ActiveBudget returns T_active in clock ticks.
func (t *Timer) ActiveBudget() uint64 {
	return t.IMaxTicks() * uint64(t.TActive)
}

// DwellBudget returns T_dwell in clock ticks.
func (t *Timer) DwellBudget() uint64 {
	return t.IMaxTicks() * uint64(t.TDwell)
}

// randomInterval picks a point in [I/2, I) for the current doubling
// count d, where I = IMin << d.
func (t *Timer) randomInterval(d uint8, rand func() uint32) uint64 {
	min := (t.IMin >> 1) << d
	if span := (t.IMin << d) - 1 - min; span > 0 {
		min += uint64(rand()) % span
	}
	return min
}

// Reset starts a fresh minimum interval at now, as after a detected
// inconsistency. It returns the delay until the transmit-point callback.
func (t *Timer) Reset(now uint64, rand func() uint32) uint64 {
	t.TStart = now
	t.TEnd = now + t.IMin
	t.ICurrent = 0
	t.C = 0
	t.TNext = t.randomInterval(0, rand)
	return t.TNext
}

// DoubleInterval moves to the next interval at its scheduled end and
// returns the delay until the transmit-point callback. Lateness of the
// wall clock past TEnd is deducted from the random delay; if the
// overshoot swallows it, the callback is due immediately.
func (t *Timer) DoubleInterval(now uint64, rand func() uint32) uint64 {
	offset := int64(now) - int64(t.TEnd)

	if t.ICurrent < t.IMax {
		t.ICurrent++
	}
	t.TStart = t.TEnd
	t.TEnd = t.TStart + t.IMin<<t.ICurrent

	next := t.randomInterval(t.ICurrent, rand)
	if int64(next) > offset {
		next = uint64(int64(next) - offset)
	} else {
		next = 0
	}
	t.TNext = next
	return next
}

// UntilIntervalEnd returns the delay from now to TEnd, clamped to zero
// when the interval end has already passed.
func (t *Timer) UntilIntervalEnd(now uint64) uint64 {
	return utils.ClampSub(t.TEnd, now)
}
