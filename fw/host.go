/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"math/rand"
	"time"
)

// TickClock maps wall time to engine ticks at a fixed rate.
type TickClock struct {
	start time.Time
	hz    uint64
}

// NewTickClock starts a tick counter at zero, counting hz ticks per
// second from now.
func NewTickClock(hz uint64) *TickClock {
	return &TickClock{start: time.Now(), hz: hz}
}

func (c *TickClock) Ticks() uint64 {
	return uint64(time.Since(c.start)) * c.hz / uint64(time.Second)
}

// Duration converts a tick delay to a wall-clock duration.
func (c *TickClock) Duration(ticks uint64) time.Duration {
	return time.Duration(ticks * uint64(time.Second) / c.hz)
}

// HostScheduler defers callbacks with the runtime timer and posts them
// to the engine loop, so they never race with engine entry points.
// Re-scheduling a handle stops the previously armed timer.
type HostScheduler struct {
	clock *TickClock
	post  func(func())
}

// NewHostScheduler builds a scheduler; Bind must run before the first
// Schedule.
func NewHostScheduler(clock *TickClock) *HostScheduler {
	return &HostScheduler{clock: clock}
}

// Bind wires the delivery point, normally Engine.Post. Split from the
// constructor because the engine itself is built with the scheduler.
func (s *HostScheduler) Bind(post func(func())) {
	s.post = post
}

func (s *HostScheduler) Schedule(h *TimerHandle, delay uint64, fn func()) {
	if prev, ok := h.Get().(*time.Timer); ok && prev != nil {
		prev.Stop()
	}
	gen := h.Bump()
	h.Set(time.AfterFunc(s.clock.Duration(delay), func() {
		s.post(func() {
			// A displaced callback may already be in flight; only the
			// latest schedule runs.
			if h.Current(gen) {
				fn()
			}
		})
	}))
}

// HostRand is the engine's PRNG for transmit point selection.
type HostRand struct {
	r *rand.Rand
}

// NewHostRand seeds a PRNG; the transmit point spread needs no
// cryptographic strength.
func NewHostRand(seed int64) *HostRand {
	return &HostRand{r: rand.New(rand.NewSource(seed))}
}

func (h *HostRand) Uint32() uint32 {
	return h.r.Uint32()
}
