/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/roll-mcast/trickled/defn"
)

// Stack is what the engine needs from the surrounding IPv6 stack. The
// face system provides the hosted implementation; tests provide a
// virtual one.
type Stack interface {
	// LinkLocalAddress returns the node's preferred link-local address.
	// The engine declines to transmit while none exists.
	LinkLocalAddress() (defn.Addr, bool)

	// SelectSourceAddress picks the source address for a datagram to dst.
	SelectSourceAddress(dst defn.Addr) defn.Addr

	// LinkAddress returns the node's link-layer address. Short seed ids
	// are its two low-order bytes.
	LinkAddress() []byte

	// Output enqueues a raw IPv6 datagram onto the link. The buffer is
	// only valid for the duration of the call.
	Output(b []byte)

	// Watchdog is kicked once per transmission during periodic sweeps.
	Watchdog()
}

// Clock is a monotonic tick counter.
type Clock interface {
	Ticks() uint64
}

// Rand is a uniform PRNG.
type Rand interface {
	Uint32() uint32
}

// TimerHandle identifies one scheduled callback slot. Scheduling on a
// handle displaces whatever was previously scheduled on it.
type TimerHandle struct {
	v   any
	gen uint64
}

// Set stores scheduler state on the handle.
func (h *TimerHandle) Set(v any) { h.v = v }

// Get returns scheduler state previously stored on the handle.
func (h *TimerHandle) Get() any { return h.v }

// Bump invalidates all earlier schedules on the handle and returns the
// new generation.
func (h *TimerHandle) Bump() uint64 {
	h.gen++
	return h.gen
}

// Current reports whether g is still the latest schedule. A callback
// that already left its timer when it was displaced checks this before
// running.
func (h *TimerHandle) Current(g uint64) bool {
	return h.gen == g
}

// Scheduler defers callbacks by a tick delay. Implementations must run
// fn on the engine's loop, never concurrently with engine entry points.
type Scheduler interface {
	Schedule(h *TimerHandle, delay uint64, fn func())
}
