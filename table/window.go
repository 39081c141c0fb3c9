/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package table holds the forwarder's fixed-capacity state: the sliding
// window pool and the multicast packet buffer pool. Both pools are
// allocated once at engine start; every operation works on pool indices.
package table

import (
	"github.com/roll-mcast/trickled/defn"
)

// Unset marks an unset lollipop bound.
const Unset = -1

// SlidingWindow tracks the live sequence values cached for one
// (seed, trickle parametrization) pair.
type SlidingWindow struct {
	Seed defn.SeedID

	// Count is the number of live buffered packets in this window.
	Count int

	// LowerBound and UpperBound are the minimum and maximum live
	// sequence values, inclusive, under serial number ordering.
	// Unset when the window holds no packets yet.
	LowerBound int32
	UpperBound int32

	// MinListed is the lowest sequence value the ICMPv6 message being
	// parsed listed for this window. Unset outside a parse.
	MinListed int32

	InUse  bool
	M      bool
	Listed bool
}

// TimerIndex returns the trickle parametrization governing the window.
func (w *SlidingWindow) TimerIndex() int {
	if w.M {
		return 1
	}
	return 0
}

func (w *SlidingWindow) reset() {
	w.Count = 0
	w.LowerBound = Unset
	w.UpperBound = Unset
	w.MinListed = Unset
	w.Listed = false
	w.M = false
}
