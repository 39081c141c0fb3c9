/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/roll-mcast/trickled/defn"
)

// Packet is a cached copy of a forwardable multicast datagram.
type Packet struct {
	// Seed is the embedded seed id; only meaningful in short-seed mode,
	// where the source address does not identify the seed.
	Seed defn.SeedID

	// Active and Dwell accumulate lifetime in clock ticks.
	Active uint64
	Dwell  uint64

	// SeqVal is the packet's sequence value in host order.
	SeqVal uint16

	// Window is the pool index of the sliding window this packet
	// belongs to, or Unset.
	Window int

	InUse    bool
	MustSend bool
	Listed   bool

	buff    []byte
	buffLen int
}

// Bytes returns the cached datagram.
func (p *Packet) Bytes() []byte {
	return p.buff[:p.buffLen]
}

// Store copies a datagram into the buffer. The caller checks the length
// against the pool's MTU beforehand.
func (p *Packet) Store(b []byte) {
	p.buffLen = copy(p.buff[:cap(p.buff)], b)
}

// Len returns the cached datagram length.
func (p *Packet) Len() int { return p.buffLen }

func (p *Packet) free() {
	p.Seed = defn.SeedID{}
	p.Active = 0
	p.Dwell = 0
	p.SeqVal = 0
	p.Window = Unset
	p.InUse = false
	p.MustSend = false
	p.Listed = false
	p.buffLen = 0
}
