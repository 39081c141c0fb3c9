/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package table

import (
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/seqval"
)

// Tables owns the two fixed pools. All slots are allocated up front;
// nothing is allocated per packet after New.
type Tables struct {
	Windows []SlidingWindow
	Packets []Packet
}

// New allocates pools of wins sliding windows and buffNum packet
// buffers of mtu bytes each.
func New(wins, buffNum, mtu int) *Tables {
	t := &Tables{
		Windows: make([]SlidingWindow, wins),
		Packets: make([]Packet, buffNum),
	}
	for i := range t.Windows {
		t.Windows[i].reset()
	}
	for i := range t.Packets {
		t.Packets[i].buff = make([]byte, 0, mtu)
		t.Packets[i].Window = Unset
	}
	return t
}

// AllocateWindow returns the index of a fresh window, scanning the pool
// high to low, or Unset when the pool is exhausted. The slot's bounds
// are reset but the slot is not yet marked in use.
func (t *Tables) AllocateWindow() int {
	for i := len(t.Windows) - 1; i >= 0; i-- {
		if !t.Windows[i].InUse {
			t.Windows[i].reset()
			return i
		}
	}
	return Unset
}

// LookupWindow returns the index of the live window matching seed and
// parametrization m, or Unset.
func (t *Tables) LookupWindow(seed defn.SeedID, m bool) int {
	for i := len(t.Windows) - 1; i >= 0; i-- {
		w := &t.Windows[i]
		if w.InUse && w.Seed == seed && w.M == m {
			return i
		}
	}
	return Unset
}

// FreeWindow releases a window slot. Every packet referring to it must
// already be freed.
func (t *Tables) FreeWindow(i int) {
	t.Windows[i].InUse = false
}

// AllocatePacket returns the index of a free packet buffer, scanning
// high to low, or Unset when the pool is exhausted.
func (t *Tables) AllocatePacket() int {
	for i := len(t.Packets) - 1; i >= 0; i-- {
		if !t.Packets[i].InUse {
			return i
		}
	}
	return Unset
}

// FreePacket releases a packet buffer without touching its window.
func (t *Tables) FreePacket(i int) {
	t.Packets[i].free()
}

// Reclaim frees the oldest packet of the most populated window and
// returns its buffer index. It refuses (Unset) when the largest window
// holds a single packet: no window is starved below one entry.
func (t *Tables) Reclaim() int {
	largest := len(t.Windows) - 1
	for i := len(t.Windows) - 1; i >= 0; i-- {
		if t.Windows[i].Count > t.Windows[largest].Count {
			largest = i
		}
	}

	if t.Windows[largest].Count <= 1 {
		return Unset
	}

	lower := t.Windows[largest].LowerBound
	for i := len(t.Packets) - 1; i >= 0; i-- {
		p := &t.Packets[i]
		if p.InUse && p.Window == largest &&
			lower >= 0 && seqval.IsEq(p.SeqVal, uint16(lower)) {
			p.free()
			t.Windows[largest].Count--
			t.UpdateBounds()
			return i
		}
	}

	return Unset
}

// UpdateBounds recomputes every live window's bounds from the live
// packets. Called after any bulk change to the packet pool.
func (t *Tables) UpdateBounds() {
	for i := range t.Windows {
		t.Windows[i].LowerBound = Unset
		t.Windows[i].UpperBound = Unset
	}

	for i := len(t.Packets) - 1; i >= 0; i-- {
		p := &t.Packets[i]
		if !p.InUse {
			continue
		}
		w := &t.Windows[p.Window]
		if w.LowerBound < 0 || seqval.IsLt(p.SeqVal, uint16(w.LowerBound)) {
			w.LowerBound = int32(p.SeqVal)
		}
		if w.UpperBound < 0 || seqval.IsGt(p.SeqVal, uint16(w.UpperBound)) {
			w.UpperBound = int32(p.SeqVal)
		}
	}
}

// LivePackets returns how many packet buffers are in use.
func (t *Tables) LivePackets() int {
	n := 0
	for i := range t.Packets {
		if t.Packets[i].InUse {
			n++
		}
	}
	return n
}

// LiveWindows returns how many window slots are in use.
func (t *Tables) LiveWindows() int {
	n := 0
	for i := range t.Windows {
		if t.Windows[i].InUse {
			n++
		}
	}
	return n
}
