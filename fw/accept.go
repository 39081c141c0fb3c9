/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/seqval"
	"github.com/roll-mcast/trickled/table"
	"github.com/roll-mcast/trickled/wire"
)

// Accept processes an inbound or locally originated multicast datagram
// and decides whether it is dropped or accepted into the buffer pool.
// direction is DgramIn for received datagrams, DgramOut when we are the
// seed. Accepting resets the matching trickle timer.
func (e *Engine) Accept(direction int, pkt []byte) int {
	d, err := wire.ParseDatagram(pkt)
	if err != nil {
		e.Counters.McastBad++
		return defn.Drop
	}

	dst := d.Dst()
	if !dst.IsMulticast() || dst.IsMcastNonRoutable() {
		core.Log.Debug(e, "Multicast I/O, bad destination")
		e.Counters.McastBad++
		return defn.Drop
	}

	// An unspecified source happens when a seed transmits while still
	// performing DAD or waiting for a prefix.
	if d.Src().IsUnspecified() {
		core.Log.Debug(e, "Multicast I/O, bad source")
		e.Counters.McastBad++
		return defn.Drop
	}

	opt, err := wire.DecodeTrickleOption(d, e.shortSeeds)
	if err != nil {
		core.Log.Debug(e, "Multicast I/O, bad HBH option", "err", err)
		e.Counters.McastBad++
		return defn.Drop
	}

	if d.Len() > e.mtu {
		e.Counters.McastBad++
		return defn.Drop
	}

	if direction == defn.DgramIn {
		e.Counters.McastInAll++
	}

	seed := e.seedOf(d, opt)
	m := opt.M
	seq := opt.Seq
	mi := opt.TimerIndex()

	wi := e.tables.LookupWindow(seed, m)
	if wi != table.Unset {
		w := &e.tables.Windows[wi]
		if w.LowerBound >= 0 && seqval.IsLt(seq, uint16(w.LowerBound)) {
			core.Log.Debug(e, "Too old", "seed", seed, "seq", seq)
			e.Counters.McastDropped++
			return defn.Drop
		}
		for i := len(e.tables.Packets) - 1; i >= 0; i-- {
			p := &e.tables.Packets[i]
			if p.InUse && p.Window == wi && seqval.IsEq(seq, p.SeqVal) {
				core.Log.Debug(e, "Seen before", "seed", seed, "seq", seq)
				e.Counters.McastDropped++
				return defn.Drop
			}
		}
	}

	core.Log.Debug(e, "New message", "seed", seed, "m", m, "seq", seq)

	fresh := false
	if wi == table.Unset {
		wi = e.tables.AllocateWindow()
		fresh = true
	}
	if wi == table.Unset {
		core.Log.Debug(e, "Failed to allocate window")
		e.Counters.McastDropped++
		return defn.Drop
	}

	pi := e.tables.AllocatePacket()
	if pi == table.Unset {
		core.Log.Debug(e, "Buffer allocation failed, reclaiming")
		pi = e.tables.Reclaim()
	}
	if pi == table.Unset {
		// A window allocated just for this datagram must not leak.
		if fresh || e.tables.Windows[wi].Count == 0 {
			e.tables.FreeWindow(wi)
		}
		e.Counters.McastDropped++
		return defn.Drop
	}

	if direction == defn.DgramIn {
		e.Counters.McastInUnique++
	}

	w := &e.tables.Windows[wi]
	w.M = m
	w.InUse = true
	w.Seed = seed

	if w.Count == 0 {
		w.LowerBound = int32(seq)
	}
	if w.Count == 0 || (w.UpperBound >= 0 && seqval.IsGt(seq, uint16(w.UpperBound))) {
		w.UpperBound = int32(seq)
	}
	w.Count++

	p := &e.tables.Packets[pi]
	p.Store(pkt)
	p.Window = wi
	p.SeqVal = seq
	p.Seed = seed
	p.InUse = true

	// An incoming datagram is an inconsistency that must be forwarded,
	// with its hop limit spent. When we are the seed the caller
	// transmits it, so the hop limit stays untouched.
	if direction == defn.DgramIn {
		p.MustSend = true
		wire.NewDatagram(p.Bytes()).DecrementHopLimit()
	}

	core.Log.Debug(e, "Window updated", "seed", w.Seed, "m", m,
		"count", w.Count, "lower", w.LowerBound, "upper", w.UpperBound)

	e.timers[mi].Inconsistency = true
	e.resetTimer(mi)

	return defn.Accept
}
