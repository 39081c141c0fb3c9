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

// IcmpInput consumes one ICMPv6 trickle multicast message and checks
// the advertised sequence lists against our buffer, flagging timer
// inconsistencies both ways ("they have new" / "we have new").
func (e *Engine) IcmpInput(pkt []byte) {
	d, err := wire.ParseDatagram(pkt)
	if err != nil {
		e.Counters.IcmpBad++
		return
	}

	if !d.Src().IsLinkLocalUnicast() {
		core.Log.Debug(e, "ICMPv6 in, bad source")
		e.Counters.IcmpBad++
		return
	}
	if dst := d.Dst(); dst != defn.LinkLocalAllNodes && dst != defn.LinkLocalAllRouters {
		core.Log.Debug(e, "ICMPv6 in, bad destination")
		e.Counters.IcmpBad++
		return
	}
	if d.NextHeader() != defn.ProtoICMPv6 {
		e.Counters.IcmpBad++
		return
	}

	icmp, err := wire.ICMPv6View(d)
	if err != nil {
		e.Counters.IcmpBad++
		return
	}
	if icmp.Type() != defn.ICMPTypeTrickleMcast || icmp.Code() != e.icmpCode {
		core.Log.Debug(e, "ICMPv6 in, bad type or code")
		e.Counters.IcmpBad++
		return
	}
	if d.HopLimit() != e.hopLimit {
		core.Log.Debug(e, "ICMPv6 in, bad hop limit")
		e.Counters.IcmpBad++
		return
	}

	// Validate every sequence list entry before acting on any, so a
	// malformed message is dropped as a whole.
	for r := wire.NewSeqListReader(icmp.Payload(), e.shortSeeds); ; {
		_, ok, err := r.Next()
		if err != nil {
			core.Log.Debug(e, "ICMPv6 in, malformed sequence list", "err", err)
			e.Counters.IcmpBad++
			return
		}
		if !ok {
			break
		}
	}

	e.Counters.IcmpIn++

	for i := range e.tables.Windows {
		e.tables.Windows[i].Listed = false
	}
	for i := range e.tables.Packets {
		e.tables.Packets[i].Listed = false
	}

	r := wire.NewSeqListReader(icmp.Payload(), e.shortSeeds)
	for {
		entry, ok, err := r.Next()
		if err != nil {
			core.Log.Debug(e, "ICMPv6 in, malformed sequence list", "err", err)
			e.Counters.IcmpBad++
			break
		}
		if !ok {
			// Parsed cleanly to the end: check for "we have new".
			e.checkWeHaveNew()
			break
		}
		e.checkEntry(entry)
	}

	for m := range e.timers {
		if e.timers[m].Inconsistency {
			e.resetTimer(m)
		} else {
			e.timers[m].C++
		}
	}
}

// checkEntry compares one advertised sequence list against the matching
// sliding window.
func (e *Engine) checkEntry(entry wire.SeqListEntry) {
	mi := entry.TimerIndex()

	wi := e.tables.LookupWindow(entry.Seed, entry.M)
	if wi == table.Unset {
		// The draft leaves an advertised window unknown to the
		// receiver unspecified; we treat it as an inconsistency.
		core.Log.Debug(e, "Inconsistency, advertised window unknown", "seed", entry.Seed)
		e.timers[mi].Inconsistency = true
		return
	}

	w := &e.tables.Windows[wi]
	w.Listed = true
	w.MinListed = table.Unset

	for k := 0; k < entry.Count(); k++ {
		val := entry.Value(k)

		// "They have new": an advertised value above our upper bound.
		if w.UpperBound >= 0 && seqval.IsGt(val, uint16(w.UpperBound)) {
			core.Log.Debug(e, "Inconsistency, advertised seq above upper bound",
				"seq", val, "upper", w.UpperBound)
			e.timers[mi].Inconsistency = true
		}

		if w.LowerBound < 0 || w.UpperBound < 0 {
			continue
		}
		inBounds := (seqval.IsLt(val, uint16(w.UpperBound)) || seqval.IsEq(val, uint16(w.UpperBound))) &&
			(seqval.IsGt(val, uint16(w.LowerBound)) || seqval.IsEq(val, uint16(w.LowerBound)))
		if !inBounds {
			continue
		}

		found := false
		for i := len(e.tables.Packets) - 1; i >= 0; i-- {
			p := &e.tables.Packets[i]
			if p.InUse && p.Window == wi && seqval.IsEq(p.SeqVal, val) {
				found = true
				p.Listed = true
				if w.MinListed < 0 || seqval.IsLt(val, uint16(w.MinListed)) {
					w.MinListed = int32(val)
				}
				break
			}
		}
		if !found {
			// Advertised within our bounds but we do not hold it.
			core.Log.Debug(e, "Inconsistency, advertised seq within bounds but missing",
				"seq", val, "lower", w.LowerBound, "upper", w.UpperBound)
			e.timers[mi].Inconsistency = true
		}
	}
}

// checkWeHaveNew flags packets the advertisement should have listed but
// did not: the peer is behind and must hear them again.
func (e *Engine) checkWeHaveNew() {
	for i := len(e.tables.Packets) - 1; i >= 0; i-- {
		p := &e.tables.Packets[i]
		if !p.InUse {
			continue
		}
		w := &e.tables.Windows[p.Window]
		mi := w.TimerIndex()

		if !w.Listed {
			core.Log.Debug(e, "Inconsistency, our seed not listed", "seed", w.Seed)
			e.timers[mi].Inconsistency = true
			p.MustSend = true
		} else if !p.Listed && w.MinListed >= 0 &&
			seqval.IsGt(p.SeqVal, uint16(w.MinListed)) {
			core.Log.Debug(e, "Inconsistency, seq not listed but lower one was",
				"seq", p.SeqVal, "min_listed", w.MinListed)
			e.timers[mi].Inconsistency = true
			p.MustSend = true
		}
	}
}
