/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/seqval"
	"github.com/roll-mcast/trickled/wire"
)

// Originate wraps a locally sourced multicast datagram with the Trickle
// HBH option, assigns it the next sequence value, runs it through the
// accept path so neighbours will see it advertised, and transmits it.
// pkt is a complete IPv6 datagram without the option.
func (e *Engine) Originate(pkt []byte) {
	d, err := wire.ParseDatagram(pkt)
	if err != nil {
		e.Counters.McastBad++
		return
	}

	if len(pkt)+wire.HBHTotalLen > e.mtu {
		core.Log.Debug(e, "Multicast out, cannot add HBH option, packet too long")
		return
	}

	// Open an eight-byte gap after the fixed header for the option.
	out := e.sndBuf[:len(pkt)+wire.HBHTotalLen]
	copy(out, pkt[:defn.IPv6HeaderLen])
	copy(out[defn.IPv6HeaderLen+wire.HBHTotalLen:], pkt[defn.IPv6HeaderLen:])

	od := wire.NewDatagram(out)

	e.lastSeq = seqval.Add(e.lastSeq, 1)
	opt := wire.TrickleOption{
		Seq: e.lastSeq,
		M:   e.setMBit,
	}
	if e.shortSeeds {
		if la := e.stack.LinkAddress(); len(la) >= 2 {
			opt.Seed = uint16(la[len(la)-2])<<8 | uint16(la[len(la)-1])
		}
	}
	wire.EncodeTrickleOption(out[defn.IPv6HeaderLen:], d.NextHeader(), opt, e.shortSeeds)

	od.SetNextHeader(defn.ProtoHopByHop)
	od.SetPayloadLen(d.PayloadLen() + wire.HBHTotalLen)

	core.Log.Debug(e, "Multicast out", "seq", e.lastSeq, "m", opt.M)

	// Buffer it ourselves so subsequent advertisements list it;
	// otherwise neighbours would bounce it straight back at us. The
	// must-send flag stays clear: we transmit it right now.
	if e.Accept(defn.DgramOut, out) == defn.Accept {
		e.stack.Output(out)
		e.Counters.McastOut++
	}
}
