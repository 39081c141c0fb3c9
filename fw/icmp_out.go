/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/utils"
	"github.com/roll-mcast/trickled/wire"
)

// icmpOutput advertises every non-empty sliding window in one ICMPv6
// trickle multicast message to the configured link-local group.
func (e *Engine) icmpOutput() {
	hdrLen := defn.IPv6HeaderLen + defn.ICMPv6HeaderLen

	w := wire.NewSeqListWriter(e.sndBuf[hdrLen:hdrLen], e.shortSeeds)
	for i := len(e.tables.Windows) - 1; i >= 0; i-- {
		win := &e.tables.Windows[i]
		if !win.InUse || win.Count == 0 {
			continue
		}
		w.BeginEntry(win.Seed, win.M, win.Count)
		for j := len(e.tables.Packets) - 1; j >= 0; j-- {
			p := &e.tables.Packets[j]
			if p.InUse && p.Window == i {
				w.AddValue(p.SeqVal)
			}
		}
	}
	payloadLen := len(w.Bytes())

	d := wire.NewDatagram(e.sndBuf[:hdrLen+payloadLen])
	d.SetVersion()
	d.SetNextHeader(defn.ProtoICMPv6)
	d.SetHopLimit(e.hopLimit)
	d.SetPayloadLen(uint16(defn.ICMPv6HeaderLen + payloadLen))

	dst := utils.If(e.destAllNodes, defn.LinkLocalAllNodes, defn.LinkLocalAllRouters)
	d.SetDst(dst)
	d.SetSrc(e.stack.SelectSourceAddress(dst))

	icmp, err := wire.ICMPv6View(d)
	if err != nil {
		return
	}
	icmp.SetType(defn.ICMPTypeTrickleMcast)
	icmp.SetCode(e.icmpCode)
	icmp.SetChecksum(0)
	icmp.SetChecksum(wire.ComputeChecksum(d))

	core.Log.Debug(e, "ICMPv6 out", "len", d.Len())
	e.stack.Output(d.Bytes())
	e.Counters.IcmpOut++
}
