/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package fw

import (
	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/wire"
)

// handleTimer runs at the randomised transmit point in [I/2, I) of
// timer m's interval: it advances packet lifetimes, retransmits what
// must be sent, advertises our buffer, and arms the interval-doubling
// callback.
func (e *Engine) handleTimer(m int) {
	t := &e.timers[m]

	// Bail out pronto if the stack is not ready to send messages.
	if _, ok := e.stack.LinkLocalAddress(); !ok {
		core.Log.Debug(e, "Suppressing timer processing, stack not ready", "m", m)
		e.resetTimer(m)
		return
	}

	now := e.clock.Ticks()
	diffLast := now - t.TLastTrigger
	diffStart := now - t.TStart
	t.TLastTrigger = now

	core.Log.Trace(e, "Periodic", "m", m, "now", now,
		"diff_last", diffLast, "diff_start", diffStart)

	for i := len(e.tables.Packets) - 1; i >= 0; i-- {
		p := &e.tables.Packets[i]
		if !p.InUse || e.tables.Windows[p.Window].TimerIndex() != m {
			continue
		}

		// A packet whose counters are still zero arrived during the
		// last interval: its reception reset this timer, so it has
		// lived since about t_start. Anything else ages by the time
		// since the last pass.
		if p.Active == 0 {
			p.Active += diffStart
			p.Dwell += diffStart
		} else {
			p.Active += diffLast
			p.Dwell += diffLast
		}

		if p.Dwell > t.DwellBudget() {
			wi := p.Window
			e.tables.Windows[wi].Count--
			core.Log.Debug(e, "Packet expired", "m", m, "seq", p.SeqVal,
				"count", e.tables.Windows[wi].Count)
			if e.tables.Windows[wi].Count == 0 {
				core.Log.Debug(e, "Freeing window", "seed", e.tables.Windows[wi].Seed)
				e.tables.FreeWindow(wi)
			}
			e.tables.FreePacket(i)
			continue
		}

		if wire.NewDatagram(p.Bytes()).HopLimit() == 0 {
			continue
		}

		if (t.SuppressionEnabled() && p.MustSend) ||
			(!t.SuppressionEnabled() && p.Active < t.ActiveBudget()) {
			core.Log.Debug(e, "Periodic send", "m", m,
				"seed", e.tables.Windows[p.Window].Seed, "seq", p.SeqVal)
			e.stack.Output(p.Bytes())
			e.Counters.McastFwd++
			p.MustSend = false
			e.stack.Watchdog()
		}
	}

	if t.SuppressionEnabled() && t.C < t.K {
		e.icmpOutput()
	}

	// Done handling inconsistencies for this timer.
	t.Inconsistency = false
	t.C = 0

	e.tables.UpdateBounds()

	e.scheduleIntervalEnd(m)
}
