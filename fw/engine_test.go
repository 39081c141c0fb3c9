package fw

import (
	"testing"
	"time"

	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/table"
	"github.com/roll-mcast/trickled/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioConfig pins the parameters the scenario tests assume:
// IMIN=100, IMAX=4, K=2, T_ACTIVE=3, T_DWELL=5 on timer 0, short
// seeds, 4 windows, 8 buffers.
func scenarioConfig() *core.Config {
	c := core.DefaultConfig()
	c.Engine.Wins = 4
	c.Engine.BuffNum = 8
	c.Engine.Mtu = 256
	c.Engine.ShortSeeds = true
	c.Engine.SetMBit = false
	c.Timers.Aggressive = core.TimerConfig{IMin: 100, IMax: 4, K: 2, TActive: 3, TDwell: 5}
	c.Timers.Conservative = core.TimerConfig{IMin: 6400, IMax: 4, K: 1, TActive: 3, TDwell: 5}
	return c
}

func newTestEngine(t *testing.T, mutate func(*core.Config)) (*Engine, *simStack, *simClock, *simSched) {
	t.Helper()

	prev := core.C
	cfg := scenarioConfig()
	if mutate != nil {
		mutate(cfg)
	}
	core.C = cfg
	t.Cleanup(func() { core.C = prev })

	stack := newSimStack()
	clock := &simClock{}
	sched := newSimSched(clock)
	e := NewEngine(stack, clock, &simRand{}, sched)
	e.Start()
	return e, stack, clock, sched
}

// makeMcast builds a routable multicast datagram carrying the trickle
// HBH option in short-seed mode.
func makeMcast(seed, seq uint16, m bool, hopLimit uint8) []byte {
	buf := make([]byte, defn.IPv6HeaderLen+wire.HBHTotalLen+4)
	d := wire.NewDatagram(buf)
	d.SetVersion()
	d.SetPayloadLen(uint16(wire.HBHTotalLen + 4))
	d.SetNextHeader(defn.ProtoHopByHop)
	d.SetHopLimit(hopLimit)
	d.SetSrc(defn.Addr{0xfe, 0x80, 15: 0x02})
	d.SetDst(defn.Addr{0xff, 0x05, 15: 0x01})
	wire.EncodeTrickleOption(d.Payload(), 59, wire.TrickleOption{Seed: seed, Seq: seq, M: m}, true)
	return buf
}

// makeSummary builds a valid ICMPv6 trickle multicast advertisement
// from already-encoded sequence list payload bytes.
func makeSummary(payload []byte) []byte {
	buf := make([]byte, defn.IPv6HeaderLen+defn.ICMPv6HeaderLen+len(payload))
	d := wire.NewDatagram(buf)
	d.SetVersion()
	d.SetPayloadLen(uint16(defn.ICMPv6HeaderLen + len(payload)))
	d.SetNextHeader(defn.ProtoICMPv6)
	d.SetHopLimit(0xFF)
	d.SetSrc(defn.Addr{0xfe, 0x80, 15: 0x02})
	d.SetDst(defn.LinkLocalAllRouters)

	icmp, _ := wire.ICMPv6View(d)
	icmp.SetType(defn.ICMPTypeTrickleMcast)
	icmp.SetCode(0)
	copy(icmp.Payload(), payload)
	icmp.SetChecksum(0)
	icmp.SetChecksum(wire.ComputeChecksum(d))
	return buf
}

func summaryOf(entries ...struct {
	seed uint16
	m    bool
	vals []uint16
}) []byte {
	w := wire.NewSeqListWriter(nil, true)
	for _, e := range entries {
		w.BeginEntry(defn.ShortSeedID(e.seed), e.m, len(e.vals))
		for _, v := range e.vals {
			w.AddValue(v)
		}
	}
	return makeSummary(w.Bytes())
}

func entry(seed uint16, m bool, vals ...uint16) struct {
	seed uint16
	m    bool
	vals []uint16
} {
	return struct {
		seed uint16
		m    bool
		vals []uint16
	}{seed, m, vals}
}

func findPacket(e *Engine, seq uint16) *table.Packet {
	for i := range e.tables.Packets {
		if e.tables.Packets[i].InUse && e.tables.Packets[i].SeqVal == seq {
			return &e.tables.Packets[i]
		}
	}
	return nil
}

func mcastSent(s *simStack) int {
	n := 0
	for _, b := range s.sent {
		if b[6] == defn.ProtoHopByHop {
			n++
		}
	}
	return n
}

// checkInvariants asserts the cross-pool invariants that must hold
// after every public entry point.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()
	tbl := e.tables

	type key struct {
		w   int
		seq uint16
	}
	counts := make(map[int]int)
	seen := make(map[key]bool)

	for i := range tbl.Packets {
		p := &tbl.Packets[i]
		if !p.InUse {
			continue
		}
		require.NotEqual(t, table.Unset, p.Window)
		w := &tbl.Windows[p.Window]
		assert.True(t, w.InUse, "live packet points at a dead window")
		assert.Greater(t, w.Count, 0)
		counts[p.Window]++

		k := key{p.Window, p.SeqVal}
		assert.False(t, seen[k], "two live packets share (window, seq)")
		seen[k] = true

		assert.GreaterOrEqual(t, p.Dwell, p.Active)
	}

	type wkey struct {
		seed defn.SeedID
		m    bool
	}
	wseen := make(map[wkey]bool)
	for i := range tbl.Windows {
		w := &tbl.Windows[i]
		if !w.InUse {
			continue
		}
		assert.Equal(t, counts[i], w.Count, "window count out of sync")
		k := wkey{w.Seed, w.M}
		assert.False(t, wseen[k], "two live windows share (seed, m)")
		wseen[k] = true
	}

	assert.Less(t, e.lastSeq, uint16(0x8000))
}

func TestAcceptFreshSeed(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	pkt := makeMcast(0xBEEF, 0x0001, false, 5)
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, pkt))

	wi := e.tables.LookupWindow(defn.ShortSeedID(0xBEEF), false)
	require.NotEqual(t, table.Unset, wi)
	w := &e.tables.Windows[wi]
	assert.Equal(t, 1, w.Count)
	assert.Equal(t, int32(1), w.LowerBound)
	assert.Equal(t, int32(1), w.UpperBound)

	p := findPacket(e, 1)
	require.NotNil(t, p)
	assert.True(t, p.MustSend)
	assert.Equal(t, uint8(4), wire.NewDatagram(p.Bytes()).HopLimit(),
		"stored copy's hop limit is spent")

	// The original buffer is untouched.
	assert.Equal(t, uint8(5), wire.NewDatagram(pkt).HopLimit())

	assert.Equal(t, uint64(100), e.timers[0].TEnd, "timer 0 reset to IMin")
	assert.True(t, e.timers[0].Inconsistency)

	assert.Equal(t, uint64(1), e.Counters.McastInAll)
	assert.Equal(t, uint64(1), e.Counters.McastInUnique)
	checkInvariants(t, e)
}

func TestAcceptDuplicateRejected(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	pkt := makeMcast(0xBEEF, 0x0001, false, 5)
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, pkt))

	before := e.tables.Windows[e.tables.LookupWindow(defn.ShortSeedID(0xBEEF), false)]
	dropped := e.Counters.McastDropped

	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, pkt))
	assert.Equal(t, dropped+1, e.Counters.McastDropped)

	after := e.tables.Windows[e.tables.LookupWindow(defn.ShortSeedID(0xBEEF), false)]
	assert.Equal(t, before, after, "duplicate delivery changes no window state")
	assert.Equal(t, 1, e.tables.LivePackets())
	checkInvariants(t, e)
}

func TestAcceptStaleRejected(t *testing.T) {
	e, _, _, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 10, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 12, false, 5)))
	sched.advanceTo(60) // periodic pass rebuilds bounds

	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 9, false, 5)),
		"below the lower bound is too old")
	checkInvariants(t, e)
}

func TestAcceptMalformed(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	// Non-routable (link-local scope) group.
	pkt := makeMcast(0xBEEF, 1, false, 5)
	wire.NewDatagram(pkt).SetDst(defn.LinkLocalAllNodes)
	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, pkt))

	// Unspecified source.
	pkt = makeMcast(0xBEEF, 1, false, 5)
	wire.NewDatagram(pkt).SetSrc(defn.Addr{})
	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, pkt))

	// Not hop-by-hop.
	pkt = makeMcast(0xBEEF, 1, false, 5)
	wire.NewDatagram(pkt).SetNextHeader(defn.ProtoICMPv6)
	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, pkt))

	// Wrong option length for the seed mode.
	pkt = makeMcast(0xBEEF, 1, false, 5)
	pkt[defn.IPv6HeaderLen+3] = wire.OptLenLongSeed
	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, pkt))

	assert.Equal(t, uint64(4), e.Counters.McastBad)
	assert.Zero(t, e.tables.LivePackets())
	checkInvariants(t, e)
}

func TestPeriodicForwardsPendingPacket(t *testing.T) {
	e, stack, _, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 5)))
	sched.advanceTo(50) // transmit point at I/2 with the pinned PRNG

	require.Equal(t, 1, mcastSent(stack))
	assert.Equal(t, uint64(1), e.Counters.McastFwd)
	assert.Equal(t, 1, stack.watchdogs)

	p := findPacket(e, 1)
	require.NotNil(t, p)
	assert.False(t, p.MustSend, "send flag clears after forwarding")
	assert.False(t, e.timers[0].Inconsistency)

	// Suppression is on and c < k, so the pass also advertised.
	assert.Equal(t, uint64(1), e.Counters.IcmpOut)
	checkInvariants(t, e)
}

func TestPeriodicRespectsZeroHopLimit(t *testing.T) {
	e, stack, _, sched := newTestEngine(t, nil)

	// Arrives with hop limit 1; the stored copy is 0 and never goes out.
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 1)))
	sched.advanceTo(60)

	assert.Zero(t, mcastSent(stack))
	assert.Equal(t, 1, e.tables.LivePackets(), "unsendable packets still dwell")
	checkInvariants(t, e)
}

func TestPeriodicStackNotReady(t *testing.T) {
	e, stack, clock, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 5)))
	stack.ready = false
	sched.advanceTo(50)

	assert.Empty(t, stack.sent, "no I/O while the stack has no link-local address")
	assert.Equal(t, clock.now, e.timers[0].TStart, "timer reset instead")
	checkInvariants(t, e)
}

func TestSuppressionDisabledUsesActiveBudget(t *testing.T) {
	e, stack, _, sched := newTestEngine(t, func(c *core.Config) {
		c.Timers.Aggressive.K = 0xFF
	})

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 5)))
	sched.advanceTo(1200)

	// Without suppression the packet goes out every pass while its
	// active budget lasts, and no advertisements are sent.
	assert.Greater(t, mcastSent(stack), 1)
	assert.Zero(t, e.Counters.IcmpOut)
	checkInvariants(t, e)
}

func TestExpiryFreesPacketAndWindow(t *testing.T) {
	e, _, _, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 5)))

	// T_dwell = 5 * (100 << 4) = 8000 ticks.
	sched.advanceTo(20000)

	assert.Zero(t, e.tables.LivePackets())
	assert.Zero(t, e.tables.LiveWindows())
	assert.Equal(t, table.Unset, e.tables.LookupWindow(defn.ShortSeedID(0xBEEF), false))
	checkInvariants(t, e)
}

func TestIcmpConsistentSummary(t *testing.T) {
	e, _, _, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 7, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 9, false, 5)))
	sched.advanceTo(50) // clear the accept-time inconsistency

	tStart := e.timers[0].TStart
	c := e.timers[0].C

	e.IcmpInput(summaryOf(entry(0xBEEF, false, 7, 9)))

	assert.False(t, e.timers[0].Inconsistency)
	assert.Equal(t, c+1, e.timers[0].C)
	assert.Equal(t, tStart, e.timers[0].TStart, "no reset on a consistent summary")
	assert.False(t, findPacket(e, 7).MustSend)
	assert.False(t, findPacket(e, 9).MustSend)
	assert.Equal(t, uint64(1), e.Counters.IcmpIn)
	checkInvariants(t, e)
}

func TestIcmpWeHaveNew(t *testing.T) {
	e, _, clock, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 7, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 9, false, 5)))
	sched.advanceTo(50)

	// The peer lists only 7: our 9 is news to them.
	e.IcmpInput(summaryOf(entry(0xBEEF, false, 7)))

	assert.True(t, findPacket(e, 9).MustSend)
	assert.False(t, findPacket(e, 7).MustSend)
	assert.Equal(t, clock.now, e.timers[0].TStart, "timer reset")
	assert.Equal(t, uint8(0), e.timers[0].C)
	checkInvariants(t, e)
}

func TestIcmpTheyHaveNew(t *testing.T) {
	e, _, clock, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 7, false, 5)))
	sched.advanceTo(50)

	// An advertised value above our upper bound.
	e.IcmpInput(summaryOf(entry(0xBEEF, false, 7, 8)))

	assert.Equal(t, clock.now, e.timers[0].TStart, "timer reset")
	checkInvariants(t, e)
}

func TestIcmpUnknownWindowIsInconsistency(t *testing.T) {
	e, _, clock, sched := newTestEngine(t, nil)
	sched.advanceTo(50)

	e.IcmpInput(summaryOf(entry(0xABCD, false, 3)))

	assert.Equal(t, clock.now, e.timers[0].TStart,
		"an advertised window unknown to us resets the timer")
	checkInvariants(t, e)
}

func TestIcmpMissingWithinBounds(t *testing.T) {
	e, _, clock, sched := newTestEngine(t, nil)

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 7, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 9, false, 5)))
	sched.advanceTo(50)

	// 8 is inside [7, 9] but we do not hold it.
	e.IcmpInput(summaryOf(entry(0xBEEF, false, 8)))

	assert.Equal(t, clock.now, e.timers[0].TStart, "timer reset")
	checkInvariants(t, e)
}

func TestIcmpValidation(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	// Non-link-local source.
	pkt := summaryOf(entry(1, false, 1))
	wire.NewDatagram(pkt).SetSrc(defn.Addr{0x20, 0x01, 15: 0x01})
	e.IcmpInput(pkt)
	assert.Equal(t, uint64(1), e.Counters.IcmpBad)

	// Unicast destination.
	pkt = summaryOf(entry(1, false, 1))
	wire.NewDatagram(pkt).SetDst(defn.Addr{0xfe, 0x80, 15: 0x09})
	e.IcmpInput(pkt)
	assert.Equal(t, uint64(2), e.Counters.IcmpBad)

	// Wrong hop limit.
	pkt = summaryOf(entry(1, false, 1))
	wire.NewDatagram(pkt).SetHopLimit(64)
	e.IcmpInput(pkt)
	assert.Equal(t, uint64(3), e.Counters.IcmpBad)

	// Wrong ICMP code.
	pkt = summaryOf(entry(1, false, 1))
	icmp, _ := wire.ICMPv6View(wire.NewDatagram(pkt))
	icmp.SetCode(7)
	e.IcmpInput(pkt)
	assert.Equal(t, uint64(4), e.Counters.IcmpBad)

	// Reserved bits set in an entry.
	pkt = summaryOf(entry(1, false, 1))
	pkt[defn.IPv6HeaderLen+defn.ICMPv6HeaderLen] |= 0x01
	e.IcmpInput(pkt)
	assert.Equal(t, uint64(5), e.Counters.IcmpBad)

	assert.Zero(t, e.Counters.IcmpOut)
	checkInvariants(t, e)
}

func TestOriginateAssignsSequenceAndWraps(t *testing.T) {
	e, stack, _, _ := newTestEngine(t, nil)

	// Existing window for our own seed at the top of the serial space.
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 0x7FFF, false, 5)))
	e.lastSeq = 0x7FFF

	wi := e.tables.LookupWindow(defn.ShortSeedID(0xBEEF), false)
	require.NotEqual(t, table.Unset, wi)

	payload := []byte{0xde, 0xad}
	inner := make([]byte, defn.IPv6HeaderLen+len(payload))
	d := wire.NewDatagram(inner)
	d.SetVersion()
	d.SetPayloadLen(uint16(len(payload)))
	d.SetNextHeader(59) // no next header
	d.SetHopLimit(64)
	d.SetSrc(defn.Addr{0xfe, 0x80, 15: 0x01})
	d.SetDst(defn.Addr{0xff, 0x05, 15: 0x01})
	copy(d.Payload(), payload)

	e.Originate(inner)
	assert.Equal(t, uint16(0x0000), e.lastSeq)
	assert.Equal(t, int32(0x0000), e.tables.Windows[wi].UpperBound,
		"upper bound follows across the wrap")

	e.Originate(inner)
	assert.Equal(t, uint16(0x0001), e.lastSeq)
	assert.Equal(t, int32(0x0001), e.tables.Windows[wi].UpperBound)

	assert.Equal(t, uint64(2), e.Counters.McastOut)
	require.Equal(t, 2, mcastSent(stack))

	// The emitted datagram carries our seed and the assigned sequence.
	sent := stack.sent[len(stack.sent)-1]
	sd, err := wire.ParseDatagram(sent)
	require.NoError(t, err)
	opt, err := wire.DecodeTrickleOption(sd, true)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), opt.Seed)
	assert.Equal(t, uint16(0x0001), opt.Seq)
	assert.False(t, opt.M)
	assert.Equal(t, uint8(64), sd.HopLimit(), "originated hop limit untouched")
	checkInvariants(t, e)
}

func TestOriginateTooLong(t *testing.T) {
	e, stack, _, _ := newTestEngine(t, nil)

	inner := make([]byte, 256-4) // mtu 256; no room for the option
	d := wire.NewDatagram(inner)
	d.SetVersion()
	d.SetPayloadLen(uint16(len(inner) - defn.IPv6HeaderLen))
	d.SetNextHeader(59)
	d.SetHopLimit(64)
	d.SetSrc(defn.Addr{0xfe, 0x80, 15: 0x01})
	d.SetDst(defn.Addr{0xff, 0x05, 15: 0x01})

	e.Originate(inner)
	assert.Empty(t, stack.sent)
	assert.Zero(t, e.Counters.McastOut)
	checkInvariants(t, e)
}

func TestReclaimUnderPressure(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	for seq := uint16(1); seq <= 6; seq++ {
		require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xAAAA, seq, false, 5)))
	}
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBBBB, 100, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBBBB, 101, false, 5)))
	require.Equal(t, table.Unset, e.tables.AllocatePacket(), "pool must be full")

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xCCCC, 50, false, 5)))

	wA := e.tables.LookupWindow(defn.ShortSeedID(0xAAAA), false)
	wB := e.tables.LookupWindow(defn.ShortSeedID(0xBBBB), false)
	wC := e.tables.LookupWindow(defn.ShortSeedID(0xCCCC), false)
	require.NotEqual(t, table.Unset, wC)

	assert.Equal(t, 5, e.tables.Windows[wA].Count, "largest window lost its oldest")
	assert.Equal(t, 2, e.tables.Windows[wB].Count)
	assert.Equal(t, 1, e.tables.Windows[wC].Count)
	assert.Equal(t, int32(2), e.tables.Windows[wA].LowerBound)
	assert.Nil(t, findPacket(e, 1), "the evicted packet was the lower bound")
	checkInvariants(t, e)
}

func TestReclaimRefusalRollsBackWindow(t *testing.T) {
	e, _, _, _ := newTestEngine(t, func(c *core.Config) {
		c.Engine.BuffNum = 2
	})

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xAAAA, 1, false, 5)))
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBBBB, 2, false, 5)))

	dropped := e.Counters.McastDropped
	assert.Equal(t, defn.Drop, e.Accept(defn.DgramIn, makeMcast(0xCCCC, 3, false, 5)),
		"reclaim refuses when every window holds one packet")
	assert.Equal(t, dropped+1, e.Counters.McastDropped)
	assert.Equal(t, 2, e.tables.LiveWindows(), "the freshly allocated window is rolled back")
	assert.Equal(t, table.Unset, e.tables.LookupWindow(defn.ShortSeedID(0xCCCC), false))
	checkInvariants(t, e)
}

func TestTimersIndependentParametrizations(t *testing.T) {
	e, _, clock, _ := newTestEngine(t, nil)

	clock.now = 10
	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, false, 5)))
	t1End := e.timers[1].TEnd

	require.Equal(t, defn.Accept, e.Accept(defn.DgramIn, makeMcast(0xBEEF, 1, true, 5)))
	assert.NotEqual(t, t1End, e.timers[1].TEnd, "M=1 datagram resets timer 1")
	assert.Equal(t, 2, e.tables.LiveWindows(), "same seed, two parametrizations, two windows")
	checkInvariants(t, e)
}

func TestRunLoopProcessesQueues(t *testing.T) {
	e, _, _, _ := newTestEngine(t, nil)

	go e.Run()
	e.QueueMcast(makeMcast(0xBEEF, 1, false, 5))
	e.QueueIcmp(summaryOf(entry(0xBEEF, false, 1)))
	for len(e.pendingMcast) > 0 || len(e.pendingIcmp) > 0 {
		time.Sleep(time.Millisecond)
	}
	e.Stop()

	assert.Equal(t, uint64(1), e.Counters.McastInAll)
	assert.Equal(t, uint64(1), e.Counters.IcmpIn)
}
