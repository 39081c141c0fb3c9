/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package fw implements the Trickle multicast forwarding engine: the
// accept decision for multicast datagrams, the sliding-window
// consistency checks against neighbour advertisements, and the
// periodic retransmission machinery driven by two Trickle timers.
package fw

import (
	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/table"
	"github.com/roll-mcast/trickled/trickle"
	"github.com/roll-mcast/trickled/wire"
)

// EngineName selects this engine in the configuration.
const EngineName = "trickle"

// Engine is the Trickle multicast forwarding engine.
//
// All state is owned by a single logical thread: the engine methods
// (Accept, IcmpInput, Originate and the timer callbacks) must only run
// from the engine loop. The queue-based API on Run is what faces and
// the executor use.
type Engine struct {
	stack Stack
	clock Clock
	rand  Rand
	sched Scheduler

	tables  *table.Tables
	timers  [2]trickle.Timer
	handles [2]TimerHandle
	lastSeq uint16

	shortSeeds   bool
	destAllNodes bool
	setMBit      bool
	icmpCode     uint8
	hopLimit     uint8
	mtu          int

	sndBuf []byte

	Counters defn.EngineCounters

	pendingMcast chan []byte
	pendingIcmp  chan []byte
	pendingOut   chan []byte
	callbacks    chan func()
	shouldQuit   chan struct{}
	hasQuit      chan struct{}
}

// NewEngine creates the engine from the global configuration and its
// collaborators. Pools are allocated here, once.
func NewEngine(stack Stack, clock Clock, rand Rand, sched Scheduler) *Engine {
	cfg := core.C
	e := &Engine{
		stack: stack,
		clock: clock,
		rand:  rand,
		sched: sched,

		tables: table.New(cfg.Engine.Wins, cfg.Engine.BuffNum, cfg.Engine.Mtu),

		shortSeeds:   cfg.Engine.ShortSeeds,
		destAllNodes: cfg.Engine.DestAllNodes,
		setMBit:      cfg.Engine.SetMBit,
		icmpCode:     cfg.Engine.IcmpCode,
		hopLimit:     cfg.Engine.HopLimit,
		mtu:          cfg.Engine.Mtu,

		sndBuf: make([]byte, cfg.Engine.Mtu),

		pendingMcast: make(chan []byte, cfg.Engine.QueueSize),
		pendingIcmp:  make(chan []byte, cfg.Engine.QueueSize),
		pendingOut:   make(chan []byte, cfg.Engine.QueueSize),
		callbacks:    make(chan func(), 8),
		shouldQuit:   make(chan struct{}, 1),
		hasQuit:      make(chan struct{}),
	}

	now := clock.Ticks()
	e.timers[0].Configure(timerParams(cfg.Timers.Aggressive), now)
	e.timers[1].Configure(timerParams(cfg.Timers.Conservative), now)

	return e
}

func timerParams(tc core.TimerConfig) trickle.Params {
	return trickle.Params{
		IMin:    tc.IMin,
		IMax:    tc.IMax,
		K:       tc.K,
		TActive: tc.TActive,
		TDwell:  tc.TDwell,
	}
}

func (e *Engine) String() string {
	return "trickle-engine"
}

// Start kicks both timers. Must run before any traffic is delivered.
func (e *Engine) Start() {
	core.Log.Info(e, "Starting trickle multicast engine",
		"wins", len(e.tables.Windows), "buffers", len(e.tables.Packets))
	e.resetTimer(0)
	e.resetTimer(1)
}

// Run processes queued work until Stop is called. Engine state is only
// ever touched from this loop.
func (e *Engine) Run() {
	for {
		select {
		case pkt := <-e.pendingMcast:
			if e.Accept(defn.DgramIn, pkt) == defn.Accept {
				core.Log.Trace(e, "Accepted multicast datagram")
			}
		case pkt := <-e.pendingIcmp:
			e.IcmpInput(pkt)
		case pkt := <-e.pendingOut:
			e.Originate(pkt)
		case fn := <-e.callbacks:
			fn()
		case <-e.shouldQuit:
			core.Log.Info(e, "Stopping engine")
			close(e.hasQuit)
			return
		}
	}
}

// Stop tells the engine loop to quit and waits for it.
func (e *Engine) Stop() {
	e.shouldQuit <- struct{}{}
	<-e.hasQuit
}

// QueueMcast hands an inbound multicast datagram to the engine loop.
func (e *Engine) QueueMcast(pkt []byte) {
	select {
	case e.pendingMcast <- pkt:
	default:
		core.Log.Error(e, "Multicast datagram dropped due to full queue")
	}
}

// QueueIcmp hands an inbound ICMPv6 trickle message to the engine loop.
func (e *Engine) QueueIcmp(pkt []byte) {
	select {
	case e.pendingIcmp <- pkt:
	default:
		core.Log.Error(e, "ICMPv6 message dropped due to full queue")
	}
}

// QueueOriginate hands a locally sourced datagram to the engine loop.
func (e *Engine) QueueOriginate(pkt []byte) {
	select {
	case e.pendingOut <- pkt:
	default:
		core.Log.Error(e, "Outbound datagram dropped due to full queue")
	}
}

// Post runs fn on the engine loop. It is the delivery point for
// scheduler callbacks.
func (e *Engine) Post(fn func()) {
	e.callbacks <- fn
}

// Tables exposes the pools to read-only consumers (management).
func (e *Engine) Tables() *table.Tables {
	return e.tables
}

// Timer returns a copy of timer m's state for inspection.
func (e *Engine) Timer(m int) trickle.Timer {
	return e.timers[m]
}

// LastSeq returns the last sequence value assigned to an originated
// datagram.
func (e *Engine) LastSeq() uint16 {
	return e.lastSeq
}

// resetTimer restarts timer m on a fresh minimum interval and schedules
// its transmit-point callback, displacing any outstanding one.
func (e *Engine) resetTimer(m int) {
	delay := e.timers[m].Reset(e.clock.Ticks(), e.rand.Uint32)
	core.Log.Trace(e, "Timer reset", "m", m, "delay", delay)
	e.sched.Schedule(&e.handles[m], delay, func() { e.handleTimer(m) })
}

// scheduleIntervalEnd arms the interval-doubling callback for timer m.
func (e *Engine) scheduleIntervalEnd(m int) {
	delay := e.timers[m].UntilIntervalEnd(e.clock.Ticks())
	e.sched.Schedule(&e.handles[m], delay, func() { e.doubleInterval(m) })
}

// doubleInterval runs at the end of timer m's interval.
func (e *Engine) doubleInterval(m int) {
	delay := e.timers[m].DoubleInterval(e.clock.Ticks(), e.rand.Uint32)
	core.Log.Trace(e, "Interval doubled", "m", m,
		"start", e.timers[m].TStart, "end", e.timers[m].TEnd, "delay", delay)
	e.sched.Schedule(&e.handles[m], delay, func() { e.handleTimer(m) })
}

// seedOf extracts the seed id for a datagram carrying opt.
func (e *Engine) seedOf(d wire.Datagram, opt wire.TrickleOption) defn.SeedID {
	if e.shortSeeds {
		return defn.ShortSeedID(opt.Seed)
	}
	return defn.SeedFromAddr(d.Src())
}
