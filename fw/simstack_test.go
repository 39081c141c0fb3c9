package fw

import (
	"sort"

	"github.com/roll-mcast/trickled/defn"
)

// simStack is a virtual IPv6 stack: it records transmissions and lets
// tests toggle readiness.
type simStack struct {
	linkLocal defn.Addr
	ready     bool
	linkAddr  []byte

	sent      [][]byte
	watchdogs int
}

func newSimStack() *simStack {
	return &simStack{
		linkLocal: defn.Addr{0xfe, 0x80, 15: 0x01},
		ready:     true,
		linkAddr:  []byte{0x00, 0x12, 0x4b, 0x00, 0x01, 0x02, 0xbe, 0xef},
	}
}

func (s *simStack) LinkLocalAddress() (defn.Addr, bool) {
	return s.linkLocal, s.ready
}

func (s *simStack) SelectSourceAddress(dst defn.Addr) defn.Addr {
	return s.linkLocal
}

func (s *simStack) LinkAddress() []byte {
	return s.linkAddr
}

func (s *simStack) Output(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	s.sent = append(s.sent, cp)
}

func (s *simStack) Watchdog() {
	s.watchdogs++
}

// simClock is a manually advanced tick counter.
type simClock struct {
	now uint64
}

func (c *simClock) Ticks() uint64 { return c.now }

// simRand returns a fixed value, pinning transmit points to I/2.
type simRand struct {
	v uint32
}

func (r *simRand) Uint32() uint32 { return r.v }

// simSched is a virtual scheduler; pending callbacks fire in due-tick
// order as the test advances the clock.
type simSched struct {
	clock   *simClock
	entries map[*TimerHandle]simEntry
}

type simEntry struct {
	due uint64
	fn  func()
}

func newSimSched(clock *simClock) *simSched {
	return &simSched{clock: clock, entries: make(map[*TimerHandle]simEntry)}
}

func (s *simSched) Schedule(h *TimerHandle, delay uint64, fn func()) {
	s.entries[h] = simEntry{due: s.clock.now + delay, fn: fn}
}

// advanceTo runs every callback due at or before tick, in time order,
// then leaves the clock at tick.
func (s *simSched) advanceTo(tick uint64) {
	for {
		var due []*TimerHandle
		for h, e := range s.entries {
			if e.due <= tick {
				due = append(due, h)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			return s.entries[due[i]].due < s.entries[due[j]].due
		})
		h := due[0]
		e := s.entries[h]
		delete(s.entries, h)
		if e.due > s.clock.now {
			s.clock.now = e.due
		}
		e.fn()
	}
	if tick > s.clock.now {
		s.clock.now = tick
	}
}
