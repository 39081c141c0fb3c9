/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/wire"
)

// Engine is the slice of the forwarding engine the face system feeds.
type Engine interface {
	QueueMcast(pkt []byte)
	QueueIcmp(pkt []byte)
}

// System owns the tunnel transports and implements the engine's Stack
// over them. It classifies received frames and queues them onto the
// engine loop.
type System struct {
	engine Engine

	linkLocal defn.Addr
	linkAddr  []byte
	mtu       int

	mu         sync.Mutex
	transports []transport

	watchdogKicks atomic.Uint64
}

// NewSystem builds the face system from the global configuration.
// BindEngine must run before frames arrive.
func NewSystem() *System {
	cfg := core.C

	s := &System{
		mtu: cfg.Engine.Mtu,
	}

	s.linkAddr = parseLinkAddress(cfg.Faces.LinkAddress)
	s.linkLocal = parseLinkLocal(cfg.Faces.LinkLocal, s.linkAddr)

	core.Log.Info(s, "Face system ready",
		"link_local", net.IP(s.linkLocal[:]).String(), "link_addr", net.HardwareAddr(s.linkAddr).String())
	return s
}

func (s *System) String() string {
	return "face-system"
}

// BindEngine attaches the engine the system delivers into.
func (s *System) BindEngine(engine Engine) {
	s.engine = engine
}

// MTU returns the frame size limit of the mesh.
func (s *System) MTU() int {
	return s.mtu
}

// AddTransport attaches a running transport to the link.
func (s *System) AddTransport(t transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transports = append(s.transports, t)
}

// RemoveTransport detaches a transport.
func (s *System) RemoveTransport(t transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.transports {
		if cur == t {
			s.transports = append(s.transports[:i], s.transports[i+1:]...)
			return
		}
	}
}

// Deliver classifies one received frame and queues it for the engine.
func (s *System) Deliver(frame []byte) {
	if s.engine == nil {
		return
	}
	d, err := wire.ParseDatagram(frame)
	if err != nil {
		return
	}

	if d.NextHeader() == defn.ProtoICMPv6 {
		if icmp, err := wire.ICMPv6View(d); err == nil &&
			icmp.Type() == defn.ICMPTypeTrickleMcast {
			s.engine.QueueIcmp(frame)
		}
		return
	}

	if d.Dst().IsMulticast() {
		s.engine.QueueMcast(frame)
	}
}

// WatchdogKicks returns how often the engine kicked the watchdog.
func (s *System) WatchdogKicks() uint64 {
	return s.watchdogKicks.Load()
}

//
// Stack interface for the engine
//

func (s *System) LinkLocalAddress() (defn.Addr, bool) {
	return s.linkLocal, !s.linkLocal.IsUnspecified()
}

func (s *System) SelectSourceAddress(dst defn.Addr) defn.Addr {
	return s.linkLocal
}

func (s *System) LinkAddress() []byte {
	return s.linkAddr
}

func (s *System) Output(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.transports {
		t.SendFrame(b)
	}
}

func (s *System) Watchdog() {
	s.watchdogKicks.Add(1)
}

// parseLinkAddress reads a configured link-layer address; an empty
// string falls back to a fixed local-only address.
func parseLinkAddress(cfg string) []byte {
	if cfg != "" {
		if hw, err := net.ParseMAC(cfg); err == nil {
			return hw
		}
		core.Log.Warn(nil, "Invalid link_address in configuration", "value", cfg)
	}
	return []byte{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
}

// parseLinkLocal reads the configured link-local address, deriving one
// from the link-layer address when unset.
func parseLinkLocal(cfg string, linkAddr []byte) defn.Addr {
	if cfg != "" {
		if ip := net.ParseIP(cfg); ip != nil {
			if v6 := ip.To16(); v6 != nil && ip.To4() == nil {
				return defn.Addr(v6)
			}
		}
		core.Log.Warn(nil, "Invalid link_local in configuration", "value", cfg)
	}

	var a defn.Addr
	a[0] = 0xfe
	a[1] = 0x80
	copy(a[16-len(linkAddr):], linkAddr)
	return a
}
