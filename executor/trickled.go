/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

// Package executor assembles and runs the forwarder: engine, face
// system, management endpoint and profiler.
package executor

import (
	"time"

	"github.com/roll-mcast/trickled/core"
	"github.com/roll-mcast/trickled/face"
	"github.com/roll-mcast/trickled/fw"
	"github.com/roll-mcast/trickled/mgmt"
)

// Trickled is the wrapper class for the whole forwarder.
// Note: only one instance of this class should be created.
type Trickled struct {
	config   *core.Config
	profiler *Profiler

	engine     *fw.Engine
	faces      *face.System
	udpTunnel  *face.UDPTunnelTransport
	wsListener *face.WebSocketListener
	mgmtServer *mgmt.Server
}

// NewTrickled creates a Trickled. Don't call this function twice.
func NewTrickled(config *core.Config) *Trickled {
	// Provide global configuration.
	core.C = config
	core.StartTimestamp = time.Now()

	core.OpenLogger()

	return &Trickled{
		config:   config,
		profiler: NewProfiler(config),
	}
}

func (t *Trickled) String() string {
	return "trickled"
}

// Start runs the forwarder. Note: this function may exit the program
// when there is an error. This function is non-blocking.
func (t *Trickled) Start() {
	core.Log.Info(t, "Starting trickle multicast forwarder")

	t.profiler.Start()

	if t.config.Core.Engine != fw.EngineName {
		core.Log.Fatal(t, "Unknown multicast engine", "engine", t.config.Core.Engine)
	}

	// Wire the engine to its collaborators. The scheduler delivers
	// timer callbacks through the engine loop.
	clock := fw.NewTickClock(t.config.Faces.TickHz)
	sched := fw.NewHostScheduler(clock)
	rand := fw.NewHostRand(time.Now().UnixNano())

	stack := face.NewSystem()
	t.engine = fw.NewEngine(stack, clock, rand, sched)
	sched.Bind(t.engine.Post)
	stack.BindEngine(t.engine)
	t.faces = stack

	go t.engine.Run()
	t.engine.Start()

	// Attach tunnel transports.
	if t.config.Faces.Udp.Enabled {
		tunnel, err := face.NewUDPTunnelTransport(
			t.config.Faces.Udp.Group, t.config.Faces.Udp.Port, t.config.Engine.Mtu)
		if err != nil {
			core.Log.Fatal(t, "Unable to create UDP tunnel", "err", err)
		}
		t.udpTunnel = tunnel
		stack.AddTransport(tunnel)
		go tunnel.RunReceive(stack.Deliver)
		core.Log.Info(t, "Created UDP mesh tunnel", "group", t.config.Faces.Udp.Group)
	}

	if t.config.Faces.WebSocket.Enabled {
		t.wsListener = face.NewWebSocketListener(
			stack, t.config.Faces.WebSocket.Bind, t.config.Faces.WebSocket.Port)
		go t.wsListener.Run()
		core.Log.Info(t, "Created WebSocket tunnel listener",
			"bind", t.config.Faces.WebSocket.Bind, "port", t.config.Faces.WebSocket.Port)
	}

	if t.config.Mgmt.Enabled {
		t.mgmtServer = mgmt.NewServer(t.engine)
		go t.mgmtServer.Run()
	}
}

// Stop shuts the forwarder down.
func (t *Trickled) Stop() {
	core.Log.Info(t, "Forwarder shutting down")
	core.ShouldQuit = true

	if t.mgmtServer != nil {
		t.mgmtServer.Close()
	}
	if t.wsListener != nil {
		t.wsListener.Close()
	}
	if t.udpTunnel != nil {
		t.udpTunnel.Close()
	}
	t.engine.Stop()

	t.profiler.Stop()
	core.CloseLogger()
}
