/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/roll-mcast/trickled/core"
)

// WebSocketListener accepts tunnel peers over WebSocket. Browser-based
// simulators and test drivers attach here; each binary message is one
// raw IPv6 datagram.
type WebSocketListener struct {
	server   http.Server
	upgrader websocket.Upgrader
	system   *System

	mu    sync.Mutex
	peers map[*WebSocketTunnelTransport]struct{}
}

// NewWebSocketListener builds the listener on bind:port.
func NewWebSocketListener(system *System, bind string, port uint16) *WebSocketListener {
	return &WebSocketListener{
		server: http.Server{Addr: net.JoinHostPort(bind, strconv.FormatUint(uint64(port), 10))},
		upgrader: websocket.Upgrader{
			WriteBufferPool: &sync.Pool{},
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		system: system,
		peers:  make(map[*WebSocketTunnelTransport]struct{}),
	}
}

func (l *WebSocketListener) String() string {
	return "web-socket-listener (addr=" + l.server.Addr + ")"
}

// Run serves until Close.
func (l *WebSocketListener) Run() {
	l.server.Handler = http.HandlerFunc(l.handler)

	err := l.server.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		core.Log.Fatal(l, "Unable to start listener", "err", err)
	}
}

func (l *WebSocketListener) handler(w http.ResponseWriter, r *http.Request) {
	c, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	t := newWebSocketTunnelTransport(c, l.system.MTU())
	core.Log.Info(l, "Accepting new WebSocket tunnel peer", "remote", c.RemoteAddr())

	l.mu.Lock()
	l.peers[t] = struct{}{}
	l.mu.Unlock()
	l.system.AddTransport(t)

	go func() {
		t.RunReceive(l.system.Deliver)
		l.mu.Lock()
		delete(l.peers, t)
		l.mu.Unlock()
		l.system.RemoveTransport(t)
	}()
}

// Close shuts the listener and every attached peer down.
func (l *WebSocketListener) Close() {
	core.Log.Info(l, "Stopping listener")
	l.server.Shutdown(context.TODO())

	l.mu.Lock()
	defer l.mu.Unlock()
	for t := range l.peers {
		t.Close()
	}
}

// WebSocketTunnelTransport is one attached WebSocket peer.
type WebSocketTunnelTransport struct {
	transportBase
	c  *websocket.Conn
	mu sync.Mutex
}

func newWebSocketTunnelTransport(c *websocket.Conn, mtu int) *WebSocketTunnelTransport {
	t := &WebSocketTunnelTransport{c: c}
	t.makeTransportBase(mtu)
	t.running.Store(true)
	return t
}

func (t *WebSocketTunnelTransport) String() string {
	return fmt.Sprintf("web-socket-tunnel-transport (remote=%s)", t.c.RemoteAddr())
}

func (t *WebSocketTunnelTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.mtu {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}

	t.mu.Lock()
	err := t.c.WriteMessage(websocket.BinaryMessage, frame)
	t.mu.Unlock()
	if err != nil {
		core.Log.Warn(t, "Unable to send on socket, peer down")
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *WebSocketTunnelTransport) RunReceive(deliver func(frame []byte)) {
	defer t.Close()

	for {
		mt, message, err := t.c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				core.Log.Info(t, "WebSocket closed unexpectedly", "err", err)
			}
			return
		}

		if mt != websocket.BinaryMessage {
			core.Log.Warn(t, "Ignored non-binary message")
			continue
		}
		if len(message) > t.mtu {
			core.Log.Warn(t, "Ignored oversized frame")
			continue
		}

		t.nInBytes.Add(uint64(len(message)))
		deliver(message)
	}
}

func (t *WebSocketTunnelTransport) Close() {
	if t.running.Swap(false) {
		t.c.Close()
	}
}
