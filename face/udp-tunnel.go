/* trickled - Trickle Multicast Forwarder
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package face

import (
	"fmt"
	"net"

	"github.com/roll-mcast/trickled/core"
)

// UDPTunnelTransport emulates the shared low-power mesh link: every
// node joins one UDP multicast group and each frame is one raw IPv6
// datagram.
type UDPTunnelTransport struct {
	transportBase
	sendConn  *net.UDPConn
	recvConn  *net.UDPConn
	groupAddr net.UDPAddr
}

// NewUDPTunnelTransport joins the tunnel group and opens send and
// receive connections.
func NewUDPTunnelTransport(group string, port uint16, mtu int) (*UDPTunnelTransport, error) {
	t := &UDPTunnelTransport{}
	t.makeTransportBase(mtu)

	ip := net.ParseIP(group)
	if ip == nil {
		return nil, fmt.Errorf("invalid tunnel group address: %s", group)
	}
	t.groupAddr = net.UDPAddr{IP: ip, Port: int(port)}

	sendConn, err := net.DialUDP("udp", nil, &t.groupAddr)
	if err != nil {
		return nil, fmt.Errorf("unable to create send connection to group address: %w", err)
	}
	t.sendConn = sendConn

	recvConn, err := net.ListenMulticastUDP("udp", nil, &t.groupAddr)
	if err != nil {
		sendConn.Close()
		return nil, fmt.Errorf("unable to create receive connection for group: %w", err)
	}
	t.recvConn = recvConn

	t.running.Store(true)
	return t, nil
}

func (t *UDPTunnelTransport) String() string {
	return fmt.Sprintf("udp-tunnel-transport (group=%s)", t.groupAddr.String())
}

func (t *UDPTunnelTransport) SendFrame(frame []byte) {
	if !t.running.Load() {
		return
	}
	if len(frame) > t.mtu {
		core.Log.Warn(t, "Attempted to send frame larger than MTU")
		return
	}
	if _, err := t.sendConn.Write(frame); err != nil {
		core.Log.Warn(t, "Unable to send on tunnel", "err", err)
		t.Close()
		return
	}
	t.nOutBytes.Add(uint64(len(frame)))
}

func (t *UDPTunnelTransport) RunReceive(deliver func(frame []byte)) {
	defer t.Close()

	buf := make([]byte, t.mtu)
	for t.running.Load() {
		n, _, err := t.recvConn.ReadFromUDP(buf)
		if err != nil {
			if t.running.Load() {
				core.Log.Warn(t, "Unable to read from tunnel", "err", err)
			}
			return
		}
		t.nInBytes.Add(uint64(n))

		frame := make([]byte, n)
		copy(frame, buf[:n])
		deliver(frame)
	}
}

func (t *UDPTunnelTransport) Close() {
	if t.running.Swap(false) {
		t.sendConn.Close()
		t.recvConn.Close()
	}
}
