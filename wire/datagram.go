// Package wire implements the on-the-wire formats the forwarder speaks:
// a bounds-checked view over raw IPv6 datagrams, the Trickle hop-by-hop
// option, and the ICMPv6 sequence-list payload.
package wire

import (
	"encoding/binary"
	"errors"

	"github.com/roll-mcast/trickled/defn"
)

var (
	ErrTruncated  = errors.New("wire: datagram truncated")
	ErrBadVersion = errors.New("wire: not an IPv6 datagram")
)

// Datagram is a view over a raw IPv6 datagram. The view is validated
// once at construction; accessors after that cannot go out of bounds.
type Datagram struct {
	b []byte
}

// ParseDatagram validates the fixed IPv6 header and returns a view.
func ParseDatagram(b []byte) (Datagram, error) {
	if len(b) < defn.IPv6HeaderLen {
		return Datagram{}, ErrTruncated
	}
	if b[0]>>4 != 6 {
		return Datagram{}, ErrBadVersion
	}
	return Datagram{b: b}, nil
}

// NewDatagram wraps a buffer the caller is building a datagram into,
// without validating contents.
func NewDatagram(b []byte) Datagram {
	return Datagram{b: b}
}

// Bytes returns the underlying buffer.
func (d Datagram) Bytes() []byte { return d.b }

// Len returns the byte length of the underlying buffer.
func (d Datagram) Len() int { return len(d.b) }

// SetVersion writes version 6 and zeroes traffic class and flow label.
func (d Datagram) SetVersion() {
	d.b[0] = 0x60
	d.b[1] = 0
	binary.BigEndian.PutUint16(d.b[2:4], 0)
}

// PayloadLen returns the IPv6 payload length field.
func (d Datagram) PayloadLen() uint16 {
	return binary.BigEndian.Uint16(d.b[4:6])
}

// SetPayloadLen writes the IPv6 payload length field.
func (d Datagram) SetPayloadLen(n uint16) {
	binary.BigEndian.PutUint16(d.b[4:6], n)
}

// NextHeader returns the protocol of the first header after the fixed one.
func (d Datagram) NextHeader() uint8 { return d.b[6] }

// SetNextHeader writes the next header field.
func (d Datagram) SetNextHeader(p uint8) { d.b[6] = p }

// HopLimit returns the hop limit.
func (d Datagram) HopLimit() uint8 { return d.b[7] }

// SetHopLimit writes the hop limit.
func (d Datagram) SetHopLimit(h uint8) { d.b[7] = h }

// DecrementHopLimit decrements the hop limit by one.
func (d Datagram) DecrementHopLimit() { d.b[7]-- }

// Src returns the source address.
func (d Datagram) Src() defn.Addr {
	return defn.Addr(d.b[8:24])
}

// SetSrc writes the source address.
func (d Datagram) SetSrc(a defn.Addr) {
	copy(d.b[8:24], a[:])
}

// Dst returns the destination address.
func (d Datagram) Dst() defn.Addr {
	return defn.Addr(d.b[24:40])
}

// SetDst writes the destination address.
func (d Datagram) SetDst(a defn.Addr) {
	copy(d.b[24:40], a[:])
}

// Payload returns the bytes after the fixed header.
func (d Datagram) Payload() []byte {
	return d.b[defn.IPv6HeaderLen:]
}
