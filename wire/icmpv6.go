package wire

import (
	"encoding/binary"

	"github.com/roll-mcast/trickled/defn"
)

// ICMPv6 is a view over the ICMPv6 header and payload of a datagram.
type ICMPv6 struct {
	b []byte
}

// ICMPv6View returns a view over d's ICMPv6 message. The caller must
// have checked that d carries ICMPv6 directly after the fixed header.
func ICMPv6View(d Datagram) (ICMPv6, error) {
	p := d.Payload()
	if len(p) < defn.ICMPv6HeaderLen {
		return ICMPv6{}, ErrTruncated
	}
	return ICMPv6{b: p}, nil
}

// Type returns the ICMPv6 type.
func (m ICMPv6) Type() uint8 { return m.b[0] }

// SetType writes the ICMPv6 type.
func (m ICMPv6) SetType(t uint8) { m.b[0] = t }

// Code returns the ICMPv6 code.
func (m ICMPv6) Code() uint8 { return m.b[1] }

// SetCode writes the ICMPv6 code.
func (m ICMPv6) SetCode(c uint8) { m.b[1] = c }

// Checksum returns the ICMPv6 checksum field.
func (m ICMPv6) Checksum() uint16 { return binary.BigEndian.Uint16(m.b[2:4]) }

// SetChecksum writes the ICMPv6 checksum field.
func (m ICMPv6) SetChecksum(s uint16) { binary.BigEndian.PutUint16(m.b[2:4], s) }

// Payload returns the message body after the four-byte header.
func (m ICMPv6) Payload() []byte { return m.b[defn.ICMPv6HeaderLen:] }

// ComputeChecksum calculates the ICMPv6 checksum of d over the IPv6
// pseudo-header and the full ICMPv6 message. The checksum field itself
// must be zero when computing the value to store.
func ComputeChecksum(d Datagram) uint16 {
	var sum uint32

	src, dst := d.Src(), d.Dst()
	sum = sumBytes(sum, src[:])
	sum = sumBytes(sum, dst[:])

	icmpLen := uint32(d.PayloadLen())
	sum += icmpLen >> 16
	sum += icmpLen & 0xffff
	sum += defn.ProtoICMPv6

	sum = sumBytes(sum, d.Payload()[:icmpLen])

	for sum>>16 != 0 {
		sum = sum&0xffff + sum>>16
	}
	return ^uint16(sum)
}

func sumBytes(sum uint32, b []byte) uint32 {
	n := len(b)
	for i := 0; i+1 < n; i += 2 {
		sum += uint32(b[i])<<8 | uint32(b[i+1])
	}
	if n%2 == 1 {
		sum += uint32(b[n-1]) << 8
	}
	return sum
}
