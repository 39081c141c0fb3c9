package face

import (
	"testing"

	"github.com/roll-mcast/trickled/defn"
	"github.com/roll-mcast/trickled/wire"
	"github.com/stretchr/testify/assert"
)

type mockEngine struct {
	mcast [][]byte
	icmp  [][]byte
}

func (m *mockEngine) QueueMcast(pkt []byte) { m.mcast = append(m.mcast, pkt) }
func (m *mockEngine) QueueIcmp(pkt []byte)  { m.icmp = append(m.icmp, pkt) }

func makeFrame(next uint8, dst defn.Addr) []byte {
	buf := make([]byte, defn.IPv6HeaderLen+defn.ICMPv6HeaderLen)
	d := wire.NewDatagram(buf)
	d.SetVersion()
	d.SetPayloadLen(defn.ICMPv6HeaderLen)
	d.SetNextHeader(next)
	d.SetHopLimit(255)
	d.SetSrc(defn.Addr{0xfe, 0x80, 15: 0x02})
	d.SetDst(dst)
	return buf
}

func TestDeliverClassification(t *testing.T) {
	eng := &mockEngine{}
	s := &System{engine: eng, mtu: 1280}

	// Trickle multicast advertisement goes to the ICMP queue.
	frame := makeFrame(defn.ProtoICMPv6, defn.LinkLocalAllRouters)
	icmp, _ := wire.ICMPv6View(wire.NewDatagram(frame))
	icmp.SetType(defn.ICMPTypeTrickleMcast)
	s.Deliver(frame)
	assert.Len(t, eng.icmp, 1)
	assert.Empty(t, eng.mcast)

	// Other ICMPv6 is not ours.
	frame = makeFrame(defn.ProtoICMPv6, defn.LinkLocalAllRouters)
	icmp, _ = wire.ICMPv6View(wire.NewDatagram(frame))
	icmp.SetType(128) // echo request
	s.Deliver(frame)
	assert.Len(t, eng.icmp, 1)

	// Multicast datagrams go to the engine's accept queue.
	s.Deliver(makeFrame(defn.ProtoHopByHop, defn.Addr{0xff, 0x05, 15: 0x01}))
	assert.Len(t, eng.mcast, 1)

	// Unicast traffic is not for the multicast engine.
	s.Deliver(makeFrame(defn.ProtoHopByHop, defn.Addr{0xfe, 0x80, 15: 0x07}))
	assert.Len(t, eng.mcast, 1)

	// Garbage is ignored.
	s.Deliver([]byte{1, 2, 3})
	assert.Len(t, eng.mcast, 1)
	assert.Len(t, eng.icmp, 1)
}

func TestParseLinkLocalDerivation(t *testing.T) {
	la := []byte{0x00, 0x12, 0x4b, 0x00, 0x01, 0x02, 0xbe, 0xef}
	a := parseLinkLocal("", la)
	assert.Equal(t, byte(0xfe), a[0])
	assert.Equal(t, byte(0x80), a[1])
	assert.Equal(t, byte(0xbe), a[14])
	assert.Equal(t, byte(0xef), a[15])

	a = parseLinkLocal("fe80::42", la)
	assert.Equal(t, byte(0x42), a[15])
	assert.True(t, a.IsLinkLocalUnicast())
}

func TestParseLinkAddress(t *testing.T) {
	hw := parseLinkAddress("00:12:4b:00:01:02:be:ef")
	assert.Len(t, hw, 8)
	assert.Equal(t, byte(0xef), hw[7])

	assert.NotEmpty(t, parseLinkAddress(""))
	assert.NotEmpty(t, parseLinkAddress("bogus"))
}
