package wire

import (
	"errors"

	"github.com/roll-mcast/trickled/defn"
)

// Trickle hop-by-hop option layout constants. The HBH extension header
// together with the option is always padded to a total of eight bytes.
const (
	OptTypeTrickle  = 0x0C
	OptTypePadN     = 0x01
	OptLenShortSeed = 4
	OptLenLongSeed  = 2
	HBHTotalLen     = 8
)

const (
	hbhFlagM     = 0x80
	hbhSeqMSBMax = 0x7F
)

var (
	ErrNotHBH        = errors.New("wire: next header is not hop-by-hop")
	ErrBadOptionType = errors.New("wire: first HBH option is not the trickle option")
	ErrBadOptionLen  = errors.New("wire: trickle option length does not match seed mode")
)

// TrickleOption is the decoded form of the Trickle HBH option.
//
// Seed is only meaningful in short-seed mode; in long-seed mode the seed
// is elided from the wire and taken from the datagram source address.
type TrickleOption struct {
	Seed uint16
	Seq  uint16
	M    bool
}

// TimerIndex returns the trickle parametrization the option selects.
func (o TrickleOption) TimerIndex() int {
	if o.M {
		return 1
	}
	return 0
}

// DecodeTrickleOption verifies that d carries the Trickle HBH option as
// its first extension header option and decodes it. shortSeeds selects
// the option length the engine was configured for; a mismatch is an
// error.
func DecodeTrickleOption(d Datagram, shortSeeds bool) (TrickleOption, error) {
	var opt TrickleOption

	if d.NextHeader() != defn.ProtoHopByHop {
		return opt, ErrNotHBH
	}
	if d.Len() < defn.IPv6HeaderLen+HBHTotalLen {
		return opt, ErrTruncated
	}

	// The option follows the two-byte HBH extension header.
	b := d.Payload()[2:HBHTotalLen]
	if b[0] != OptTypeTrickle {
		return opt, ErrBadOptionType
	}

	if shortSeeds {
		if b[1] != OptLenShortSeed {
			return opt, ErrBadOptionLen
		}
		opt.Seed = uint16(b[2])<<8 | uint16(b[3])
		opt.M = b[4]&hbhFlagM != 0
		opt.Seq = uint16(b[4]&hbhSeqMSBMax)<<8 | uint16(b[5])
	} else {
		if b[1] != OptLenLongSeed {
			return opt, ErrBadOptionLen
		}
		opt.M = b[2]&hbhFlagM != 0
		opt.Seq = uint16(b[2]&hbhSeqMSBMax)<<8 | uint16(b[3])
	}

	return opt, nil
}

// EncodeTrickleOption writes the full eight-byte HBH extension header
// carrying the option into buf. next is the protocol of the following
// header. buf must have room for HBHTotalLen bytes.
func EncodeTrickleOption(buf []byte, next uint8, opt TrickleOption, shortSeeds bool) {
	for i := 0; i < HBHTotalLen; i++ {
		buf[i] = 0
	}

	buf[0] = next
	buf[1] = 0 // HBH length in 8-octet units beyond the first

	o := buf[2:]
	o[0] = OptTypeTrickle
	if shortSeeds {
		o[1] = OptLenShortSeed
		o[2] = byte(opt.Seed >> 8)
		o[3] = byte(opt.Seed)
		o[4] = byte(opt.Seq >> 8 & hbhSeqMSBMax)
		if opt.M {
			o[4] |= hbhFlagM
		}
		o[5] = byte(opt.Seq)
	} else {
		o[1] = OptLenLongSeed
		o[2] = byte(opt.Seq >> 8 & hbhSeqMSBMax)
		if opt.M {
			o[2] |= hbhFlagM
		}
		o[3] = byte(opt.Seq)
		// Pad the remaining two bytes with PadN.
		o[4] = OptTypePadN
		o[5] = 0
	}
}
