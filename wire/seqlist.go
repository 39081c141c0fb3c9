package wire

import (
	"encoding/binary"
	"errors"

	"github.com/roll-mcast/trickled/defn"
)

// Sequence list entry flag bits. Bits 5..0 are reserved and must be zero.
const (
	seqListFlagS    = 0x80
	seqListFlagM    = 0x40
	seqListReserved = 0x3F
)

const (
	seqListShortHdrLen = 4  // flags + seq_len + 2-byte seed
	seqListLongHdrLen  = 18 // flags + seq_len + 16-byte seed
)

var (
	ErrReservedBits = errors.New("wire: sequence list reserved bits set")
	ErrSeedMode     = errors.New("wire: sequence list seed length mismatch")
)

// SeqListEntry is one seed's sequence list inside an ICMPv6 trickle
// multicast message. Values stay in the underlying receive buffer and
// are read big-endian on demand.
type SeqListEntry struct {
	Seed   defn.SeedID
	M      bool
	values []byte
}

// TimerIndex returns the trickle parametrization the entry refers to.
func (e SeqListEntry) TimerIndex() int {
	if e.M {
		return 1
	}
	return 0
}

// Count returns the number of advertised sequence values.
func (e SeqListEntry) Count() int { return len(e.values) / 2 }

// Value returns the i-th advertised sequence value in host order.
func (e SeqListEntry) Value(i int) uint16 {
	return binary.BigEndian.Uint16(e.values[2*i:])
}

// SeqListReader iterates the sequence list entries of an ICMPv6 payload.
// The engine's seed mode is enforced on every entry: a message mixing in
// the other seed length is rejected as a whole.
type SeqListReader struct {
	buf        []byte
	shortSeeds bool
}

// NewSeqListReader returns a reader over an ICMPv6 trickle payload.
func NewSeqListReader(payload []byte, shortSeeds bool) *SeqListReader {
	return &SeqListReader{buf: payload, shortSeeds: shortSeeds}
}

// Next decodes the next entry. It returns false with a nil error at the
// end of the payload and false with an error on a malformed entry.
func (r *SeqListReader) Next() (SeqListEntry, bool, error) {
	var e SeqListEntry

	if len(r.buf) == 0 {
		return e, false, nil
	}
	if len(r.buf) < 2 {
		return e, false, ErrTruncated
	}

	flags := r.buf[0]
	if flags&seqListReserved != 0 {
		return e, false, ErrReservedBits
	}

	long := flags&seqListFlagS != 0
	if long == r.shortSeeds {
		return e, false, ErrSeedMode
	}

	hdrLen := seqListShortHdrLen
	if long {
		hdrLen = seqListLongHdrLen
	}

	n := int(r.buf[1])
	if len(r.buf) < hdrLen+2*n {
		return e, false, ErrTruncated
	}

	e.M = flags&seqListFlagM != 0
	if long {
		e.Seed = defn.SeedID(r.buf[2:18])
	} else {
		e.Seed = defn.ShortSeedID(binary.BigEndian.Uint16(r.buf[2:4]))
	}
	e.values = r.buf[hdrLen : hdrLen+2*n]

	r.buf = r.buf[hdrLen+2*n:]
	return e, true, nil
}

// SeqListWriter builds the sequence-list payload of an outgoing ICMPv6
// trickle multicast message.
type SeqListWriter struct {
	buf        []byte
	shortSeeds bool
}

// NewSeqListWriter returns a writer appending into buf[:0].
func NewSeqListWriter(buf []byte, shortSeeds bool) *SeqListWriter {
	return &SeqListWriter{buf: buf[:0], shortSeeds: shortSeeds}
}

// BeginEntry starts a sequence list for one seed. count is the number of
// values that AddValue will append.
func (w *SeqListWriter) BeginEntry(seed defn.SeedID, m bool, count int) {
	var flags byte
	if !w.shortSeeds {
		flags = seqListFlagS
	}
	if m {
		flags |= seqListFlagM
	}

	w.buf = append(w.buf, flags, byte(count))
	if w.shortSeeds {
		w.buf = append(w.buf, seed[0], seed[1])
	} else {
		w.buf = append(w.buf, seed[:]...)
	}
}

// AddValue appends one sequence value, big-endian.
func (w *SeqListWriter) AddValue(v uint16) {
	w.buf = append(w.buf, byte(v>>8), byte(v))
}

// Bytes returns the payload built so far.
func (w *SeqListWriter) Bytes() []byte { return w.buf }
