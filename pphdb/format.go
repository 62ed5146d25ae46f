// format.go -- on-disk header layout and little-endian slice helpers
//
// Grounded on the teacher's dbwriter.go/dbreader.go header encoding
// (magic, flags, salt, nkeys, offtbl, all big-endian). The teacher's
// endian_le_test.go references toLEUint64/toBEUint64 helpers backed by
// an unsafe unaligned-load fast path on little-endian architectures,
// but that file (endian_le.go) was never part of the retrieval pack -
// only its test was. Rather than guess at an unsafe implementation, the
// offset/length tables here are decoded portably with encoding/binary.

package pphdb

import "encoding/binary"

const (
	magicPPHD = "PPHD"
	headerLen = 64
)

// header is the first 64 bytes of a pphdb container, always encoded
// big-endian except where noted.
type header struct {
	flags     uint32
	salt      [16]byte
	nkeys     uint64
	offtbl    uint64 // file offset of the offset table (page-aligned)
	tablelen  uint64 // length in bytes of the serialized pph.Table
	keydigest uint64 // xxh3 digest of the sorted input key list
}

func (h *header) encode() []byte {
	b := make([]byte, headerLen)
	be := binary.BigEndian
	copy(b[:4], magicPPHD)
	be.PutUint32(b[4:8], h.flags)
	copy(b[8:24], h.salt[:])
	be.PutUint64(b[24:32], h.nkeys)
	be.PutUint64(b[32:40], h.offtbl)
	be.PutUint64(b[40:48], h.tablelen)
	be.PutUint64(b[48:56], h.keydigest)
	// b[56:64] reserved, left zero
	return b
}

func decodeHeader(b []byte) (*header, error) {
	if len(b) < headerLen {
		return nil, ErrCorrupt
	}
	if string(b[:4]) != magicPPHD {
		return nil, ErrCorrupt
	}

	be := binary.BigEndian
	h := &header{}
	h.flags = be.Uint32(b[4:8])
	copy(h.salt[:], b[8:24])
	h.nkeys = be.Uint64(b[24:32])
	h.offtbl = be.Uint64(b[32:40])
	h.tablelen = be.Uint64(b[40:48])
	h.keydigest = be.Uint64(b[48:56])
	return h, nil
}

// bsToUint64Slice decodes a little-endian uint64 table from a byte
// slice into a newly allocated slice, as produced by u64sToByteSlice.
func bsToUint64Slice(b []byte) []uint64 {
	n := len(b) / 8
	out := make([]uint64, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint64(b[i*8:])
	}
	return out
}

// bsToUint32Slice decodes a little-endian uint32 table from a byte
// slice, as produced by u32sToByteSlice.
func bsToUint32Slice(b []byte) []uint32 {
	n := len(b) / 4
	out := make([]uint32, n)
	for i := 0; i < n; i++ {
		out[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return out
}

func u64sToByteSlice(v []uint64) []byte {
	b := make([]byte, len(v)*8)
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[i*8:], x)
	}
	return b
}

func u32sToByteSlice(v []uint32) []byte {
	b := make([]byte, len(v)*4)
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:], x)
	}
	return b
}
