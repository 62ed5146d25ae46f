// writer.go -- builds a pphdb container file
//
// Grounded on the teacher's dbwriter.go (NewDBWriter/Add/Freeze): the
// tmp-file-then-rename pattern, the page-aligned offset table, the
// siphash-2-4 per-record checksum and the SHA512/256 whole-metadata
// trailer all come straight from DBWriter.Freeze. What's new relative
// to the teacher: a fast xxhash/v2 tripwire checksum stored next to the
// strong trailer (so Reader can skip the SHA512/256 pass when it
// doesn't need to), and an xxh3 digest of the sorted key list so a
// caller can detect that a previous build already covers the same key
// set without re-running the PHF search.

package pphdb

import (
	"bytes"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"os"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
	"github.com/zeebo/xxh3"

	"github.com/renesugar/pph"
)

const pageAlign = 4096

// Writer accumulates (key, payload) pairs and builds a pphdb
// container. The zero value is not usable; construct with NewWriter.
type Writer struct {
	uuid string
	p    float64

	keys     [][]byte
	payloads [][]byte
	seen     map[string]bool

	frozen bool
}

// NewWriter returns a Writer that will build a table with the given
// loading factor and key-hash UUID (see pph.UUIDDJB and friends).
func NewWriter(loadFactor float64, uuid string) *Writer {
	if uuid == "" {
		uuid = pph.UUIDDJB
	}
	return &Writer{
		uuid: uuid,
		p:    loadFactor,
		seen: make(map[string]bool),
	}
}

// Len returns the number of distinct keys added so far.
func (w *Writer) Len() int {
	return len(w.keys)
}

// Add records a key/payload pair. Duplicate keys are rejected with
// ErrExists, mirroring the teacher's DBWriter.addRecord.
func (w *Writer) Add(key, payload []byte) error {
	if w.frozen {
		return ErrFrozen
	}
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return ErrValueTooLarge
	}

	sk := string(key)
	if w.seen[sk] {
		return ErrExists
	}
	w.seen[sk] = true

	w.keys = append(w.keys, key)
	w.payloads = append(w.payloads, payload)
	return nil
}

// KeyDigest returns the xxh3 digest of the writer's current key set,
// sorted so insertion order doesn't affect the result. Callers can
// compare this against Reader.KeyDigest of a previously-built
// container to decide whether a rebuild is even necessary.
func (w *Writer) KeyDigest() uint64 {
	return keyDigest(w.keys)
}

func keyDigest(keys [][]byte) uint64 {
	sorted := make([][]byte, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return bytes.Compare(sorted[i], sorted[j]) < 0 })

	h := xxh3.New()
	for _, k := range sorted {
		var lb [4]byte
		n := uint32(len(k))
		lb[0], lb[1], lb[2], lb[3] = byte(n), byte(n>>8), byte(n>>16), byte(n>>24)
		h.Write(lb[:])
		h.Write(k)
	}
	return h.Sum64()
}

// Build constructs the perfect hash table over the accumulated keys
// and writes the full container to path. timeoutMS bounds the
// secondary-hash search (see pph.Table.Setup); 0 uses the table's
// default.
func (w *Writer) Build(path string, timeoutMS uint64) (err error) {
	if w.frozen {
		return ErrFrozen
	}

	tmp := fmt.Sprintf("%s.tmp.%d", path, pph.RandomSeed())
	fd, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			os.Remove(tmp)
		}
	}()

	salt := pph.RandBytes(16)

	n := uint64(len(w.keys))

	// Leave room for the header; filled in once everything else is
	// on disk and the checksums are known.
	var zero [headerLen]byte
	if _, err = fd.Write(zero[:]); err != nil {
		fd.Close()
		return err
	}

	off := uint64(headerLen)
	offsets := make([]uint64, n)
	vlens := make([]uint32, n)

	for i, payload := range w.payloads {
		offsets[i] = off
		vlens[i] = uint32(len(payload))

		var obuf [8]byte
		binary.BigEndian.PutUint64(obuf[:], off)

		rsh := siphash.New(salt)
		rsh.Write(obuf[:])
		rsh.Write(payload)

		var cbuf [8]byte
		binary.BigEndian.PutUint64(cbuf[:], rsh.Sum64())

		if _, werr := fd.Write(cbuf[:]); werr != nil {
			fd.Close()
			return werr
		}
		if len(payload) > 0 {
			if _, werr := fd.Write(payload); werr != nil {
				fd.Close()
				return werr
			}
		}
		off += 8 + uint64(len(payload))
	}

	offtbl := (off + pageAlign - 1) &^ uint64(pageAlign-1)
	if offtbl > off {
		if _, werr := fd.Write(make([]byte, offtbl-off)); werr != nil {
			fd.Close()
			return werr
		}
		off = offtbl
	}

	tbl := pph.NewTable()
	values := make([]uint64, n)
	for i := range values {
		values[i] = uint64(i)
	}
	seed := pph.RandomSeed()
	if err = tbl.Setup(n, false, w.p, timeoutMS, seed, pph.DefaultMultiplier, 0, w.uuid); err != nil {
		fd.Close()
		return err
	}
	if err = tbl.Load(w.keys, values); err != nil {
		fd.Close()
		return err
	}

	var tblBuf bytes.Buffer
	if err = tbl.Serialize(&tblBuf); err != nil {
		fd.Close()
		return err
	}

	h := &header{
		nkeys:     n,
		offtbl:    offtbl,
		tablelen:  uint64(tblBuf.Len()),
		keydigest: keyDigest(w.keys),
	}
	copy(h.salt[:], salt)
	hdrBytes := h.encode()

	strong := sha512.New512_256()
	fast := xxhash.New()
	strong.Write(hdrBytes)
	fast.Write(hdrBytes)

	offBytes := u64sToByteSlice(offsets)
	vlenBytes := u32sToByteSlice(vlens)

	for _, b := range [][]byte{offBytes, vlenBytes} {
		if _, werr := fd.Write(b); werr != nil {
			fd.Close()
			return werr
		}
		strong.Write(b)
		fast.Write(b)
	}

	if _, werr := fd.Write(tblBuf.Bytes()); werr != nil {
		fd.Close()
		return werr
	}
	strong.Write(tblBuf.Bytes())
	fast.Write(tblBuf.Bytes())

	var fastSum [8]byte
	binary.BigEndian.PutUint64(fastSum[:], fast.Sum64())
	if _, werr := fd.Write(fastSum[:]); werr != nil {
		fd.Close()
		return werr
	}
	if _, werr := fd.Write(strong.Sum(nil)); werr != nil {
		fd.Close()
		return werr
	}

	if _, err = fd.Seek(0, 0); err != nil {
		fd.Close()
		return err
	}
	if _, err = fd.Write(hdrBytes); err != nil {
		fd.Close()
		return err
	}

	if err = fd.Sync(); err != nil {
		fd.Close()
		return err
	}
	if err = fd.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp, path); err != nil {
		return err
	}

	w.frozen = true
	return nil
}
