// table.go -- the two-level perfect hash table container
//
// Grounded on original_source/pph.h's pph::Table: Setup/insert/Load
// mirror Table::setup/Table::insert/Table::load; findH and findR mirror
// Table::find_h and Table::find_r; moveNonoverlap mirrors
// Table::move_nonoverlap. Slots are stored as (key_index, owner, val)
// triples into a side key arena rather than raw string fields, per the
// compact representation the design notes call for.

package pph

import (
	"bytes"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// EmptyVal is the sentinel FindVal returns for a key that is not a
// member of the table (or is indistinguishable from one without the
// final equality check).
const EmptyVal = ^uint64(0)

const (
	defaultLoadingFactor = 0.97
	defaultTimeout       = 60 * time.Second
	defaultAttempts      = 100
)

type header struct {
	p uint64
	i uint32
	r uint64
}

// slot is the dense array's element. used distinguishes a live entry
// from a free one; owner records the primary bucket that currently
// claims it, used only to filter foreign tenants during a move.
type slot struct {
	keyIdx uint32
	owner  uint32
	used   bool
	val    uint64
}

// Table is a minimal order-preserving perfect hash function over a
// fixed key set. The zero value is not usable; build one with
// NewTable, call Setup, then Load.
type Table struct {
	n          uint64
	p          float64
	s          uint64
	multiplier uint64
	adjustment uint64
	timeout    time.Duration
	seed       uint64
	uuid       string
	keyfn      KeyFunc

	fam *secondaryFamily
	h_  []header
	d   []slot

	keys       [][]byte // arena backing slot.keyIdx, in insertion order
	inputKeys  [][]byte // the caller's original key list, for Keys()/CLI use
	rng        *xorShift1024Star
	loaded     bool
}

// NewTable returns an empty, unconfigured Table.
func NewTable() *Table {
	return &Table{
		multiplier: hashMultiplier,
		uuid:       UUIDDJB,
		keyfn:      djb,
		p:          defaultLoadingFactor,
		timeout:    defaultTimeout,
	}
}

// Setup sizes the header array and prepares the table for Load. n is
// the number of keys that will be inserted. When useExactP is true the
// header array is sized exactly at n/p; otherwise it is rounded up to
// the next power of two and p is recomputed to match.
func (t *Table) Setup(n uint64, useExactP bool, p float64, timeoutMS, seed, multiplier, adjustment uint64, uuid string) error {
	if t.loaded {
		return ErrFrozen
	}
	if p > 1 || p <= 0 {
		p = defaultLoadingFactor
	}

	t.n = n
	t.adjustment = adjustment
	t.seed = seed
	t.uuid = uuid
	t.keyfn = lookupKeyFunc(uuid)
	t.timeout = time.Duration(timeoutMS) * time.Millisecond
	if t.timeout <= 0 {
		t.timeout = defaultTimeout
	}

	s := uint64(float64(n) / p)
	if useExactP {
		if s == 0 {
			s = 1
		}
		t.s = s
		t.p = p
	} else {
		grown := nextPow2(s + 1)
		if grown < 2 {
			grown = 2
		}
		t.s = grown
		t.p = float64(n) / float64(grown)
	}

	mult := multiplier
	for gcdBinary(mult, t.s) != 1 {
		mult++
	}
	t.multiplier = mult

	t.h_ = make([]header, t.s)
	t.d = make([]slot, n)
	t.keys = make([][]byte, 0, n)
	t.fam = newSecondaryFamily(t.keyfn)
	t.rng = newXorShift1024Star(seed)
	t.loaded = false
	return nil
}

// SetUUID rebinds the table's key hash primitive. Used after Setup (to
// override the default) or while unserializing a table built with a
// different UUID than the registry's default.
func (t *Table) SetUUID(uuid string) {
	t.uuid = uuid
	t.keyfn = lookupKeyFunc(uuid)
	if t.fam != nil {
		t.fam.keyfn = t.keyfn
	}
}

// Hash returns the table's top-level bucket index for key.
func (t *Table) Hash(key []byte) uint64 {
	return t.h(key)
}

func (t *Table) h(key []byte) uint64 {
	return modulo(t.keyfn(key, t.multiplier, t.adjustment), t.s)
}

// Load inserts every (keys[j], values[j]) pair in order, then
// self-verifies the resulting table. It returns ErrBuildTimeout if the
// secondary-hash search could not resolve some bucket - most commonly
// because keys contains a duplicate.
func (t *Table) Load(keys [][]byte, values []uint64) error {
	if t.h_ == nil {
		return ErrNotSetup
	}
	if t.loaded {
		return ErrFrozen
	}
	if len(keys) != len(values) {
		return fmt.Errorf("pph: %d keys but %d values", len(keys), len(values))
	}

	for j := range keys {
		if err := t.insert(keys[j], values[j]); err != nil {
			return fmt.Errorf("pph: building table at key %d (%q): %w", j, keys[j], err)
		}
	}

	if err := t.selfVerify(keys, values); err != nil {
		return err
	}

	t.inputKeys = keys
	t.loaded = true
	return nil
}

func (t *Table) selfVerify(keys [][]byte, values []uint64) error {
	n := len(keys)
	if n == 0 {
		return nil
	}

	workers := runtime.NumCPU()
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			for j := lo; j < hi; j++ {
				v := t.FindVal(keys[j])
				if v != values[j] {
					return fmt.Errorf("pph: self-verify failed for key %q: got %d, want %d", keys[j], v, values[j])
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// FindVal resolves key to its stored value, or EmptyVal if key is not
// a member of the table.
func (t *Table) FindVal(key []byte) uint64 {
	b := t.h(key)
	hdr := t.h_[b]
	if hdr.r == 0 {
		return EmptyVal
	}

	q := t.fam.h(int(hdr.i), key, hdr.r)
	s := t.d[hdr.p+q]
	if !s.used {
		return EmptyVal
	}
	if !bytes.Equal(t.keys[s.keyIdx], key) {
		return EmptyVal
	}
	return s.val
}

// NotFound reports whether v is the NOT_FOUND sentinel.
func (t *Table) NotFound(v uint64) bool {
	return v == EmptyVal
}

// Keys returns the table's key list: for a table built with Load, the
// caller-supplied list in its original order; for a table restored with
// Unserialize, the stored keys in ascending dense-array slot order.
func (t *Table) Keys() [][]byte {
	return t.inputKeys
}

// insert places a single (key, val) pair, growing the bucket's window
// as needed. It mirrors original_source/pph.h's Table::insert.
func (t *Table) insert(key []byte, val uint64) error {
	b := t.h(key)
	hdr := t.h_[b]

	if hdr.r == 0 {
		y, err := t.findR(0, 1, 1)
		if err != nil {
			return err
		}
		t.placeKey(y, key, val, b)
		t.h_[b] = header{p: y, i: 0, r: 1}
		return nil
	}

	res, err := t.findH(hdr.p, hdr.r, key, b)
	if err != nil {
		return err
	}

	y, err := t.findR(hdr.p, hdr.r, res.r)
	if err != nil {
		return err
	}

	t.moveNonoverlap(b, hdr.p, y, hdr.r, res.i, res.r)

	q := t.fam.h(res.i, key, res.r)
	t.placeKey(y+q, key, val, b)
	t.h_[b] = header{p: y, i: uint32(res.i), r: res.r}
	return nil
}

func (t *Table) placeKey(slotIdx uint64, key []byte, val, owner uint64) {
	idx := uint32(len(t.keys))
	t.keys = append(t.keys, key)
	t.d[slotIdx] = slot{keyIdx: idx, owner: uint32(owner), used: true, val: val}
}

func (t *Table) liveKeysForBucket(b, p, r uint64) [][]byte {
	out := make([][]byte, 0, r)
	for x := p; x < p+r; x++ {
		s := t.d[x]
		if s.used && uint64(s.owner) == b {
			out = append(out, t.keys[s.keyIdx])
		}
	}
	return out
}
