// secondary.go -- the per-bucket secondary hash family
//
// Grounded on original_source/pph.h's func_t and Table::find_h/
// suggest_adjustment. A secondaryFamily is shared by every bucket in a
// Table: buckets reuse each other's (modulus, multiplier, adjustment)
// triples whenever possible (Phase A of find_h) before generating a
// brand new one (Phase B), which keeps the family small.

package pph

// keyAdjustmentFactor is the original's KEY_ADJUSTMENT_FACTOR: it scales
// a candidate modulus into a floor below which a key's raw hash must
// not fall, so that adjustment can always push every key's hash above
// the floor without wrapping.
const keyAdjustmentFactor = uint64(10000000)

// hashMultiplier is the original's HASH_MULTIPLIER - the default
// multiplier used by the table's *primary* bucket hash.
const hashMultiplier = uint64(65)

// DefaultMultiplier is hashMultiplier, exported for callers (such as
// package pphdb) that build a Table without wanting to hard-code the
// original's HASH_MULTIPLIER themselves.
const DefaultMultiplier = hashMultiplier

type secondaryEntry struct {
	modulus    uint64
	multiplier uint64
	adjustment uint64
}

// secondaryFamily is F in the design notes: entry 0 is always the
// sentinel {0,0,0} so that a header's zero-valued (p,i,r) unambiguously
// denotes an empty bucket.
type secondaryFamily struct {
	entries []secondaryEntry
	keyfn   KeyFunc
}

func newSecondaryFamily(keyfn KeyFunc) *secondaryFamily {
	return &secondaryFamily{
		entries: []secondaryEntry{{0, 0, 0}},
		keyfn:   keyfn,
	}
}

func (f *secondaryFamily) size() int {
	return len(f.entries)
}

// isCandidate reports whether family member i's multiplier is coprime
// with r, the precondition find_h's Phase A requires before reusing it.
func (f *secondaryFamily) isCandidate(i int, r uint64) bool {
	if i <= 0 || i >= len(f.entries) {
		return false
	}
	return gcdBinary(f.entries[i].multiplier, r) == 1
}

// h evaluates family member i on key, reduced modulo r.
func (f *secondaryFamily) h(i int, key []byte, r uint64) uint64 {
	if i < 0 || i >= len(f.entries) {
		return 0
	}
	e := f.entries[i]
	return modulo(modulo(f.keyfn(key, e.multiplier, e.adjustment), e.modulus), r)
}

// add appends a new family member, returning its index.
func (f *secondaryFamily) add(e secondaryEntry) int {
	f.entries = append(f.entries, e)
	return len(f.entries) - 1
}

// computeAdjustment implements original_source/pph.h's
// suggest_adjustment loop (minus its dead "adjustment" parameter): for
// every non-nil key, if keyfn(key, multiplier, 0) falls below
// modulus*keyAdjustmentFactor, the adjustment must be large enough to
// lift it back above that floor. The largest such requirement across
// all of the bucket's keys is the adjustment Phase B commits to.
func computeAdjustment(keyfn KeyFunc, modulus, multiplier uint64, keys [][]byte) uint64 {
	var adjustment uint64
	floor := modulus * keyAdjustmentFactor
	for _, k := range keys {
		if k == nil {
			continue
		}
		raw := keyfn(k, multiplier, 0)
		if raw < floor {
			need := floor - raw
			if need > adjustment {
				adjustment = need
			}
		}
	}
	return adjustment
}
