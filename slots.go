// slots.go -- the dense slot array allocator and bucket relocation
//
// Grounded on original_source/pph.h's Table::find_r and
// Table::move_nonoverlap.

package pph

// findR locates a window of newsize contiguous free slots, preferring
// a gap below src (which lets the caller relocate a bucket downward
// without touching anything past its current window) and otherwise
// growing D by appending newsize fresh, free slots and scanning past
// the bucket's current window. The two search ranges never overlap,
// which is what lets moveNonoverlap clear its source slots as it goes.
func (t *Table) findR(src, size, newsize uint64) (uint64, error) {
	if src > newsize {
		if y, ok := scanFreeWindow(t.d, 0, src, newsize); ok {
			return y, nil
		}
	}

	t.d = append(t.d, make([]slot, newsize)...)
	y, ok := scanFreeWindow(t.d, src+size, uint64(len(t.d)), newsize)
	if !ok {
		return 0, ErrAllocatorFailure
	}
	return y, nil
}

// scanFreeWindow finds the first x in [lo, hi) such that D[x..x+newsize)
// lies entirely within [lo, hi) and every slot in it is free.
func scanFreeWindow(d []slot, lo, hi, newsize uint64) (uint64, bool) {
	if newsize == 0 {
		return lo, true
	}
	for x := lo; x+newsize <= hi; x++ {
		if d[x].used {
			continue
		}
		allFree := true
		for q := uint64(1); q < newsize; q++ {
			if d[x+q].used {
				allFree = false
				break
			}
		}
		if allFree {
			return x, true
		}
	}
	return 0, false
}

// moveNonoverlap relocates bucket b's live members from [src, src+size)
// to their new positions under secondary hash family member idx at
// size r, rooted at dst. Foreign-owned and already-free slots in the
// source range are left untouched - they may be a different bucket's
// tenants occupying a gap in this bucket's old window.
func (t *Table) moveNonoverlap(b, src, dst, size uint64, idx int, r uint64) {
	for x := src; x < src+size; x++ {
		s := t.d[x]
		if !s.used || uint64(s.owner) != b {
			continue
		}

		key := t.keys[s.keyIdx]
		q := t.fam.h(idx, key, r)
		t.d[dst+q] = s

		t.d[x].used = false
		t.d[x].val = 0
	}
}
