// findh.go -- the secondary-hash search
//
// Grounded on original_source/pph.h's Table::find_h: given a bucket's
// current window and an incoming key, search for a (family index,
// size) pair that places the bucket's existing members plus the new
// key without collision. Phase A tries to reuse an existing family
// member; Phase B generates new candidates from the PRNG stream,
// escalating the target size every defaultAttempts failures.

package pph

import "time"

type findHResult struct {
	i int
	r uint64
}

func (t *Table) findH(p, r uint64, newKey []byte, b uint64) (findHResult, error) {
	deadline := time.Now().Add(t.timeout)
	nextR := r + 1
	liveKeys := t.liveKeysForBucket(b, p, r)

	// draws counts every Phase-B candidate generated over the life of
	// this call, regardless of how many times nextR escalates - it
	// never resets, matching pph.h's find_h outer "for (i=0;;i++)".
	var draws uint64

	for {
		if time.Now().After(deadline) {
			return findHResult{}, ErrBuildTimeout
		}

		// Phase A: reuse an existing family member that happens to be
		// collision-free for this bucket at the escalated size.
		for i := 1; i < t.fam.size(); i++ {
			if !t.fam.isCandidate(i, nextR) {
				continue
			}
			if familyMemberCollisionFree(t.fam, i, nextR, liveKeys, newKey) {
				return findHResult{i: i, r: nextR}, nil
			}
		}

		// Phase B: generate new candidates.
		for attempt := 0; attempt < defaultAttempts; attempt++ {
			if time.Now().After(deadline) {
				return findHResult{}, ErrBuildTimeout
			}

			m, mu := t.drawCandidate(draws, nextR)
			draws++
			adjustment := t.computeAdjustmentFor(m, mu, liveKeys, newKey)

			if candidateCollisionFree(t.keyfn, m, mu, adjustment, nextR, liveKeys, newKey) {
				idx := t.fam.add(secondaryEntry{modulus: m, multiplier: mu, adjustment: adjustment})
				return findHResult{i: idx, r: nextR}, nil
			}
		}

		nextR++
	}
}

// drawCandidate implements Phase B steps 1-3: draw a modulus from the
// PRNG stream, force it and the multiplier odd, then nudge both until
// they satisfy the required coprimality constraints. draws is the
// number of candidates already generated by this findH call, which
// pph.h's lower bound (2*i + 100*r + 1) grows with on every attempt.
func (t *Table) drawCandidate(draws, nextR uint64) (m, mu uint64) {
	lo := 2*draws + 100*nextR + 1
	hi := uint64(1) << 32
	if lo >= hi {
		lo = hi - 1
	}

	m = t.rng.uint64n(lo, hi)
	if m&1 == 0 {
		m++
	}

	mu = t.multiplier
	if mu&1 == 0 {
		mu++
	}
	for gcdBinary(mu, nextR) != 1 {
		mu += 2
	}
	for gcdBinary(m, mu) != 1 {
		m += 2
	}
	return m, mu
}

func (t *Table) computeAdjustmentFor(m, mu uint64, liveKeys [][]byte, newKey []byte) uint64 {
	all := make([][]byte, 0, len(liveKeys)+1)
	all = append(all, liveKeys...)
	all = append(all, newKey)
	return computeAdjustment(t.keyfn, m, mu, all)
}

func familyMemberCollisionFree(fam *secondaryFamily, i int, r uint64, liveKeys [][]byte, newKey []byte) bool {
	seen := make(map[uint64]struct{}, len(liveKeys)+1)
	for _, k := range liveKeys {
		q := fam.h(i, k, r)
		if _, dup := seen[q]; dup {
			return false
		}
		seen[q] = struct{}{}
	}
	q := fam.h(i, newKey, r)
	_, dup := seen[q]
	return !dup
}

func candidateCollisionFree(keyfn KeyFunc, m, mu, adjustment, r uint64, liveKeys [][]byte, newKey []byte) bool {
	seen := make(map[uint64]struct{}, len(liveKeys)+1)
	test := func(k []byte) bool {
		q := modulo(modulo(keyfn(k, mu, adjustment), m), r)
		if _, dup := seen[q]; dup {
			return false
		}
		seen[q] = struct{}{}
		return true
	}
	for _, k := range liveKeys {
		if !test(k) {
			return false
		}
	}
	return test(newKey)
}
