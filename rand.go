// rand.go -- deterministic PRNG feeding the secondary hash search
//
// Grounded on original_source/XorShift1024Star.h: a SplitMix64 generator
// is used once, at seeding time, to fill the 16-word state of a
// XorShift1024* generator. Every candidate modulus drawn during
// Table.findH comes from the XorShift1024* stream (the multiplier and
// adjustment are then derived from it deterministically), so two
// tables built with the same seed and the same key insertion order
// produce byte-identical serialized output.

package pph

const splitMix64Increment = 0x9E3779B97F4A7C15

type splitMix64 struct {
	x uint64
}

func (s *splitMix64) seed(x uint64) {
	s.x = x
}

func (s *splitMix64) next() uint64 {
	s.x += splitMix64Increment
	z := s.x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

type xorShift1024Star struct {
	s [16]uint64
	p int
}

func newXorShift1024Star(seed uint64) *xorShift1024Star {
	x := &xorShift1024Star{}
	x.seed(seed)
	return x
}

func (x *xorShift1024Star) seed(seed uint64) {
	var sm splitMix64
	sm.seed(seed)
	for i := range x.s {
		x.s[i] = sm.next()
	}
	x.p = 0
}

func (x *xorShift1024Star) next() uint64 {
	s0 := x.s[x.p]
	x.p = (x.p + 1) & 15
	s1 := x.s[x.p]
	s1 ^= s1 << 31
	x.s[x.p] = s1 ^ s0 ^ (s1 >> 11) ^ (s0 >> 30)
	return x.s[x.p] * 1181783497276652981
}

// uint64n draws a value uniformly distributed over [lo, hi), consuming
// one word from the stream. hi must be > lo.
func (x *xorShift1024Star) uint64n(lo, hi uint64) uint64 {
	if hi <= lo {
		return lo
	}
	span := hi - lo
	return lo + x.next()%span
}
