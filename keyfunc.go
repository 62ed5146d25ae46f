// keyfunc.go -- UUID-keyed registry of key hash primitives
//
// Grounded on original_source/pph.h's uuid_to_keyfunc() and the
// individual *_hash.h headers it dispatches to. Each primitive takes
// the raw key bytes plus the secondary hash family's (multiplier,
// adjustment) pair and returns a single uint64; Table.h folds that
// value modulo a bucket or slot count.

package pph

import (
	"encoding/binary"
	"hash/crc64"
	"hash/fnv"
)

// KeyFunc computes a raw (pre-modulo) hash of key, parameterized by a
// per-family multiplier and adjustment.
type KeyFunc func(key []byte, multiplier, adjustment uint64) uint64

// UUIDs of the built-in key hash primitives, matching
// original_source/pph.h's uuid_to_keyfunc table verbatim.
const (
	UUIDCRC64    = "F80F007A-26C3-4BD0-A481-24EE9AE94D01"
	UUIDDJB      = "BCC54D42-34F0-43FF-88EB-59C7B47EE210"
	UUIDFNV1A    = "87333E59-7C1A-4613-9C6F-81F1BB1F6AED"
	UUIDOAT      = "3AC2A805-6771-4189-8C62-5F41297126FE"
	UUIDSpookyV2 = "A647F03D-A02E-477F-9635-420F3BCEB394"
)

var crc64XZTable = crc64.MakeTable(crc64.ECMA)

// crc64XZ implements CRC-64/XZ: the bit-reflected ECMA table with
// all-ones init and xorout, which crc64.Checksum applies itself.
// multiplier is unused.
func crc64XZ(key []byte, multiplier, adjustment uint64) uint64 {
	crc := crc64.Checksum(key, crc64XZTable)
	return crc + adjustment
}

// djb is Dan Bernstein's multiplicative string hash, parameterized by
// multiplier instead of the usual fixed 33/65.
func djb(key []byte, multiplier, adjustment uint64) uint64 {
	var h uint64
	for _, c := range key {
		h = h*multiplier ^ uint64(c)
	}
	return h + adjustment
}

// fnv1a delegates to the standard library's 64-bit FNV-1a; multiplier
// is accepted for interface symmetry but unused, matching
// original_source/fnv64a_hash.h which ignores it too.
func fnv1a(key []byte, multiplier, adjustment uint64) uint64 {
	h := fnv.New64a()
	h.Write(key)
	return h.Sum64() + adjustment
}

// oat is Bob Jenkins' one-at-a-time hash.
func oat(key []byte, multiplier, adjustment uint64) uint64 {
	var h uint64
	for _, c := range key {
		h += uint64(c)
		h += h << 10
		h ^= h >> 6
	}
	h += h << 3
	h ^= h >> 11
	h += h << 15
	return h + adjustment
}

const spookyConst = uint64(0xdeadbeefdeadbeef)

func spookyRot(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// spookyShortMix and spookyShortEnd are Bob Jenkins' SpookyHash V2
// mixing rounds for inputs shorter than its bulk-block threshold, which
// covers every realistic string key.
func spookyShortMix(h0, h1, h2, h3 uint64) (uint64, uint64, uint64, uint64) {
	h2 = spookyRot(h2, 50)
	h2 += h3
	h0 ^= h2
	h3 = spookyRot(h3, 52)
	h3 += h0
	h1 ^= h3
	h0 = spookyRot(h0, 30)
	h0 += h1
	h2 ^= h0
	h1 = spookyRot(h1, 41)
	h1 += h2
	h3 ^= h1
	h2 = spookyRot(h2, 54)
	h2 += h3
	h0 ^= h2
	h3 = spookyRot(h3, 48)
	h3 += h0
	h1 ^= h3
	h0 = spookyRot(h0, 38)
	h0 += h1
	h2 ^= h0
	h1 = spookyRot(h1, 37)
	h1 += h2
	h3 ^= h1
	h2 = spookyRot(h2, 62)
	h2 += h3
	h0 ^= h2
	h3 = spookyRot(h3, 34)
	h3 += h0
	h1 ^= h3
	h0 = spookyRot(h0, 5)
	h0 += h1
	h2 ^= h0
	h1 = spookyRot(h1, 36)
	h1 += h2
	h3 ^= h1
	return h0, h1, h2, h3
}

func spookyShortEnd(h0, h1, h2, h3 uint64) (uint64, uint64, uint64, uint64) {
	h3 ^= h2
	h2 = spookyRot(h2, 15)
	h3 += h2
	h0 ^= h3
	h3 = spookyRot(h3, 52)
	h0 += h3
	h1 ^= h0
	h0 = spookyRot(h0, 26)
	h1 += h0
	h2 ^= h1
	h1 = spookyRot(h1, 51)
	h2 += h1
	h3 ^= h2
	h2 = spookyRot(h2, 28)
	h3 += h2
	h0 ^= h3
	h3 = spookyRot(h3, 9)
	h0 += h3
	h1 ^= h0
	h0 = spookyRot(h0, 47)
	h1 += h0
	h2 ^= h1
	h1 = spookyRot(h1, 54)
	h2 += h1
	h3 ^= h2
	h2 = spookyRot(h2, 32)
	h3 += h2
	h0 ^= h3
	h3 = spookyRot(h3, 25)
	h0 += h3
	h1 ^= h0
	h0 = spookyRot(h0, 63)
	h1 += h0
	return h0, h1, h2, h3
}

// spookyV2 seeds SpookyHash V2's short-input path with multiplier,
// matching original_source/pph.h's call SpookyHash::Hash64(str, len,
// multiplier).
func spookyV2(key []byte, multiplier, adjustment uint64) uint64 {
	h0, h1 := multiplier, multiplier
	h2, h3 := spookyConst, spookyConst

	data := key
	remainder := len(data)

	for remainder >= 32 {
		h2 += binary.LittleEndian.Uint64(data[0:8])
		h3 += binary.LittleEndian.Uint64(data[8:16])
		h0, h1, h2, h3 = spookyShortMix(h0, h1, h2, h3)
		h0 += binary.LittleEndian.Uint64(data[16:24])
		h1 += binary.LittleEndian.Uint64(data[24:32])
		data = data[32:]
		remainder -= 32
	}

	if remainder >= 16 {
		h2 += binary.LittleEndian.Uint64(data[0:8])
		h3 += binary.LittleEndian.Uint64(data[8:16])
		h0, h1, h2, h3 = spookyShortMix(h0, h1, h2, h3)
		data = data[16:]
		remainder -= 16
	}

	var tail [16]byte
	copy(tail[:], data[:remainder])
	tail[15] = byte(len(key))
	h2 += binary.LittleEndian.Uint64(tail[0:8])
	h3 += binary.LittleEndian.Uint64(tail[8:16])

	h0, h1, _, _ = spookyShortEnd(h0, h1, h2, h3)
	return h0 + adjustment
}

var keyFuncRegistry = map[string]KeyFunc{
	UUIDCRC64:    crc64XZ,
	UUIDDJB:      djb,
	UUIDFNV1A:    fnv1a,
	UUIDOAT:      oat,
	UUIDSpookyV2: spookyV2,
}

// lookupKeyFunc resolves uuid to a KeyFunc, falling back to djb for an
// unrecognized UUID - the same fallback original_source/pph.h's
// uuid_to_keyfunc() takes.
func lookupKeyFunc(uuid string) KeyFunc {
	if kf, ok := keyFuncRegistry[uuid]; ok {
		return kf
	}
	return djb
}
