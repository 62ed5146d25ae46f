// utils.go -- utility functions
//
// (c) Sudhi Herle 2018
//
// License GPLv2
//
// If you need a commercial license for this work, please contact
// the author.
//
// This software does not come with any express or implied
// warranty; it is provided "as is". No claim  is made to its
// suitability for any purpose.

package pph

import (
	"crypto/rand"
	"encoding/binary"
	"io"
)

// RandBytes draws n cryptographically random bytes, panicking if
// crypto/rand can't be read - the same fatal-on-failure behavior as
// the original's own random-salt generator.
func RandBytes(n int) []byte {
	b := make([]byte, n)

	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		panic("can't read crypto/rand")
	}
	return b
}

// rand64 draws a cryptographically random seed for the table's
// SplitMix64/XorShift1024* PRNG. It is not used in the PRNG's output
// stream itself - only to seed it when the caller doesn't supply a
// deterministic seed.
func rand64() uint64 {
	return binary.BigEndian.Uint64(RandBytes(8))
}

// RandomSeed draws a cryptographically random 64-bit seed, for callers
// that want a fresh, non-reproducible table build.
func RandomSeed() uint64 {
	return rand64()
}
