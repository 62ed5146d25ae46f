// doc.go - top level documentation
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

// Package pph implements a minimal, order-preserving perfect hash
// function over a fixed set of string keys, built with the two-level
// bucket/secondary-hash scheme described by Cormack, Horspool and
// Kaiserswerth (1985).
//
// A Table is constructed once, via Setup followed by Load, from the
// complete key set and its associated ordinal values. Once Load
// returns successfully the Table is frozen: FindVal resolves any key
// from the original set to its value in O(1) with no collisions, and
// returns EmptyVal (for which NotFound reports true) for any key outside
// the original set, since it compares the stored key bytes before
// returning a value. The mapping from key to its position in the original
// insertion order is preserved, which is what makes the function
// "order-preserving" rather than merely minimal.
//
// The pphdb subpackage wraps a frozen Table with an on-disk container
// for serving lookups against memory-mapped storage. cmd/pph is the
// command-line frontend that builds and verifies text-serialized
// Tables; cmd/pphdb builds and queries pphdb containers.
package pph
