// errors.go - public errors exposed by pph
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
	"errors"
)

var (
	// ErrBuildTimeout is returned by Load when the secondary-hash
	// search could not resolve every bucket before its timeout; this
	// is the usual symptom of a duplicate key in the input.
	ErrBuildTimeout = errors.New("pph: timed out searching for a collision-free hash function")

	// ErrFrozen is returned when attempting to Load a Table a second
	// time, or to Setup a Table that has already been loaded.
	ErrFrozen = errors.New("pph: table already built")

	// ErrTooSmall is not returned by any function of this package:
	// Setup accepts a zero key count, and Unserialize reports a
	// truncated table as ErrSerialization.
	ErrTooSmall = errors.New("pph: not enough data to build or unmarshal table")

	// ErrSerialization is returned by Unserialize when the input does
	// not match the expected text format.
	ErrSerialization = errors.New("pph: malformed serialized table")

	// ErrNoKey is not returned by any function of this package;
	// FindVal reports a missing key by returning EmptyVal.
	ErrNoKey = errors.New("pph: no such key")

	// ErrNotSetup is returned by Load when called before Setup.
	ErrNotSetup = errors.New("pph: table has not been set up")

	// ErrAllocatorFailure is returned when the slot allocator cannot
	// find a free window after growing the dense array - an internal
	// invariant violation that the construction algorithm should never
	// trigger under the documented search strategy.
	ErrAllocatorFailure = errors.New("pph: slot allocator failed to find a free window after growing")
)
