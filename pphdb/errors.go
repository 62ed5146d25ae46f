// errors.go -- sentinel errors for pphdb

package pphdb

import "errors"

var (
	// ErrExists is returned by Writer.Add for a duplicate key.
	ErrExists = errors.New("pphdb: key already added")

	// ErrValueTooLarge is returned when a payload exceeds the
	// record length field's range (uint32).
	ErrValueTooLarge = errors.New("pphdb: value too large")

	// ErrFrozen is returned by Writer methods after Build has run.
	ErrFrozen = errors.New("pphdb: writer already built")

	// ErrNoKey is returned by Reader.Find for an absent key.
	ErrNoKey = errors.New("pphdb: no such key")

	// ErrCorrupt is returned when the on-disk container fails a
	// structural or checksum check.
	ErrCorrupt = errors.New("pphdb: corrupt container")
)
