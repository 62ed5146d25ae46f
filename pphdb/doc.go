// doc.go -- package pphdb

// Package pphdb wraps a frozen pph.Table in a binary, mmap'able
// container that also stores a caller-supplied payload per key,
// instead of just the table's ordinal value. It exists because
// pph.Table's own serialization format (Table.Serialize) round-trips
// the table structure itself, and says nothing about where a caller's
// actual record bytes live on disk.
//
// The container shape follows the teacher's own DBWriter/DBReader: a
// fixed 64-byte header, a run of checksummed value records, a
// memory-mapped offset table, the serialized pph.Table, and a trailer
// checksum covering everything but the value records.
package pphdb
