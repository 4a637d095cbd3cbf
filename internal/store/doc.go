// Package store provides the Record Store: the ordered records of one
// collection plus the id sequence that numbers them.
//
// Two backends implement Store:
//   - Memory: a slice of records, the default
//   - SQLite: JSON documents in a (id, body) table, in memory unless given a file path
//
// # Invariants
//
// Insertion order is id order: ids come from a per-store Sequence that only
// increases, and the id is drawn in the same call that appends the record.
// Deleting a record never frees its id.
//
// Every record a store returns is a deep copy. Mutating a returned record
// has no effect until it is written back with Put.
//
// Stores are not safe for concurrent use. Each store is owned by exactly one
// engine, whose Run loop is the only goroutine that touches it.
package store
