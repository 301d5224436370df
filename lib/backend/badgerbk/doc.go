// Package badgerbk implements the storage backend contract on BadgerDB,
// giving the same primitive vocabulary as the in-memory backend plus
// durability.
//
// Physical layout: every logical key is mapped into namespaced physical
// keys. Scalars live under one namespace; each set member and sorted-set
// member is its own physical key, which makes membership updates single
// writes and lets an emptied set disappear without bookkeeping. Sorted sets
// additionally maintain a score index whose physical keys embed an
// order-preserving big-endian encoding of the score followed by an
// insertion sequence, so score range queries are ordered prefix iterations
// rather than scans. This is the production-scale counterpart to the
// in-memory backend's linear filtering.
//
// Constraint: logical keys and members must not contain NUL bytes; NUL is
// the namespace separator in the physical layout. Operations reject
// offending keys and members with an error.
//
// The in-memory mode (Open(path, true)) runs the full badger code path
// without touching disk and is intended for tests.
package badgerbk
