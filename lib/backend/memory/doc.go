// Package memory implements the reference in-process storage backend. It is
// the default backend when no external store is configured and the backend
// of choice for tests and local development.
//
// Implementation Details:
//
//   - State lives in three independent maps (scalar values, sets, sorted
//     sets) guarded by a single RWMutex. Using one key as a scalar and as a
//     set at the same time is legal but discouraged; Delete clears every
//     form of a key so no stale shadow state survives.
//
//   - Sorted-set range queries are linear filters over the member map. This
//     is deliberate: the backend targets small working sets, and the
//     interface leaves production-scale range queries to engines with native
//     ordered iteration (see the badgerbk package).
//
//   - Ties between equal scores are broken by insertion order via a
//     backend-wide sequence counter, which keeps rankings stable within a
//     process run.
//
//   - Info reports an estimated byte footprint (2 bytes per character plus
//     a fixed overhead per sorted-set entry). The estimate is diagnostic
//     only; the backend has no eviction policy, so long-running processes
//     with unbounded key sets must bound growth themselves.
//
// Lifecycle: construct once with New, share process-wide, tear down with
// Close. There is no automatic expiry.
package memory
