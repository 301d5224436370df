// Package backend defines the primitive storage contract shared by all
// strata storage engines: scalar get/set, set membership, sorted-set
// ranking, batch reads and writes, glob key scans, a liveness probe and
// capability metadata.
//
// The package focuses on:
//   - A unified interface (Backend) for primitive storage operations across
//     different engines
//   - Capability discovery through Feature bit flags, so callers can degrade
//     gracefully when an engine does not support an operation family
//   - A shared error vocabulary in which a missing key is a normal outcome
//     (reported via a found flag) and only connection or protocol failures
//     surface as errors
//
// Key Components:
//
//   - Backend Interface: The minimal vocabulary any storage engine must
//     support. Implementations vary in scale characteristics (the in-memory
//     engine filters score ranges linearly, the badger engine uses native
//     ordered iteration), but the contract itself is scale-agnostic.
//
//   - ScoreBound: The score-range boundary type for sorted-set queries. It
//     carries either a finite score or one of the infinity sentinels, with a
//     textual form ("-inf", "+inf", decimal) for CLIs and wire surfaces.
//
//   - Instrumented: A decorator implementing Backend that records per
//     operation call counts and average latencies with striped counters, so
//     serving layers can expose operational statistics without touching the
//     underlying engine.
//
// Implementations:
//
//   - memory: A mutex-guarded in-process engine for tests, local development
//     and default operation ("github.com/mjansen/strata/lib/backend/memory").
//
//   - badgerbk: A durable engine on BadgerDB with native score-ordered
//     iteration ("github.com/mjansen/strata/lib/backend/badgerbk").
//
// Concurrency model: a backend instance is constructed once, shared process
// wide, and torn down explicitly with Close. Callers must not assume
// isolation between concurrent set/get pairs; writes are last-writer-wins
// and the interface deliberately offers no compare-and-swap primitive.
package backend
