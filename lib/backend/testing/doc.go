// Package testing provides the shared conformance suite for Backend
// implementations. Every backend package runs RunBackendTests against a
// factory of fresh instances, so the primitive contract (scalar semantics,
// set emptiness, sorted-set ordering, batch order preservation, glob scans,
// liveness and metadata) is enforced uniformly across engines.
package testing
