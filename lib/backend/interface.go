package backend

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Pong is the literal acknowledgment returned by a healthy backend's Ping.
const Pong = "PONG"

// Feature represents backend capabilities as bit flags
type Feature uint64

const (
	FeatureScalar      Feature = 1 << iota // Support for scalar get/set operations
	FeatureSet                             // Support for set-membership operations
	FeatureSortedSet                       // Support for sorted-set operations
	FeatureBatch                           // Support for MultiGet/MultiSet operations
	FeatureScan                            // Support for pattern key scans
	FeaturePersistence                     // Data survives process restarts
)

func (f Feature) String() string {
	switch f {
	case FeatureScalar:
		return "Scalar"
	case FeatureSet:
		return "Set"
	case FeatureSortedSet:
		return "SortedSet"
	case FeatureBatch:
		return "Batch"
	case FeatureScan:
		return "Scan"
	case FeaturePersistence:
		return "Persistence"
	default:
		return "Unknown"
	}
}

// BackendInfo describes a backend implementation. It is static metadata and
// must be computable without network I/O. SizeBytes is a diagnostic estimate
// only and is never used for eviction.
type BackendInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	SizeBytes int       `json:"size_bytes"`
	Features  []Feature `json:"features"`
	Metadata  any       `json:"metadata"`
}

// Value is the result of a single lookup inside a batch read. Found reports
// whether the key was present; an absent key is a normal outcome, not an error.
type Value struct {
	Data  []byte `json:"data"`
	Found bool   `json:"found"`
}

// Entry is a single key-value pair for batch writes.
type Entry struct {
	Key   string `json:"key"`
	Value []byte `json:"value"`
}

// --------------------------------------------------------------------------
// Backend Interface
// --------------------------------------------------------------------------

// Backend is the primitive vocabulary every storage engine must support so
// that higher layers can stay backend-agnostic. Implementations signal
// failures through the error return; a missing key is reported via the
// found/ok result, never as an error.
//
// Implementations must be safe for concurrent use. Every method of a
// networked implementation is a potential network round trip; timeouts and
// retries are the implementation's own policy, but errors must propagate
// rather than hang.
type Backend interface {

	// --------------------------------------------------------------------------
	// Scalar Operations
	// --------------------------------------------------------------------------

	// Set inserts or updates a scalar value. An existing value is overwritten.
	Set(key string, value []byte) error

	// Get retrieves the scalar value for a key. The boolean return value
	// indicates whether a value for the key was found.
	Get(key string) (value []byte, found bool, err error)

	// Delete removes a key together with any set or sorted-set state stored
	// under the same key. Deleting a non-existent key is not an error.
	Delete(key string) error

	// Exists reports whether a key holds any state (scalar, set or sorted set).
	Exists(key string) (bool, error)

	// --------------------------------------------------------------------------
	// Set Operations
	// --------------------------------------------------------------------------

	// SetAdd adds a member to the set stored at key. Adding an existing
	// member is a no-op.
	SetAdd(key, member string) error

	// SetRemove removes a member from the set stored at key. Removing the
	// last member removes the set entirely.
	SetRemove(key, member string) error

	// SetMembers returns all members of the set stored at key. The order is
	// unspecified. A missing set yields an empty slice, not an error.
	SetMembers(key string) ([]string, error)

	// SetCard returns the cardinality of the set stored at key (0 if the set
	// does not exist).
	SetCard(key string) (int, error)

	// --------------------------------------------------------------------------
	// Sorted-Set Operations
	// --------------------------------------------------------------------------

	// SortedSetAdd adds a member with the given score to the sorted set
	// stored at key. Re-adding an existing member updates its score.
	SortedSetAdd(key string, score float64, member string) error

	// SortedSetRemove removes a member from the sorted set stored at key.
	SortedSetRemove(key, member string) error

	// SortedSetRangeByScore returns all members whose score lies within
	// [min, max], ordered by score ascending. The bounds accept the
	// infinity sentinels (see ScoreBound).
	SortedSetRangeByScore(key string, min, max ScoreBound) ([]string, error)

	// SortedSetRange returns the members at positions [start, stop] ordered
	// by score ascending. stop is inclusive; stop = -1 means through the
	// end; negative positions count from the end.
	SortedSetRange(key string, start, stop int) ([]string, error)

	// SortedSetRevRange is SortedSetRange with descending score order.
	SortedSetRevRange(key string, start, stop int) ([]string, error)

	// --------------------------------------------------------------------------
	// Batch Operations
	// --------------------------------------------------------------------------

	// MultiGet retrieves several scalar values at once. The result preserves
	// the input order; absent keys are reported with Found=false.
	MultiGet(keys []string) ([]Value, error)

	// MultiSet upserts several scalar entries. This is per-key upsert
	// semantics, not a transaction: a failure may leave earlier entries
	// written.
	MultiSet(entries []Entry) error

	// --------------------------------------------------------------------------
	// Scan, Liveness and Metadata
	// --------------------------------------------------------------------------

	// Keys returns all keys matching the glob pattern ("*" matches zero or
	// more characters, "?" exactly one, "\" escapes). "*" alone returns
	// every key.
	Keys(pattern string) ([]string, error)

	// Ping probes the backend for liveness and returns Pong on success.
	Ping() (string, error)

	// Info returns static metadata about the backend. It performs no I/O.
	Info() BackendInfo

	// SupportsFeature checks if the backend supports the specified feature.
	// Multiple features can be checked at once using bitwise OR.
	SupportsFeature(feature Feature) bool

	// Close releases all resources held by the backend.
	Close() error
}

// --------------------------------------------------------------------------
// Position Helpers
// --------------------------------------------------------------------------

// PositionSlice resolves a (start, stop) position pair against a list of n
// elements using the inclusive-stop convention: stop = -1 means through the
// end, and negative positions count from the end. It returns the half-open
// index range [lo, hi) and ok=false when the range is empty.
func PositionSlice(n, start, stop int) (lo, hi int, ok bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if stop < 0 {
		stop += n
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return start, stop + 1, true
}
