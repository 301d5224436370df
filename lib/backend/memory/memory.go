package memory

import (
	"sort"
	"sync"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/glob"
)

// Constants for backend identity and size accounting
const (
	backendName    = "memory"
	backendVersion = "1.0.0"

	// bytesPerChar is the assumed storage cost of one character in keys,
	// values and members for the size estimate.
	bytesPerChar = 2
	// sortedEntryOverhead is the fixed per-entry overhead of a sorted-set
	// entry (score plus tie-break sequence).
	sortedEntryOverhead = 16
)

// scored is one sorted-set entry. seq is a backend-wide monotonic counter
// that makes the ordering of equal scores stable within a process run.
type scored struct {
	score float64
	seq   uint64
}

// memoryBackend is the reference Backend implementation. All state lives in
// three independent maps guarded by a single RWMutex; Delete clears a key
// from all three so a key reused across kinds cannot leak shadow state.
type memoryBackend struct {
	mu      sync.RWMutex
	scalars map[string][]byte
	sets    map[string]map[string]struct{}
	zsets   map[string]map[string]scored
	seq     uint64
	closed  bool
}

var _ backend.Backend = (*memoryBackend)(nil)

// New creates an empty in-memory backend. It targets small working sets
// (tests, local development); range queries are linear filters over the
// member maps.
func New() backend.Backend {
	return &memoryBackend{
		scalars: make(map[string][]byte),
		sets:    make(map[string]map[string]struct{}),
		zsets:   make(map[string]map[string]scored),
	}
}

// --------------------------------------------------------------------------
// Scalar Operations
// --------------------------------------------------------------------------

func (m *memoryBackend) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	// Copy to decouple the stored value from the caller's slice
	stored := make([]byte, len(value))
	copy(stored, value)
	m.scalars[key] = stored
	return nil
}

func (m *memoryBackend) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false, backend.ErrClosed
	}

	value, ok := m.scalars[key]
	if !ok {
		return nil, false, nil
	}
	result := make([]byte, len(value))
	copy(result, value)
	return result, true, nil
}

func (m *memoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	// A key may hold scalar, set and sorted-set state at once; clear all
	delete(m.scalars, key)
	delete(m.sets, key)
	delete(m.zsets, key)
	return nil
}

func (m *memoryBackend) Exists(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, backend.ErrClosed
	}

	if _, ok := m.scalars[key]; ok {
		return true, nil
	}
	if _, ok := m.sets[key]; ok {
		return true, nil
	}
	_, ok := m.zsets[key]
	return ok, nil
}

// --------------------------------------------------------------------------
// Set Operations
// --------------------------------------------------------------------------

func (m *memoryBackend) SetAdd(key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	set[member] = struct{}{}
	return nil
}

func (m *memoryBackend) SetRemove(key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	set, ok := m.sets[key]
	if !ok {
		return nil
	}
	delete(set, member)

	// Removing the last member removes the set entirely so emptiness is
	// indistinguishable from absence
	if len(set) == 0 {
		delete(m.sets, key)
	}
	return nil
}

func (m *memoryBackend) SetMembers(key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	members := make([]string, 0, len(m.sets[key]))
	for member := range m.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func (m *memoryBackend) SetCard(key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return 0, backend.ErrClosed
	}
	return len(m.sets[key]), nil
}

// --------------------------------------------------------------------------
// Sorted-Set Operations
// --------------------------------------------------------------------------

func (m *memoryBackend) SortedSetAdd(key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	zset, ok := m.zsets[key]
	if !ok {
		zset = make(map[string]scored)
		m.zsets[key] = zset
	}
	m.seq++
	zset[member] = scored{score: score, seq: m.seq}
	return nil
}

func (m *memoryBackend) SortedSetRemove(key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	zset, ok := m.zsets[key]
	if !ok {
		return nil
	}
	delete(zset, member)
	if len(zset) == 0 {
		delete(m.zsets, key)
	}
	return nil
}

// rankedEntry pairs a member with its sorted-set entry for ranking.
type rankedEntry struct {
	member string
	entry  scored
}

// rankedAsc returns the members of a sorted set ordered by (score, seq)
// ascending. Must be called with at least the read lock held.
func (m *memoryBackend) rankedAsc(key string) []rankedEntry {
	zset := m.zsets[key]
	ranked := make([]rankedEntry, 0, len(zset))
	for member, entry := range zset {
		ranked = append(ranked, rankedEntry{member, entry})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].entry.score != ranked[j].entry.score {
			return ranked[i].entry.score < ranked[j].entry.score
		}
		return ranked[i].entry.seq < ranked[j].entry.seq
	})
	return ranked
}

func (m *memoryBackend) SortedSetRangeByScore(key string, min, max backend.ScoreBound) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	// Linear filter; fine for the small working sets this backend targets
	members := make([]string, 0)
	for _, r := range m.rankedAsc(key) {
		if min.Contains(r.entry.score, max) {
			members = append(members, r.member)
		}
	}
	return members, nil
}

func (m *memoryBackend) SortedSetRange(key string, start, stop int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	ranked := m.rankedAsc(key)
	lo, hi, ok := backend.PositionSlice(len(ranked), start, stop)
	if !ok {
		return []string{}, nil
	}
	members := make([]string, 0, hi-lo)
	for _, r := range ranked[lo:hi] {
		members = append(members, r.member)
	}
	return members, nil
}

func (m *memoryBackend) SortedSetRevRange(key string, start, stop int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	ranked := m.rankedAsc(key)
	// Positions apply to the descending order, so reverse first
	for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
	lo, hi, ok := backend.PositionSlice(len(ranked), start, stop)
	if !ok {
		return []string{}, nil
	}
	members := make([]string, 0, hi-lo)
	for _, r := range ranked[lo:hi] {
		members = append(members, r.member)
	}
	return members, nil
}

// --------------------------------------------------------------------------
// Batch Operations
// --------------------------------------------------------------------------

func (m *memoryBackend) MultiGet(keys []string) ([]backend.Value, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	values := make([]backend.Value, len(keys))
	for i, key := range keys {
		if value, ok := m.scalars[key]; ok {
			data := make([]byte, len(value))
			copy(data, value)
			values[i] = backend.Value{Data: data, Found: true}
		}
	}
	return values, nil
}

func (m *memoryBackend) MultiSet(entries []backend.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return backend.ErrClosed
	}

	for _, entry := range entries {
		stored := make([]byte, len(entry.Value))
		copy(stored, entry.Value)
		m.scalars[entry.Key] = stored
	}
	return nil
}

// --------------------------------------------------------------------------
// Scan, Liveness and Metadata
// --------------------------------------------------------------------------

func (m *memoryBackend) Keys(pattern string) ([]string, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, backend.ErrClosed
	}

	seen := make(map[string]struct{})
	keys := make([]string, 0)
	collect := func(key string) {
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		if matcher.Match(key) {
			keys = append(keys, key)
		}
	}
	for key := range m.scalars {
		collect(key)
	}
	for key := range m.sets {
		collect(key)
	}
	for key := range m.zsets {
		collect(key)
	}

	sort.Strings(keys)
	return keys, nil
}

func (m *memoryBackend) Ping() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", backend.ErrClosed
	}
	return backend.Pong, nil
}

func (m *memoryBackend) Info() backend.BackendInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Estimated footprint: 2 bytes per character plus a fixed overhead per
	// sorted-set entry. Diagnostics only; there is no eviction policy.
	size := 0
	for key, value := range m.scalars {
		size += bytesPerChar * (len(key) + len(value))
	}
	for key, set := range m.sets {
		size += bytesPerChar * len(key)
		for member := range set {
			size += bytesPerChar * len(member)
		}
	}
	for key, zset := range m.zsets {
		size += bytesPerChar * len(key)
		for member := range zset {
			size += bytesPerChar*len(member) + sortedEntryOverhead
		}
	}

	meta := &struct {
		ScalarKeys    int `json:"scalar_keys"`
		SetKeys       int `json:"set_keys"`
		SortedSetKeys int `json:"sorted_set_keys"`
	}{
		ScalarKeys:    len(m.scalars),
		SetKeys:       len(m.sets),
		SortedSetKeys: len(m.zsets),
	}

	return backend.BackendInfo{
		Name:      backendName,
		Version:   backendVersion,
		SizeBytes: size,
		Features: []backend.Feature{
			backend.FeatureScalar, backend.FeatureSet, backend.FeatureSortedSet,
			backend.FeatureBatch, backend.FeatureScan,
		},
		Metadata: meta,
	}
}

func (m *memoryBackend) SupportsFeature(feature backend.Feature) bool {
	supported := backend.FeatureScalar |
		backend.FeatureSet |
		backend.FeatureSortedSet |
		backend.FeatureBatch |
		backend.FeatureScan
	return supported&feature == feature
}

func (m *memoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.scalars = nil
	m.sets = nil
	m.zsets = nil
	return nil
}
