package badgerbk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/glob"
)

// Constants for backend identity and key layout
const (
	backendName    = "badger"
	backendVersion = "1.0.0"

	seqName      = "strata-zseq"
	seqBandwidth = 128
)

// Key namespaces. Every physical key starts with a one-byte kind tag
// followed by a NUL separator; logical keys and members must not contain
// NUL bytes (see package doc).
var (
	nsScalar  = []byte("s\x00") // s \0 key                      -> value
	nsSet     = []byte("m\x00") // m \0 key \0 member            -> (empty)
	nsZMember = []byte("x\x00") // x \0 key \0 member            -> scorebits seq
	nsZScore  = []byte("z\x00") // z \0 key \0 scorebits seq     -> member
)

// badgerBackend implements backend.Backend on BadgerDB. Sorted sets keep a
// score index whose physical keys sort by (score, insertion sequence), so
// score range queries are native ordered iterations instead of full scans.
type badgerBackend struct {
	db       *badger.DB
	seq      *badger.Sequence
	dir      string
	inMemory bool
	logger   *slog.Logger
}

var _ backend.Backend = (*badgerBackend)(nil)

// badgerLogAdapter routes badger's internal logging through slog.
type badgerLogAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLogAdapter)(nil)

func (l *badgerLogAdapter) Errorf(msg string, args ...any) {
	l.logger.Error(fmt.Sprintf(msg, args...))
}

func (l *badgerLogAdapter) Warningf(msg string, args ...any) {
	l.logger.Warn(fmt.Sprintf(msg, args...))
}

func (l *badgerLogAdapter) Infof(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

func (l *badgerLogAdapter) Debugf(msg string, args ...any) {
	l.logger.Debug(fmt.Sprintf(msg, args...))
}

// Open opens a badger-backed backend at path, creating the directory if
// needed. With inMemory=true no files are written; this mode is meant for
// tests that need the badger code paths without a disk footprint.
func Open(path string, inMemory bool) (backend.Backend, error) {
	var opts badger.Options
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("badgerbk: cannot create data dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &badgerLogAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badgerbk: open failed: %w", err)
	}

	seq, err := db.GetSequence([]byte(seqName), seqBandwidth)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("badgerbk: cannot create sequence: %w", err)
	}

	return &badgerBackend{
		db:       db,
		seq:      seq,
		dir:      path,
		inMemory: inMemory,
		logger:   slog.Default(),
	}, nil
}

// --------------------------------------------------------------------------
// Key Encoding
// --------------------------------------------------------------------------

// checkNoNul rejects keys and members containing the NUL separator byte.
// Accepting them would corrupt the physical key layout and later misreport
// a truncated key in scans.
func checkNoNul(parts ...string) error {
	for _, part := range parts {
		if strings.IndexByte(part, 0) >= 0 {
			return fmt.Errorf("badgerbk: %q contains a NUL byte", part)
		}
	}
	return nil
}

func scalarKey(key string) []byte {
	return append(append([]byte{}, nsScalar...), key...)
}

// kindPrefix builds "<ns> key \0", the physical prefix shared by all
// entries of one kind under a logical key.
func kindPrefix(ns []byte, key string) []byte {
	buf := make([]byte, 0, len(ns)+len(key)+1)
	buf = append(buf, ns...)
	buf = append(buf, key...)
	return append(buf, 0)
}

func memberKey(ns []byte, key, member string) []byte {
	return append(kindPrefix(ns, key), member...)
}

// encodeScore maps a float64 to a uint64 whose unsigned big-endian byte
// order equals the numeric order of the original scores.
func encodeScore(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits>>63 == 1 {
		return ^bits
	}
	return bits | (1 << 63)
}

func decodeScore(u uint64) float64 {
	if u>>63 == 1 {
		return math.Float64frombits(u &^ (1 << 63))
	}
	return math.Float64frombits(^u)
}

// scoreKey builds "z \0 key \0 scorebits seq"; the suffix makes equal-score
// entries unique and keeps their insertion order stable.
func scoreKey(key string, scoreBits, seq uint64) []byte {
	buf := kindPrefix(nsZScore, key)
	var suffix [16]byte
	binary.BigEndian.PutUint64(suffix[:8], scoreBits)
	binary.BigEndian.PutUint64(suffix[8:], seq)
	return append(buf, suffix[:]...)
}

// --------------------------------------------------------------------------
// Scalar Operations
// --------------------------------------------------------------------------

func (b *badgerBackend) Set(key string, value []byte) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(scalarKey(key), value)
	})
}

func (b *badgerBackend) Get(key string) ([]byte, bool, error) {
	if b.db.IsClosed() {
		return nil, false, backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return nil, false, err
	}
	var value []byte
	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(scalarKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("badgerbk: get failed: %w", err)
	}
	return value, found, nil
}

func (b *badgerBackend) Delete(key string) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete(scalarKey(key)); err != nil {
			return err
		}
		// clear set and sorted-set state stored under the same key
		for _, prefix := range [][]byte{
			kindPrefix(nsSet, key),
			kindPrefix(nsZMember, key),
			kindPrefix(nsZScore, key),
		} {
			doomed, err := collectKeys(txn, prefix)
			if err != nil {
				return err
			}
			for _, physical := range doomed {
				if err := txn.Delete(physical); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (b *badgerBackend) Exists(key string) (bool, error) {
	if b.db.IsClosed() {
		return false, backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return false, err
	}
	exists := false
	err := b.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(scalarKey(key)); err == nil {
			exists = true
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		for _, prefix := range [][]byte{kindPrefix(nsSet, key), kindPrefix(nsZMember, key)} {
			if hasPrefix(txn, prefix) {
				exists = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("badgerbk: exists failed: %w", err)
	}
	return exists, nil
}

// --------------------------------------------------------------------------
// Set Operations
// --------------------------------------------------------------------------

func (b *badgerBackend) SetAdd(key, member string) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key, member); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(memberKey(nsSet, key, member), nil)
	})
}

func (b *badgerBackend) SetRemove(key, member string) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key, member); err != nil {
		return err
	}
	// members are individual physical keys, so an emptied set simply has no
	// entries left and disappears from Exists/SetCard on its own
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(memberKey(nsSet, key, member))
	})
}

func (b *badgerBackend) SetMembers(key string) ([]string, error) {
	if b.db.IsClosed() {
		return nil, backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return nil, err
	}
	prefix := kindPrefix(nsSet, key)
	members := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(item *badger.Item) error {
			members = append(members, string(item.Key()[len(prefix):]))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbk: set members failed: %w", err)
	}
	return members, nil
}

func (b *badgerBackend) SetCard(key string) (int, error) {
	members, err := b.SetMembers(key)
	if err != nil {
		return 0, err
	}
	return len(members), nil
}

// --------------------------------------------------------------------------
// Sorted-Set Operations
// --------------------------------------------------------------------------

func (b *badgerBackend) SortedSetAdd(key string, score float64, member string) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key, member); err != nil {
		return err
	}
	seq, err := b.seq.Next()
	if err != nil {
		return fmt.Errorf("badgerbk: sequence failed: %w", err)
	}

	return b.db.Update(func(txn *badger.Txn) error {
		lookupKey := memberKey(nsZMember, key, member)

		// re-adding a member replaces its score index entry
		if item, err := txn.Get(lookupKey); err == nil {
			old, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			oldBits := binary.BigEndian.Uint64(old[:8])
			oldSeq := binary.BigEndian.Uint64(old[8:])
			if err := txn.Delete(scoreKey(key, oldBits, oldSeq)); err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		bits := encodeScore(score)
		var value [16]byte
		binary.BigEndian.PutUint64(value[:8], bits)
		binary.BigEndian.PutUint64(value[8:], seq)
		if err := txn.Set(lookupKey, value[:]); err != nil {
			return err
		}
		return txn.Set(scoreKey(key, bits, seq), []byte(member))
	})
}

func (b *badgerBackend) SortedSetRemove(key, member string) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	if err := checkNoNul(key, member); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		lookupKey := memberKey(nsZMember, key, member)
		item, err := txn.Get(lookupKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		value, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		bits := binary.BigEndian.Uint64(value[:8])
		seq := binary.BigEndian.Uint64(value[8:])
		if err := txn.Delete(scoreKey(key, bits, seq)); err != nil {
			return err
		}
		return txn.Delete(lookupKey)
	})
}

func (b *badgerBackend) SortedSetRangeByScore(key string, min, max backend.ScoreBound) ([]string, error) {
	if b.db.IsClosed() {
		return nil, backend.ErrClosed
	}
	if err := checkNoNul(key); err != nil {
		return nil, err
	}
	if min.IsPosInf() || max.IsNegInf() {
		return []string{}, nil
	}

	prefix := kindPrefix(nsZScore, key)
	members := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// seek straight to the lower bound; the score index is ordered
		start := prefix
		if !min.IsNegInf() {
			start = scoreKey(key, encodeScore(min.Value()), 0)
		}
		for it.Seek(start); it.Valid(); it.Next() {
			item := it.Item()
			bits := binary.BigEndian.Uint64(item.Key()[len(prefix) : len(prefix)+8])
			score := decodeScore(bits)
			if !max.IsPosInf() && score > max.Value() {
				break
			}
			member, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			members = append(members, string(member))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbk: range by score failed: %w", err)
	}
	return members, nil
}

// rankedAsc returns all members of a sorted set in score order.
func (b *badgerBackend) rankedAsc(key string) ([]string, error) {
	if err := checkNoNul(key); err != nil {
		return nil, err
	}
	prefix := kindPrefix(nsZScore, key)
	members := make([]string, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix, func(item *badger.Item) error {
			member, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			members = append(members, string(member))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbk: range failed: %w", err)
	}
	return members, nil
}

func (b *badgerBackend) SortedSetRange(key string, start, stop int) ([]string, error) {
	if b.db.IsClosed() {
		return nil, backend.ErrClosed
	}
	ranked, err := b.rankedAsc(key)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := backend.PositionSlice(len(ranked), start, stop)
	if !ok {
		return []string{}, nil
	}
	return ranked[lo:hi], nil
}

func (b *badgerBackend) SortedSetRevRange(key string, start, stop int) ([]string, error) {
	if b.db.IsClosed() {
		return nil, backend.ErrClosed
	}
	ranked, err := b.rankedAsc(key)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(ranked)-1; i < j; i, j = i+1, j-1 {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	}
	lo, hi, ok := backend.PositionSlice(len(ranked), start, stop)
	if !ok {
		return []string{}, nil
	}
	return ranked[lo:hi], nil
}

// --------------------------------------------------------------------------
// Batch Operations
// --------------------------------------------------------------------------

func (b *badgerBackend) MultiGet(keys []string) ([]backend.Value, error) {
	if b.db.IsClosed() {
		return nil, backend.ErrClosed
	}
	if err := checkNoNul(keys...); err != nil {
		return nil, err
	}
	values := make([]backend.Value, len(keys))
	err := b.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			item, err := txn.Get(scalarKey(key))
			if err == badger.ErrKeyNotFound {
				continue
			}
			if err != nil {
				return err
			}
			data, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			values[i] = backend.Value{Data: data, Found: true}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbk: multi get failed: %w", err)
	}
	return values, nil
}

func (b *badgerBackend) MultiSet(entries []backend.Entry) error {
	if b.db.IsClosed() {
		return backend.ErrClosed
	}
	for _, entry := range entries {
		if err := checkNoNul(entry.Key); err != nil {
			return err
		}
	}
	// per-key upsert semantics; a write batch may be split internally, so
	// this is deliberately not advertised as a transaction
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	for _, entry := range entries {
		if err := wb.Set(scalarKey(entry.Key), entry.Value); err != nil {
			return fmt.Errorf("badgerbk: multi set failed: %w", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("badgerbk: multi set failed: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Scan, Liveness and Metadata
// --------------------------------------------------------------------------

func (b *badgerBackend) Keys(pattern string) ([]string, error) {
	matcher, err := glob.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if b.db.IsClosed() {
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

	err = b.db.View(func(txn *badger.Txn) error {
		// scalar keys: everything after the namespace tag
		if err := scanPrefix(txn, nsScalar, func(item *badger.Item) error {
			collect(string(item.Key()[len(nsScalar):]))
			return nil
		}); err != nil {
			return err
		}
		// set and sorted-set keys: the segment up to the next separator
		for _, ns := range [][]byte{nsSet, nsZMember} {
			if err := scanPrefix(txn, ns, func(item *badger.Item) error {
				rest := item.Key()[len(ns):]
				if cut := bytes.IndexByte(rest, 0); cut >= 0 {
					collect(string(rest[:cut]))
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbk: scan failed: %w", err)
	}

	sort.Strings(keys)
	return keys, nil
}

func (b *badgerBackend) Ping() (string, error) {
	if b.db.IsClosed() {
		return "", backend.ErrClosed
	}
	return backend.Pong, nil
}

func (b *badgerBackend) Info() backend.BackendInfo {
	lsm, vlog := b.db.Size()

	meta := &struct {
		Dir      string `json:"dir,omitempty"`
		InMemory bool   `json:"in_memory"`
	}{
		Dir:      b.dir,
		InMemory: b.inMemory,
	}

	return backend.BackendInfo{
		Name:      backendName,
		Version:   backendVersion,
		SizeBytes: int(lsm + vlog),
		Features: []backend.Feature{
			backend.FeatureScalar, backend.FeatureSet, backend.FeatureSortedSet,
			backend.FeatureBatch, backend.FeatureScan, backend.FeaturePersistence,
		},
		Metadata: meta,
	}
}

func (b *badgerBackend) SupportsFeature(feature backend.Feature) bool {
	supported := backend.FeatureScalar |
		backend.FeatureSet |
		backend.FeatureSortedSet |
		backend.FeatureBatch |
		backend.FeatureScan |
		backend.FeaturePersistence
	return supported&feature == feature
}

func (b *badgerBackend) Close() error {
	if b.db.IsClosed() {
		return nil
	}
	if err := b.seq.Release(); err != nil {
		b.logger.Warn("releasing sorted-set sequence failed", "err", err)
	}
	return b.db.Close()
}

// --------------------------------------------------------------------------
// Iteration Helpers
// --------------------------------------------------------------------------

// scanPrefix visits every item whose key starts with prefix.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		if err := fn(it.Item()); err != nil {
			return err
		}
	}
	return nil
}

// collectKeys returns copies of all physical keys under a prefix.
func collectKeys(txn *badger.Txn, prefix []byte) ([][]byte, error) {
	keys := make([][]byte, 0)
	err := scanPrefix(txn, prefix, func(item *badger.Item) error {
		keys = append(keys, item.KeyCopy(nil))
		return nil
	})
	return keys, err
}

// hasPrefix reports whether at least one physical key exists under prefix.
func hasPrefix(txn *badger.Txn, prefix []byte) bool {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)
	defer it.Close()
	it.Rewind()
	return it.Valid()
}
