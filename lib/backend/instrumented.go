package backend

import (
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Instrumented Backend Wrapper
// --------------------------------------------------------------------------

// opStat accumulates call count and cumulative latency for one operation.
// Both counters are striped so hot operations don't contend on a single
// cache line.
type opStat struct {
	count     *xsync.Counter
	latencyNs *xsync.Counter
}

// OpStats is a point-in-time view of one operation's statistics.
type OpStats struct {
	Count      uint64        `json:"count"`
	AvgLatency time.Duration `json:"avg_latency"`
}

// Instrumented wraps any Backend and records per-operation call counts and
// average latencies. It implements Backend itself, so it can be dropped in
// front of any implementation.
type Instrumented struct {
	inner Backend
	ops   *xsync.MapOf[string, *opStat]
}

var _ Backend = (*Instrumented)(nil)

// NewInstrumented wraps a backend with operation statistics.
func NewInstrumented(inner Backend) *Instrumented {
	return &Instrumented{
		inner: inner,
		ops:   xsync.NewMapOf[string, *opStat](),
	}
}

// record adds one sample for the named operation.
func (i *Instrumented) record(op string, start time.Time) {
	stat, _ := i.ops.LoadOrCompute(op, func() *opStat {
		return &opStat{count: xsync.NewCounter(), latencyNs: xsync.NewCounter()}
	})
	stat.count.Inc()
	stat.latencyNs.Add(time.Since(start).Nanoseconds())
}

// Stats returns a snapshot of all recorded operation statistics, keyed by
// operation name.
func (i *Instrumented) Stats() map[string]OpStats {
	snapshot := make(map[string]OpStats)
	i.ops.Range(func(op string, stat *opStat) bool {
		count := stat.count.Value()
		s := OpStats{Count: uint64(count)}
		if count > 0 {
			s.AvgLatency = time.Duration(stat.latencyNs.Value() / count)
		}
		snapshot[op] = s
		return true
	})
	return snapshot
}

// --------------------------------------------------------------------------
// Interface Methods (docu see backend.Backend)
// --------------------------------------------------------------------------

func (i *Instrumented) Set(key string, value []byte) error {
	defer i.record("set", time.Now())
	return i.inner.Set(key, value)
}

func (i *Instrumented) Get(key string) ([]byte, bool, error) {
	defer i.record("get", time.Now())
	return i.inner.Get(key)
}

func (i *Instrumented) Delete(key string) error {
	defer i.record("delete", time.Now())
	return i.inner.Delete(key)
}

func (i *Instrumented) Exists(key string) (bool, error) {
	defer i.record("exists", time.Now())
	return i.inner.Exists(key)
}

func (i *Instrumented) SetAdd(key, member string) error {
	defer i.record("sadd", time.Now())
	return i.inner.SetAdd(key, member)
}

func (i *Instrumented) SetRemove(key, member string) error {
	defer i.record("srem", time.Now())
	return i.inner.SetRemove(key, member)
}

func (i *Instrumented) SetMembers(key string) ([]string, error) {
	defer i.record("smembers", time.Now())
	return i.inner.SetMembers(key)
}

func (i *Instrumented) SetCard(key string) (int, error) {
	defer i.record("scard", time.Now())
	return i.inner.SetCard(key)
}

func (i *Instrumented) SortedSetAdd(key string, score float64, member string) error {
	defer i.record("zadd", time.Now())
	return i.inner.SortedSetAdd(key, score, member)
}

func (i *Instrumented) SortedSetRemove(key, member string) error {
	defer i.record("zrem", time.Now())
	return i.inner.SortedSetRemove(key, member)
}

func (i *Instrumented) SortedSetRangeByScore(key string, min, max ScoreBound) ([]string, error) {
	defer i.record("zrangebyscore", time.Now())
	return i.inner.SortedSetRangeByScore(key, min, max)
}

func (i *Instrumented) SortedSetRange(key string, start, stop int) ([]string, error) {
	defer i.record("zrange", time.Now())
	return i.inner.SortedSetRange(key, start, stop)
}

func (i *Instrumented) SortedSetRevRange(key string, start, stop int) ([]string, error) {
	defer i.record("zrevrange", time.Now())
	return i.inner.SortedSetRevRange(key, start, stop)
}

func (i *Instrumented) MultiGet(keys []string) ([]Value, error) {
	defer i.record("mget", time.Now())
	return i.inner.MultiGet(keys)
}

func (i *Instrumented) MultiSet(entries []Entry) error {
	defer i.record("mset", time.Now())
	return i.inner.MultiSet(entries)
}

func (i *Instrumented) Keys(pattern string) ([]string, error) {
	defer i.record("keys", time.Now())
	return i.inner.Keys(pattern)
}

func (i *Instrumented) Ping() (string, error) {
	defer i.record("ping", time.Now())
	return i.inner.Ping()
}

func (i *Instrumented) Info() BackendInfo {
	return i.inner.Info()
}

func (i *Instrumented) SupportsFeature(feature Feature) bool {
	return i.inner.SupportsFeature(feature)
}

func (i *Instrumented) Close() error {
	return i.inner.Close()
}
