package testing

import (
	"bytes"
	"reflect"
	"sort"
	"testing"

	"github.com/mjansen/strata/lib/backend"
)

// BackendFactory is a function that creates a fresh instance of a Backend
// implementation for one test.
type BackendFactory func() backend.Backend

// RunBackendTests runs the conformance suite for a Backend implementation.
// Every backend must pass the whole suite; feature-gated tests are skipped
// when the implementation does not advertise the feature.
func RunBackendTests(t *testing.T, name string, factory BackendFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Scalar", func(t *testing.T) {
			testScalar(t, factory())
		})

		t.Run("DeleteIdempotent", func(t *testing.T) {
			testDeleteIdempotent(t, factory())
		})

		t.Run("Exists", func(t *testing.T) {
			testExists(t, factory())
		})

		t.Run("SetEmptiness", func(t *testing.T) {
			testSetEmptiness(t, factory())
		})

		t.Run("SetMembership", func(t *testing.T) {
			testSetMembership(t, factory())
		})

		t.Run("SortedSetOrdering", func(t *testing.T) {
			testSortedSetOrdering(t, factory())
		})

		t.Run("SortedSetScoreUpdate", func(t *testing.T) {
			testSortedSetScoreUpdate(t, factory())
		})

		t.Run("SortedSetPositions", func(t *testing.T) {
			testSortedSetPositions(t, factory())
		})

		t.Run("Batch", func(t *testing.T) {
			testBatch(t, factory())
		})

		t.Run("KeysPattern", func(t *testing.T) {
			testKeysPattern(t, factory())
		})

		t.Run("DeleteClearsAllKinds", func(t *testing.T) {
			testDeleteClearsAllKinds(t, factory())
		})

		t.Run("PingAndInfo", func(t *testing.T) {
			testPingAndInfo(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the backend supports the specified feature.
// Skip the test if it is not supported.
func requireFeature(t testing.TB, bk backend.Backend, feature backend.Feature) {
	if !bk.SupportsFeature(feature) {
		t.Skip()
	}
}

func mustSucceed(t testing.TB, err error, op string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s failed: %v", op, err)
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testScalar(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureScalar)

	testKey := "test-key"
	testValue1 := []byte("test-value1")
	testValue2 := []byte("test-value2")

	mustSucceed(t, bk.Set(testKey, testValue1), "Set")

	result, found, err := bk.Get(testKey)
	mustSucceed(t, err, "Get")
	if !found {
		t.Errorf("Expected key %s to exist after Set", testKey)
	}
	if !bytes.Equal(result, testValue1) {
		t.Errorf("Expected value %s, got %s", testValue1, result)
	}

	// overwrite
	mustSucceed(t, bk.Set(testKey, testValue2), "Set")
	result, found, err = bk.Get(testKey)
	mustSucceed(t, err, "Get")
	if !found || !bytes.Equal(result, testValue2) {
		t.Errorf("Expected overwritten value %s, got %s (found=%v)", testValue2, result, found)
	}

	// absence is a normal outcome, not an error
	_, found, err = bk.Get("nonexistent-key")
	mustSucceed(t, err, "Get")
	if found {
		t.Errorf("Expected nonexistent key to return found=false")
	}
}

func testDeleteIdempotent(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureScalar)

	mustSucceed(t, bk.Set("doomed", []byte("v")), "Set")
	mustSucceed(t, bk.Delete("doomed"), "Delete")

	if _, found, err := bk.Get("doomed"); err != nil || found {
		t.Errorf("Expected key to be gone after Delete (found=%v, err=%v)", found, err)
	}

	// deleting a non-existent key never fails
	mustSucceed(t, bk.Delete("doomed"), "Delete (again)")
	mustSucceed(t, bk.Delete("never-existed"), "Delete (never existed)")
}

func testExists(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureScalar)

	if ok, err := bk.Exists("ghost"); err != nil || ok {
		t.Errorf("Exists on missing key = (%v, %v), want (false, nil)", ok, err)
	}

	mustSucceed(t, bk.Set("solid", []byte("v")), "Set")
	if ok, err := bk.Exists("solid"); err != nil || !ok {
		t.Errorf("Exists on present key = (%v, %v), want (true, nil)", ok, err)
	}

	if bk.SupportsFeature(backend.FeatureSet) {
		mustSucceed(t, bk.SetAdd("crew", "alice"), "SetAdd")
		if ok, err := bk.Exists("crew"); err != nil || !ok {
			t.Errorf("Exists should see set state = (%v, %v), want (true, nil)", ok, err)
		}
	}
}

func testSetEmptiness(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureSet)

	key := "emptiness"

	mustSucceed(t, bk.SetAdd(key, "m"), "SetAdd")
	mustSucceed(t, bk.SetRemove(key, "m"), "SetRemove")

	card, err := bk.SetCard(key)
	mustSucceed(t, err, "SetCard")
	if card != 0 {
		t.Errorf("Expected cardinality 0 after removing last member, got %d", card)
	}

	members, err := bk.SetMembers(key)
	mustSucceed(t, err, "SetMembers")
	if len(members) != 0 {
		t.Errorf("Expected no members after removing last member, got %v", members)
	}

	// the set storage itself must be gone
	if ok, _ := bk.Exists(key); ok {
		t.Errorf("Expected empty set to be removed entirely")
	}
}

func testSetMembership(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureSet)

	key := "crew"
	for _, member := range []string{"alice", "bob", "alice"} { // duplicate add is a no-op
		mustSucceed(t, bk.SetAdd(key, member), "SetAdd")
	}

	card, err := bk.SetCard(key)
	mustSucceed(t, err, "SetCard")
	if card != 2 {
		t.Errorf("Expected cardinality 2, got %d", card)
	}

	members, err := bk.SetMembers(key)
	mustSucceed(t, err, "SetMembers")
	if got := sortedCopy(members); !reflect.DeepEqual(got, []string{"alice", "bob"}) {
		t.Errorf("Expected members [alice bob], got %v", got)
	}

	// removing an absent member is a no-op
	mustSucceed(t, bk.SetRemove(key, "charlie"), "SetRemove (absent)")
	if card, _ := bk.SetCard(key); card != 2 {
		t.Errorf("Removing an absent member changed cardinality to %d", card)
	}
}

func testSortedSetOrdering(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureSortedSet)

	key := "ranking"
	mustSucceed(t, bk.SortedSetAdd(key, 1, "a"), "SortedSetAdd")
	mustSucceed(t, bk.SortedSetAdd(key, 3, "b"), "SortedSetAdd")
	mustSucceed(t, bk.SortedSetAdd(key, 2, "c"), "SortedSetAdd")

	asc, err := bk.SortedSetRange(key, 0, -1)
	mustSucceed(t, err, "SortedSetRange")
	if !reflect.DeepEqual(asc, []string{"a", "c", "b"}) {
		t.Errorf("Expected ascending order [a c b], got %v", asc)
	}

	desc, err := bk.SortedSetRevRange(key, 0, -1)
	mustSucceed(t, err, "SortedSetRevRange")
	if !reflect.DeepEqual(desc, []string{"b", "c", "a"}) {
		t.Errorf("Expected descending order [b c a], got %v", desc)
	}

	mid, err := bk.SortedSetRangeByScore(key, backend.Score(2), backend.Score(3))
	mustSucceed(t, err, "SortedSetRangeByScore")
	if !reflect.DeepEqual(mid, []string{"c", "b"}) {
		t.Errorf("Expected score range [c b], got %v", mid)
	}

	all, err := bk.SortedSetRangeByScore(key, backend.NegInf(), backend.PosInf())
	mustSucceed(t, err, "SortedSetRangeByScore (inf)")
	if !reflect.DeepEqual(all, []string{"a", "c", "b"}) {
		t.Errorf("Expected infinity bounds to return everything ascending, got %v", all)
	}
}

func testSortedSetScoreUpdate(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureSortedSet)

	key := "scores"
	mustSucceed(t, bk.SortedSetAdd(key, 1, "a"), "SortedSetAdd")
	mustSucceed(t, bk.SortedSetAdd(key, 2, "b"), "SortedSetAdd")

	// re-adding updates the score, it must not duplicate the member
	mustSucceed(t, bk.SortedSetAdd(key, 3, "a"), "SortedSetAdd (update)")

	got, err := bk.SortedSetRange(key, 0, -1)
	mustSucceed(t, err, "SortedSetRange")
	if !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Expected [b a] after score update, got %v", got)
	}

	mustSucceed(t, bk.SortedSetRemove(key, "a"), "SortedSetRemove")
	got, err = bk.SortedSetRange(key, 0, -1)
	mustSucceed(t, err, "SortedSetRange")
	if !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Expected [b] after remove, got %v", got)
	}

	// removing the last member removes the sorted set
	mustSucceed(t, bk.SortedSetRemove(key, "b"), "SortedSetRemove")
	if ok, _ := bk.Exists(key); ok {
		t.Errorf("Expected empty sorted set to be removed entirely")
	}
}

func testSortedSetPositions(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureSortedSet)

	key := "positions"
	for i, member := range []string{"a", "b", "c", "d", "e"} {
		mustSucceed(t, bk.SortedSetAdd(key, float64(i), member), "SortedSetAdd")
	}

	cases := []struct {
		start, stop int
		want        []string
	}{
		{0, -1, []string{"a", "b", "c", "d", "e"}},
		{1, 3, []string{"b", "c", "d"}}, // stop is inclusive
		{0, 0, []string{"a"}},
		{3, 100, []string{"d", "e"}}, // stop past the end clamps
		{-2, -1, []string{"d", "e"}}, // negatives count from the end
		{4, 2, []string{}},           // inverted range is empty
		{10, 20, []string{}},         // start past the end is empty
	}
	for _, tc := range cases {
		got, err := bk.SortedSetRange(key, tc.start, tc.stop)
		mustSucceed(t, err, "SortedSetRange")
		if !reflect.DeepEqual(got, tc.want) {
			t.Errorf("SortedSetRange(%d, %d) = %v, want %v", tc.start, tc.stop, got, tc.want)
		}
	}

	rev, err := bk.SortedSetRevRange(key, 0, 1)
	mustSucceed(t, err, "SortedSetRevRange")
	if !reflect.DeepEqual(rev, []string{"e", "d"}) {
		t.Errorf("SortedSetRevRange(0, 1) = %v, want [e d]", rev)
	}

	// a missing key yields an empty result, not an error
	empty, err := bk.SortedSetRange("no-such-zset", 0, -1)
	mustSucceed(t, err, "SortedSetRange (missing)")
	if len(empty) != 0 {
		t.Errorf("Expected empty range for missing key, got %v", empty)
	}
}

func testBatch(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureBatch)

	mustSucceed(t, bk.MultiSet([]backend.Entry{
		{Key: "k1", Value: []byte("v1")},
		{Key: "k2", Value: []byte("v2")},
	}), "MultiSet")

	// order and absence markers must be preserved
	values, err := bk.MultiGet([]string{"k1", "missing", "k2"})
	mustSucceed(t, err, "MultiGet")
	if len(values) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(values))
	}
	if !values[0].Found || !bytes.Equal(values[0].Data, []byte("v1")) {
		t.Errorf("Expected v1 at position 0, got %+v", values[0])
	}
	if values[1].Found {
		t.Errorf("Expected absent marker at position 1, got %+v", values[1])
	}
	if !values[2].Found || !bytes.Equal(values[2].Data, []byte("v2")) {
		t.Errorf("Expected v2 at position 2, got %+v", values[2])
	}
}

func testKeysPattern(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureScan)

	for _, key := range []string{"item1", "item2", "item10", "other"} {
		mustSucceed(t, bk.Set(key, []byte("v")), "Set")
	}

	all, err := bk.Keys("*")
	mustSucceed(t, err, "Keys")
	if got := sortedCopy(all); !reflect.DeepEqual(got, []string{"item1", "item10", "item2", "other"}) {
		t.Errorf(`Keys("*") = %v, want every key`, got)
	}

	// "?" matches exactly one character
	narrow, err := bk.Keys("item?")
	mustSucceed(t, err, "Keys")
	if got := sortedCopy(narrow); !reflect.DeepEqual(got, []string{"item1", "item2"}) {
		t.Errorf(`Keys("item?") = %v, want [item1 item2]`, got)
	}

	prefixed, err := bk.Keys("item*")
	mustSucceed(t, err, "Keys")
	if got := sortedCopy(prefixed); !reflect.DeepEqual(got, []string{"item1", "item10", "item2"}) {
		t.Errorf(`Keys("item*") = %v, want [item1 item10 item2]`, got)
	}

	// set and sorted-set keys are part of the key space too
	if bk.SupportsFeature(backend.FeatureSet) {
		mustSucceed(t, bk.SetAdd("itemX", "m"), "SetAdd")
		withSet, err := bk.Keys("item?")
		mustSucceed(t, err, "Keys")
		if got := sortedCopy(withSet); !reflect.DeepEqual(got, []string{"item1", "item2", "itemX"}) {
			t.Errorf(`Keys("item?") after SetAdd = %v, want [item1 item2 itemX]`, got)
		}
	}

	// keys are arbitrary strings; a newline must not hide one from a scan
	mustSucceed(t, bk.Set("line1\nline2", []byte("v")), "Set")
	withNewline, err := bk.Keys("*")
	mustSucceed(t, err, "Keys")
	found := false
	for _, key := range withNewline {
		if key == "line1\nline2" {
			found = true
		}
	}
	if !found {
		t.Errorf(`Keys("*") = %v, must include the newline-bearing key`, withNewline)
	}

	if _, err := bk.Keys(`broken\`); err == nil {
		t.Errorf("Expected error for invalid pattern")
	}
}

func testDeleteClearsAllKinds(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	requireFeature(t, bk, backend.FeatureScalar|backend.FeatureSet|backend.FeatureSortedSet)

	key := "hybrid"
	mustSucceed(t, bk.Set(key, []byte("scalar")), "Set")
	mustSucceed(t, bk.SetAdd(key, "member"), "SetAdd")
	mustSucceed(t, bk.SortedSetAdd(key, 1, "ranked"), "SortedSetAdd")

	mustSucceed(t, bk.Delete(key), "Delete")

	if _, found, _ := bk.Get(key); found {
		t.Errorf("Delete left scalar state behind")
	}
	if card, _ := bk.SetCard(key); card != 0 {
		t.Errorf("Delete left set state behind (card=%d)", card)
	}
	if members, _ := bk.SortedSetRange(key, 0, -1); len(members) != 0 {
		t.Errorf("Delete left sorted-set state behind (%v)", members)
	}
	if ok, _ := bk.Exists(key); ok {
		t.Errorf("Delete left the key visible")
	}
}

func testPingAndInfo(t *testing.T, bk backend.Backend) {
	defer bk.Close()

	ack, err := bk.Ping()
	mustSucceed(t, err, "Ping")
	if ack != backend.Pong {
		t.Errorf("Ping = %q, want %q", ack, backend.Pong)
	}

	info := bk.Info()
	if info.Name == "" {
		t.Errorf("Info must report a backend name")
	}
	if info.Version == "" {
		t.Errorf("Info must report a version")
	}
	if len(info.Features) == 0 {
		t.Errorf("Info must report capabilities")
	}
	for _, feature := range info.Features {
		if !bk.SupportsFeature(feature) {
			t.Errorf("Info advertises %s but SupportsFeature denies it", feature)
		}
	}
}
