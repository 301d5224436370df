package badgerbk

import (
	"bytes"
	"testing"

	"github.com/mjansen/strata/lib/backend"
	bktesting "github.com/mjansen/strata/lib/backend/testing"
)

func Test(t *testing.T) {
	bktesting.RunBackendTests(t, "Badger", func() backend.Backend {
		bk, err := Open("", true)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		return bk
	})
}

func TestInfoReportsPersistence(t *testing.T) {
	bk, err := Open("", true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer bk.Close()

	if bk.Info().Name != "badger" {
		t.Errorf("Info().Name = %q, want %q", bk.Info().Name, "badger")
	}
	if !bk.SupportsFeature(backend.FeaturePersistence) {
		t.Errorf("badger backend must advertise persistence")
	}
}

func TestDataSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	bk, err := Open(dir, false)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := bk.Set("persisted", []byte("still here")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := bk.SortedSetAdd("board", 2, "beta"); err != nil {
		t.Fatalf("SortedSetAdd failed: %v", err)
	}
	if err := bk.SortedSetAdd("board", 1, "alpha"); err != nil {
		t.Fatalf("SortedSetAdd failed: %v", err)
	}
	if err := bk.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	bk, err = Open(dir, false)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer bk.Close()

	value, found, err := bk.Get("persisted")
	if err != nil || !found {
		t.Fatalf("Get after reopen = (found=%v, err=%v)", found, err)
	}
	if !bytes.Equal(value, []byte("still here")) {
		t.Errorf("Get after reopen = %q, want %q", value, "still here")
	}

	ranked, err := bk.SortedSetRange("board", 0, -1)
	if err != nil {
		t.Fatalf("SortedSetRange after reopen failed: %v", err)
	}
	if len(ranked) != 2 || ranked[0] != "alpha" || ranked[1] != "beta" {
		t.Errorf("SortedSetRange after reopen = %v, want [alpha beta]", ranked)
	}
}

func TestRejectsNulBytes(t *testing.T) {
	bk, err := Open("", true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer bk.Close()

	nulKey := "a\x00b"

	if err := bk.Set(nulKey, []byte("v")); err == nil {
		t.Errorf("Set must reject a NUL-bearing key")
	}
	if _, _, err := bk.Get(nulKey); err == nil {
		t.Errorf("Get must reject a NUL-bearing key")
	}
	if err := bk.Delete(nulKey); err == nil {
		t.Errorf("Delete must reject a NUL-bearing key")
	}
	if _, err := bk.Exists(nulKey); err == nil {
		t.Errorf("Exists must reject a NUL-bearing key")
	}
	if err := bk.SetAdd(nulKey, "m"); err == nil {
		t.Errorf("SetAdd must reject a NUL-bearing key")
	}
	if err := bk.SetAdd("set", nulKey); err == nil {
		t.Errorf("SetAdd must reject a NUL-bearing member")
	}
	if err := bk.SortedSetAdd("rank", 1, nulKey); err == nil {
		t.Errorf("SortedSetAdd must reject a NUL-bearing member")
	}
	if err := bk.MultiSet([]backend.Entry{{Key: nulKey, Value: []byte("v")}}); err == nil {
		t.Errorf("MultiSet must reject a NUL-bearing key")
	}
	if _, err := bk.MultiGet([]string{"fine", nulKey}); err == nil {
		t.Errorf("MultiGet must reject a NUL-bearing key")
	}

	// the rejected writes must not have leaked a truncated key into scans
	keys, err := bk.Keys("*")
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	for _, key := range keys {
		if key == "a" || key == nulKey {
			t.Errorf("rejected NUL-bearing write leaked key %q into the keyspace", key)
		}
	}
}

func TestNegativeScoresOrderCorrectly(t *testing.T) {
	bk, err := Open("", true)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer bk.Close()

	// the score encoding must order negatives below zero below positives
	scores := map[string]float64{"low": -10.5, "zero": 0, "high": 3.25, "lowest": -99}
	for member, score := range scores {
		if err := bk.SortedSetAdd("spread", score, member); err != nil {
			t.Fatalf("SortedSetAdd failed: %v", err)
		}
	}

	ranked, err := bk.SortedSetRange("spread", 0, -1)
	if err != nil {
		t.Fatalf("SortedSetRange failed: %v", err)
	}
	want := []string{"lowest", "low", "zero", "high"}
	for i, member := range want {
		if ranked[i] != member {
			t.Fatalf("SortedSetRange = %v, want %v", ranked, want)
		}
	}

	negatives, err := bk.SortedSetRangeByScore("spread", backend.NegInf(), backend.Score(-1))
	if err != nil {
		t.Fatalf("SortedSetRangeByScore failed: %v", err)
	}
	if len(negatives) != 2 || negatives[0] != "lowest" || negatives[1] != "low" {
		t.Errorf("SortedSetRangeByScore(-inf, -1) = %v, want [lowest low]", negatives)
	}
}
