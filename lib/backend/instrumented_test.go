package backend_test

import (
	"testing"

	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/backend/memory"
	bktesting "github.com/mjansen/strata/lib/backend/testing"
)

// The wrapper must be a transparent Backend.
func TestInstrumentedConformance(t *testing.T) {
	bktesting.RunBackendTests(t, "Instrumented(Memory)", func() backend.Backend {
		return backend.NewInstrumented(memory.New())
	})
}

func TestInstrumentedStats(t *testing.T) {
	bk := backend.NewInstrumented(memory.New())
	defer bk.Close()

	if err := bk.Set("k", []byte("v")); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, _, err := bk.Get("k"); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	if _, err := bk.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	stats := bk.Stats()
	if stats["set"].Count != 1 {
		t.Errorf("set count = %d, want 1", stats["set"].Count)
	}
	if stats["get"].Count != 3 {
		t.Errorf("get count = %d, want 3", stats["get"].Count)
	}
	if stats["ping"].Count != 1 {
		t.Errorf("ping count = %d, want 1", stats["ping"].Count)
	}
	if _, ok := stats["delete"]; ok {
		t.Errorf("no delete was issued, stats should not contain one")
	}
}
