package respiratory

import (
	"errors"
	"fmt"
	"testing"
)

func TestFingerprintIsStable(t *testing.T) {
	t.Parallel()

	a := Fingerprint([]byte("breath"))
	b := Fingerprint([]byte("breath"))
	c := Fingerprint([]byte("breath2"))

	if a != b {
		t.Fatalf("identical payloads produced different fingerprints: %s vs %s", a, b)
	}
	if a == c {
		t.Fatal("different payloads produced the same fingerprint")
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex characters", len(a))
	}
}

func TestPredictionCacheEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(3)
	for i := 0; i < 3; i++ {
		cache.Set(fmt.Sprintf("fp-%d", i), &ClassificationResult{Prediction: fmt.Sprintf("class-%d", i)})
	}

	// Touch fp-0 so fp-1 becomes the eviction candidate.
	if _, ok := cache.Get("fp-0"); !ok {
		t.Fatal("fp-0 missing before eviction")
	}

	cache.Set("fp-3", &ClassificationResult{Prediction: "class-3"})

	if cache.Len() != 3 {
		t.Fatalf("cache holds %d entries, want capacity 3", cache.Len())
	}
	if _, ok := cache.Get("fp-1"); ok {
		t.Fatal("least-recently-used entry fp-1 survived eviction")
	}
	for _, fp := range []string{"fp-0", "fp-2", "fp-3"} {
		if _, ok := cache.Get(fp); !ok {
			t.Fatalf("expected %s to remain cached", fp)
		}
	}
}

func TestPredictionCacheUpdateDoesNotGrow(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(2)
	cache.Set("fp", &ClassificationResult{Prediction: "first"})
	cache.Set("fp", &ClassificationResult{Prediction: "second"})

	if cache.Len() != 1 {
		t.Fatalf("cache holds %d entries after update, want 1", cache.Len())
	}
	result, ok := cache.Get("fp")
	if !ok {
		t.Fatal("updated entry missing")
	}
	if result.Prediction != "second" {
		t.Fatalf("entry holds %s, want the updated result", result.Prediction)
	}
}

func TestGetOrComputeSkipsComputeOnHit(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(4)
	calls := 0
	compute := func() (*ClassificationResult, error) {
		calls++
		return &ClassificationResult{Prediction: "Healthy"}, nil
	}

	result, hit, err := cache.GetOrCompute("fp", compute)
	if err != nil {
		t.Fatalf("GetOrCompute returned error: %v", err)
	}
	if hit {
		t.Fatal("first lookup reported a hit")
	}
	if result.Prediction != "Healthy" {
		t.Fatalf("unexpected result %s", result.Prediction)
	}

	result, hit, err = cache.GetOrCompute("fp", compute)
	if err != nil {
		t.Fatalf("GetOrCompute returned error: %v", err)
	}
	if !hit {
		t.Fatal("second lookup missed")
	}
	if result.Prediction != "Healthy" {
		t.Fatalf("unexpected cached result %s", result.Prediction)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times, want 1", calls)
	}
}

func TestGetOrComputeNeverCachesErrors(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(4)
	boom := errors.New("boom")
	calls := 0

	for i := 0; i < 2; i++ {
		_, _, err := cache.GetOrCompute("fp", func() (*ClassificationResult, error) {
			calls++
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected compute error, got %v", err)
		}
	}

	if calls != 2 {
		t.Fatalf("compute ran %d times, want 2 (errors must not be cached)", calls)
	}
	if cache.Len() != 0 {
		t.Fatalf("cache holds %d entries after failed computes, want 0", cache.Len())
	}
}

func TestPredictionCacheStats(t *testing.T) {
	t.Parallel()

	cache := NewPredictionCache(2)
	cache.Set("fp", &ClassificationResult{Prediction: "COPD"})

	cache.Get("fp")
	cache.Get("fp")
	cache.Get("absent")

	hits, misses := cache.Stats()
	if hits != 2 || misses != 1 {
		t.Fatalf("stats = %d hits / %d misses, want 2 / 1", hits, misses)
	}
}
