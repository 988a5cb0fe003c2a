package ai

import (
	"errors"
	"sync"
	"testing"
)

func newTestPool(t *testing.T, keys ...string) *KeyPool {
	t.Helper()
	pool, err := NewKeyPool(keys)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return pool
}

func TestNewKeyPoolRejectsEmpty(t *testing.T) {
	if _, err := NewKeyPool(nil); !errors.Is(err, ErrNoCredentials) {
		t.Fatalf("expected ErrNoCredentials, got %v", err)
	}
}

func TestAcquirePrefersLeastLoaded(t *testing.T) {
	pool := newTestPool(t, "key-a", "key-b", "key-c")

	// Four acquires without a release must spread over all keys first and
	// only then wrap around to the lowest index.
	want := []int{0, 1, 2, 0}
	for i, expected := range want {
		c, err := pool.Acquire()
		if err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
		if c.Index != expected {
			t.Errorf("acquire %d: expected key %d, got %d", i, expected, c.Index)
		}
	}

	stats := pool.Stats()
	if stats[0].ActiveRequests != 2 || stats[1].ActiveRequests != 1 || stats[2].ActiveRequests != 1 {
		t.Errorf("unexpected load distribution: %+v", stats)
	}
}

func TestReleaseFloorsAtZero(t *testing.T) {
	pool := newTestPool(t, "key-a")

	c, err := pool.Acquire()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pool.Release(c)
	pool.Release(c)
	pool.Release(c)

	if got := pool.Stats()[0].ActiveRequests; got != 0 {
		t.Errorf("expected active requests floored at 0, got %d", got)
	}
}

func TestReleaseIgnoresForeignCredential(t *testing.T) {
	pool := newTestPool(t, "key-a")
	pool.Release(&Credential{Key: "stranger", Index: 7})
	pool.Release(nil)

	if got := pool.Stats()[0].ActiveRequests; got != 0 {
		t.Errorf("expected untouched pool, got active=%d", got)
	}
}

func TestAcquireAvoidsBlockedKey(t *testing.T) {
	pool := newTestPool(t, "key-a", "key-b")

	first, _ := pool.Acquire()
	pool.MarkFailed(first, true)
	pool.Release(first)

	for i := 0; i < 3; i++ {
		c, err := pool.Acquire()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if c.Index == first.Index {
			t.Fatalf("acquire %d selected the blocked key", i)
		}
	}

	stats := pool.Stats()
	if !stats[0].Blocked {
		t.Error("expected key 0 to stay blocked")
	}
	if stats[0].FailedRequests != 1 {
		t.Errorf("expected 1 recorded failure, got %d", stats[0].FailedRequests)
	}
}

func TestUnblockRestoresEligibility(t *testing.T) {
	pool := newTestPool(t, "key-a", "key-b")

	first, _ := pool.Acquire()
	pool.MarkFailed(first, true)
	pool.Release(first)
	pool.Unblock(first)

	// With both keys idle and unblocked the tie-break returns the lowest
	// index again.
	c, err := pool.Acquire()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Index != 0 {
		t.Errorf("expected unblocked key 0 to be selected, got %d", c.Index)
	}
}

func TestAllBlockedFallsBackWithoutUnblocking(t *testing.T) {
	pool := newTestPool(t, "key-a", "key-b")

	for i := 0; i < 2; i++ {
		c, _ := pool.Acquire()
		pool.MarkFailed(c, true)
		pool.Release(c)
	}

	c, err := pool.Acquire()
	if err != nil {
		t.Fatalf("expected degraded-mode acquire to work, got %v", err)
	}
	if c.Index != 0 {
		t.Errorf("expected lowest-index fallback, got %d", c.Index)
	}

	// Degraded mode hands out the key as-is; the blocked flag stays set.
	for _, s := range pool.Stats() {
		if !s.Blocked {
			t.Errorf("expected key %d to remain blocked", s.Index)
		}
	}
}

func TestWithCredentialReleasesOnError(t *testing.T) {
	pool := newTestPool(t, "key-a")

	wantErr := errors.New("boom")
	err := pool.WithCredential(func(c *Credential) error {
		if got := pool.Stats()[0].ActiveRequests; got != 1 {
			t.Errorf("expected active=1 inside scope, got %d", got)
		}
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	if got := pool.Stats()[0].ActiveRequests; got != 0 {
		t.Errorf("expected release after error, got active=%d", got)
	}
}

func TestConcurrentAcquireRelease(t *testing.T) {
	pool := newTestPool(t, "key-a", "key-b", "key-c")

	const flows = 60
	var wg sync.WaitGroup
	wg.Add(flows)
	for i := 0; i < flows; i++ {
		go func() {
			defer wg.Done()
			c, err := pool.Acquire()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			pool.Release(c)
		}()
	}
	wg.Wait()

	total := 0
	for _, s := range pool.Stats() {
		if s.ActiveRequests != 0 {
			t.Errorf("key %d still has %d active requests", s.Index, s.ActiveRequests)
		}
		total += s.TotalRequests
	}
	if total != flows {
		t.Errorf("expected %d total requests, got %d", flows, total)
	}
}

func TestStatsMasksKeys(t *testing.T) {
	pool := newTestPool(t, "sk-proj-verysecretvalue", "short")

	stats := pool.Stats()
	if stats[0].Key != "sk-...alue" {
		t.Errorf("unexpected mask %q", stats[0].Key)
	}
	if stats[1].Key != "****" {
		t.Errorf("short keys must be fully masked, got %q", stats[1].Key)
	}
}
