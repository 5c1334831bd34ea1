package cache

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type searchPayload struct {
	Term    string   `json:"term"`
	Matches []string `json:"matches"`
}

func newTestStore(t *testing.T, now *time.Time) *Store {
	t.Helper()
	s, err := New(t.TempDir(), WithNowFunc(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestGetOrRefreshPopulatesOnMiss(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	calls := 0
	res, err := GetOrRefresh(context.Background(), s, Key("browse", "-f2", "vim"), 72*time.Hour,
		func(ctx context.Context) (searchPayload, error) {
			calls++
			return searchPayload{Term: "vim", Matches: []string{"app-editors/vim"}}, nil
		})
	if err != nil {
		t.Fatalf("GetOrRefresh() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("refresh calls = %d, want 1", calls)
	}
	if res.Stale {
		t.Error("fresh refresh reported stale")
	}
	if len(res.Value.Matches) != 1 || res.Value.Matches[0] != "app-editors/vim" {
		t.Errorf("value = %+v", res.Value)
	}
	if !res.FetchedAt.Equal(now) {
		t.Errorf("FetchedAt = %v, want %v", res.FetchedAt, now)
	}
}

func TestGetOrRefreshServesFreshEntryWithoutRefresh(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	calls := 0
	refresh := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := GetOrRefresh(context.Background(), s, "counts/total", time.Hour, refresh); err != nil {
		t.Fatalf("first GetOrRefresh() error = %v", err)
	}

	now = now.Add(59 * time.Minute)
	res, err := GetOrRefresh(context.Background(), s, "counts/total", time.Hour, refresh)
	if err != nil {
		t.Fatalf("second GetOrRefresh() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("refresh calls = %d, want 1", calls)
	}
	if res.Value != 1 {
		t.Errorf("value = %d, want first refresh result", res.Value)
	}
}

func TestGetOrRefreshRefreshesStaleEntry(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	calls := 0
	refresh := func(ctx context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := GetOrRefresh(context.Background(), s, "counts/total", time.Hour, refresh); err != nil {
		t.Fatalf("first GetOrRefresh() error = %v", err)
	}

	// Exactly at maxAge is still fresh, strictly beyond is stale.
	now = now.Add(time.Hour)
	if _, err := GetOrRefresh(context.Background(), s, "counts/total", time.Hour, refresh); err != nil {
		t.Fatalf("at-boundary GetOrRefresh() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("refresh calls at boundary = %d, want 1", calls)
	}

	now = now.Add(time.Second)
	res, err := GetOrRefresh(context.Background(), s, "counts/total", time.Hour, refresh)
	if err != nil {
		t.Fatalf("stale GetOrRefresh() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("refresh calls past boundary = %d, want 2", calls)
	}
	if res.Value != 2 {
		t.Errorf("value = %d, want refreshed result", res.Value)
	}
}

func TestGetOrRefreshFallsBackToStaleOnFailure(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	if _, err := GetOrRefresh(context.Background(), s, "overlays/catalog", time.Hour,
		func(ctx context.Context) (string, error) { return "catalog-v1", nil }); err != nil {
		t.Fatalf("seed GetOrRefresh() error = %v", err)
	}

	now = now.Add(48 * time.Hour)
	res, err := GetOrRefresh(context.Background(), s, "overlays/catalog", time.Hour,
		func(ctx context.Context) (string, error) { return "", errors.New("network unreachable") })
	if err != nil {
		t.Fatalf("GetOrRefresh() with fallback error = %v", err)
	}
	if !res.Stale {
		t.Error("fallback value not annotated stale")
	}
	if res.Value != "catalog-v1" {
		t.Errorf("value = %q, want previously cached", res.Value)
	}
}

func TestGetOrRefreshErrorsWithoutFallback(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	_, err := GetOrRefresh(context.Background(), s, "overlays/catalog", time.Hour,
		func(ctx context.Context) (string, error) { return "", errors.New("network unreachable") })
	if !errors.Is(err, ErrNoFallback) {
		t.Errorf("GetOrRefresh() error = %v, want ErrNoFallback", err)
	}
}

func TestGetOrRefreshDeduplicatesConcurrentRefreshes(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	var calls int32
	release := make(chan struct{})
	refresh := func(ctx context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 42, nil
	}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]Result[int], workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = GetOrRefresh(context.Background(), s, "news/items", time.Hour, refresh)
		}(i)
	}

	// Give every worker a chance to queue behind the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if results[i].Value != 42 {
			t.Errorf("worker %d value = %d, want 42", i, results[i].Value)
		}
	}
}

func TestStorePersistsAcrossReloads(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s1, err := New(dir, WithNowFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := GetOrRefresh(context.Background(), s1, Key("use", "global"), time.Hour,
		func(ctx context.Context) ([]string, error) { return []string{"X", "acl"}, nil }); err != nil {
		t.Fatalf("GetOrRefresh() error = %v", err)
	}

	s2, err := New(dir, WithNowFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("reload New() error = %v", err)
	}

	calls := 0
	res, err := GetOrRefresh(context.Background(), s2, Key("use", "global"), time.Hour,
		func(ctx context.Context) ([]string, error) {
			calls++
			return nil, nil
		})
	if err != nil {
		t.Fatalf("reloaded GetOrRefresh() error = %v", err)
	}
	if calls != 0 {
		t.Errorf("refresh calls after reload = %d, want 0", calls)
	}
	if len(res.Value) != 2 || res.Value[0] != "X" {
		t.Errorf("reloaded value = %v", res.Value)
	}
}

func TestInvalidatePrefix(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, &now)

	seed := func(key string) {
		t.Helper()
		if _, err := GetOrRefresh(context.Background(), s, key, time.Hour,
			func(ctx context.Context) (string, error) { return "v", nil }); err != nil {
			t.Fatalf("seed %s error = %v", key, err)
		}
	}
	seed(Key("browse", "-f2", "vim"))
	seed(Key("browse", "-f2", "emacs"))
	seed(Key("use", "global"))

	if err := s.InvalidatePrefix("browse/"); err != nil {
		t.Fatalf("InvalidatePrefix() error = %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("entries after prefix invalidation = %d, want 1", s.Len())
	}
	if _, ok := s.Age(Key("use", "global")); !ok {
		t.Error("unrelated namespace was invalidated")
	}
}

func TestKeyDistinguishesParameters(t *testing.T) {
	a := Key("browse", "-f", "2", "vim")
	b := Key("browse", "-f", "2vim")
	if a == b {
		t.Errorf("distinct parameter splits collide: %q", a)
	}
}

func TestStalenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// An entry refreshes exactly when its age strictly exceeds maxAge.
	properties.Property("refresh iff age exceeds max age", prop.ForAll(
		func(ageMinutes int, maxAgeMinutes int) bool {
			base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			now := base
			s, err := New(t.TempDir(), WithNowFunc(func() time.Time { return now }))
			if err != nil {
				return false
			}

			maxAge := time.Duration(maxAgeMinutes) * time.Minute
			calls := 0
			refresh := func(ctx context.Context) (int, error) {
				calls++
				return calls, nil
			}

			if _, err := GetOrRefresh(context.Background(), s, "k", maxAge, refresh); err != nil {
				return false
			}

			now = base.Add(time.Duration(ageMinutes) * time.Minute)
			if _, err := GetOrRefresh(context.Background(), s, "k", maxAge, refresh); err != nil {
				return false
			}

			wantCalls := 1
			if ageMinutes > maxAgeMinutes {
				wantCalls = 2
			}
			return calls == wantCalls
		},
		gen.IntRange(0, 10000).WithLabel("ageMinutes"),
		gen.IntRange(1, 10000).WithLabel("maxAgeMinutes"),
	))

	properties.TestingRun(t)
}

func TestCorruptedCacheFileIsDiscarded(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	s1, err := New(dir, WithNowFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := GetOrRefresh(context.Background(), s1, "k", time.Hour,
		func(ctx context.Context) (string, error) { return "v", nil }); err != nil {
		t.Fatalf("GetOrRefresh() error = %v", err)
	}

	if err := os.WriteFile(s1.path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("corrupting cache: %v", err)
	}

	s2, err := New(dir, WithNowFunc(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() on corrupted cache error = %v", err)
	}
	if s2.Len() != 0 {
		t.Errorf("entries from corrupted cache = %d, want 0", s2.Len())
	}
}
