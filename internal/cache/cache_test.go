package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/events"
	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// clock is a manually advanced time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock { return &clock{t: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)} }

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// countingFetcher serves fixed pages and counts upstream fetches.
type countingFetcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *countingFetcher) FetchPage(_ context.Context, q *query.Query, pageIndex, pageSize int) (*pager.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &pager.Page{
		Vendors:  []*model.Vendor{{ID: fmt.Sprintf("v-%d-%d", pageIndex, f.calls), Name: "x"}},
		HasMore:  true,
		Index:    pageIndex,
		PageSize: pageSize,
	}, nil
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestFetcher(inner pager.Fetcher, clk *clock) (*Fetcher, *MemoryCache) {
	mc := NewMemoryCache(DefaultGCTime)
	mc.now = clk.Now
	f := NewFetcher(inner, mc, DefaultPolicy(), Keys{Prefix: "test"})
	f.now = clk.Now
	return f, mc
}

func TestPolicy_Validate(t *testing.T) {
	for _, tc := range []struct {
		policy  Policy
		wantErr bool
	}{
		{DefaultPolicy(), false},
		{Policy{StaleTime: 0, GCTime: time.Minute}, true},
		{Policy{StaleTime: time.Minute, GCTime: time.Second}, true},
		{Policy{StaleTime: time.Minute, GCTime: time.Minute}, false},
	} {
		if err := tc.policy.Validate(); (err != nil) != tc.wantErr {
			t.Errorf("%+v.Validate() = %v, wantErr %v", tc.policy, err, tc.wantErr)
		}
	}
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "presta"}
	a := k.Page("q1", 0, 12)
	if a != k.Page("q1", 0, 12) {
		t.Fatal("page keys must be stable")
	}
	for _, other := range []string{k.Page("q2", 0, 12), k.Page("q1", 1, 12), k.Page("q1", 0, 24)} {
		if a == other {
			t.Errorf("distinct pages share key %s", a)
		}
	}
	if got := k.Photo("pr-1"); got != "presta:photo:pr-1" {
		t.Errorf("Photo key = %q", got)
	}
}

func TestMemoryCache_Eviction(t *testing.T) {
	clk := newClock()
	c := NewMemoryCache(10 * time.Minute)
	c.now = clk.Now
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	clk.Advance(9 * time.Minute)
	if e, err := c.Get(ctx, "k"); err != nil || string(e.Value) != "v" {
		t.Fatalf("Get before gc = %v, %v", e, err)
	}
	clk.Advance(time.Minute)
	if _, err := c.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get after gc = %v, want ErrMiss", err)
	}
}

func TestMemoryCache_DeletePrefix(t *testing.T) {
	c := NewMemoryCache(time.Hour)
	ctx := context.Background()
	for _, k := range []string{"p:pages:1", "p:pages:2", "p:photo:a"} {
		_ = c.Set(ctx, k, []byte(k))
	}
	if err := c.DeletePrefix(ctx, "p:pages:"); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
	if err := c.Delete(ctx, "p:photo:a"); err != nil || c.Len() != 0 {
		t.Errorf("Delete: err=%v len=%d", err, c.Len())
	}
}

func TestFetcher_FreshEntryIsReused(t *testing.T) {
	clk := newClock()
	inner := &countingFetcher{}
	f, _ := newTestFetcher(inner, clk)
	ctx := context.Background()
	q := query.Build(model.VendorFilter{Search: "lyon"})

	first, err := f.FetchPage(ctx, q, 0, 12)
	if err != nil {
		t.Fatal(err)
	}
	clk.Advance(4 * time.Minute)
	second, err := f.FetchPage(ctx, q, 0, 12)
	if err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 1 {
		t.Fatalf("upstream calls = %d, want 1 within the freshness window", inner.Calls())
	}
	if second.Vendors[0].ID != first.Vendors[0].ID || !second.HasMore {
		t.Errorf("cached page differs: %+v vs %+v", second, first)
	}

	// A different page or query is a different entry.
	if _, err := f.FetchPage(ctx, q, 1, 12); err != nil {
		t.Fatal(err)
	}
	if _, err := f.FetchPage(ctx, query.Build(model.VendorFilter{}), 0, 12); err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 3 {
		t.Errorf("upstream calls = %d, want 3", inner.Calls())
	}
}

func TestFetcher_StaleEntryRefetched(t *testing.T) {
	clk := newClock()
	inner := &countingFetcher{}
	f, _ := newTestFetcher(inner, clk)
	ctx := context.Background()
	q := query.Build(model.VendorFilter{})

	if _, err := f.FetchPage(ctx, q, 0, 12); err != nil {
		t.Fatal(err)
	}
	clk.Advance(6 * time.Minute)
	page, err := f.FetchPage(ctx, q, 0, 12)
	if err != nil {
		t.Fatal(err)
	}
	if inner.Calls() != 2 || page.Vendors[0].ID != "v-0-2" {
		t.Errorf("stale entry should be refetched: calls=%d page=%v", inner.Calls(), page.Vendors[0].ID)
	}
}

func TestFetcher_StaleServedOnError(t *testing.T) {
	clk := newClock()
	inner := &countingFetcher{}
	f, _ := newTestFetcher(inner, clk)
	ctx := context.Background()
	q := query.Build(model.VendorFilter{})

	if _, err := f.FetchPage(ctx, q, 0, 12); err != nil {
		t.Fatal(err)
	}
	clk.Advance(6 * time.Minute)
	inner.mu.Lock()
	inner.err = errors.New("db down")
	inner.mu.Unlock()

	page, err := f.FetchPage(ctx, q, 0, 12)
	if err != nil {
		t.Fatalf("expected stale page, got error %v", err)
	}
	if page.Vendors[0].ID != "v-0-1" {
		t.Errorf("served %s, want the stale v-0-1", page.Vendors[0].ID)
	}

	// Past the gc window nothing is left to serve.
	clk.Advance(10 * time.Minute)
	if _, err := f.FetchPage(ctx, q, 0, 12); err == nil {
		t.Error("expected error once the entry is evicted")
	}
}

func TestPhotoSource_CachesMisses(t *testing.T) {
	clk := newClock()
	mc := NewMemoryCache(DefaultGCTime)
	mc.now = clk.Now
	calls := 0
	inner := photoFunc(func(_ context.Context, id string) (*model.Photo, error) {
		calls++
		if id == "with" {
			return &model.Photo{URL: "https://cdn/with.jpg"}, nil
		}
		return nil, nil
	})
	s := NewPhotoSource(inner, mc, DefaultPolicy(), Keys{Prefix: "t"})
	s.now = clk.Now
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if p, err := s.PrimaryPhoto(ctx, "with"); err != nil || p == nil || p.URL != "https://cdn/with.jpg" {
			t.Fatalf("PrimaryPhoto(with) = %v, %v", p, err)
		}
		if p, err := s.PrimaryPhoto(ctx, "without"); err != nil || p != nil {
			t.Fatalf("PrimaryPhoto(without) = %v, %v", p, err)
		}
	}
	if calls != 2 {
		t.Errorf("upstream calls = %d, want 2", calls)
	}
}

type photoFunc func(ctx context.Context, vendorID string) (*model.Photo, error)

func (f photoFunc) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	return f(ctx, vendorID)
}

func TestInvalidator_DropsPagesAndPhoto(t *testing.T) {
	ctx := context.Background()
	keys := Keys{Prefix: "t"}
	mc := NewMemoryCache(time.Hour)
	_ = mc.Set(ctx, keys.Page("q", 0, 12), []byte("{}"))
	_ = mc.Set(ctx, keys.Page("q", 1, 12), []byte("{}"))
	_ = mc.Set(ctx, keys.Photo("pr-1"), []byte("null"))
	_ = mc.Set(ctx, keys.Photo("pr-10"), []byte("null"))

	bus := events.NewLocalBus()
	defer bus.Close()
	inv := NewInvalidator(mc, keys)

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- inv.Run(runCtx, bus) }()

	// Retry until the subscription is registered.
	deadline := time.Now().Add(2 * time.Second)
	for mc.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatalf("cache still holds %d entries", mc.Len())
		}
		_ = bus.Publish(ctx, events.TopicPhotoAdded, events.PhotoAdded{Photo: &model.Photo{VendorID: "pr-1"}})
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := mc.Get(ctx, keys.Photo("pr-10")); err != nil {
		t.Errorf("unrelated vendor photo was dropped: %v", err)
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v", err)
	}
}

// TestRedisCache exercises a real Redis when PRESTATAIRES_TEST_REDIS_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("PRESTATAIRES_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PRESTATAIRES_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := NewRedisClient(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	c := NewRedisCache(client, time.Minute)
	defer c.Close()

	prefix := fmt.Sprintf("prestataires-test-%d:", time.Now().UnixNano())
	if _, err := c.Get(ctx, prefix+"missing"); !errors.Is(err, ErrMiss) {
		t.Fatalf("Get(missing) = %v, want ErrMiss", err)
	}
	if err := c.Set(ctx, prefix+"a", []byte("1")); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(ctx, prefix+"b", []byte("2")); err != nil {
		t.Fatal(err)
	}
	e, err := c.Get(ctx, prefix+"a")
	if err != nil || string(e.Value) != "1" || e.StoredAt.IsZero() {
		t.Fatalf("Get(a) = %+v, %v", e, err)
	}
	if err := c.DeletePrefix(ctx, prefix); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, prefix+"b"); !errors.Is(err, ErrMiss) {
		t.Errorf("Get(b) after DeletePrefix = %v, want ErrMiss", err)
	}
}
