package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// Fetcher is a pager.Fetcher that serves pages from a Cache while they are
// fresh. Cache failures are logged and bypassed.
type Fetcher struct {
	inner  pager.Fetcher
	cache  Cache
	policy Policy
	keys   Keys
	now    func() time.Time
	group  singleflight.Group
}

var _ pager.Fetcher = (*Fetcher)(nil)

// NewFetcher wraps inner with c.
func NewFetcher(inner pager.Fetcher, c Cache, policy Policy, keys Keys) *Fetcher {
	return &Fetcher{inner: inner, cache: c, policy: policy, keys: keys, now: time.Now}
}

// FetchPage implements pager.Fetcher. Concurrent misses for the same page
// share one upstream fetch.
func (f *Fetcher) FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*pager.Page, error) {
	if pageIndex < 0 {
		pageIndex = 0
	}
	if pageSize <= 0 {
		pageSize = pager.DefaultPageSize
	}
	key := f.keys.Page(q.Key(), pageIndex, pageSize)

	stale, fresh := f.lookup(ctx, key)
	if fresh {
		return stale, nil
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		page, err := f.inner.FetchPage(ctx, q, pageIndex, pageSize)
		if err != nil {
			return nil, err
		}
		f.store(ctx, key, page)
		return page, nil
	})
	if err != nil {
		if stale != nil {
			slog.Warn("serving stale listing page", "page", pageIndex, "error", err)
			return stale, nil
		}
		return nil, err
	}
	return v.(*pager.Page), nil
}

// lookup returns the cached page, if any, and whether it is fresh.
func (f *Fetcher) lookup(ctx context.Context, key string) (*pager.Page, bool) {
	entry, err := f.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrMiss) {
			slog.Warn("listing cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var page pager.Page
	if err := json.Unmarshal(entry.Value, &page); err != nil {
		slog.Warn("discarding undecodable cached page", "key", key, "error", err)
		return nil, false
	}
	return &page, f.policy.Fresh(entry.StoredAt, f.now())
}

func (f *Fetcher) store(ctx context.Context, key string, page *pager.Page) {
	data, err := json.Marshal(page)
	if err != nil {
		slog.Warn("encoding listing page for cache", "error", err)
		return
	}
	if err := f.cache.Set(ctx, key, data); err != nil {
		slog.Warn("listing cache write failed", "key", key, "error", err)
	}
}
