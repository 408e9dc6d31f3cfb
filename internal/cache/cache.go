// Package cache holds fetched listing pages and primary photos for a
// freshness window, so repeated reads of the same page do not hit the store.
//
// Entries are fresh for Policy.StaleTime. A stale entry is refetched on the
// next read but may still be served if the refetch fails. Entries are
// evicted after Policy.GCTime.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Default freshness and eviction windows.
const (
	DefaultStaleTime = 5 * time.Minute
	DefaultGCTime    = 10 * time.Minute
)

// ErrMiss is returned by Cache.Get when the key is absent or evicted.
var ErrMiss = errors.New("cache: miss")

// Policy controls freshness and eviction.
type Policy struct {
	StaleTime time.Duration
	GCTime    time.Duration
}

// DefaultPolicy returns the default windows.
func DefaultPolicy() Policy {
	return Policy{StaleTime: DefaultStaleTime, GCTime: DefaultGCTime}
}

// Validate checks that the windows are positive and ordered.
func (p Policy) Validate() error {
	if p.StaleTime <= 0 {
		return fmt.Errorf("cache: stale time must be positive, got %s", p.StaleTime)
	}
	if p.GCTime < p.StaleTime {
		return fmt.Errorf("cache: gc time %s must not be shorter than stale time %s", p.GCTime, p.StaleTime)
	}
	return nil
}

// Fresh reports whether an entry stored at storedAt is still fresh at now.
func (p Policy) Fresh(storedAt, now time.Time) bool {
	return now.Sub(storedAt) < p.StaleTime
}

// Entry is a cached value and the time it was stored.
type Entry struct {
	Value    []byte    `json:"value"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache stores opaque values. Implementations evict entries after the gc
// window they were configured with.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Keys builds cache keys under a common prefix.
type Keys struct {
	Prefix string
}

// Pages returns the key prefix shared by every cached listing page.
func (k Keys) Pages() string {
	return k.Prefix + ":pages:"
}

// Page returns the key for one page of a query.
func (k Keys) Page(queryKey string, pageIndex, pageSize int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", queryKey, pageIndex, pageSize)))
	return k.Pages() + hex.EncodeToString(sum[:])
}

// Photo returns the key for a vendor's primary photo.
func (k Keys) Photo(vendorID string) string {
	return k.Prefix + ":photo:" + vendorID
}
