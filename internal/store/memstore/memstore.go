// Package memstore is an in-memory store.Store. It evaluates listing queries
// with query.Query.Apply, so it follows the same filtering and ordering
// rules as the Postgres store. It backs `vd serve --demo` and tests.
package memstore

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
	"github.com/alfredjeanlab/prestataires/internal/store"
)

// Store is a mutex-guarded in-memory vendor directory.
type Store struct {
	mu      sync.RWMutex
	vendors map[string]*model.Vendor
	photos  map[string][]*model.Photo // by vendor ID
	now     func() time.Time
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{
		vendors: make(map[string]*model.Vendor),
		photos:  make(map[string][]*model.Photo),
		now:     time.Now,
	}
}

func (s *Store) ListVendors(ctx context.Context, q *query.Query, limit, offset int) ([]*model.Vendor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*model.Vendor, 0, len(s.vendors))
	for _, v := range s.vendors {
		all = append(all, v)
	}
	matched := q.Apply(all, limit, offset)
	out := make([]*model.Vendor, len(matched))
	for i, v := range matched {
		c := *v
		c.Photos = nil
		out[i] = &c
	}
	return out, nil
}

func (s *Store) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vendors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := *v
	c.Photos = s.sortedPhotos(id)
	return &c, nil
}

func (s *Store) CreateVendor(ctx context.Context, v *model.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[v.ID]; ok {
		return store.ErrConflict
	}
	c := *v
	c.Photos = nil
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.vendors[c.ID] = &c
	return nil
}

func (s *Store) UpdateVendor(ctx context.Context, v *model.Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.vendors[v.ID]
	if !ok {
		return store.ErrNotFound
	}
	v.CreatedAt = existing.CreatedAt
	v.UpdatedAt = s.now()
	c := *v
	c.Photos = nil
	s.vendors[v.ID] = &c
	return nil
}

func (s *Store) DeleteVendor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.vendors, id)
	delete(s.photos, id)
	return nil
}

func (s *Store) AddPhoto(ctx context.Context, p *model.Photo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vendors[p.VendorID]; !ok {
		return store.ErrNotFound
	}
	c := *p
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.photos[p.VendorID] = append(s.photos[p.VendorID], &c)
	return nil
}

func (s *Store) ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedPhotos(vendorID), nil
}

func (s *Store) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	photos := s.sortedPhotos(vendorID)
	if len(photos) == 0 {
		return nil, nil
	}
	return photos[0], nil
}

// RunInTransaction runs fn against the store itself. Writes are not rolled
// back on error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(s)
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// sortedPhotos returns copies of the vendor's photos, principale first, then
// by order and creation time. Callers must hold the lock.
func (s *Store) sortedPhotos(vendorID string) []*model.Photo {
	src := s.photos[vendorID]
	if len(src) == 0 {
		return nil
	}
	out := make([]*model.Photo, len(src))
	for i, p := range src {
		c := *p
		out[i] = &c
	}
	slices.SortStableFunc(out, func(a, b *model.Photo) int {
		if a.Principale != b.Principale {
			if a.Principale {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}
