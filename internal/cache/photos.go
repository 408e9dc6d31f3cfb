package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
)

// PhotoSource caches primary photos independently of listing pages. A vendor
// without photos is cached too.
type PhotoSource struct {
	inner  pager.PhotoSource
	cache  Cache
	policy Policy
	keys   Keys
	now    func() time.Time
}

var _ pager.PhotoSource = (*PhotoSource)(nil)

// NewPhotoSource wraps inner with c.
func NewPhotoSource(inner pager.PhotoSource, c Cache, policy Policy, keys Keys) *PhotoSource {
	return &PhotoSource{inner: inner, cache: c, policy: policy, keys: keys, now: time.Now}
}

// PrimaryPhoto implements pager.PhotoSource.
func (s *PhotoSource) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	key := s.keys.Photo(vendorID)

	var (
		stale    *model.Photo
		hasStale bool
	)
	entry, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		var p *model.Photo
		if err := json.Unmarshal(entry.Value, &p); err != nil {
			slog.Warn("discarding undecodable cached photo", "vendor_id", vendorID, "error", err)
			break
		}
		if s.policy.Fresh(entry.StoredAt, s.now()) {
			return p, nil
		}
		stale, hasStale = p, true
	case !errors.Is(err, ErrMiss):
		slog.Warn("photo cache read failed", "vendor_id", vendorID, "error", err)
	}

	p, err := s.inner.PrimaryPhoto(ctx, vendorID)
	if err != nil {
		if hasStale {
			slog.Warn("serving stale photo", "vendor_id", vendorID, "error", err)
			return stale, nil
		}
		return nil, err
	}

	data, err := json.Marshal(p)
	if err == nil {
		err = s.cache.Set(ctx, key, data)
	}
	if err != nil {
		slog.Warn("photo cache write failed", "vendor_id", vendorID, "error", err)
	}
	return p, nil
}
