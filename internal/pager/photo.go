package pager

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

// PhotoSource returns the primary photo of a vendor, or (nil, nil) when it
// has none.
type PhotoSource interface {
	PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error)
}

// PhotoLoader hydrates vendor cards with their primary photo. Concurrent
// loads of the same vendor share a single backend call.
type PhotoLoader struct {
	src   PhotoSource
	group singleflight.Group
}

// NewPhotoLoader returns a loader reading from src.
func NewPhotoLoader(src PhotoSource) *PhotoLoader {
	return &PhotoLoader{src: src}
}

// Load returns the vendor's primary photo. When enabled is false it returns
// (nil, nil) without touching the backend, so callers can defer hydration
// of off-screen cards.
func (l *PhotoLoader) Load(ctx context.Context, vendorID string, enabled bool) (*model.Photo, error) {
	if !enabled || vendorID == "" {
		return nil, nil
	}
	v, err, _ := l.group.Do(vendorID, func() (any, error) {
		return l.src.PrimaryPhoto(ctx, vendorID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Photo), nil
}

// HydrateVisible loads primary photos for the first limit vendors
// concurrently and returns them keyed by vendor ID. Vendors without a photo
// are absent from the map. limit <= 0 hydrates every vendor.
func HydrateVisible(ctx context.Context, l *PhotoLoader, vendors []*model.Vendor, limit int) (map[string]*model.Photo, error) {
	results := make([]*model.Photo, len(vendors))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, v := range vendors {
		enabled := limit <= 0 || i < limit
		g.Go(func() error {
			p, err := l.Load(ctx, v.ID, enabled)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*model.Photo)
	for i, p := range results {
		if p != nil {
			out[vendors[i].ID] = p
		}
	}
	return out, nil
}
