package cache

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/prestataires/internal/events"
)

// Invalidator drops cached data when the directory changes.
type Invalidator struct {
	cache Cache
	keys  Keys
}

// NewInvalidator returns an invalidator for entries under keys.
func NewInvalidator(c Cache, keys Keys) *Invalidator {
	return &Invalidator{cache: c, keys: keys}
}

// Handle processes one event payload. Any change can move a vendor between
// pages, so every cached page is dropped; the photo entry is dropped only
// for the vendor the event names.
func (i *Invalidator) Handle(ctx context.Context, data []byte) {
	if err := i.cache.DeletePrefix(ctx, i.keys.Pages()); err != nil {
		slog.Warn("invalidating listing pages", "error", err)
	}
	if id := events.VendorIDOf(data); id != "" {
		if err := i.cache.Delete(ctx, i.keys.Photo(id)); err != nil {
			slog.Warn("invalidating photo", "vendor_id", id, "error", err)
		}
	}
}

// Run consumes directory events from sub until ctx is done.
func (i *Invalidator) Run(ctx context.Context, sub events.Subscriber) error {
	return events.Consume(ctx, sub, events.TopicAll, func(data []byte) {
		i.Handle(ctx, data)
	})
}

// Start is Run on a new goroutine, subscribed before it returns.
func (i *Invalidator) Start(ctx context.Context, sub events.Subscriber) (<-chan error, error) {
	return events.Start(ctx, sub, events.TopicAll, func(data []byte) {
		i.Handle(ctx, data)
	})
}
