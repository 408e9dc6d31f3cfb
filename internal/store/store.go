package store

import (
	"context"
	"errors"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

var (
	// ErrNotFound is returned when a vendor or photo does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when creating a vendor whose ID is taken.
	ErrConflict = errors.New("already exists")
)

// Store defines the persistence interface for the vendor directory.
type Store interface {
	// Listing. Returns at most limit vendors matching q, skipping offset,
	// in the query's order. Photos are never populated.
	ListVendors(ctx context.Context, q *query.Query, limit, offset int) ([]*model.Vendor, error)

	// Vendor CRUD. GetVendor returns hidden vendors too; callers decide
	// whether the session may see them.
	GetVendor(ctx context.Context, id string) (*model.Vendor, error)
	CreateVendor(ctx context.Context, v *model.Vendor) error
	UpdateVendor(ctx context.Context, v *model.Vendor) error
	DeleteVendor(ctx context.Context, id string) error

	// Photos
	AddPhoto(ctx context.Context, p *model.Photo) error
	ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error)
	// PrimaryPhoto returns the vendor's principale photo, else the one with
	// the lowest order. It returns (nil, nil) when the vendor has no photo.
	PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error)

	// Transaction support
	RunInTransaction(ctx context.Context, fn func(tx Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
