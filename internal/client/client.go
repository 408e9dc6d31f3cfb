// Package client provides a transport-agnostic interface for the vendor
// directory service, with an HTTP/JSON implementation (default) and a gRPC
// one for the read API.
package client

import (
	"context"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// VendorsClient is the read API the CLI browses the directory with. Both
// implementations satisfy pager.Fetcher and pager.PhotoSource, so a
// pager.Pager and a pager.PhotoLoader can drive a remote server directly.
type VendorsClient interface {
	// FetchPage returns one page of the public listing for q's filter.
	FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*pager.Page, error)

	GetVendor(ctx context.Context, id string) (*model.Vendor, error)
	ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error)
	// PrimaryPhoto returns (nil, nil) when the vendor has no photo.
	PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error)

	Categories(ctx context.Context) ([]model.Category, error)
	Regions(ctx context.Context) ([]model.Region, error)

	Health(ctx context.Context) (string, error)
	Close() error
}

var (
	_ VendorsClient     = (*HTTPClient)(nil)
	_ VendorsClient     = (*GRPCClient)(nil)
	_ pager.Fetcher     = (*HTTPClient)(nil)
	_ pager.PhotoSource = (*GRPCClient)(nil)
)

// VendorInput is the body of create and update calls. Nil fields are left
// unchanged by updates.
type VendorInput struct {
	ID            *string         `json:"id,omitempty"`
	Name          *string         `json:"name,omitempty"`
	Description   *string         `json:"description,omitempty"`
	City          *string         `json:"city,omitempty"`
	Region        *model.Region   `json:"region,omitempty"`
	Category      *model.Category `json:"category,omitempty"`
	StartingPrice *float64        `json:"starting_price,omitempty"`
	PricePerGuest *float64        `json:"price_per_guest,omitempty"`
	VenueType     *string         `json:"venue_type,omitempty"`
	Capacity      *int            `json:"capacity,omitempty"`
	Lodging       *bool           `json:"lodging,omitempty"`
	Beds          *int            `json:"beds,omitempty"`
	Visible       *bool           `json:"visible,omitempty"`
	Featured      *bool           `json:"featured,omitempty"`
	Partner       *bool           `json:"partner,omitempty"`
	Website       *string         `json:"website,omitempty"`
	Email         *string         `json:"email,omitempty"`
	Phone         *string         `json:"phone,omitempty"`
}

// InputFromVendor returns an input setting every field of v, as used when
// importing a catalogue.
func InputFromVendor(v *model.Vendor) *VendorInput {
	return &VendorInput{
		ID:            model.Ptr(v.ID),
		Name:          model.Ptr(v.Name),
		Description:   model.Ptr(v.Description),
		City:          model.Ptr(v.City),
		Region:        model.Ptr(v.Region),
		Category:      model.Ptr(v.Category),
		StartingPrice: v.StartingPrice,
		PricePerGuest: v.PricePerGuest,
		VenueType:     model.Ptr(v.VenueType),
		Capacity:      v.Capacity,
		Lodging:       v.Lodging,
		Beds:          v.Beds,
		Visible:       model.Ptr(v.Visible),
		Featured:      model.Ptr(v.Featured),
		Partner:       model.Ptr(v.Partner),
		Website:       model.Ptr(v.Website),
		Email:         model.Ptr(v.Email),
		Phone:         model.Ptr(v.Phone),
	}
}

// UploadPhotoRequest holds a photo upload.
type UploadPhotoRequest struct {
	VendorID    string
	ContentType string
	Data        []byte
	Principale  bool
	IsCover     bool
	Order       int
}
