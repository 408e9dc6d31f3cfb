package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/auth"
	"github.com/alfredjeanlab/prestataires/internal/events"
	"github.com/alfredjeanlab/prestataires/internal/idgen"
	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
	"github.com/alfredjeanlab/prestataires/internal/store"
)

var (
	// errForbidden is returned when the session may not perform a mutation.
	errForbidden = errors.New("admin role required")
	// errUploadsDisabled is returned when no photo storage is configured.
	errUploadsDisabled = errors.New("photo uploads are not configured")
)

// inputError indicates invalid user input.
// Transport layers map this to 400 / InvalidArgument.
type inputError string

func (e inputError) Error() string { return string(e) }

// PhotoUploader stores photo bytes and returns their public URL.
type PhotoUploader interface {
	Put(ctx context.Context, vendorID, photoID, contentType string, data []byte) (string, error)
}

// VendorServer serves the vendor directory over HTTP and gRPC.
type VendorServer struct {
	store     store.Store
	publisher events.Publisher
	listing   pager.Fetcher
	photos    pager.PhotoSource
	uploader  PhotoUploader
	verifier  *auth.Verifier
	stream    *eventStream
}

// Option configures a VendorServer.
type Option func(*VendorServer)

// WithFetcher serves listing pages from f instead of the store directly,
// typically a cache.Fetcher.
func WithFetcher(f pager.Fetcher) Option {
	return func(s *VendorServer) { s.listing = f }
}

// WithPhotoSource serves primary photos from p, typically a cache.PhotoSource.
func WithPhotoSource(p pager.PhotoSource) Option {
	return func(s *VendorServer) { s.photos = p }
}

// WithUploader enables photo uploads.
func WithUploader(u PhotoUploader) Option {
	return func(s *VendorServer) { s.uploader = u }
}

// WithVerifier sets the token verifier. Without one, auth is disabled.
func WithVerifier(v *auth.Verifier) Option {
	return func(s *VendorServer) { s.verifier = v }
}

// NewVendorServer returns a server backed by the given store and publisher.
func NewVendorServer(s store.Store, p events.Publisher, opts ...Option) *VendorServer {
	srv := &VendorServer{
		store:     s,
		publisher: p,
		listing:   pager.SourceFetcher{Source: s},
		photos:    s,
		verifier:  auth.NewVerifier(""),
		stream:    newEventStream(),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// publish sends an event to the bus and to SSE clients. Failures are
// logged and do not fail the caller.
func (s *VendorServer) publish(ctx context.Context, topic, vendorID string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		slog.Warn("failed to publish event", "topic", topic, "vendor_id", vendorID, "error", err)
	}
	s.broadcastEvent(topic, event)
}

func requireAdmin(ctx context.Context) error {
	if !auth.FromContext(ctx).IsAdmin() {
		return errForbidden
	}
	return nil
}

// listVendors returns one page of the public listing for f.
func (s *VendorServer) listVendors(ctx context.Context, f model.VendorFilter, pageIndex, pageSize int) (*pager.Page, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if pageIndex < 0 {
		return nil, inputError("page must not be negative")
	}
	if pageSize <= 0 {
		pageSize = pager.DefaultPageSize
	}
	if pageSize > pager.MaxPageSize {
		pageSize = pager.MaxPageSize
	}
	return s.listing.FetchPage(ctx, query.Build(f), pageIndex, pageSize)
}

// getVendor returns a vendor with its photos. Hidden vendors are reported as
// not found unless the session is admin.
func (s *VendorServer) getVendor(ctx context.Context, id string) (*model.Vendor, error) {
	if id == "" {
		return nil, inputError("id is required")
	}
	v, err := s.store.GetVendor(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.Visible && !auth.FromContext(ctx).IsAdmin() {
		return nil, store.ErrNotFound
	}
	return v, nil
}

func (s *VendorServer) listPhotos(ctx context.Context, id string) ([]*model.Photo, error) {
	v, err := s.getVendor(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Photos == nil {
		return []*model.Photo{}, nil
	}
	return v.Photos, nil
}

func (s *VendorServer) primaryPhoto(ctx context.Context, id string) (*model.Photo, error) {
	if id == "" {
		return nil, inputError("id is required")
	}
	return s.photos.PrimaryPhoto(ctx, id)
}

func (s *VendorServer) health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.store.Ping(ctx)
}

// vendorInput is the body of create and update requests. Nil fields are
// left unchanged by updates.
type vendorInput struct {
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

// apply copies the set fields of in onto v and returns the changed fields.
func (in vendorInput) apply(v *model.Vendor) map[string]any {
	changes := make(map[string]any)
	set := func(name string, value any) { changes[name] = value }

	if in.Name != nil {
		v.Name = strings.TrimSpace(*in.Name)
		set("name", v.Name)
	}
	if in.Description != nil {
		v.Description = *in.Description
		set("description", v.Description)
	}
	if in.City != nil {
		v.City = strings.TrimSpace(*in.City)
		set("city", v.City)
	}
	if in.Region != nil {
		v.Region = *in.Region
		set("region", v.Region)
	}
	if in.Category != nil {
		v.Category = *in.Category
		set("category", v.Category)
	}
	if in.StartingPrice != nil {
		v.StartingPrice = in.StartingPrice
		set("starting_price", *v.StartingPrice)
	}
	if in.PricePerGuest != nil {
		v.PricePerGuest = in.PricePerGuest
		set("price_per_guest", *v.PricePerGuest)
	}
	if in.VenueType != nil {
		v.VenueType = *in.VenueType
		set("venue_type", v.VenueType)
	}
	if in.Capacity != nil {
		v.Capacity = in.Capacity
		set("capacity", *v.Capacity)
	}
	if in.Lodging != nil {
		v.Lodging = in.Lodging
		set("lodging", *v.Lodging)
	}
	if in.Beds != nil {
		v.Beds = in.Beds
		set("beds", *v.Beds)
	}
	if in.Visible != nil {
		v.Visible = *in.Visible
		set("visible", v.Visible)
	}
	if in.Featured != nil {
		v.Featured = *in.Featured
		set("featured", v.Featured)
	}
	if in.Partner != nil {
		v.Partner = *in.Partner
		set("partner", v.Partner)
	}
	if in.Website != nil {
		v.Website = *in.Website
		set("website", v.Website)
	}
	if in.Email != nil {
		v.Email = *in.Email
		set("email", v.Email)
	}
	if in.Phone != nil {
		v.Phone = *in.Phone
		set("phone", v.Phone)
	}
	return changes
}

// createVendor validates and stores a new vendor, then publishes
// VendorCreated. A missing ID is generated.
func (s *VendorServer) createVendor(ctx context.Context, in vendorInput) (*model.Vendor, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	v := &model.Vendor{}
	in.apply(v)
	if in.ID != nil && *in.ID != "" {
		v.ID = *in.ID
	} else {
		id, err := idgen.NewVendorID()
		if err != nil {
			return nil, err
		}
		v.ID = id
	}
	if err := model.ValidateVendor(v); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	v.CreatedAt, v.UpdatedAt = now, now

	if err := s.store.CreateVendor(ctx, v); err != nil {
		return nil, fmt.Errorf("create vendor: %w", err)
	}
	s.publish(ctx, events.TopicVendorCreated, v.ID, events.VendorCreated{Vendor: v, At: now})
	return v, nil
}

// updateVendor applies partial updates to an existing vendor and publishes
// VendorUpdated with the changed fields.
func (s *VendorServer) updateVendor(ctx context.Context, id string, in vendorInput) (*model.Vendor, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if in.ID != nil && *in.ID != id {
		return nil, inputError("id cannot be changed")
	}
	v, err := s.store.GetVendor(ctx, id)
	if err != nil {
		return nil, err
	}
	changes := in.apply(v)
	if len(changes) == 0 {
		return nil, inputError("no fields to update")
	}
	if err := model.ValidateVendor(v); err != nil {
		return nil, err
	}
	photos := v.Photos
	if err := s.store.UpdateVendor(ctx, v); err != nil {
		return nil, err
	}
	v.Photos = photos
	s.publish(ctx, events.TopicVendorUpdated, v.ID, events.VendorUpdated{Vendor: v, Changes: changes, At: v.UpdatedAt})
	return v, nil
}

func (s *VendorServer) deleteVendor(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteVendor(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, events.TopicVendorDeleted, id, events.VendorDeleted{VendorID: id, At: time.Now().UTC()})
	return nil
}

// photoInput describes an uploaded photo.
type photoInput struct {
	ContentType string
	Data        []byte
	Principale  bool
	IsCover     bool
	Order       int
}

// addPhoto uploads a photo to object storage and attaches it to the vendor.
func (s *VendorServer) addPhoto(ctx context.Context, vendorID string, in photoInput) (*model.Photo, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, errUploadsDisabled
	}
	if _, err := s.store.GetVendor(ctx, vendorID); err != nil {
		return nil, err
	}

	photoID, err := idgen.NewPhotoID()
	if err != nil {
		return nil, err
	}
	url, err := s.uploader.Put(ctx, vendorID, photoID, in.ContentType, in.Data)
	if err != nil {
		return nil, err
	}

	p := &model.Photo{
		ID:         photoID,
		VendorID:   vendorID,
		URL:        url,
		Order:      in.Order,
		Principale: in.Principale,
		IsCover:    in.IsCover,
		CreatedAt:  time.Now().UTC(),
	}
	if err := model.ValidatePhoto(p); err != nil {
		return nil, err
	}
	if err := s.store.AddPhoto(ctx, p); err != nil {
		return nil, fmt.Errorf("add photo: %w", err)
	}
	s.publish(ctx, events.TopicPhotoAdded, vendorID, events.PhotoAdded{Photo: p, At: p.CreatedAt})
	return p, nil
}
