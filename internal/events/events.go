package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

// Event topic constants
const (
	TopicVendorCreated = "vendors.vendor.created"
	TopicVendorUpdated = "vendors.vendor.updated"
	TopicVendorDeleted = "vendors.vendor.deleted"
	TopicPhotoAdded    = "vendors.photo.added"

	// TopicAll matches every directory event.
	TopicAll = "vendors.>"
)

// Event types

type VendorCreated struct {
	Vendor *model.Vendor `json:"vendor"`
	At     time.Time     `json:"at"`
}

type VendorUpdated struct {
	Vendor  *model.Vendor  `json:"vendor"`
	Changes map[string]any `json:"changes,omitempty"` // field name -> new value
	At      time.Time      `json:"at"`
}

type VendorDeleted struct {
	VendorID string    `json:"vendor_id"`
	At       time.Time `json:"at"`
}

type PhotoAdded struct {
	Photo *model.Photo `json:"photo"`
	At    time.Time    `json:"at"`
}

// VendorIDOf extracts the vendor ID from any event payload above. It returns
// "" when the payload carries none.
func VendorIDOf(data []byte) string {
	var probe struct {
		VendorID string `json:"vendor_id"`
		Vendor   *struct {
			ID string `json:"id"`
		} `json:"vendor"`
		Photo *struct {
			VendorID string `json:"vendor_id"`
		} `json:"photo"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return ""
	}
	switch {
	case probe.VendorID != "":
		return probe.VendorID
	case probe.Vendor != nil:
		return probe.Vendor.ID
	case probe.Photo != nil:
		return probe.Photo.VendorID
	}
	return ""
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
