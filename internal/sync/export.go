package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// ExportPageSize is the page size used to walk the catalogue.
const ExportPageSize = pager.MaxPageSize

// Catalogue is the read side of a store needed to export vendors.
type Catalogue interface {
	pager.Source
	ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version     string    `json:"version"`
	Type        string    `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	VendorCount int       `json:"vendor_count"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ExportJSONL writes the public catalogue as JSONL to w: a header record,
// then one vendor per line with its photos, in listing order.
func ExportJSONL(ctx context.Context, c Catalogue, w io.Writer) error {
	p := pager.New(pager.SourceFetcher{Source: c}, query.Build(model.VendorFilter{}), pager.WithPageSize(ExportPageSize))
	if err := p.LoadAll(ctx, 0); err != nil {
		return fmt.Errorf("list vendors: %w", err)
	}
	vendors := p.Snapshot().Vendors

	for _, v := range vendors {
		photos, err := c.ListPhotos(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("list photos for %s: %w", v.ID, err)
		}
		v.Photos = photos
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:     "1",
		Type:        "header",
		Timestamp:   time.Now().UTC(),
		VendorCount: len(vendors),
	}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}

	for _, v := range vendors {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode vendor %s: %w", v.ID, err)
		}
		if err := enc.Encode(record{Type: "vendor", Data: data}); err != nil {
			return fmt.Errorf("encode vendor %s: %w", v.ID, err)
		}
	}
	return nil
}

// ReadJSONL parses an export written by ExportJSONL and returns its vendors.
// Unknown record types are skipped.
func ReadJSONL(r io.Reader) ([]*model.Vendor, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		vendors   []*model.Vendor
		sawHeader bool
		want      int
	)
	for line := 1; sc.Scan(); line++ {
		raw := sc.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec struct {
			record
			VendorCount int    `json:"vendor_count"`
			Version     string `json:"version"`
		}
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		switch rec.Type {
		case "header":
			if rec.Version != "1" {
				return nil, fmt.Errorf("line %d: unsupported export version %q", line, rec.Version)
			}
			sawHeader, want = true, rec.VendorCount
		case "vendor":
			var v model.Vendor
			if err := json.Unmarshal(rec.Data, &v); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vendors = append(vendors, &v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !sawHeader {
		return nil, errors.New("missing export header")
	}
	if want != len(vendors) {
		return nil, fmt.Errorf("export is truncated: header announces %d vendors, read %d", want, len(vendors))
	}
	return vendors, nil
}
