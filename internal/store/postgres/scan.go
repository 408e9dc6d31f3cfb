package postgres

import (
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/prestataires/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanVendor scans a single row into a model.Vendor.
// The row must contain columns in the order defined by vendorColumns.
func scanVendor(row scannable) (*model.Vendor, error) {
	var v model.Vendor
	var (
		description   sql.NullString
		city          sql.NullString
		region        sql.NullString
		startingPrice sql.NullFloat64
		pricePerGuest sql.NullFloat64
		venueType     sql.NullString
		capacity      sql.NullInt64
		lodging       sql.NullBool
		beds          sql.NullInt64
		website       sql.NullString
		email         sql.NullString
		phone         sql.NullString
	)

	err := row.Scan(
		&v.ID,
		&v.Name,
		&description,
		&city,
		&region,
		&v.Category,
		&startingPrice,
		&pricePerGuest,
		&venueType,
		&capacity,
		&lodging,
		&beds,
		&v.Visible,
		&v.Featured,
		&v.Partner,
		&website,
		&email,
		&phone,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Description = description.String
	v.City = city.String
	v.Region = model.Region(region.String)
	v.VenueType = venueType.String
	v.Website = website.String
	v.Email = email.String
	v.Phone = phone.String

	if startingPrice.Valid {
		v.StartingPrice = &startingPrice.Float64
	}
	if pricePerGuest.Valid {
		v.PricePerGuest = &pricePerGuest.Float64
	}
	if capacity.Valid {
		n := int(capacity.Int64)
		v.Capacity = &n
	}
	if lodging.Valid {
		v.Lodging = &lodging.Bool
	}
	if beds.Valid {
		n := int(beds.Int64)
		v.Beds = &n
	}
	return &v, nil
}

// scanPhoto scans a single row into a model.Photo.
func scanPhoto(row scannable) (*model.Photo, error) {
	var p model.Photo
	if err := row.Scan(&p.ID, &p.VendorID, &p.URL, &p.Order, &p.Principale, &p.IsCover, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPhotos scans all rows into a slice of model.Photo.
func scanPhotos(rows *sql.Rows) ([]*model.Photo, error) {
	var photos []*model.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullIntPtr(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func nullBoolPtr(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

// nullString converts a string to sql.NullString; empty string is null.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
