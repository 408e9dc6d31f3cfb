package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// VendorFilter holds the criteria for a vendor listing. Nil fields are
// unconstrained. The venue fields (VenueType, CapacityMin, Lodging, BedsMin)
// only take effect when Category is CategoryVenue.
type VendorFilter struct {
	Search      string    `json:"search,omitempty"`
	Category    *Category `json:"category,omitempty"`
	Region      *Region   `json:"region,omitempty"`
	MinPrice    *float64  `json:"min_price,omitempty"`
	MaxPrice    *float64  `json:"max_price,omitempty"`
	VenueType   *string   `json:"venue_type,omitempty"`
	CapacityMin *int      `json:"capacity_min,omitempty"`
	Lodging     *bool     `json:"lodging,omitempty"`
	BedsMin     *int      `json:"beds_min,omitempty"`
}

// Ptr returns a pointer to v. Handy for building filters and fixtures.
func Ptr[T any](v T) *T {
	return &v
}

// Normalize returns a copy of f with the search term trimmed and empty
// values, including the CategoryAll sentinel, cleared.
func (f VendorFilter) Normalize() VendorFilter {
	f.Search = strings.TrimSpace(f.Search)
	if f.Category != nil && (*f.Category == "" || *f.Category == CategoryAll) {
		f.Category = nil
	}
	if f.Region != nil && *f.Region == "" {
		f.Region = nil
	}
	if f.VenueType != nil && strings.TrimSpace(*f.VenueType) == "" {
		f.VenueType = nil
	}
	return f
}

// VenueFiltersApply reports whether the venue-only criteria are in effect.
func (f VendorFilter) VenueFiltersApply() bool {
	return f.Category != nil && *f.Category == CategoryVenue
}

// Validate checks enum fields. Numeric bounds are passed through unchanged,
// including negative ones.
func (f VendorFilter) Validate() error {
	var ve ValidationError
	if f.Category != nil && *f.Category != CategoryAll && *f.Category != "" && !f.Category.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "category",
			Message: fmt.Sprintf("invalid value %q", *f.Category),
		})
	}
	if f.Region != nil && *f.Region != "" && !f.Region.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "region",
			Message: fmt.Sprintf("invalid value %q", *f.Region),
		})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// IsZero reports whether the filter constrains nothing beyond the defaults.
func (f VendorFilter) IsZero() bool {
	n := f.Normalize()
	return n.Search == "" && n.Category == nil && n.Region == nil &&
		n.MinPrice == nil && n.MaxPrice == nil && n.VenueType == nil &&
		n.CapacityMin == nil && n.Lodging == nil && n.BedsMin == nil
}

// Values encodes the filter as URL query parameters.
func (f VendorFilter) Values() url.Values {
	v := url.Values{}
	if f.Search != "" {
		v.Set("search", f.Search)
	}
	if f.Category != nil {
		v.Set("category", string(*f.Category))
	}
	if f.Region != nil {
		v.Set("region", string(*f.Region))
	}
	if f.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if f.VenueType != nil {
		v.Set("venue_type", *f.VenueType)
	}
	if f.CapacityMin != nil {
		v.Set("capacity_min", strconv.Itoa(*f.CapacityMin))
	}
	if f.Lodging != nil {
		v.Set("lodging", strconv.FormatBool(*f.Lodging))
	}
	if f.BedsMin != nil {
		v.Set("beds_min", strconv.Itoa(*f.BedsMin))
	}
	return v
}

// ParseVendorFilter decodes query parameters produced by Values. Malformed
// numbers and booleans are reported as a *ValidationError, as are unknown
// category and region values. The result is normalized.
func ParseVendorFilter(v url.Values) (VendorFilter, error) {
	var f VendorFilter
	var ve ValidationError

	f.Search = v.Get("search")
	if s := v.Get("category"); s != "" {
		f.Category = Ptr(Category(s))
	}
	if s := v.Get("region"); s != "" {
		f.Region = Ptr(Region(s))
	}
	if s := v.Get("venue_type"); s != "" {
		f.VenueType = Ptr(s)
	}

	parseFloat := func(field string) *float64 {
		s := v.Get(field)
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: fmt.Sprintf("invalid number %q", s)})
			return nil
		}
		return &n
	}
	parseInt := func(field string) *int {
		s := v.Get(field)
		if s == "" {
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: field, Message: fmt.Sprintf("invalid integer %q", s)})
			return nil
		}
		return &n
	}

	f.MinPrice = parseFloat("min_price")
	f.MaxPrice = parseFloat("max_price")
	f.CapacityMin = parseInt("capacity_min")
	f.BedsMin = parseInt("beds_min")
	if s := v.Get("lodging"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			ve.Errors = append(ve.Errors, FieldError{Field: "lodging", Message: fmt.Sprintf("invalid boolean %q", s)})
		} else {
			f.Lodging = &b
		}
	}

	if err := f.Validate(); err != nil {
		ve.Errors = append(ve.Errors, err.(*ValidationError).Errors...)
	}
	if ve.HasErrors() {
		return VendorFilter{}, &ve
	}
	return f.Normalize(), nil
}
