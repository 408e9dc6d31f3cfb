package model

import (
	"fmt"
	"strings"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ValidateVendor checks a Vendor before it is written.
// It returns a *ValidationError if any rules fail, or nil if the vendor is valid.
func ValidateVendor(v *Vendor) error {
	var ve ValidationError

	name := strings.TrimSpace(v.Name)
	if name == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "is required"})
	} else if len([]rune(name)) > 200 {
		ve.Errors = append(ve.Errors, FieldError{Field: "name", Message: "must be 200 characters or fewer"})
	}

	if !v.Category.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "category",
			Message: fmt.Sprintf("invalid value %q", v.Category),
		})
	}

	// Region is optional for nationwide vendors.
	if v.Region != "" && !v.Region.IsValid() {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   "region",
			Message: fmt.Sprintf("invalid value %q", v.Region),
		})
	}

	if v.StartingPrice != nil && *v.StartingPrice < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "starting_price", Message: "must not be negative"})
	}
	if v.PricePerGuest != nil && *v.PricePerGuest < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "price_per_guest", Message: "must not be negative"})
	}
	if v.Capacity != nil && *v.Capacity < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "capacity", Message: "must not be negative"})
	}
	if v.Beds != nil && *v.Beds < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "beds", Message: "must not be negative"})
	}

	if !v.IsVenue() {
		for _, attr := range []struct {
			field string
			set   bool
		}{
			{"venue_type", v.VenueType != ""},
			{"capacity", v.Capacity != nil},
			{"lodging", v.Lodging != nil},
			{"beds", v.Beds != nil},
		} {
			if attr.set {
				ve.Errors = append(ve.Errors, FieldError{
					Field:   attr.field,
					Message: fmt.Sprintf("only applies to category %q", CategoryVenue),
				})
			}
		}
	}

	if ve.HasErrors() {
		return &ve
	}
	return nil
}

// ValidatePhoto checks a Photo before it is written.
func ValidatePhoto(p *Photo) error {
	var ve ValidationError
	if strings.TrimSpace(p.VendorID) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "vendor_id", Message: "is required"})
	}
	if strings.TrimSpace(p.URL) == "" {
		ve.Errors = append(ve.Errors, FieldError{Field: "url", Message: "is required"})
	}
	if p.Order < 0 {
		ve.Errors = append(ve.Errors, FieldError{Field: "order", Message: "must not be negative"})
	}
	if ve.HasErrors() {
		return &ve
	}
	return nil
}
