// Package idgen provides short, URL-safe unique ID generation backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes distinguishing the kinds of generated IDs.
const (
	VendorPrefix = "pr-"
	PhotoPrefix  = "ph-"
)

// DefaultPrefix is prepended to IDs from Generate.
var DefaultPrefix = VendorPrefix

// Alphabet defines the character set used for the random portion of the ID.
var Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Length is the number of random characters generated (excluding the prefix).
var Length = 10

// Generate returns a new unique ID using the default prefix.
func Generate() (string, error) {
	return GenerateWithPrefix(DefaultPrefix)
}

// NewVendorID returns an ID for a vendor.
func NewVendorID() (string, error) {
	return GenerateWithPrefix(VendorPrefix)
}

// NewPhotoID returns an ID for a photo.
func NewPhotoID() (string, error) {
	return GenerateWithPrefix(PhotoPrefix)
}

// GenerateWithPrefix returns a new unique ID with the given prefix.
func GenerateWithPrefix(prefix string) (string, error) {
	id, err := nanoid.Generate(Alphabet, Length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return prefix + id, nil
}
