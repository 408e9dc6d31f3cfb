package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxPhotoSize bounds uploaded photos.
const MaxPhotoSize = 10 << 20

var (
	// ErrUnsupportedType is returned for content other than JPEG, PNG, WebP or GIF.
	ErrUnsupportedType = errors.New("storage: unsupported photo type")
	// ErrTooLarge is returned for photos above MaxPhotoSize.
	ErrTooLarge = errors.New("storage: photo too large")
	// ErrEmpty is returned for empty uploads.
	ErrEmpty = errors.New("storage: empty photo")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PhotoStore writes photos under vendors/<vendorID>/ in a bucket and
// returns their public URL.
type PhotoStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

// NewPhotoStore returns a store writing to bucket. Public URLs are built
// from publicBaseURL, which should point at the bucket root.
func NewPhotoStore(client ObjectPutter, bucket, publicBaseURL string) *PhotoStore {
	return &PhotoStore{client: client, bucket: bucket, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Key returns the object key of a photo.
func Key(vendorID, photoID, ext string) string {
	return "vendors/" + vendorID + "/" + photoID + ext
}

// Put uploads data as photo photoID of vendorID and returns its public URL.
// An empty contentType is sniffed from the data.
func (s *PhotoStore) Put(ctx context.Context, vendorID, photoID, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if len(data) > MaxPhotoSize {
		return "", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	contentType, _, _ = strings.Cut(contentType, ";")
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	ext, ok := extensions[contentType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	key := Key(vendorID, photoID, ext)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object %s: %w", key, err)
	}
	slog.Info("photo uploaded", "vendor_id", vendorID, "key", key, "bytes", len(data))
	return s.baseURL + "/" + key, nil
}
