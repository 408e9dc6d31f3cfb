package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/pager"
	"github.com/alfredjeanlab/prestataires/internal/query"
)

// HTTPClient implements VendorsClient using the HTTP/JSON REST API. It also
// carries the admin calls, which are only served over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Read API ---

func (c *HTTPClient) FetchPage(ctx context.Context, q *query.Query, pageIndex, pageSize int) (*pager.Page, error) {
	v := q.Filter().Values()
	v.Set("page", strconv.Itoa(pageIndex))
	if pageSize > 0 {
		v.Set("page_size", strconv.Itoa(pageSize))
	}
	var page pager.Page
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vendors?"+v.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *HTTPClient) GetVendor(ctx context.Context, id string) (*model.Vendor, error) {
	var v model.Vendor
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vendors/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) ListPhotos(ctx context.Context, vendorID string) ([]*model.Photo, error) {
	var resp struct {
		Photos []*model.Photo `json:"photos"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vendors/"+url.PathEscape(vendorID)+"/photos", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Photos, nil
}

func (c *HTTPClient) PrimaryPhoto(ctx context.Context, vendorID string) (*model.Photo, error) {
	var resp struct {
		Photo *model.Photo `json:"photo"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/vendors/"+url.PathEscape(vendorID)+"/photos/primary", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Photo, nil
}

func (c *HTTPClient) Categories(ctx context.Context) ([]model.Category, error) {
	var resp struct {
		Categories []model.Category `json:"categories"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

func (c *HTTPClient) Regions(ctx context.Context) ([]model.Region, error) {
	var resp struct {
		Regions []model.Region `json:"regions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/regions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Regions, nil
}

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- Admin API ---

func (c *HTTPClient) CreateVendor(ctx context.Context, in *VendorInput) (*model.Vendor, error) {
	var v model.Vendor
	if err := c.doJSON(ctx, http.MethodPost, "/v1/vendors", in, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *HTTPClient) UpdateVendor(ctx context.Context, id string, in *VendorInput) (*model.Vendor, error) {
	var v model.Vendor
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/vendors/"+url.PathEscape(id), in, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertVendor updates the vendor with in's ID, creating it when the server
// does not know it. It reports whether the vendor was created.
func (c *HTTPClient) UpsertVendor(ctx context.Context, in *VendorInput) (*model.Vendor, bool, error) {
	if in.ID == nil || *in.ID == "" {
		v, err := c.CreateVendor(ctx, in)
		return v, err == nil, err
	}
	v, err := c.UpdateVendor(ctx, *in.ID, in)
	if err == nil {
		return v, false, nil
	}
	if !IsNotFound(err) {
		return nil, false, err
	}
	v, err = c.CreateVendor(ctx, in)
	return v, err == nil, err
}

func (c *HTTPClient) DeleteVendor(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/vendors/"+url.PathEscape(id), nil, nil)
}

// UploadPhoto sends the raw image bytes; the server stores them and attaches
// the photo to the vendor.
func (c *HTTPClient) UploadPhoto(ctx context.Context, req *UploadPhotoRequest) (*model.Photo, error) {
	q := url.Values{}
	if req.Principale {
		q.Set("principale", "true")
	}
	if req.IsCover {
		q.Set("cover", "true")
	}
	if req.Order != 0 {
		q.Set("order", strconv.Itoa(req.Order))
	}
	path := "/v1/vendors/" + url.PathEscape(req.VendorID) + "/photos"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(req.Data)
	}
	var p model.Photo
	if err := c.do(ctx, http.MethodPost, path, contentType, bytes.NewReader(req.Data), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	if body == nil {
		return c.do(ctx, method, path, "", nil, result)
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request body: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(data), result)
}

func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
