package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/alfredjeanlab/prestataires/internal/model"
	"github.com/alfredjeanlab/prestataires/internal/storage"
)

// handleListVendors handles GET /v1/vendors.
func (s *VendorServer) handleListVendors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := model.ParseVendorFilter(q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	pageIndex, err := intParam(q.Get("page"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page: "+err.Error())
		return
	}
	pageSize, err := intParam(q.Get("page_size"), 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "page_size: "+err.Error())
		return
	}

	page, err := s.listVendors(r.Context(), filter, pageIndex, pageSize)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGetVendor handles GET /v1/vendors/{id}.
func (s *VendorServer) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	v, err := s.getVendor(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleListPhotos handles GET /v1/vendors/{id}/photos.
func (s *VendorServer) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	photos, err := s.listPhotos(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photos": photos})
}

// handlePrimaryPhoto handles GET /v1/vendors/{id}/photos/primary. A vendor
// without photos yields {"photo": null}.
func (s *VendorServer) handlePrimaryPhoto(w http.ResponseWriter, r *http.Request) {
	p, err := s.primaryPhoto(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"photo": p})
}

// handleCategories handles GET /v1/categories.
func (s *VendorServer) handleCategories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"categories": model.PublicCategories()})
}

// handleRegions handles GET /v1/regions.
func (s *VendorServer) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"regions": model.Regions()})
}

// handleCreateVendor handles POST /v1/vendors.
func (s *VendorServer) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var in vendorInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v, err := s.createVendor(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleUpdateVendor handles PATCH /v1/vendors/{id}.
func (s *VendorServer) handleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	var in vendorInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	v, err := s.updateVendor(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleDeleteVendor handles DELETE /v1/vendors/{id}.
func (s *VendorServer) handleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := s.deleteVendor(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadPhoto handles POST /v1/vendors/{id}/photos. The body is the
// raw image; principale, cover and order are query parameters.
func (s *VendorServer) handleUploadPhoto(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := photoInput{ContentType: r.Header.Get("Content-Type")}

	var err error
	if in.Principale, err = boolParam(q.Get("principale")); err != nil {
		writeError(w, http.StatusBadRequest, "principale: "+err.Error())
		return
	}
	if in.IsCover, err = boolParam(q.Get("cover")); err != nil {
		writeError(w, http.StatusBadRequest, "cover: "+err.Error())
		return
	}
	if in.Order, err = intParam(q.Get("order"), 0); err != nil {
		writeError(w, http.StatusBadRequest, "order: "+err.Error())
		return
	}

	// Read one byte past the limit so oversized uploads are detected.
	in.Data, err = io.ReadAll(io.LimitReader(r.Body, storage.MaxPhotoSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	p, err := s.addPhoto(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func intParam(s string, fallback int) (int, error) {
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return n, nil
}

func boolParam(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}
