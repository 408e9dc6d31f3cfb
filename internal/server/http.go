package server

import (
	"encoding/json"
	"net/http"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// NewHTTPHandler returns an http.Handler with all routes registered.
// Requests carrying an Authorization header must present a valid token;
// mutations additionally require an admin session.
func (s *VendorServer) NewHTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/vendors", s.handleListVendors)
	mux.HandleFunc("POST /v1/vendors", s.handleCreateVendor)
	mux.HandleFunc("GET /v1/vendors/{id}", s.handleGetVendor)
	mux.HandleFunc("PATCH /v1/vendors/{id}", s.handleUpdateVendor)
	mux.HandleFunc("DELETE /v1/vendors/{id}", s.handleDeleteVendor)
	mux.HandleFunc("GET /v1/vendors/{id}/photos", s.handleListPhotos)
	mux.HandleFunc("POST /v1/vendors/{id}/photos", s.handleUploadPhoto)
	mux.HandleFunc("GET /v1/vendors/{id}/photos/primary", s.handlePrimaryPhoto)
	mux.HandleFunc("GET /v1/categories", s.handleCategories)
	mux.HandleFunc("GET /v1/regions", s.handleRegions)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	return RequestIDMiddleware(AccessLogMiddleware(SessionMiddleware(s.verifier, mux)))
}

// handleHealth handles GET /v1/health.
func (s *VendorServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.health(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
