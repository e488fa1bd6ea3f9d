package api

import (
	"net/http"
)

const (
	corsAllowMethods = "GET, POST, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type"
)

// setCORSHeaders fills in the CORS headers every response carries. An
// Allow-Origin already set by the origin-aware cors middleware is kept.
func (s *AIService) setCORSHeaders(w http.ResponseWriter) {
	h := w.Header()
	if s.allowAnyOrigin && h.Get("Access-Control-Allow-Origin") == "" {
		h.Set("Access-Control-Allow-Origin", "*")
	}
	h.Set("Access-Control-Allow-Methods", corsAllowMethods)
	h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
}

func (s *AIService) corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w)
		next.ServeHTTP(w, r)
	})
}

func (s *AIService) preflight(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *AIService) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}

func (s *AIService) notFound(w http.ResponseWriter, r *http.Request) {
	s.setCORSHeaders(w)
	http.Error(w, "Not found", http.StatusNotFound)
}
