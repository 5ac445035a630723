package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET", "HEAD")
	s.router.HandleFunc("/ready", s.handleReady).Methods("GET", "HEAD")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/collections", s.handleListCollections).Methods("GET")
	api.HandleFunc("/collections/{name}/stats", s.handleCollectionStats).Methods("GET")
	api.HandleFunc("/collections/{name}/index/{attribute}/{value}", s.handleIndexLookup).Methods("GET")

	s.router.HandleFunc("/", s.handleRoot).Methods("GET")
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"collections": s.stats.CollectionNames()})
}

func (s *Server) handleCollectionStats(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	stats, ok := s.stats.CollectionStats(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": "no such collection",
			"name":    name,
		})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleIndexLookup(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	ids, ok := s.stats.IndexLookup(vars["name"], vars["attribute"], vars["value"])
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error":   "not_found",
			"message": "no such collection",
			"name":    vars["name"],
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"collection": vars["name"],
		"attribute":  vars["attribute"],
		"value":      vars["value"],
		"doc_ids":    ids,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "assoctable",
		"status":  "running",
		"endpoints": map[string]string{
			"health":      "/health",
			"ready":       "/ready",
			"metrics":     "/metrics",
			"collections": "/v1/collections",
		},
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   "not_found",
		"message": "endpoint not found",
		"path":    r.URL.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
