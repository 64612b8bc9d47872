package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/api/v1/ping", s.handlePing)
	r.Get("/api/v1/debug/transformData/{transformData}", s.handleTransformData)
	r.Post("/api/v1/discovery", s.handleDiscovery)

	// Every method: the verb is part of the dispatch key.
	r.HandleFunc(s.callbackPath, s.handleCallback)

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	return r
}

// handlePing answers liveness probes.
func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	writeText(w, http.StatusOK, "pong")
}

// handleTransformData sets the process-wide transform flag.
func (s *Server) handleTransformData(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "transformData")
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		writeBadRequest(w, "transformData must be a boolean, got "+strconv.Quote(raw))
		return
	}

	s.transform.Set(enabled)
	s.logger.Info("transform data set", "enabled", enabled)
	writeText(w, http.StatusOK, "Set transform data to: "+strconv.FormatBool(enabled))
}

// handleDiscovery starts a scan and returns without waiting for it.
func (s *Server) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	if s.discovery == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "discovery is disabled")
		return
	}

	if scanID, started := s.discovery.Trigger(); started {
		s.logger.Info("discovery triggered", "scan_id", scanID)
	}
	writeText(w, http.StatusOK, "Running discovery")
}
