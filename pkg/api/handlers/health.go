package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/kyberchat/kyberchat/pkg/blob"
	"github.com/kyberchat/kyberchat/pkg/store"
)

// HealthHandler handles the liveness and readiness probes.
//
// Both endpoints are unauthenticated. Liveness only proves the process is
// serving; readiness additionally pings the database and the blob store.
type HealthHandler struct {
	store   store.Store
	blobs   blob.Store
	version string
	started time.Time
}

// NewHealthHandler creates a new health handler.
//
// store and blobs may be nil, in which case readiness reports the missing
// dependency as uninitialized and returns 503.
func NewHealthHandler(st store.Store, blobs blob.Store, version string) *HealthHandler {
	return &HealthHandler{
		store:   st,
		blobs:   blobs,
		version: version,
		started: time.Now(),
	}
}

// LivenessResponse is the response body for GET /health.
type LivenessResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// ReadinessResponse is the response body for GET /ready.
type ReadinessResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Blobs    string `json:"blobs"`
	Error    string `json:"error,omitempty"`
}

// Liveness handles GET /health - simple liveness probe.
// Always 200 while the HTTP server is responsive.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, LivenessResponse{
		Status:  "ok",
		Service: "kyberchat",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness handles GET /ready - readiness probe.
// 200 when both the database and the blob store answer a healthcheck
// within 5 seconds, 503 otherwise.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	resp := ReadinessResponse{Status: "ready", Database: "ok", Blobs: "ok"}

	if h.store == nil {
		resp.Database = "uninitialized"
	} else if err := h.store.Healthcheck(ctx); err != nil {
		resp.Database = "unhealthy"
		resp.Error = err.Error()
	}

	if h.blobs == nil {
		resp.Blobs = "uninitialized"
	} else if err := h.blobs.HealthCheck(ctx); err != nil {
		resp.Blobs = "unhealthy"
		if resp.Error == "" {
			resp.Error = err.Error()
		}
	}

	if resp.Database != "ok" || resp.Blobs != "ok" {
		resp.Status = "unavailable"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	WriteJSONOK(w, resp)
}
