// Package api provides the HTTP handlers and routing that let external
// schedulers trigger spiders and inspect their container records.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"spidertrigger/internal/apperrors"
	"spidertrigger/internal/health"
	"spidertrigger/internal/observability"
	"spidertrigger/internal/spider"
	"spidertrigger/internal/trigger"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Container listing limits
const (
	defaultContainerLimit = 50
	maxContainerLimit     = 500
)

// Triggerer runs one trigger invocation.
type Triggerer interface {
	Trigger(ctx context.Context, spiderID int64) *trigger.Report
}

// ContainerLister reads container records of a spider, newest first.
type ContainerLister interface {
	ListContainers(ctx context.Context, spiderID int64, limit int) ([]spider.ContainerRecord, error)
}

// ContainersResponse is the body of GET /v1/spiders/{spiderId}/containers.
type ContainersResponse struct {
	SpiderID   int64                    `json:"spiderId"`
	Containers []spider.ContainerRecord `json:"containers"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Handler contains HTTP handlers for the spider API
type Handler struct {
	triggers   Triggerer
	containers ContainerLister
	health     *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(triggers Triggerer, containers ContainerLister, healthChecker *health.Checker) *Handler {
	return &Handler{
		triggers:   triggers,
		containers: containers,
		health:     healthChecker,
	}
}

// TriggerSpider handles POST /v1/spiders/{spiderId}/trigger.
// The report is returned for every outcome; the status code reflects it.
func (h *Handler) TriggerSpider(w http.ResponseWriter, r *http.Request) {
	id, err := spiderIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	timing := observability.StartTiming(r.Context(), "trigger", "spider trigger")
	report := h.triggers.Trigger(r.Context(), id)
	timing.Stop()

	status := http.StatusCreated
	if !report.OK() {
		status = apperrors.HTTPStatus(report.Err)
	}
	writeJSON(w, status, report)
}

// ListContainers handles GET /v1/spiders/{spiderId}/containers
func (h *Handler) ListContainers(w http.ResponseWriter, r *http.Request) {
	id, err := spiderIDParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	limit := defaultContainerLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxContainerLimit {
			h.handleError(w, r, apperrors.Validation("limit", "limit must be between 1 and "+strconv.Itoa(maxContainerLimit)))
			return
		}
	}

	timing := observability.StartTiming(r.Context(), "db", "list containers")
	records, err := h.containers.ListContainers(r.Context(), id, limit)
	timing.Stop()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	if records == nil {
		records = []spider.ContainerRecord{}
	}

	writeJSON(w, http.StatusOK, ContainersResponse{SpiderID: id, Containers: records})
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.health.Liveness(r.Context()))
}

// Readyz handles GET /readyz - readiness probe.
// Returns 503 if Docker or the database is unavailable.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func spiderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "spiderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("spiderId", "spider ID must be a positive integer")
	}
	return id, nil
}

// handleError handles errors with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Internal error", "error", err, "path", r.URL.Path)
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Field: apperrors.FieldOf(err)})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
