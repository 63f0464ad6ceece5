package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/crickline/scoring-service/internal/engine"
	"github.com/crickline/scoring-service/internal/hub"
	"github.com/crickline/scoring-service/internal/scoring"
	"github.com/crickline/scoring-service/internal/store"
	"github.com/crickline/scoring-service/pkg/models"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	store   store.Store
	scoring *scoring.Service
	hub     *hub.Hub

	// wsCtx outlives individual requests; client pumps run under it
	wsCtx context.Context
}

// NewHandler creates a new handler with dependencies. ctx governs WebSocket
// client lifetimes.
func NewHandler(ctx context.Context, st store.Store, svc *scoring.Service, h *hub.Hub) *Handler {
	return &Handler{
		store:   st,
		scoring: svc,
		hub:     h,
		wsCtx:   ctx,
	}
}

// HealthCheck returns the health status of the service
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unhealthy", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "scoring-service",
		"viewers":   h.hubClientCount(),
	})
}

func (h *Handler) hubClientCount() int {
	if h.hub == nil {
		return 0
	}
	return h.hub.GetClientCount()
}

// Helper functions

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("error encoding response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := models.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}

	if err != nil {
		fmt.Printf("error: %s - %v\n", message, err)
	}

	if err := json.NewEncoder(w).Encode(errResp); err != nil {
		fmt.Printf("error encoding error response: %v\n", err)
	}
}

// respondDomainError maps the scoring error taxonomy onto HTTP statuses:
// validation 400, not found 404, state conflict 409, integrity 500
func respondDomainError(w http.ResponseWriter, err error, fallback string) {
	var (
		validation *engine.ValidationError
		notFound   *engine.NotFoundError
		conflict   *engine.StateConflictError
		integrity  *engine.IntegrityError
	)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found", err)
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, validation.Msg, err)
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, notFound.Error(), err)
	case errors.As(err, &conflict):
		respondError(w, http.StatusConflict, conflict.Msg, err)
	case errors.As(err, &integrity):
		respondError(w, http.StatusInternalServerError, integrity.Msg, err)
	default:
		respondError(w, http.StatusInternalServerError, fallback, err)
	}
}
