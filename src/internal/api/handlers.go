package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maksimkurb/openwrt-monitor/src/internal/core"
)

// DefaultActionTimeout bounds ad-hoc actions that outlive their request.
const DefaultActionTimeout = 30 * time.Second

// DependenciesProvider returns the instances currently being served.
// The service swaps them on configuration reload.
type DependenciesProvider interface {
	Dependencies() *core.AppDependencies
}

// Handler manages all API endpoints and dependencies.
type Handler struct {
	provider DependenciesProvider
	// spawn runs fire-and-forget work. Tests replace it to run inline.
	spawn func(func())
}

// NewHandler creates a new API handler.
func NewHandler(provider DependenciesProvider) *Handler {
	return &Handler{
		provider: provider,
		spawn:    func(f func()) { go f() },
	}
}

// instance resolves the {name} URL parameter, writing a 404 when it is unknown.
func (h *Handler) instance(w http.ResponseWriter, r *http.Request) (*core.Instance, bool) {
	name := chi.URLParam(r, "name")
	deps := h.provider.Dependencies()
	if deps == nil {
		WriteUnavailable(w, "service is starting")
		return nil, false
	}
	inst, ok := deps.Instance(name)
	if !ok {
		WriteNotFound(w, "router "+name)
		return nil, false
	}
	return inst, true
}

// detached returns a context that survives the request but not the timeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), DefaultActionTimeout)
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(DataResponse{Data: data})
}

// writeJSONData writes a successful JSON response with data.
func writeJSONData(w http.ResponseWriter, data interface{}) {
	writeJSON(w, http.StatusOK, data)
}

// decodeJSON decodes JSON from the request body.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
