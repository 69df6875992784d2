package web

import (
	"context"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hpungsan/abacus/internal/errors"
	"github.com/hpungsan/abacus/internal/ops"
)

// Pinger reports whether the storage engine is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP route handlers for the calculations API.
type Handlers struct {
	repo   *ops.Repository
	pinger Pinger
	log    logrus.FieldLogger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(repo *ops.Repository, pinger Pinger, log logrus.FieldLogger) *Handlers {
	return &Handlers{repo: repo, pinger: pinger, log: log}
}

// HandleList handles GET /api/calculations: the 50 most recent records.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListRecent(r.Context(), ops.HistoryLimit)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusOK, items)
}

// HandleCreate handles POST /api/calculations.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCreateRequest(w, r)
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	created, err := h.repo.Create(r.Context(), ops.CreateInput{
		Expression: *req.Expression,
		Result:     *req.Result,
	})
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	renderJSON(w, http.StatusCreated, created)
}

// HandleClear handles DELETE /api/calculations. The deleted count is logged, not returned.
func (h *Handlers) HandleClear(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ClearAll(r.Context())
	if err != nil {
		h.renderError(w, r, err)
		return
	}

	requestLogger(h.log, r).WithField("deleted", out.Deleted).Info("history cleared")
	w.WriteHeader(http.StatusNoContent)
}

// HandleHealth handles GET /healthz.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pinger.Ping(ctx); err != nil {
		requestLogger(h.log, r).WithError(err).Warn("health check failed")
		renderJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// HandleAPINotFound handles any /api/ path without a route.
func (h *Handlers) HandleAPINotFound(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/calculations" {
		w.Header().Set("Allow", "GET, POST, DELETE, OPTIONS")
		renderJSON(w, http.StatusMethodNotAllowed, messageBody{Message: "Method not allowed"})
		return
	}
	h.renderError(w, r, errors.NewNotFound(r.URL.Path))
}
