package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/logger"
)

type ProxyService interface {
	Fetch(ctx context.Context, req dto.ProxyRequest) (json.RawMessage, error)
}

// proxyHandlers speak the relay's own wire shape instead of the
// success/error envelope used by the rest of the API.
type proxyHandlers struct {
	ProxySvc ProxyService
}

func NewProxyHandlers(deps *Deps) *proxyHandlers {
	return &proxyHandlers{ProxySvc: deps.ProxySvc}
}

func (h *proxyHandlers) ProxyRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Proxy)
	return r
}

func (h *proxyHandlers) Proxy(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	body, err := h.ProxySvc.Fetch(r.Context(), dto.ProxyRequest{
		URL:    q.Get("url"),
		Token:  q.Get("token"),
		Header: q.Get("header"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, body)
}

func (h *proxyHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr *errs.ValidationError
		uerr *errs.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, r, http.StatusBadRequest, dto.ProxyErrorResponse{Error: verr.Message})
	case errors.As(err, &uerr):
		writeJSON(w, r, uerr.Status, dto.ProxyUpstreamErrorResponse{Error: uerr.Message, Details: uerr.Body})
	default:
		logger.FromContext(r.Context()).Error("proxy internal error", "error", err)
		writeJSON(w, r, http.StatusInternalServerError, dto.ProxyErrorResponse{Error: "Failed to fetch data"})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if raw, ok := v.(json.RawMessage); ok {
		w.Write(raw)
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode proxy response", "error", err)
	}
}
