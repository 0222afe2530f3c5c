package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
	"github.com/GregMSThompson/finance-dashboard/internal/response"
)

const (
	maxImportBytes = 5 << 20
	exportFilename = "dashboard_config.json"
)

type RegistryService interface {
	List(ctx context.Context) []models.Widget
	Get(ctx context.Context, id string) (models.Widget, bool)
	AddWidget(ctx context.Context, req dto.CreateWidgetRequest) (models.Widget, error)
	Remove(ctx context.Context, id string) (bool, error)
	UpdateWidget(ctx context.Context, id string, patch dto.WidgetPatch) (models.Widget, error)
	ReplaceAll(ctx context.Context, widgets []models.Widget) error
	ReorderByID(ctx context.Context, ids []string) error
	MoveWidget(ctx context.Context, id string, to int) error
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, doc []byte) error
}

type WidgetPoller interface {
	View(id string) (dto.WidgetView, bool)
	Views() []dto.WidgetView
	Refresh(id string) bool
}

type dashboardHandlers struct {
	ResponseHandler response.ResponseHandler
	RegistrySvc     RegistryService
	Poller          WidgetPoller
}

func NewDashboardHandlers(deps *Deps) *dashboardHandlers {
	return &dashboardHandlers{
		ResponseHandler: deps.ResponseHandler,
		RegistrySvc:     deps.RegistrySvc,
		Poller:          deps.Poller,
	}
}

func (h *dashboardHandlers) DashboardRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.GetDashboard)
	r.Get("/data", h.GetDashboardData)
	r.Get("/export", h.ExportDashboard)
	r.Post("/import", h.ImportDashboard)
	r.Post("/widgets", h.AddWidget)
	r.Put("/widgets", h.ReplaceWidgets)
	r.Put("/widgets/reorder", h.ReorderWidgets) // must be before /{widgetId}
	r.Get("/widgets/{widgetId}", h.GetWidget)
	r.Patch("/widgets/{widgetId}", h.UpdateWidget)
	r.Delete("/widgets/{widgetId}", h.DeleteWidget)
	r.Post("/widgets/{widgetId}/move", h.MoveWidget)
	r.Get("/widgets/{widgetId}/data", h.GetWidgetData)
	r.Post("/widgets/{widgetId}/refresh", h.RefreshWidget)
	return r
}

func (h *dashboardHandlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.RegistrySvc.List(r.Context()))
}

func (h *dashboardHandlers) GetWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	widget, ok := h.RegistrySvc.Get(r.Context(), widgetID)
	if !ok {
		h.ResponseHandler.HandleError(w, r, errs.NewNotFoundError("widget not found"))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, widget)
}

func (h *dashboardHandlers) AddWidget(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	widget, err := h.RegistrySvc.AddWidget(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, widget)
}

func (h *dashboardHandlers) UpdateWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	var patch dto.WidgetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	widget, err := h.RegistrySvc.UpdateWidget(r.Context(), widgetID, patch)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, widget)
}

func (h *dashboardHandlers) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	removed, err := h.RegistrySvc.Remove(r.Context(), widgetID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if !removed {
		h.ResponseHandler.HandleError(w, r, errs.NewNotFoundError("widget not found"))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *dashboardHandlers) ReplaceWidgets(w http.ResponseWriter, r *http.Request) {
	var widgets []models.Widget
	if err := json.NewDecoder(r.Body).Decode(&widgets); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.RegistrySvc.ReplaceAll(r.Context(), widgets); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.RegistrySvc.List(r.Context()))
}

func (h *dashboardHandlers) ReorderWidgets(w http.ResponseWriter, r *http.Request) {
	var req dto.ReorderWidgetsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.RegistrySvc.ReorderByID(r.Context(), req.IDs); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.RegistrySvc.List(r.Context()))
}

func (h *dashboardHandlers) MoveWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	var req dto.MoveWidgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if err := h.RegistrySvc.MoveWidget(r.Context(), widgetID, req.To); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.RegistrySvc.List(r.Context()))
}

// ExportDashboard streams the persisted document as a download.
func (h *dashboardHandlers) ExportDashboard(w http.ResponseWriter, r *http.Request) {
	doc, err := h.RegistrySvc.Export(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

// ImportDashboard replaces the registry with the uploaded document. The body
// is the raw export document, not an envelope.
func (h *dashboardHandlers) ImportDashboard(w http.ResponseWriter, r *http.Request) {
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, errs.NewMalformedImportError("could not read import document", err))
		return
	}
	if err := h.RegistrySvc.Import(r.Context(), doc); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.RegistrySvc.List(r.Context()))
}

func (h *dashboardHandlers) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, h.Poller.Views())
}

func (h *dashboardHandlers) GetWidgetData(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	view, ok := h.Poller.View(widgetID)
	if !ok {
		h.ResponseHandler.HandleError(w, r, errs.NewNotFoundError("widget not found"))
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

// RefreshWidget starts an immediate fetch cycle and returns the current view.
func (h *dashboardHandlers) RefreshWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "widgetId")
	if !h.Poller.Refresh(widgetID) {
		h.ResponseHandler.HandleError(w, r, errs.NewNotFoundError("widget not found"))
		return
	}
	view, _ := h.Poller.View(widgetID)
	h.ResponseHandler.WriteSuccess(w, r, http.StatusAccepted, view)
}
