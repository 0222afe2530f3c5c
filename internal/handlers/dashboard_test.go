package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/GregMSThompson/finance-dashboard/internal/dto"
	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/internal/models"
)

// --- Stubs ---

type stubResponseHandler struct {
	writeSuccessCalled bool
	writeSuccessStatus int
	writeSuccessData   any

	handleErrorCalled bool
	handleError       error

	writeErrorCalled bool
	writeErrorStatus int
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessData = data

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"success":true}`))
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, _, _ string) {
	s.writeErrorCalled = true
	s.writeErrorStatus = status
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, err error) {
	s.handleErrorCalled = true
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

type stubRegistryService struct {
	widgets     []models.Widget
	addWidget   models.Widget
	addErr      error
	updateErr   error
	removed     bool
	removeErr   error
	replaceErr  error
	reorderErr  error
	moveErr     error
	exportDoc   []byte
	exportErr   error
	importErr   error
	lastAddReq  dto.CreateWidgetRequest
	lastID      string
	lastPatch   dto.WidgetPatch
	lastReplace []models.Widget
	lastIDs     []string
	lastTo      int
	lastImport  []byte
}

func (s *stubRegistryService) List(context.Context) []models.Widget { return s.widgets }

func (s *stubRegistryService) Get(_ context.Context, id string) (models.Widget, bool) {
	for _, w := range s.widgets {
		if w.ID == id {
			return w, true
		}
	}
	return models.Widget{}, false
}

func (s *stubRegistryService) AddWidget(_ context.Context, req dto.CreateWidgetRequest) (models.Widget, error) {
	s.lastAddReq = req
	return s.addWidget, s.addErr
}

func (s *stubRegistryService) Remove(_ context.Context, id string) (bool, error) {
	s.lastID = id
	return s.removed, s.removeErr
}

func (s *stubRegistryService) UpdateWidget(_ context.Context, id string, patch dto.WidgetPatch) (models.Widget, error) {
	s.lastID = id
	s.lastPatch = patch
	return patch.Apply(models.Widget{ID: id}), s.updateErr
}

func (s *stubRegistryService) ReplaceAll(_ context.Context, widgets []models.Widget) error {
	s.lastReplace = widgets
	return s.replaceErr
}

func (s *stubRegistryService) ReorderByID(_ context.Context, ids []string) error {
	s.lastIDs = ids
	return s.reorderErr
}

func (s *stubRegistryService) MoveWidget(_ context.Context, id string, to int) error {
	s.lastID = id
	s.lastTo = to
	return s.moveErr
}

func (s *stubRegistryService) Export(context.Context) ([]byte, error) {
	return s.exportDoc, s.exportErr
}

func (s *stubRegistryService) Import(_ context.Context, doc []byte) error {
	s.lastImport = doc
	return s.importErr
}

type stubPoller struct {
	views     map[string]dto.WidgetView
	refreshed []string
}

func (p *stubPoller) View(id string) (dto.WidgetView, bool) {
	v, ok := p.views[id]
	return v, ok
}

func (p *stubPoller) Views() []dto.WidgetView {
	out := make([]dto.WidgetView, 0, len(p.views))
	for _, v := range p.views {
		out = append(out, v)
	}
	return out
}

func (p *stubPoller) Refresh(id string) bool {
	if _, ok := p.views[id]; !ok {
		return false
	}
	p.refreshed = append(p.refreshed, id)
	return true
}

// withChiParam injects a chi URL parameter into the request context.
func withChiParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

func newDashboardTest(svc *stubRegistryService, poller *stubPoller) (*dashboardHandlers, *stubResponseHandler) {
	resp := &stubResponseHandler{}
	if poller == nil {
		poller = &stubPoller{}
	}
	return NewDashboardHandlers(&Deps{ResponseHandler: resp, RegistrySvc: svc, Poller: poller}), resp
}

func assertNotFound(t *testing.T, resp *stubResponseHandler) {
	t.Helper()
	var nfe *errs.NotFoundError
	if !resp.handleErrorCalled || !errors.As(resp.handleError, &nfe) {
		t.Fatalf("expected NotFoundError, got %v", resp.handleError)
	}
}

// --- Registry routes ---

func TestGetDashboard_OK(t *testing.T) {
	svc := &stubRegistryService{widgets: []models.Widget{{ID: "w1", Type: dto.WidgetTypeSummary}}}
	h, resp := newDashboardTest(svc, nil)

	rr := httptest.NewRecorder()
	h.GetDashboard(rr, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected WriteSuccess with 200, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	if diff := cmp.Diff(svc.widgets, resp.writeSuccessData); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestGetWidget_NotFound(t *testing.T) {
	h, resp := newDashboardTest(&stubRegistryService{}, nil)

	req := withChiParam(httptest.NewRequest(http.MethodGet, "/dashboard/widgets/x", nil), "widgetId", "x")
	h.GetWidget(httptest.NewRecorder(), req)

	assertNotFound(t, resp)
}

func TestAddWidget_OK(t *testing.T) {
	svc := &stubRegistryService{addWidget: models.Widget{ID: "w1", Type: dto.WidgetTypeSummary}}
	h, resp := newDashboardTest(svc, nil)

	body := `{"type":"summary","title":"Gold","symbol":"XAU","apiEndpoint":"https://www.goldapi.io/api/XAU/USD","dataKey":"price","refreshInterval":60,"format":"currency-usd"}`
	req := httptest.NewRequest(http.MethodPost, "/dashboard/widgets", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.AddWidget(rr, req)

	if !resp.writeSuccessCalled || resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected WriteSuccess with 201, got called=%v status=%d", resp.writeSuccessCalled, resp.writeSuccessStatus)
	}
	want := dto.CreateWidgetRequest{
		Type:            dto.WidgetTypeSummary,
		Title:           "Gold",
		Symbol:          "XAU",
		APIEndpoint:     "https://www.goldapi.io/api/XAU/USD",
		DataKey:         "price",
		RefreshInterval: 60,
		Format:          dto.FormatCurrencyUSD,
	}
	if diff := cmp.Diff(want, svc.lastAddReq); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestAddWidget_InvalidJSON(t *testing.T) {
	h, resp := newDashboardTest(&stubRegistryService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/widgets", strings.NewReader("not-json"))
	h.AddWidget(httptest.NewRecorder(), req)

	if !resp.handleErrorCalled || resp.handleError == nil {
		t.Fatal("expected HandleError with the decode error")
	}
}

func TestAddWidget_ServiceError(t *testing.T) {
	svc := &stubRegistryService{addErr: errs.NewValidationError("refreshInterval must be at least 5 seconds")}
	h, resp := newDashboardTest(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/widgets", strings.NewReader(`{"type":"summary"}`))
	h.AddWidget(httptest.NewRecorder(), req)

	var verr *errs.ValidationError
	if !errors.As(resp.handleError, &verr) {
		t.Fatalf("expected ValidationError, got %v", resp.handleError)
	}
}

func TestUpdateWidget_OK(t *testing.T) {
	svc := &stubRegistryService{}
	h, resp := newDashboardTest(svc, nil)

	req := httptest.NewRequest(http.MethodPatch, "/dashboard/widgets/w1", strings.NewReader(`{"title":"Renamed"}`))
	req = withChiParam(req, "widgetId", "w1")
	h.UpdateWidget(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
	if svc.lastID != "w1" {
		t.Errorf("widget id = %q", svc.lastID)
	}
	if svc.lastPatch.Title == nil || *svc.lastPatch.Title != "Renamed" || svc.lastPatch.Format != nil {
		t.Errorf("unexpected patch: %+v", svc.lastPatch)
	}
}

func TestDeleteWidget(t *testing.T) {
	t.Run("removed", func(t *testing.T) {
		svc := &stubRegistryService{removed: true}
		h, resp := newDashboardTest(svc, nil)

		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/dashboard/widgets/w1", nil), "widgetId", "w1")
		h.DeleteWidget(httptest.NewRecorder(), req)

		if !resp.writeSuccessCalled || svc.lastID != "w1" {
			t.Fatalf("expected delete of w1, got %q", svc.lastID)
		}
	})
	t.Run("absent", func(t *testing.T) {
		h, resp := newDashboardTest(&stubRegistryService{}, nil)

		req := withChiParam(httptest.NewRequest(http.MethodDelete, "/dashboard/widgets/zz", nil), "widgetId", "zz")
		h.DeleteWidget(httptest.NewRecorder(), req)

		assertNotFound(t, resp)
	})
}

func TestReplaceWidgets_OK(t *testing.T) {
	svc := &stubRegistryService{}
	h, resp := newDashboardTest(svc, nil)

	body := `[{"id":"a","type":"list","title":"A","symbol":"A","refreshInterval":10}]`
	h.ReplaceWidgets(httptest.NewRecorder(), httptest.NewRequest(http.MethodPut, "/dashboard/widgets", strings.NewReader(body)))

	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
	want := []models.Widget{{ID: "a", Type: dto.WidgetTypeList, Title: "A", Symbol: "A", RefreshInterval: 10}}
	if diff := cmp.Diff(want, svc.lastReplace); diff != "" {
		t.Errorf("replace mismatch (-want +got):\n%s", diff)
	}
}

func TestReorderWidgets_OK(t *testing.T) {
	svc := &stubRegistryService{}
	h, resp := newDashboardTest(svc, nil)

	req := httptest.NewRequest(http.MethodPut, "/dashboard/widgets/reorder", strings.NewReader(`{"ids":["b","a"]}`))
	h.ReorderWidgets(httptest.NewRecorder(), req)

	if !resp.writeSuccessCalled {
		t.Fatal("expected WriteSuccess")
	}
	if diff := cmp.Diff([]string{"b", "a"}, svc.lastIDs); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveWidget_OK(t *testing.T) {
	svc := &stubRegistryService{}
	h, _ := newDashboardTest(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/dashboard/widgets/c/move", strings.NewReader(`{"to":0}`))
	req = withChiParam(req, "widgetId", "c")
	h.MoveWidget(httptest.NewRecorder(), req)

	if svc.lastID != "c" || svc.lastTo != 0 {
		t.Errorf("move got id=%q to=%d", svc.lastID, svc.lastTo)
	}
}

func TestExportDashboard_RawDocument(t *testing.T) {
	doc := []byte("[\n  {\n    \"id\": \"a\"\n  }\n]")
	h, resp := newDashboardTest(&stubRegistryService{exportDoc: doc}, nil)

	rr := httptest.NewRecorder()
	h.ExportDashboard(rr, httptest.NewRequest(http.MethodGet, "/dashboard/export", nil))

	if resp.writeSuccessCalled {
		t.Error("export must not be wrapped in the success envelope")
	}
	if rr.Body.String() != string(doc) {
		t.Errorf("body = %q", rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "dashboard_config.json") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestImportDashboard(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		svc := &stubRegistryService{}
		h, resp := newDashboardTest(svc, nil)

		h.ImportDashboard(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard/import", strings.NewReader(`[]`)))

		if !resp.writeSuccessCalled || string(svc.lastImport) != "[]" {
			t.Fatalf("import not forwarded: %q", svc.lastImport)
		}
	})
	t.Run("malformed", func(t *testing.T) {
		svc := &stubRegistryService{importErr: errs.NewMalformedImportError("import document must be a JSON array", nil)}
		h, resp := newDashboardTest(svc, nil)

		h.ImportDashboard(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/dashboard/import", strings.NewReader(`{}`)))

		var merr *errs.MalformedImportError
		if !errors.As(resp.handleError, &merr) {
			t.Fatalf("expected MalformedImportError, got %v", resp.handleError)
		}
	})
}

// --- Data routes ---

func TestGetWidgetData(t *testing.T) {
	poller := &stubPoller{views: map[string]dto.WidgetView{
		"w1": {WidgetID: "w1", State: dto.StateSuccess, Display: "$1.00"},
	}}
	h, resp := newDashboardTest(&stubRegistryService{}, poller)

	req := withChiParam(httptest.NewRequest(http.MethodGet, "/dashboard/widgets/w1/data", nil), "widgetId", "w1")
	h.GetWidgetData(httptest.NewRecorder(), req)

	if diff := cmp.Diff(poller.views["w1"], resp.writeSuccessData); diff != "" {
		t.Errorf("view mismatch (-want +got):\n%s", diff)
	}

	h, resp = newDashboardTest(&stubRegistryService{}, poller)
	req = withChiParam(httptest.NewRequest(http.MethodGet, "/dashboard/widgets/zz/data", nil), "widgetId", "zz")
	h.GetWidgetData(httptest.NewRecorder(), req)
	assertNotFound(t, resp)
}

func TestRefreshWidget(t *testing.T) {
	poller := &stubPoller{views: map[string]dto.WidgetView{"w1": {WidgetID: "w1"}}}
	h, resp := newDashboardTest(&stubRegistryService{}, poller)

	req := withChiParam(httptest.NewRequest(http.MethodPost, "/dashboard/widgets/w1/refresh", nil), "widgetId", "w1")
	h.RefreshWidget(httptest.NewRecorder(), req)

	if resp.writeSuccessStatus != http.StatusAccepted {
		t.Errorf("status = %d", resp.writeSuccessStatus)
	}
	if diff := cmp.Diff([]string{"w1"}, poller.refreshed); diff != "" {
		t.Errorf("refresh mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboardRoutes_Wiring(t *testing.T) {
	svc := &stubRegistryService{widgets: []models.Widget{{ID: "w1"}}}
	h, resp := newDashboardTest(svc, nil)

	rr := httptest.NewRecorder()
	h.DashboardRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/widgets/w1", nil))

	if !resp.writeSuccessCalled {
		t.Fatalf("GET /widgets/{id} not routed, status %d", rr.Code)
	}
	if diff := cmp.Diff(svc.widgets[0], resp.writeSuccessData); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
}
