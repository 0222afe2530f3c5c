package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/finance-dashboard/internal/errs"
	"github.com/GregMSThompson/finance-dashboard/pkg/helpers"
)

func TestHandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", errs.NewNotFoundError("widget not found"), http.StatusNotFound, "not_found"},
		{"conflict", errs.NewAlreadyExistsError("dup"), http.StatusConflict, "already_exists"},
		{"validation", errs.NewValidationError("bad"), http.StatusBadRequest, "invalid_input"},
		{"import", errs.NewMalformedImportError("not an array", nil), http.StatusBadRequest, "malformed_import"},
		{"database", errs.NewDatabaseError("save", "disk full", nil), http.StatusInternalServerError, "internal_error"},
		{"upstream", errs.NewUpstreamError(404, "nope"), http.StatusBadGateway, "upstream_error"},
		{"transient", errs.NewExternalServiceError("upstream", "down", true, nil), http.StatusServiceUnavailable, "service_unavailable"},
		{"permanent", errs.NewExternalServiceError("upstream", "bad", false, nil), http.StatusBadGateway, "service_unavailable"},
		{"bad json", json.Unmarshal([]byte("{"), &struct{}{}), http.StatusBadRequest, "invalid_input"},
		{"unknown", fmt.Errorf("wrapped: %w", errors.New("boom")), http.StatusInternalServerError, "internal_error"},
	}

	h := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(helpers.TestCtx())
			rr := httptest.NewRecorder()

			h.HandleError(rr, req, tt.err)

			if rr.Code != tt.status {
				t.Errorf("status = %d, want %d", rr.Code, tt.status)
			}
			var body ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestWriteSuccess_Envelope(t *testing.T) {
	h := New(nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(helpers.TestCtx())
	rr := httptest.NewRecorder()

	h.WriteSuccess(rr, req, http.StatusCreated, map[string]string{"id": "1"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d", rr.Code)
	}
	if got := rr.Body.String(); got != "{\"success\":true,\"data\":{\"id\":\"1\"}}\n" {
		t.Errorf("body = %q", got)
	}
}
