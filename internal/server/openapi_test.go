package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandleOpenAPI(t *testing.T) {
	handler := handleOpenAPI()

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Errorf("expected JSON content type, got %q", ct)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `"openapi": "3.1.0"`) {
		t.Error("expected OpenAPI 3.1.0 version in spec")
	}
	for _, path := range []string{
		"/healthz",
		"/api/sessions",
		"/api/sessions/{code}/join",
		"/api/sessions/{code}/game/click",
	} {
		if !strings.Contains(body, `"`+path+`"`) {
			t.Errorf("expected path %q in spec", path)
		}
	}
}
