package framework

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWrapHTTPPassesThrough(t *testing.T) {
	handler := WrapHTTP("test-service", func(w http.ResponseWriter, r *http.Request) {
		if Logger(r.Context()) == nil {
			t.Error("expected request-scoped logger")
		}
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("expected handler status to pass through, got %d", w.Code)
	}
}

func TestWrapHTTPRecoversPanic(t *testing.T) {
	handler := WrapHTTP("test-service", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Error("expected error body after panic")
	}
}

func TestSetCORSHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetCORSHeaders(w)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("expected wildcard origin")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("expected allowed methods header")
	}
}
