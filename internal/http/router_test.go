package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRouterMethodGuard(t *testing.T) {
	router := NewRouter(Routes{
		Register: okHandler,
		Enter:    okHandler,
		History:  okHandler,
		Health:   okHandler,
	})

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodPost, "/accounts/register", http.StatusOK},
		{http.MethodGet, "/accounts/register", http.StatusMethodNotAllowed},
		{http.MethodPost, "/parking/enter", http.StatusOK},
		{http.MethodDelete, "/parking/enter", http.StatusMethodNotAllowed},
		{http.MethodGet, "/parking/history", http.StatusOK},
		{http.MethodPost, "/parking/history", http.StatusMethodNotAllowed},
		{http.MethodGet, "/health", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, rec.Code, tt.wantStatus)
		}
	}
}

func TestRouterSkipsUnwiredRoutes(t *testing.T) {
	router := NewRouter(Routes{Health: okHandler})

	req := httptest.NewRequest(http.MethodPost, "/internal/anpr/plate-seen", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unwired route status = %d, want 404", rec.Code)
	}
}

func TestRouterMethodNotAllowedSetsAllowHeader(t *testing.T) {
	router := NewRouter(Routes{Register: okHandler})

	req := httptest.NewRequest(http.MethodGet, "/accounts/register", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}
