package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/byoncocare/oncobot/internal/http/handlers"
	"github.com/byoncocare/oncobot/pkg/logging"
)

func TestRouterPublicEndpoints(t *testing.T) {
	h := New(&Config{Logger: logging.Default()})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestRouterAdminRequiresJWT(t *testing.T) {
	h := New(&Config{
		Logger:          logging.Default(),
		AdminAuthSecret: "secret",
		AdminSend:       handlers.NewAdminSendHandler(nil, logging.Default()),
	})

	req := httptest.NewRequest(http.MethodPost, "/admin/send", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated admin status = %d", rec.Code)
	}
}

func TestRouterAdminDisabledWithoutSecret(t *testing.T) {
	h := New(&Config{Logger: logging.Default()})

	req := httptest.NewRequest(http.MethodPost, "/admin/send", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("admin route without secret status = %d", rec.Code)
	}
}
