package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Brownie44l1/flower-api/internal/config"
	"github.com/Brownie44l1/flower-api/internal/model"
)

type stubClassifier struct{}

func (stubClassifier) Metadata() model.Metadata {
	return model.DefaultMetadata()
}

func (stubClassifier) Predict(input []float32) (*model.Prediction, error) {
	return model.NewPrediction(model.DefaultMetadata().Classes, []float64{0.2, 0.2, 0.2, 0.2, 0.2})
}

func newTestServer() *Server {
	return New(config.ServerConfig{Port: 8080, Version: "test"}, stubClassifier{})
}

func TestCORSHeaders(t *testing.T) {
	h := newTestServer().Handler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected allow origin '*', got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "*" {
		t.Errorf("Expected allow headers '*', got %q", got)
	}
}

func TestPreflight(t *testing.T) {
	h := newTestServer().Handler()

	req := httptest.NewRequest(http.MethodOptions, "/predict/", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected preflight status 200, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST, GET, OPTIONS" {
		t.Errorf("Unexpected allow methods %q", got)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer().Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Header().Get(RequestIDHeader) == "" {
		t.Error("Expected a generated request id")
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get(RequestIDHeader); got != "abc" {
		t.Errorf("Expected request id 'abc' to be echoed, got %q", got)
	}
}

func TestStatusRecorder(t *testing.T) {
	h := newTestServer().Handler()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestStopBeforeStart(t *testing.T) {
	if err := newTestServer().Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}
}
