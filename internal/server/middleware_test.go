package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bobmcallan/fundval/internal/common"
)

func TestCorrelationIDMiddleware_PropagatesHeader(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = common.CorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if seen != "req-123" {
		t.Errorf("context correlation ID = %q, want req-123", seen)
	}
	if got := rr.Header().Get("X-Correlation-ID"); got != "req-123" {
		t.Errorf("response header = %q, want req-123", got)
	}
}

func TestCorrelationIDMiddleware_Generates(t *testing.T) {
	var seen string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = common.CorrelationID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if len(seen) != 8 {
		t.Errorf("generated correlation ID = %q, want 8 chars", seen)
	}
	if rr.Header().Get("X-Correlation-ID") != seen {
		t.Error("response header should echo the generated ID")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	handler := recoveryMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rr.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "panic" {
		t.Errorf("error code = %q, want panic", body.Code)
	}
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	handler := loggingMiddleware(common.NewSilentLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/quote/002610", nil))

	if rr.Code != http.StatusTeapot || rr.Body.String() != "short and stout" {
		t.Errorf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestCORS_AllowsAnyOrigin(t *testing.T) {
	s := newTestServer(testDeps{})

	req := httptest.NewRequest(http.MethodOptions, "/api/resolve", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://example.com")
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("simple request Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestValidateFundCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"002610", "002610", true},
		{" 002610 ", "002610", true},
		{"", "", false},
		{"02610", "", false},
		{"0026100", "", false},
		{"00261a", "", false},
		{"../etc", "", false},
	}
	for _, tt := range tests {
		got, msg := validateFundCode(tt.in)
		if (msg == "") != tt.ok || got != tt.want {
			t.Errorf("validateFundCode(%q) = %q, %q", tt.in, got, msg)
		}
	}
}
