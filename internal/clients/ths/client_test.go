package ths

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bobmcallan/fundval/internal/common"
)

const samplePayload = `vm_fd_163406='2026-01-30~2.2511~0930|2026-01-30~2.2511~0930,0930,2.2511,2.2511,0.000;0931,2.2528,2.2511,0.000;1500,2.28318,2.2511,0.000'`

func TestGetQuote_ParsesLastPoint(t *testing.T) {
	var capturedInfo, capturedReferer, capturedUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedInfo = r.URL.Query().Get("info")
		capturedReferer = r.Header.Get("Referer")
		capturedUA = r.Header.Get("User-Agent")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	quote, err := client.GetQuote(context.Background(), "163406")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}

	if capturedInfo != "vm_fd_163406" {
		t.Errorf("expected info=vm_fd_163406, got %s", capturedInfo)
	}
	if capturedReferer != DefaultReferer {
		t.Errorf("expected referer %s, got %s", DefaultReferer, capturedReferer)
	}
	if capturedUA == "" {
		t.Error("expected a User-Agent header")
	}
	if quote.PrevNAV != 2.2511 {
		t.Errorf("expected prevNAV 2.2511, got %v", quote.PrevNAV)
	}
	if quote.EstimateNAV != 2.2832 {
		t.Errorf("expected estimate 2.2832 (rounded), got %v", quote.EstimateNAV)
	}
	wantPct := (2.28318 - 2.2511) / 2.2511 * 100
	if math.Abs(quote.ChangePct-wantPct) > 1e-9 {
		t.Errorf("expected change %.6f, got %.6f", wantPct, quote.ChangePct)
	}
	if quote.Timestamp != "2026-01-30 1500" {
		t.Errorf("expected timestamp '2026-01-30 1500', got %q", quote.Timestamp)
	}
	if quote.Source != common.SourceTHS {
		t.Errorf("expected source ths, got %s", quote.Source)
	}
	if len(quote.Points) != 3 {
		t.Errorf("expected 3 intraday points, got %d", len(quote.Points))
	}
}

func TestParseChart_NoPointsUsesPrevNAV(t *testing.T) {
	quote, err := parseChart("002610", `vm_fd_002610='x|2026-01-30~1.5000~0930'`)
	if err != nil {
		t.Fatalf("parseChart failed: %v", err)
	}
	if quote.EstimateNAV != 1.5 {
		t.Errorf("expected estimate equal to prevNAV 1.5, got %v", quote.EstimateNAV)
	}
	if quote.ChangePct != 0 {
		t.Errorf("expected 0 change, got %v", quote.ChangePct)
	}
	if quote.Timestamp != "2026-01-30 "+liveLabel {
		t.Errorf("unexpected timestamp %q", quote.Timestamp)
	}
}

func TestParseChart_SkipsMalformedPoints(t *testing.T) {
	quote, err := parseChart("002610", `a|2026-01-30~1.0000~0930,0930,1.0100,1.0,0;bad;0931,,1.0;0932,abc,1.0`)
	if err != nil {
		t.Fatalf("parseChart failed: %v", err)
	}
	if len(quote.Points) != 1 {
		t.Fatalf("expected 1 valid point, got %d", len(quote.Points))
	}
	if quote.EstimateNAV != 1.01 {
		t.Errorf("expected estimate 1.01, got %v", quote.EstimateNAV)
	}
}

func TestParseChart_Rejects(t *testing.T) {
	tests := []struct {
		desc    string
		payload string
	}{
		{"empty body", ""},
		{"no separators", "vm_fd_000000=''"},
		{"non-numeric prev", "a|2026-01-30~abc~0930"},
		{"zero prev", "a|2026-01-30~0~0930"},
		{"header without nav", "a|2026-01-30,~"},
	}
	for _, tt := range tests {
		if _, err := parseChart("000000", tt.payload); err == nil {
			t.Errorf("%s: expected error", tt.desc)
		}
	}
}

func TestGetQuote_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte("forbidden"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.GetQuote(context.Background(), "002610")
	var apiErr *common.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", apiErr.StatusCode)
	}
}

func TestGetQuote_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	if _, err := client.GetQuote(context.Background(), "163406"); err == nil {
		t.Fatal("expected timeout error")
	}
}
