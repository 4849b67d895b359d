package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bobmcallan/fundval/internal/app"
	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
	"github.com/bobmcallan/fundval/internal/services/valuation"
)

// --- mocks ---

type mockValuation struct {
	resolvedText string
	refreshed    []models.FundHolding
	estimateErr  error
	marketErr    error
}

func (m *mockValuation) ResolveText(ctx context.Context, text string) *models.PortfolioSummary {
	m.resolvedText = text
	if strings.TrimSpace(text) == "" {
		return valuation.Summarize(nil, time.Time{})
	}
	return valuation.Summarize([]models.ResolvedEntry{
		{Name: "博时黄金ETF联接A", Code: "002610", Amount: 1000, RealtimeChange: 1.2, RealtimeProfit: 12, Status: models.StatusSuccess},
	}, time.Time{})
}

func (m *mockValuation) Refresh(ctx context.Context, holdings []models.FundHolding) *models.PortfolioSummary {
	m.refreshed = holdings
	entries := make([]models.ResolvedEntry, len(holdings))
	for i, h := range holdings {
		entries[i] = valuation.Calculate(h, nil)
	}
	return valuation.Summarize(entries, time.Time{})
}

func (m *mockValuation) EstimateFromConstituents(ctx context.Context, code string, holdings []models.Constituent) (*models.ConstituentValuation, error) {
	if m.estimateErr != nil {
		return nil, m.estimateErr
	}
	if len(holdings) == 0 {
		return nil, valuation.ErrNoConstituents
	}
	return &models.ConstituentValuation{Code: code, EstimateChangePct: 1.5}, nil
}

func (m *mockValuation) MarketOverview(ctx context.Context) ([]models.MarketIndex, error) {
	if m.marketErr != nil {
		return nil, m.marketErr
	}
	return []models.MarketIndex{{SecID: "1.000001", Code: "000001", Name: "上证指数", Price: 3250, Available: true}}, nil
}

func (m *mockValuation) Quotes(ctx context.Context, codes []string) []*models.QuoteSnapshot {
	return make([]*models.QuoteSnapshot, len(codes))
}

type mockQuotes struct {
	quotes map[string]*models.QuoteSnapshot
}

func (m *mockQuotes) GetQuote(ctx context.Context, code string) *models.QuoteSnapshot {
	return m.quotes[code]
}

type mockQuoteClient struct {
	quote *models.QuoteSnapshot
	err   error
}

func (m *mockQuoteClient) Source() string { return "ths" }

func (m *mockQuoteClient) GetQuote(ctx context.Context, code string) (*models.QuoteSnapshot, error) {
	return m.quote, m.err
}

type mockSearcher struct {
	results []models.FundSearchResult
	err     error
	keyword string
}

func (m *mockSearcher) SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error) {
	m.keyword = keyword
	return m.results, m.err
}

type mockExtractor struct {
	text     string
	err      error
	image    []byte
	mimeType string
}

func (m *mockExtractor) ExtractHoldingsText(ctx context.Context, image []byte, mimeType string) (string, error) {
	m.image = image
	m.mimeType = mimeType
	return m.text, m.err
}

type testDeps struct {
	valuation *mockValuation
	quotes    *mockQuotes
	ths       *mockQuoteClient
	searcher  *mockSearcher
	extractor *mockExtractor
}

func newTestServer(deps testDeps) *Server {
	logger := common.NewSilentLogger()
	cfg := common.NewDefaultConfig()
	if deps.valuation == nil {
		deps.valuation = &mockValuation{}
	}
	if deps.quotes == nil {
		deps.quotes = &mockQuotes{}
	}
	if deps.ths == nil {
		deps.ths = &mockQuoteClient{err: errors.New("not configured")}
	}
	if deps.searcher == nil {
		deps.searcher = &mockSearcher{}
	}
	a := &app.App{
		Config:           cfg,
		Logger:           logger,
		THSClient:        deps.ths,
		FundSearcher:     deps.searcher,
		QuoteService:     deps.quotes,
		ValuationService: deps.valuation,
		QuoteSource:      "ths",
		StartupTime:      time.Now(),
	}
	if deps.extractor != nil {
		a.HoldingsExtractor = deps.extractor
	}
	return NewServer(a)
}

func do(t *testing.T, s *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

// --- tests ---

func TestHandleHealth(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodGet, "/api/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeBody[map[string]string](t, rr)["status"]; got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
}

func TestHandleVersion(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodGet, "/api/version", "")
	body := decodeBody[map[string]string](t, rr)
	if body["version"] != common.GetVersion() {
		t.Errorf("version = %q", body["version"])
	}
	if body["quote_source"] != "ths" {
		t.Errorf("quote_source = %q", body["quote_source"])
	}
}

func TestHandleResolve(t *testing.T) {
	v := &mockValuation{}
	s := newTestServer(testDeps{valuation: v})

	rr := do(t, s, http.MethodPost, "/api/resolve", `{"text":"002610 1000"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if v.resolvedText != "002610 1000" {
		t.Errorf("resolver got %q", v.resolvedText)
	}

	body := decodeBody[models.PortfolioSummary](t, rr)
	if len(body.Entries) != 1 || body.Entries[0].Code != "002610" {
		t.Fatalf("unexpected data: %+v", body.Entries)
	}
	if !strings.Contains(rr.Body.String(), `"realtimeProfit":12`) {
		t.Errorf("expected camelCase wire fields, got %s", rr.Body.String())
	}
}

func TestHandleResolve_EmptyTextReturnsEmptyData(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodPost, "/api/resolve", `{"text":"   "}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("expected empty data array, got %s", rr.Body.String())
	}
}

func TestHandleResolve_BadRequests(t *testing.T) {
	s := newTestServer(testDeps{})

	if rr := do(t, s, http.MethodPost, "/api/resolve", `{not json`); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON: expected 400, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/api/resolve", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", rr.Code)
	}
	rr := do(t, s, http.MethodGet, "/api/resolve", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", rr.Code)
	}
	if body := decodeBody[ErrorResponse](t, rr); body.Error == "" {
		t.Error("405 should carry the JSON error envelope")
	}
}

func TestHandleRefresh_EchoesPartial(t *testing.T) {
	v := &mockValuation{}
	s := newTestServer(testDeps{valuation: v})

	rr := do(t, s, http.MethodPost, "/api/refresh",
		`[{"code":"002610","amount":1000,"name":"博时黄金ETF联接A","holdProfit":52.3},{"code":" 000001 ","amount":10}]`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(v.refreshed) != 2 || v.refreshed[0].Code != "002610" {
		t.Fatalf("refresh got %+v", v.refreshed)
	}

	body := decodeBody[models.PortfolioSummary](t, rr)
	if len(body.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(body.Entries))
	}
	first := body.Entries[0]
	if first.Status != models.StatusPartial || first.HoldProfit != 52.3 || first.Name != "博时黄金ETF联接A" {
		t.Errorf("unexpected partial echo: %+v", first)
	}
}

func TestHandleRefresh_MalformedCodeEchoedAsPartial(t *testing.T) {
	v := &mockValuation{}
	s := newTestServer(testDeps{valuation: v})
	rr := do(t, s, http.MethodPost, "/api/refresh",
		`[{"code":"002610","amount":1000},{"code":"12ab","amount":1,"name":"手输错误"}]`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(v.refreshed) != 2 {
		t.Fatalf("the whole batch should reach Refresh, got %+v", v.refreshed)
	}

	body := decodeBody[models.PortfolioSummary](t, rr)
	if len(body.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(body.Entries))
	}
	bad := body.Entries[1]
	if bad.Code != "12ab" || bad.Status != models.StatusPartial || bad.Name != "手输错误" {
		t.Errorf("unexpected echo for malformed code: %+v", bad)
	}
}

func TestHandleQuote(t *testing.T) {
	q := &mockQuotes{quotes: map[string]*models.QuoteSnapshot{
		"161725": {Code: "161725", EstimateNAV: 0.85, PrevNAV: 0.86, ChangePct: -1.16, Source: "ths"},
	}}
	s := newTestServer(testDeps{quotes: q})

	rr := do(t, s, http.MethodGet, "/api/quote/161725", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeBody[models.QuoteSnapshot](t, rr); got.EstimateNAV != 0.85 {
		t.Errorf("estimate = %v", got.EstimateNAV)
	}

	if rr := do(t, s, http.MethodGet, "/api/quote/000000", ""); rr.Code != http.StatusNotFound {
		t.Errorf("unknown: expected 404, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/api/quote/abc", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("invalid: expected 400, got %d", rr.Code)
	}
}

func TestHandleChart(t *testing.T) {
	ths := &mockQuoteClient{quote: &models.QuoteSnapshot{
		Code: "163406", PrevNAV: 2.25, PrevNAVDate: "2026-01-29",
		Points: []models.IntradayPoint{{Time: "0930", Estimate: 2.26}, {Time: "1000", Estimate: 2.27}, {Time: "1030", Estimate: 2.24}},
	}}
	s := newTestServer(testDeps{ths: ths})

	rr := do(t, s, http.MethodGet, "/api/chart/163406", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte{0x89, 'P', 'N', 'G'}) {
		t.Error("body is not a PNG")
	}
}

func TestHandleChart_NoPoints(t *testing.T) {
	ths := &mockQuoteClient{quote: &models.QuoteSnapshot{Code: "163406", PrevNAV: 2.25}}
	s := newTestServer(testDeps{ths: ths})

	rr := do(t, s, http.MethodGet, "/api/chart/163406", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := decodeBody[ErrorResponse](t, rr); body.Code != "no_points" {
		t.Errorf("code = %q, want no_points", body.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	searcher := &mockSearcher{results: []models.FundSearchResult{{Code: "016531", Name: "鹏华碳中和主题混合C"}}}
	s := newTestServer(testDeps{searcher: searcher})

	rr := do(t, s, http.MethodGet, "/api/search?q=%E7%A2%B3%E4%B8%AD%E5%92%8C", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if searcher.keyword != "碳中和" {
		t.Errorf("keyword = %q", searcher.keyword)
	}
	body := decodeBody[listResponse[models.FundSearchResult]](t, rr)
	if len(body.Data) != 1 || body.Data[0].Code != "016531" {
		t.Errorf("unexpected data: %+v", body.Data)
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	s := newTestServer(testDeps{searcher: &mockSearcher{err: errors.New("timeout")}})

	if rr := do(t, s, http.MethodGet, "/api/search", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("missing q: expected 400, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/api/search?q=abc", ""); rr.Code != http.StatusBadGateway {
		t.Errorf("search failure: expected 502, got %d", rr.Code)
	}
}

func TestHandleSearch_NoHitsIsEmptyArray(t *testing.T) {
	s := newTestServer(testDeps{searcher: &mockSearcher{}})
	rr := do(t, s, http.MethodGet, "/api/search?q=abc", "")
	if !strings.Contains(rr.Body.String(), `"data":[]`) {
		t.Errorf("expected empty array, got %s", rr.Body.String())
	}
}

func TestHandleEstimate(t *testing.T) {
	s := newTestServer(testDeps{})

	rr := do(t, s, http.MethodPost, "/api/estimate", `{"code":"005827","holdings":[{"code":"600519","name":"贵州茅台","weight":9.87}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if got := decodeBody[models.ConstituentValuation](t, rr); got.Code != "005827" || got.EstimateChangePct != 1.5 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestHandleEstimate_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		body string
		want int
	}{
		{"missing code", nil, `{"holdings":[{"code":"600519","weight":1}]}`, http.StatusBadRequest},
		{"no holdings", nil, `{"code":"005827","holdings":[]}`, http.StatusBadRequest},
		{"upstream", fmt.Errorf("fund 005827: %w", common.ErrQuoteUnavailable), `{"code":"005827","holdings":[{"code":"600519","weight":1}]}`, http.StatusBadGateway},
		{"other", errors.New("boom"), `{"code":"005827","holdings":[{"code":"600519","weight":1}]}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		s := newTestServer(testDeps{valuation: &mockValuation{estimateErr: tt.err}})
		if rr := do(t, s, http.MethodPost, "/api/estimate", tt.body); rr.Code != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, rr.Code)
		}
	}
}

func TestHandleMarket(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodGet, "/api/market", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := decodeBody[listResponse[models.MarketIndex]](t, rr)
	if len(body.Data) != 1 || body.Data[0].Name != "上证指数" {
		t.Errorf("unexpected data: %+v", body.Data)
	}

	s = newTestServer(testDeps{valuation: &mockValuation{marketErr: errors.New("push2 down")}})
	if rr := do(t, s, http.MethodGet, "/api/market", ""); rr.Code != http.StatusBadGateway {
		t.Errorf("market failure: expected 502, got %d", rr.Code)
	}
}

func TestHandleOCR_Disabled(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodPost, "/api/ocr", "x")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}

func TestHandleOCR_Multipart(t *testing.T) {
	ext := &mockExtractor{text: "博时黄金ETF联接A 002610 1000"}
	v := &mockValuation{}
	s := newTestServer(testDeps{extractor: ext, valuation: v})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("image", "holdings.png")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("\x89PNG\r\n\x1a\nfake"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if !bytes.HasPrefix(ext.image, []byte("\x89PNG")) {
		t.Error("extractor did not receive the uploaded image")
	}
	if v.resolvedText != ext.text {
		t.Errorf("resolver got %q, want transcript", v.resolvedText)
	}

	body := decodeBody[ocrResponse](t, rr)
	if body.Text != ext.text {
		t.Errorf("text = %q", body.Text)
	}
	if body.PortfolioSummary == nil || len(body.Entries) != 1 {
		t.Errorf("expected resolved entries in response, got %s", rr.Body.String())
	}
}

func TestHandleOCR_RawBody(t *testing.T) {
	ext := &mockExtractor{text: "002610 1000"}
	s := newTestServer(testDeps{extractor: ext})

	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader("\xff\xd8\xffjpeg"))
	req.Header.Set("Content-Type", "image/jpeg")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ext.mimeType != "image/jpeg" {
		t.Errorf("mimeType = %q", ext.mimeType)
	}
}

func TestHandleOCR_Errors(t *testing.T) {
	s := newTestServer(testDeps{extractor: &mockExtractor{}})
	rr := do(t, s, http.MethodPost, "/api/ocr", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("empty body: expected 400, got %d", rr.Code)
	}

	s = newTestServer(testDeps{extractor: &mockExtractor{err: errors.New("model refused")}})
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", strings.NewReader("img"))
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Errorf("extractor failure: expected 502, got %d", rr.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(testDeps{})
	rr := do(t, s, http.MethodGet, "/api/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if body := decodeBody[ErrorResponse](t, rr); body.Error != "Not found" {
		t.Errorf("error = %q", body.Error)
	}
}
