package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
	"github.com/bobmcallan/fundval/internal/services/chart"
	"github.com/bobmcallan/fundval/internal/services/valuation"
)

// maxImageBody caps screenshot uploads
const maxImageBody = 20 << 20

type resolveRequest struct {
	Text string `json:"text"`
}

type estimateRequest struct {
	Code     string               `json:"code"`
	Holdings []models.Constituent `json:"holdings"`
}

// ocrResponse carries the transcript alongside the valued holdings
type ocrResponse struct {
	Text string `json:"text"`
	*models.PortfolioSummary
}

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// handleResolve handles POST /api/resolve {text}
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.ValuationService.ResolveText(r.Context(), req.Text))
}

// handleRefresh handles POST /api/refresh [{code, amount, name?, holdProfit?}].
// Entries with a malformed code come back as partial rather than failing the batch.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var holdings []models.FundHolding
	if !DecodeJSON(w, r, &holdings) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.ValuationService.Refresh(r.Context(), holdings))
}

// handleOCR handles POST /api/ocr with a multipart "image" field or a raw image body
func (s *Server) handleOCR(w http.ResponseWriter, r *http.Request) {
	if s.app.HoldingsExtractor == nil {
		WriteErrorWithCode(w, http.StatusServiceUnavailable, common.ErrNoHoldingsExtractor.Error(), "ocr_disabled")
		return
	}

	image, mimeType, err := readImage(w, r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := s.app.HoldingsExtractor.ExtractHoldingsText(r.Context(), image, mimeType)
	if err != nil {
		s.logger.Warn().Err(err).Int("bytes", len(image)).Msg("Screenshot extraction failed")
		WriteError(w, http.StatusBadGateway, "Failed to read holdings from image: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, ocrResponse{
		Text:             text,
		PortfolioSummary: s.app.ValuationService.ResolveText(r.Context(), text),
	})
}

func readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", errors.New("multipart field \"image\" is required")
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", errors.New("failed to read image: " + err.Error())
		}
		return data, header.Header.Get("Content-Type"), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", errors.New("failed to read image: " + err.Error())
	}
	if len(data) == 0 {
		return nil, "", errors.New("image body is required")
	}
	return data, r.Header.Get("Content-Type"), nil
}

// handleQuote handles GET /api/quote/{code}
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	code, msg := validateFundCode(chi.URLParam(r, "code"))
	if msg != "" {
		WriteError(w, http.StatusBadRequest, msg)
		return
	}

	quote := s.app.QuoteService.GetQuote(r.Context(), code)
	if quote == nil {
		WriteErrorWithCode(w, http.StatusNotFound, "No valuation available for "+code, "quote_unavailable")
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleChart handles GET /api/chart/{code}, a PNG of the intraday estimate curve
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	code, msg := validateFundCode(chi.URLParam(r, "code"))
	if msg != "" {
		WriteError(w, http.StatusBadRequest, msg)
		return
	}

	quote, err := s.app.THSClient.GetQuote(r.Context(), code)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("Intraday series unavailable")
		WriteErrorWithCode(w, http.StatusNotFound, "No intraday series for "+code, "quote_unavailable")
		return
	}

	png, err := chart.RenderIntradayChart(quote)
	if err != nil {
		if errors.Is(err, chart.ErrTooFewPoints) {
			WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "no_points")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to render chart: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleSearch handles GET /api/search?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		WriteError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	results, err := s.app.FundSearcher.SearchFunds(r.Context(), q)
	if err != nil {
		s.logger.Warn().Err(err).Str("keyword", q).Msg("Fund search failed")
		WriteError(w, http.StatusBadGateway, "Fund search failed: "+err.Error())
		return
	}
	if results == nil {
		results = []models.FundSearchResult{}
	}
	WriteJSON(w, http.StatusOK, listResponse[models.FundSearchResult]{Data: results})
}

// handleEstimate handles POST /api/estimate {code, holdings}
func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	var req estimateRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	code, msg := validateFundCode(req.Code)
	if msg != "" {
		WriteError(w, http.StatusBadRequest, msg)
		return
	}

	result, err := s.app.ValuationService.EstimateFromConstituents(r.Context(), code, req.Holdings)
	switch {
	case errors.Is(err, valuation.ErrNoConstituents):
		WriteError(w, http.StatusBadRequest, "holdings are required")
	case errors.Is(err, common.ErrQuoteUnavailable):
		WriteErrorWithCode(w, http.StatusBadGateway, err.Error(), "quote_unavailable")
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		WriteJSON(w, http.StatusOK, result)
	}
}

// handleMarket handles GET /api/market
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	indices, err := s.app.ValuationService.MarketOverview(r.Context())
	if err != nil {
		s.logger.Warn().Err(err).Msg("Market overview failed")
		WriteError(w, http.StatusBadGateway, "Market data unavailable: "+err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, listResponse[models.MarketIndex]{Data: indices})
}
