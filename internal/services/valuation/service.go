// Package valuation values fund holdings against intraday estimates
package valuation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/models"
)

// DefaultWorkers bounds concurrent quote fetches
const DefaultWorkers = 20

// ErrNoConstituents is returned when an estimate is requested without holdings
var ErrNoConstituents = errors.New("no constituents given")

// Service implements ValuationService
type Service struct {
	resolver interfaces.ResolverService
	quotes   interfaces.QuoteService
	fundInfo interfaces.QuoteClient  // prevNAV and official estimate for constituent valuations
	market   interfaces.MarketClient // push2 index and stock quotes
	workers  int
	indices  []string
	logger   *common.Logger
	now      func() time.Time
}

// Option configures the service
type Option func(*Service)

// WithFundInfo sets the client used for a fund's reference NAV
func WithFundInfo(c interfaces.QuoteClient) Option {
	return func(s *Service) {
		s.fundInfo = c
	}
}

// WithMarket sets the exchange quote client
func WithMarket(c interfaces.MarketClient) Option {
	return func(s *Service) {
		s.market = c
	}
}

// WithWorkers sets the fan-out limit
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithIndices sets the push2 secids reported by MarketOverview
func WithIndices(secids []string) Option {
	return func(s *Service) {
		if len(secids) > 0 {
			s.indices = secids
		}
	}
}

// NewService creates a new valuation service
func NewService(resolver interfaces.ResolverService, quotes interfaces.QuoteService, logger *common.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	s := &Service{
		resolver: resolver,
		quotes:   quotes,
		workers:  DefaultWorkers,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResolveText resolves free text into holdings and values each one
func (s *Service) ResolveText(ctx context.Context, text string) *models.PortfolioSummary {
	candidates := s.resolver.Resolve(ctx, text)
	holdings := make([]models.FundHolding, len(candidates))
	for i, c := range candidates {
		holdings[i] = models.FundHolding{Code: c.Code, Name: c.Name, Amount: c.Amount}
	}

	summary := s.value(ctx, holdings)
	s.logger.Info().
		Int("submitted", len(candidates)).
		Int("resolved", summary.Resolved).
		Int("unavailable", summary.Unavailable).
		Msg("Resolve complete")
	return summary
}

// Refresh re-values holdings the client already knows
func (s *Service) Refresh(ctx context.Context, holdings []models.FundHolding) *models.PortfolioSummary {
	summary := s.value(ctx, holdings)
	s.logger.Info().
		Int("submitted", len(holdings)).
		Int("resolved", summary.Resolved).
		Msg("Refresh complete")
	return summary
}

// value fetches a quote per holding. A holding whose code is not six digits is
// echoed as partial without a fetch.
func (s *Service) value(ctx context.Context, holdings []models.FundHolding) *models.PortfolioSummary {
	entries := parallelMap(ctx, s.workers, holdings, func(ctx context.Context, h models.FundHolding) models.ResolvedEntry {
		code, ok := common.NormalizeFundCode(h.Code)
		if !ok {
			s.logger.Debug().Str("code", h.Code).Msg("Skipping holding with malformed code")
			return Calculate(h, nil)
		}
		h.Code = code
		return Calculate(h, s.quotes.GetQuote(ctx, code))
	})
	return Summarize(entries, s.now())
}

// Quotes fetches estimates for codes in parallel, in request order
func (s *Service) Quotes(ctx context.Context, codes []string) []*models.QuoteSnapshot {
	return parallelMap(ctx, s.workers, codes, s.quotes.GetQuote)
}

// MarketOverview returns the configured indices in configured order
func (s *Service) MarketOverview(ctx context.Context) ([]models.MarketIndex, error) {
	if s.market == nil {
		return nil, fmt.Errorf("market client not configured")
	}
	indices, err := s.market.GetIndices(ctx, s.indices)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market indices: %w", err)
	}
	return indices, nil
}

// EstimateFromConstituents estimates a fund's change from the weighted change
// of its disclosed holdings:
//
//	estChange = Σ(change × weight) / Σweight   (stocks with data only)
//	estNAV    = prevNAV × (1 + estChange/100)
func (s *Service) EstimateFromConstituents(ctx context.Context, code string, holdings []models.Constituent) (*models.ConstituentValuation, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("fund code is required")
	}
	if len(holdings) == 0 {
		return nil, ErrNoConstituents
	}
	if s.fundInfo == nil || s.market == nil {
		return nil, fmt.Errorf("constituent estimate requires fund info and market clients")
	}

	info, err := s.fundInfo.GetQuote(ctx, code)
	if err != nil || info == nil {
		if err == nil {
			err = common.ErrNoData
		}
		return nil, fmt.Errorf("fund %s: %w: %w", code, common.ErrQuoteUnavailable, err)
	}

	codes := make([]string, len(holdings))
	for i, h := range holdings {
		codes[i] = strings.TrimSpace(h.Code)
	}
	changes, err := s.market.GetStockChanges(ctx, codes)
	if err != nil {
		// constituents are reported unavailable rather than failing the estimate
		s.logger.Warn().Err(err).Str("code", code).Msg("Constituent quotes unavailable")
	}
	byCode := make(map[string]models.StockChange, len(changes))
	for _, c := range changes {
		byCode[c.Code] = c
	}

	result := &models.ConstituentValuation{
		Code:              code,
		Name:              info.Name,
		PrevNAV:           info.PrevNAV,
		PrevNAVDate:       info.PrevNAVDate,
		Constituents:      make([]models.ConstituentContribution, len(holdings)),
		OfficialChangePct: info.ChangePct,
		OfficialTime:      info.Timestamp,
	}

	var weighted, totalWeight float64
	for i, h := range holdings {
		h.Code = codes[i]
		contrib := models.ConstituentContribution{Constituent: h}
		if c, ok := byCode[h.Code]; ok {
			if contrib.Name == "" {
				contrib.Name = c.Name
			}
			contrib.ChangePct = c.ChangePct
			contrib.Contribution = common.Round2(c.ChangePct * h.Weight / 100)
			contrib.Available = true
			weighted += c.ChangePct * h.Weight
			totalWeight += h.Weight
		}
		result.Constituents[i] = contrib
	}

	result.CoveredWeight = common.Round2(totalWeight)
	estChange := 0.0
	if totalWeight > 0 {
		estChange = weighted / totalWeight
	}
	result.EstimateChangePct = common.Round2(estChange)
	result.EstimateNAV = common.Round4(info.PrevNAV * (1 + estChange/100))

	s.logger.Debug().
		Str("code", code).
		Float64("covered_weight", result.CoveredWeight).
		Float64("estimate_change", result.EstimateChangePct).
		Msg("Constituent estimate")
	return result, nil
}

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
