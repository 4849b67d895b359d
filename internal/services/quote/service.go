// Package quote provides a fund valuation quote service with automatic fallback
package quote

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/models"
)

// Service implements QuoteService with a primary source and an optional fallback.
type Service struct {
	primary  interfaces.QuoteClient
	fallback interfaces.QuoteClient
	logger   *common.Logger
	now      func() time.Time // injectable clock for testing
}

// NewService creates a new quote service.
// fallback may be nil, in which case only the primary source is queried.
func NewService(primary, fallback interfaces.QuoteClient, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// Source returns the primary source identifier
func (s *Service) Source() string {
	return s.primary.Source()
}

// GetQuote returns the latest estimate for code, or nil when no source has it.
func (s *Service) GetQuote(ctx context.Context, code string) *models.QuoteSnapshot {
	quote, err := s.Lookup(ctx, code)
	if err != nil {
		s.logger.Warn().Err(err).Str("code", code).Msg("Quote unavailable")
		return nil
	}
	return quote
}

// Lookup is GetQuote with the failure reason. The returned error wraps
// ErrQuoteUnavailable when every source failed.
func (s *Service) Lookup(ctx context.Context, code string) (*models.QuoteSnapshot, error) {
	start := s.now()
	quote, primaryErr := s.primary.GetQuote(ctx, code)
	if primaryErr == nil && quote != nil {
		s.stamp(quote, s.primary.Source())
		s.logger.Debug().
			Str("code", code).
			Str("source", quote.Source).
			Dur("elapsed", s.now().Sub(start)).
			Msg("Quote fetched")
		return quote, nil
	}
	if primaryErr == nil {
		primaryErr = common.ErrNoData
	}

	if s.fallback == nil || ctx.Err() != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", s.primary.Source(), code, common.ErrQuoteUnavailable, primaryErr)
	}

	s.logger.Info().
		Err(primaryErr).
		Str("code", code).
		Str("primary", s.primary.Source()).
		Str("fallback", s.fallback.Source()).
		Msg("Primary quote source failed, trying fallback")

	quote, fallbackErr := s.fallback.GetQuote(ctx, code)
	if fallbackErr != nil || quote == nil {
		if fallbackErr == nil {
			fallbackErr = common.ErrNoData
		}
		return nil, fmt.Errorf("%s %s: %w: %w", s.fallback.Source(), code, common.ErrQuoteUnavailable, fallbackErr)
	}

	s.stamp(quote, s.fallback.Source())
	s.logger.Info().
		Str("code", code).
		Str("source", quote.Source).
		Float64("estimate", quote.EstimateNAV).
		Msg("Fallback quote succeeded")
	return quote, nil
}

func (s *Service) stamp(quote *models.QuoteSnapshot, source string) {
	if quote.Source == "" {
		quote.Source = source
	}
	if quote.FetchedAt.IsZero() {
		quote.FetchedAt = s.now()
	}
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
