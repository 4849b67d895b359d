package interfaces

import (
	"context"

	"github.com/bobmcallan/fundval/internal/models"
)

// ResolverService extracts holdings from free text
type ResolverService interface {
	Resolve(ctx context.Context, text string) []models.ResolveCandidate
}

// QuoteService returns an estimate or nil when no source has data
type QuoteService interface {
	GetQuote(ctx context.Context, code string) *models.QuoteSnapshot
}

// ValuationService joins holdings with estimates
type ValuationService interface {
	// ResolveText runs the resolver and values every recognised line
	ResolveText(ctx context.Context, text string) *models.PortfolioSummary

	// Refresh re-values known holdings; unavailable entries come back as partial
	Refresh(ctx context.Context, holdings []models.FundHolding) *models.PortfolioSummary

	// EstimateFromConstituents estimates a NAV from disclosed top holdings
	EstimateFromConstituents(ctx context.Context, code string, holdings []models.Constituent) (*models.ConstituentValuation, error)

	// MarketOverview returns the configured indices
	MarketOverview(ctx context.Context) ([]models.MarketIndex, error)

	// Quotes fetches estimates for codes in parallel; missing entries are nil
	Quotes(ctx context.Context, codes []string) []*models.QuoteSnapshot
}
