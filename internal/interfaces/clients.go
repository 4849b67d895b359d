// Package interfaces defines service contracts for fundval
package interfaces

import (
	"context"

	"github.com/bobmcallan/fundval/internal/models"
)

// QuoteClient fetches an intraday valuation estimate for a fund code
type QuoteClient interface {
	// Source returns the source identifier ("ths", "eastmoney")
	Source() string

	// GetQuote returns the latest estimate for a 6-digit fund code
	GetQuote(ctx context.Context, code string) (*models.QuoteSnapshot, error)
}

// FundSearcher looks up funds by (partial) name
type FundSearcher interface {
	SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error)
}

// MarketClient fetches index and stock moves from Eastmoney push2
type MarketClient interface {
	// GetIndices returns snapshots for push2 secids such as "1.000001"
	GetIndices(ctx context.Context, secids []string) ([]models.MarketIndex, error)

	// GetStockChanges returns intraday moves for plain 6-digit stock codes
	GetStockChanges(ctx context.Context, codes []string) ([]models.StockChange, error)
}

// HoldingsExtractor turns a holdings screenshot into "name code amount" text
type HoldingsExtractor interface {
	ExtractHoldingsText(ctx context.Context, image []byte, mimeType string) (string, error)
}
