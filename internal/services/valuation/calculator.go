package valuation

import (
	"time"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
)

// Shares converts a prior-settlement amount into fund units
func Shares(amount, prevNAV float64) float64 {
	if amount <= 0 || prevNAV <= 0 {
		return 0
	}
	return amount / prevNAV
}

// RealtimeProfit is shares * (estimate - prevNAV), rounded to 2 decimals
func RealtimeProfit(amount, prevNAV, estimate float64) float64 {
	return common.Round2(Shares(amount, prevNAV) * (estimate - prevNAV))
}

// Calculate joins a holding with its quote. A nil quote yields a partial entry
// that echoes the holding with zero change and profit.
func Calculate(h models.FundHolding, quote *models.QuoteSnapshot) models.ResolvedEntry {
	entry := models.ResolvedEntry{
		Name:       displayName(h, quote),
		Code:       h.Code,
		HoldProfit: h.HoldProfit,
		Amount:     h.Amount,
		Status:     models.StatusPartial,
	}
	if quote == nil {
		return entry
	}

	entry.RealtimeChange = common.Round2(quote.ChangePct)
	entry.RealtimeProfit = RealtimeProfit(h.Amount, quote.PrevNAV, quote.EstimateNAV)
	entry.EstimateTime = quote.Timestamp
	entry.Source = quote.Source
	entry.Status = models.StatusSuccess
	return entry
}

func displayName(h models.FundHolding, quote *models.QuoteSnapshot) string {
	switch {
	case h.Name != "":
		return h.Name
	case quote != nil && quote.Name != "":
		return quote.Name
	default:
		return "基金(" + h.Code + ")"
	}
}

// Summarize totals a set of entries. Only valued entries count toward the
// amount and profit; partial entries are counted as unavailable.
func Summarize(entries []models.ResolvedEntry, now time.Time) *models.PortfolioSummary {
	if entries == nil {
		entries = []models.ResolvedEntry{}
	}
	summary := &models.PortfolioSummary{
		Entries:     entries,
		GeneratedAt: now,
	}

	var amount, profit float64
	for _, e := range entries {
		if e.Status == models.StatusSuccess {
			amount += e.Amount
			profit += e.RealtimeProfit
			summary.Resolved++
		} else {
			summary.Unavailable++
		}
	}
	summary.TotalAmount = common.Round2(amount)
	summary.TotalRealtimeProfit = common.Round2(profit)
	return summary
}
