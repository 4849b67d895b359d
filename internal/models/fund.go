// Package models defines data structures for fundval
package models

import "time"

// Entry status values reported on ResolvedEntry.Status
const (
	StatusSuccess = "success"
	StatusPartial = "partial"
)

// FundHolding is a user-reported position. Amount is the position value as of
// the prior trading day's settlement; HoldProfit is the cumulative profit the
// user's brokerage app showed at the same point.
type FundHolding struct {
	Code       string  `json:"code"`
	Name       string  `json:"name,omitempty"`
	Amount     float64 `json:"amount"`
	HoldProfit float64 `json:"holdProfit"`
}

// QuoteSnapshot is an intraday valuation estimate for one fund
type QuoteSnapshot struct {
	Code        string          `json:"code"`
	Name        string          `json:"name,omitempty"`
	PrevNAV     float64         `json:"prevNAV"`       // unit NAV of the previous trading day
	PrevNAVDate string          `json:"prevNAVDate,omitempty"`
	EstimateNAV float64         `json:"estimateNAV"`   // current intraday estimate
	ChangePct   float64         `json:"percentChange"` // (EstimateNAV-PrevNAV)/PrevNAV*100
	Timestamp   string          `json:"timestamp"`     // source-formatted, e.g. "2026-01-30 1500"
	Source      string          `json:"source"`        // "ths" or "eastmoney"
	Points      []IntradayPoint `json:"points,omitempty"`
	FetchedAt   time.Time       `json:"fetchedAt"`
}

// IntradayPoint is one sample of the intraday estimate curve
type IntradayPoint struct {
	Time     string  `json:"time"` // HHMM
	Estimate float64 `json:"estimate"`
}

// ResolveCandidate is one holding line the resolver recognised
type ResolveCandidate struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

// ResolvedEntry is a holding joined with its intraday estimate
type ResolvedEntry struct {
	Name           string  `json:"name"`
	Code           string  `json:"code"`
	RealtimeChange float64 `json:"realtimeChange"` // percent, 2 decimals
	RealtimeProfit float64 `json:"realtimeProfit"` // currency, 2 decimals
	HoldProfit     float64 `json:"holdProfit"`
	Amount         float64 `json:"amount"`
	Status         string  `json:"status"`
	EstimateTime   string  `json:"estimateTime,omitempty"`
	Source         string  `json:"source,omitempty"`
}

// PortfolioSummary aggregates a set of resolved entries
type PortfolioSummary struct {
	Entries             []ResolvedEntry `json:"data"`
	TotalAmount         float64         `json:"totalAmount"`
	TotalRealtimeProfit float64         `json:"totalRealtimeProfit"`
	Resolved            int             `json:"resolved"`
	Unavailable         int             `json:"unavailable"`
	GeneratedAt         time.Time       `json:"generatedAt"`
}

// FundName is one entry of the fund name directory
type FundName struct {
	Name string `json:"name" toml:"name"`
	Code string `json:"code" toml:"code"`
}

// FundSearchResult is a hit from the remote fund search
type FundSearchResult struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}
