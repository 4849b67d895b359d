package models

// MarketIndex is a snapshot of one exchange index from Eastmoney push2
type MarketIndex struct {
	SecID     string  `json:"secid"`
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"changePct"`
	Change    float64 `json:"change"`
	Volume    float64 `json:"volume"`
	Turnover  float64 `json:"turnover"`
	Available bool    `json:"available"` // false when the exchange reported "-" (suspended / pre-open)
}

// StockChange is the intraday move of one stock
type StockChange struct {
	Code      string  `json:"code"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ChangePct float64 `json:"changePct"`
	Change    float64 `json:"change"`
}

// Constituent is one disclosed top holding of a fund
type Constituent struct {
	Code   string  `json:"code" toml:"code"`
	Name   string  `json:"name" toml:"name"`
	Weight float64 `json:"weight" toml:"weight"` // percent of net assets
}

// ConstituentContribution is the contribution of one constituent to the estimate
type ConstituentContribution struct {
	Constituent
	ChangePct    float64 `json:"changePct"`
	Contribution float64 `json:"contribution"` // ChangePct*Weight/100
	Available    bool    `json:"available"`
}

// ConstituentValuation estimates a fund's NAV from its top holdings
type ConstituentValuation struct {
	Code              string                    `json:"code"`
	Name              string                    `json:"name"`
	PrevNAV           float64                   `json:"prevNAV"`
	PrevNAVDate       string                    `json:"prevNAVDate"`
	Constituents      []ConstituentContribution `json:"constituents"`
	CoveredWeight     float64                   `json:"coveredWeight"`
	EstimateChangePct float64                   `json:"estimateChangePct"`
	EstimateNAV       float64                   `json:"estimateNAV"`
	OfficialChangePct float64                   `json:"officialChangePct"` // fundgz estimate for reference
	OfficialTime      string                    `json:"officialTime"`
}
