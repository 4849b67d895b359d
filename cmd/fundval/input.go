package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/models"
)

// holdingsFile is the TOML layout read by the holdings command:
//
//	[[holding]]
//	name = "博时黄金ETF联接A"
//	code = "002610"
//	amount = 1649.77
//	hold_profit = 255.22
type holdingsFile struct {
	Holdings []struct {
		Name       string  `toml:"name"`
		Code       string  `toml:"code"`
		Amount     float64 `toml:"amount"`
		HoldProfit float64 `toml:"hold_profit"`
	} `toml:"holding"`
}

// constituentsFile is the TOML layout read by the estimate command:
//
//	code = "021534"
//
//	[[holding]]
//	code = "601899"
//	name = "紫金矿业"
//	weight = 15.30
type constituentsFile struct {
	Code     string               `toml:"code"`
	Holdings []models.Constituent `toml:"holding"`
}

func parseHoldings(data []byte) ([]models.FundHolding, error) {
	var f holdingsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse holdings: %w", err)
	}
	out := make([]models.FundHolding, 0, len(f.Holdings))
	for i, h := range f.Holdings {
		code := strings.TrimSpace(h.Code)
		if !common.IsFundCode(code) {
			return nil, fmt.Errorf("holding %d: invalid fund code %q", i+1, h.Code)
		}
		out = append(out, models.FundHolding{
			Code:       code,
			Name:       strings.TrimSpace(h.Name),
			Amount:     h.Amount,
			HoldProfit: h.HoldProfit,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no [[holding]] entries found")
	}
	return out, nil
}

func parseConstituents(data []byte) (string, []models.Constituent, error) {
	var f constituentsFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return "", nil, fmt.Errorf("failed to parse constituents: %w", err)
	}
	code := strings.TrimSpace(f.Code)
	if !common.IsFundCode(code) {
		return "", nil, fmt.Errorf("invalid fund code %q", f.Code)
	}
	if len(f.Holdings) == 0 {
		return "", nil, fmt.Errorf("no [[holding]] entries found")
	}
	for i := range f.Holdings {
		f.Holdings[i].Code = strings.TrimSpace(f.Holdings[i].Code)
		if f.Holdings[i].Code == "" {
			return "", nil, fmt.Errorf("holding %d: stock code is required", i+1)
		}
	}
	return code, f.Holdings, nil
}

// readInput reads path, or stdin when path is "" or "-"
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}
