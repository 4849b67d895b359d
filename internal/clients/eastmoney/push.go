package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/bobmcallan/fundval/internal/models"
)

// push2 field ids
const (
	fieldPrice    = "f2"
	fieldPct      = "f3"
	fieldChange   = "f4"
	fieldVolume   = "f5"
	fieldTurnover = "f6"
	fieldCode     = "f12"
	fieldMarket   = "f13"
	fieldName     = "f14"

	pushFields = "f2,f3,f4,f5,f6,f12,f13,f14"
	diffPath   = "$.data.diff[*]"
)

// StockSecID maps a 6-digit A-share code to its push2 secid:
// Shanghai codes (leading 6) are market 1, everything else market 0.
func StockSecID(code string) string {
	if strings.HasPrefix(code, "6") {
		return "1." + code
	}
	return "0." + code
}

// pushRow is one decoded push2 diff entry
type pushRow map[string]any

func (r pushRow) str(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// num returns the numeric value of key; ok is false for "-" and missing fields
func (r pushRow) num(key string) (float64, bool) {
	switch v := r[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func (r pushRow) secID() string {
	return r.str(fieldMarket) + "." + r.str(fieldCode)
}

// fetchDiff requests push2 clist for the given secids and returns the rows keyed by secid
func (c *Client) fetchDiff(ctx context.Context, secids []string) (map[string]pushRow, error) {
	fs := make([]string, len(secids))
	for i, id := range secids {
		fs[i] = "i:" + id
	}

	params := url.Values{}
	params.Set("pn", "1")
	params.Set("pz", strconv.Itoa(max(len(secids), 10)))
	params.Set("po", "1")
	params.Set("np", "1")
	params.Set("ut", c.ut)
	params.Set("fltt", "2")
	params.Set("invt", "2")
	params.Set("fid", "f3")
	params.Set("fs", strings.Join(fs, ","))
	params.Set("fields", pushFields)

	body, err := c.get(ctx, c.pushURL, "/api/qt/clist/get", params)
	if err != nil {
		c.logger.Warn().Err(err).Int("secids", len(secids)).Msg("push2 request failed")
		return nil, err
	}

	return parseDiff(body)
}

// parseDiff extracts data.diff, sent either as an array or as an object keyed
// by row index, as rows keyed by "<market>.<code>". A null data
// block (unknown or suspended codes only) yields an empty map.
func parseDiff(body []byte) (map[string]pushRow, error) {
	var obj any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("failed to decode push2 response: %w", err)
	}

	rows := make(map[string]pushRow)
	val, err := jsonpath.Get(diffPath, obj)
	if err != nil {
		return rows, nil
	}
	list, ok := val.([]any)
	if !ok {
		return rows, nil
	}
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		row := pushRow(m)
		rows[row.secID()] = row
	}
	return rows, nil
}

// GetIndices returns one entry per requested secid, in request order.
// Indices the exchange did not report come back with Available=false.
func (c *Client) GetIndices(ctx context.Context, secids []string) ([]models.MarketIndex, error) {
	if len(secids) == 0 {
		return nil, nil
	}
	rows, err := c.fetchDiff(ctx, secids)
	if err != nil {
		return nil, err
	}

	indices := make([]models.MarketIndex, 0, len(secids))
	for _, id := range secids {
		idx := models.MarketIndex{SecID: id}
		if _, code, ok := strings.Cut(id, "."); ok {
			idx.Code = code
		}
		row, found := rows[id]
		if found {
			idx.Name = row.str(fieldName)
			price, okPrice := row.num(fieldPrice)
			pct, okPct := row.num(fieldPct)
			idx.Price = price
			idx.ChangePct = pct
			idx.Change, _ = row.num(fieldChange)
			idx.Volume, _ = row.num(fieldVolume)
			idx.Turnover, _ = row.num(fieldTurnover)
			idx.Available = okPrice && okPct
		}
		indices = append(indices, idx)
	}
	return indices, nil
}

// GetStockChanges returns the intraday move of each listed stock that the
// exchange reported with a numeric change, in request order.
func (c *Client) GetStockChanges(ctx context.Context, codes []string) ([]models.StockChange, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	secids := make([]string, len(codes))
	for i, code := range codes {
		secids[i] = StockSecID(code)
	}

	rows, err := c.fetchDiff(ctx, secids)
	if err != nil {
		return nil, err
	}

	changes := make([]models.StockChange, 0, len(codes))
	for i, code := range codes {
		row, found := rows[secids[i]]
		if !found {
			continue
		}
		pct, ok := row.num(fieldPct)
		if !ok {
			continue
		}
		price, _ := row.num(fieldPrice)
		change, _ := row.num(fieldChange)
		changes = append(changes, models.StockChange{
			Code:      code,
			Name:      row.str(fieldName),
			Price:     price,
			ChangePct: pct,
			Change:    change,
		})
	}
	return changes, nil
}
