// Package eastmoney provides clients for the Eastmoney family of public endpoints:
// fundgz intraday estimates, fund-suggest name search and push2 exchange quotes.
package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/fundval/internal/common"
	"github.com/bobmcallan/fundval/internal/interfaces"
	"github.com/bobmcallan/fundval/internal/models"
)

const (
	DefaultFundGZURL     = "https://fundgz.1234567.com.cn"
	DefaultSearchURL     = "https://fundsuggest.eastmoney.com"
	DefaultPushURL       = "https://push2.eastmoney.com"
	DefaultUT            = "bd1d9ddb040897f350c061f0674230d7"
	DefaultTimeout       = 10 * time.Second
	DefaultSearchTimeout = 5 * time.Second
	DefaultRateLimit     = 20 // requests per second

	userAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
)

// flexFloat64 handles JSON values that may be either a number or a string.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

// Client talks to fundgz, fundsuggest and push2
type Client struct {
	fundGZURL     string
	searchURL     string
	pushURL       string
	ut            string
	searchTimeout time.Duration
	httpClient    *http.Client
	logger        *common.Logger
	limiter       *rate.Limiter
	now           func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithFundGZURL sets the fundgz base URL
func WithFundGZURL(u string) ClientOption {
	return func(c *Client) {
		c.fundGZURL = strings.TrimRight(u, "/")
	}
}

// WithSearchURL sets the fund-suggest base URL
func WithSearchURL(u string) ClientOption {
	return func(c *Client) {
		c.searchURL = strings.TrimRight(u, "/")
	}
}

// WithPushURL sets the push2 base URL
func WithPushURL(u string) ClientOption {
	return func(c *Client) {
		c.pushURL = strings.TrimRight(u, "/")
	}
}

// WithBaseURL points every endpoint at the same host. Used by tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		u = strings.TrimRight(u, "/")
		c.fundGZURL, c.searchURL, c.pushURL = u, u, u
	}
}

// WithUT sets the push2 ut token
func WithUT(ut string) ClientOption {
	return func(c *Client) {
		if ut != "" {
			c.ut = ut
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithSearchTimeout bounds a single fund search request
func WithSearchTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.searchTimeout = timeout
		}
	}
}

// NewClient creates a new Eastmoney client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		fundGZURL:     DefaultFundGZURL,
		searchURL:     DefaultSearchURL,
		pushURL:       DefaultPushURL,
		ut:            DefaultUT,
		searchTimeout: DefaultSearchTimeout,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Source returns the source identifier
func (c *Client) Source() string {
	return common.SourceEastmoney
}

// get performs a rate-limited GET and returns the raw body
func (c *Client) get(ctx context.Context, base, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := base + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", base+path).Msg("Eastmoney API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &common.APIError{
			Source:     common.SourceEastmoney,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	return body, nil
}

// fundGZResponse is the payload inside jsonpgz(...)
type fundGZResponse struct {
	FundCode string      `json:"fundcode"`
	Name     string      `json:"name"`
	NAVDate  string      `json:"jzrq"`
	NAV      flexFloat64 `json:"dwjz"`
	Estimate flexFloat64 `json:"gsz"`
	Change   flexFloat64 `json:"gszzl"`
	Time     string      `json:"gztime"`
}

// GetQuote retrieves the fundgz intraday estimate for a fund
func (c *Client) GetQuote(ctx context.Context, code string) (*models.QuoteSnapshot, error) {
	body, err := c.get(ctx, c.fundGZURL, "/js/"+code+".js", url.Values{"rt": {strconv.FormatInt(c.now().UnixMilli(), 10)}})
	if err != nil {
		c.logger.Warn().Err(err).Str("code", code).Msg("fundgz request failed")
		return nil, err
	}

	quote, err := parseFundGZ(code, body)
	if err != nil {
		return nil, err
	}
	quote.FetchedAt = c.now()
	return quote, nil
}

// parseFundGZ unwraps jsonpgz({...}); and maps it onto a snapshot
func parseFundGZ(code string, body []byte) (*models.QuoteSnapshot, error) {
	content := string(body)
	start := strings.Index(content, "jsonpgz(")
	end := strings.LastIndex(content, ")")
	if start < 0 || end <= start+len("jsonpgz(") {
		return nil, fmt.Errorf("fundgz %s: %w", code, common.ErrNoData)
	}
	payload := strings.TrimSpace(content[start+len("jsonpgz(") : end])
	if payload == "" {
		return nil, fmt.Errorf("fundgz %s: %w", code, common.ErrNoData)
	}

	var r fundGZResponse
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("fundgz %s: failed to decode payload: %w", code, err)
	}
	if r.NAV <= 0 {
		return nil, fmt.Errorf("fundgz %s: invalid previous NAV", code)
	}

	estimate := float64(r.Estimate)
	if estimate <= 0 {
		estimate = float64(r.NAV)
	}
	if r.FundCode == "" {
		r.FundCode = code
	}

	return &models.QuoteSnapshot{
		Code:        r.FundCode,
		Name:        r.Name,
		PrevNAV:     float64(r.NAV),
		PrevNAVDate: r.NAVDate,
		EstimateNAV: estimate,
		ChangePct:   float64(r.Change),
		Timestamp:   r.Time,
		Source:      common.SourceEastmoney,
	}, nil
}

// searchResponse is the fund-suggest payload
type searchResponse struct {
	Datas []struct {
		Code     string `json:"CODE"`
		Name     string `json:"NAME"`
		Category string `json:"CATEGORYDESC"`
	} `json:"Datas"`
}

// SearchFunds looks a fund up by (partial) name. Results keep the endpoint's
// relevance order; the first hit is the best match.
func (c *Client) SearchFunds(ctx context.Context, keyword string) ([]models.FundSearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("m", "1")
	params.Set("key", keyword)

	body, err := c.get(ctx, c.searchURL, "/FundSearch/api/FundSearchAPI.ashx", params)
	if err != nil {
		c.logger.Warn().Err(err).Str("keyword", keyword).Msg("Fund search failed")
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]models.FundSearchResult, 0, len(resp.Datas))
	for _, d := range resp.Datas {
		if d.Code == "" {
			continue
		}
		results = append(results, models.FundSearchResult{
			Code:     d.Code,
			Name:     d.Name,
			Category: d.Category,
		})
	}
	return results, nil
}

// Ensure Client implements the client interfaces
var (
	_ interfaces.QuoteClient  = (*Client)(nil)
	_ interfaces.FundSearcher = (*Client)(nil)
	_ interfaces.MarketClient = (*Client)(nil)
)
