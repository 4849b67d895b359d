// Package ths provides a client for the 10jqka (THS) fund valuation chart API
package ths

import (
	"context"
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
	DefaultBaseURL   = "https://gz-fund.10jqka.com.cn"
	DefaultReferer   = "https://fund.10jqka.com.cn/"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 20 // requests per second

	userAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

	// liveLabel replaces the HHMM part of the timestamp when the series is empty.
	liveLabel = "实时"
)

// Client implements QuoteClient against the THS intraday chart endpoint
type Client struct {
	baseURL    string
	referer    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithReferer sets the Referer header the endpoint expects
func WithReferer(referer string) ClientOption {
	return func(c *Client) {
		c.referer = referer
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

// NewClient creates a new THS client. The endpoint is public; no key required.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		referer: DefaultReferer,
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
	return common.SourceTHS
}

// GetQuote retrieves the intraday estimate series for a fund and returns the
// latest point as the current estimate.
func (c *Client) GetQuote(ctx context.Context, code string) (*models.QuoteSnapshot, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("module", "api")
	params.Set("controller", "index")
	params.Set("action", "chart")
	params.Set("info", "vm_fd_"+code)
	params.Set("start", "0930")
	reqURL := fmt.Sprintf("%s/?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", c.referer)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("code", code).Dur("elapsed", elapsed).Msg("THS request failed")
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn().Str("code", code).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("THS non-OK response")
		return nil, &common.APIError{
			Source:     common.SourceTHS,
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   "vm_fd_" + code,
		}
	}

	quote, err := parseChart(code, string(body))
	if err != nil {
		return nil, err
	}
	quote.FetchedAt = c.now()

	c.logger.Debug().
		Str("code", code).
		Float64("prev_nav", quote.PrevNAV).
		Float64("estimate", quote.EstimateNAV).
		Dur("elapsed", elapsed).
		Msg("THS quote")

	return quote, nil
}

// parseChart parses a vm_fd payload of the form
//
//	vm_fd_<code>='...|<date>~<prevNAV>~<start>,<HHMM>,<est>,<prev>,<x>;<HHMM>,<est>,...'
//
// The header carries the previous NAV; each ';'-separated point after it
// carries an intraday estimate. The last valid point is the current estimate.
func parseChart(code, content string) (*models.QuoteSnapshot, error) {
	if !strings.Contains(content, "|") || !strings.Contains(content, "~") {
		return nil, fmt.Errorf("THS: unexpected payload for %s", code)
	}

	segments := strings.Split(content, "|")
	main := strings.Trim(strings.TrimSpace(segments[1]), `'";`)

	header, series, _ := strings.Cut(main, ",")
	parts := strings.Split(header, "~")
	if len(parts) < 2 {
		return nil, fmt.Errorf("THS: malformed header %q for %s", header, code)
	}

	prevNAV, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || prevNAV <= 0 {
		return nil, fmt.Errorf("THS: invalid previous NAV %q for %s", parts[1], code)
	}

	points := parsePoints(series)

	estimate := prevNAV
	label := liveLabel
	if len(points) > 0 {
		last := points[len(points)-1]
		estimate = last.Estimate
		label = last.Time
	}

	return &models.QuoteSnapshot{
		Code:        code,
		PrevNAV:     prevNAV,
		PrevNAVDate: parts[0],
		EstimateNAV: common.Round4(estimate),
		ChangePct:   (estimate - prevNAV) / prevNAV * 100,
		Timestamp:   parts[0] + " " + label,
		Source:      common.SourceTHS,
		Points:      points,
	}, nil
}

// parsePoints parses "HHMM,est,prev,x;HHMM,est,..." skipping malformed samples.
func parsePoints(series string) []models.IntradayPoint {
	if series == "" {
		return nil
	}
	var points []models.IntradayPoint
	for _, raw := range strings.Split(series, ";") {
		fields := strings.Split(strings.Trim(strings.TrimSpace(raw), `'"`), ",")
		if len(fields) < 2 {
			continue
		}
		est, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil || est <= 0 {
			continue
		}
		points = append(points, models.IntradayPoint{
			Time:     strings.TrimSpace(fields[0]),
			Estimate: est,
		})
	}
	return points
}

// Ensure Client implements QuoteClient
var _ interfaces.QuoteClient = (*Client)(nil)
