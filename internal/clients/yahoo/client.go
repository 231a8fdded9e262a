// Package yahoo provides a client for the Yahoo Finance API
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"
)

// Client implements the YahooClient interface. Yahoo requires no API key
// but throttles aggressively without a browser user agent.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	cache      interfaces.ResponseCache

	cooldownMu    sync.Mutex
	cooldownUntil time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
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
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithCache sets the response cache
func WithCache(cache interfaces.ResponseCache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited, cached GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}

	cacheKey := path + "?" + params.Encode()
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, "yahoo", cacheKey); ok {
			return json.Unmarshal(raw, result)
		}
	}

	if err := c.waitCooldown(ctx); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests {
			c.applyRetryAfter(resp.Header.Get("Retry-After"))
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, "yahoo", cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache response")
		}
	}

	return nil
}

// waitCooldown blocks until any Retry-After window announced by the
// provider has passed.
func (c *Client) waitCooldown(ctx context.Context) error {
	c.cooldownMu.Lock()
	until := c.cooldownUntil
	c.cooldownMu.Unlock()

	wait := time.Until(until)
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// applyRetryAfter records a rate-limit pause from a Retry-After header,
// given either as seconds or as an HTTP date.
func (c *Client) applyRetryAfter(header string) {
	header = strings.TrimSpace(header)
	if header == "" {
		return
	}

	var until time.Time
	if seconds, err := strconv.Atoi(header); err == nil && seconds > 0 {
		until = time.Now().Add(time.Duration(seconds) * time.Second)
	} else if at, err := http.ParseTime(header); err == nil {
		until = at
	} else {
		return
	}

	c.cooldownMu.Lock()
	if until.After(c.cooldownUntil) {
		c.cooldownUntil = until
	}
	c.cooldownMu.Unlock()

	c.logger.Warn().Str("retry_after", header).Msg("Yahoo rate limit hit, pausing requests")
}

// quoteSummaryResponse mirrors the quoteSummary envelope
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]any `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// rawValue extracts Yahoo's {raw, fmt} wrapper or a bare number
func rawValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case map[string]any:
		if raw, ok := t["raw"].(float64); ok {
			return raw, true
		}
	}
	return 0, false
}

// GetQuoteSummary retrieves summary detail, key statistics, financial data
// and profile modules as one flattened payload keyed by Yahoo field names.
func (c *Client) GetQuoteSummary(ctx context.Context, ticker string) (map[string]any, error) {
	params := url.Values{}
	params.Set("modules", "summaryDetail,defaultKeyStatistics,financialData,assetProfile,price")

	var resp quoteSummaryResponse
	path := fmt.Sprintf("/v10/finance/quoteSummary/%s", ticker)
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}

	if resp.QuoteSummary.Error != nil {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    resp.QuoteSummary.Error.Description,
			Endpoint:   path,
		}
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no quote summary for %s", ticker),
			Endpoint:   path,
		}
	}

	// Flatten modules into a single payload; {raw, fmt} wrappers unwrap to
	// floats, strings pass through
	flat := map[string]any{"symbol": ticker}
	for _, module := range resp.QuoteSummary.Result[0] {
		fields, ok := module.(map[string]any)
		if !ok {
			continue
		}
		for k, v := range fields {
			if raw, ok := rawValue(v); ok {
				flat[k] = raw
			} else if s, ok := v.(string); ok {
				flat[k] = s
			}
		}
	}

	return flat, nil
}

// recommendationsResponse mirrors the recommendationsBySymbol envelope
type recommendationsResponse struct {
	Finance struct {
		Result []struct {
			Symbol             string `json:"symbol"`
			RecommendedSymbols []struct {
				Symbol string `json:"symbol"`
			} `json:"recommendedSymbols"`
		} `json:"result"`
	} `json:"finance"`
}

// GetRecommendations retrieves the symbols Yahoo recommends alongside the
// target, used as a peer candidate list.
func (c *Client) GetRecommendations(ctx context.Context, ticker string) ([]string, error) {
	var resp recommendationsResponse
	path := fmt.Sprintf("/v6/finance/recommendationsbysymbol/%s", ticker)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Finance.Result) == 0 || len(resp.Finance.Result[0].RecommendedSymbols) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no recommendations for %s", ticker),
			Endpoint:   path,
		}
	}

	symbols := make([]string, 0, len(resp.Finance.Result[0].RecommendedSymbols))
	for _, rec := range resp.Finance.Result[0].RecommendedSymbols {
		symbols = append(symbols, models.NormalizeTicker(rec.Symbol))
	}

	return symbols, nil
}

// GetProfile builds a StockProfile from the quote summary. Fallback path
// when the primary provider cannot resolve the target.
func (c *Client) GetProfile(ctx context.Context, ticker string) (*models.StockProfile, error) {
	payload, err := c.GetQuoteSummary(ctx, ticker)
	if err != nil {
		return nil, err
	}

	profile := &models.StockProfile{
		Ticker: models.NormalizeTicker(ticker),
	}
	if name, ok := payload["longName"].(string); ok {
		profile.Name = name
	} else if name, ok := payload["shortName"].(string); ok {
		profile.Name = name
	}
	if sector, ok := payload["sector"].(string); ok {
		profile.Sector = sector
	}
	if industry, ok := payload["industry"].(string); ok {
		profile.Industry = industry
	}
	if price, ok := payload["regularMarketPrice"].(float64); ok {
		profile.CurrentPrice = price
	} else if price, ok := payload["currentPrice"].(float64); ok {
		profile.CurrentPrice = price
	}
	if target, ok := payload["targetMeanPrice"].(float64); ok && target > 0 {
		profile.TargetPrice = &target
	}

	if profile.Name == "" {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no profile data for %s", ticker),
			Endpoint:   "/v10/finance/quoteSummary",
		}
	}

	return profile, nil
}

var _ interfaces.YahooClient = (*Client)(nil)
