// Package finnhub provides a client for the Finnhub API
package finnhub

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
	DefaultBaseURL   = "https://finnhub.io/api/v1"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 2 // requests per second
)

// Client implements the FinnhubClient interface
type Client struct {
	baseURL    string
	apiKey     string
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

// NewClient creates a new Finnhub client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
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
	return fmt.Sprintf("Finnhub API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited, cached GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}

	cacheKey := path + "?" + params.Encode()
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, "finnhub", cacheKey); ok {
			return json.Unmarshal(raw, result)
		}
	}

	if err := c.waitCooldown(ctx); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("token", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Finnhub API request")

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
		if err := c.cache.Set(ctx, "finnhub", cacheKey, body); err != nil {
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

	c.logger.Warn().Str("retry_after", header).Msg("Finnhub rate limit hit, pausing requests")
}

// GetPeers retrieves the tickers Finnhub lists as peers of the target.
// Finnhub includes the target itself in the list; the chain filters it.
func (c *Client) GetPeers(ctx context.Context, ticker string) ([]string, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var peers []string
	if err := c.get(ctx, "/stock/peers", params, &peers); err != nil {
		return nil, err
	}
	if len(peers) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no peers for %s", ticker),
			Endpoint:   "/stock/peers",
		}
	}

	return peers, nil
}

// basicMetricsResponse mirrors the /stock/metric envelope
type basicMetricsResponse struct {
	Symbol string         `json:"symbol"`
	Metric map[string]any `json:"metric"`
}

// GetBasicMetrics retrieves the basic financial metrics payload keyed by
// Finnhub metric names. The symbol is folded into the payload so the
// normalizer has the identity fields it requires.
func (c *Client) GetBasicMetrics(ctx context.Context, ticker string) (map[string]any, error) {
	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("metric", "all")

	var resp basicMetricsResponse
	if err := c.get(ctx, "/stock/metric", params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Metric) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no metrics for %s", ticker),
			Endpoint:   "/stock/metric",
		}
	}

	payload := make(map[string]any, len(resp.Metric)+2)
	for k, v := range resp.Metric {
		payload[k] = v
	}
	payload["symbol"] = models.NormalizeTicker(ticker)
	if _, ok := payload["name"]; !ok {
		payload["name"] = models.NormalizeTicker(ticker)
	}

	return payload, nil
}

var _ interfaces.FinnhubClient = (*Client)(nil)
