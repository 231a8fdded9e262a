// Package fmp provides a client for the Financial Modeling Prep API
package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockperf/internal/common"
	"github.com/bobmcallan/stockperf/internal/interfaces"
	"github.com/bobmcallan/stockperf/internal/models"
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
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://financialmodelingprep.com/api/v3"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// Client implements the FMPClient interface
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

// NewClient creates a new FMP client
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
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited, cached GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}

	// Cache key excludes the API key
	cacheKey := path + "?" + params.Encode()
	if c.cache != nil {
		if raw, ok := c.cache.Get(ctx, "fmp", cacheKey); ok {
			return json.Unmarshal(raw, result)
		}
	}

	if err := c.waitCooldown(ctx); err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

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
		if err := c.cache.Set(ctx, "fmp", cacheKey, body); err != nil {
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

	c.logger.Warn().Str("retry_after", header).Msg("FMP rate limit hit, pausing requests")
}

// profileResponse represents the API response for a company profile
type profileResponse struct {
	Symbol      string      `json:"symbol"`
	CompanyName string      `json:"companyName"`
	Sector      string      `json:"sector"`
	Industry    string      `json:"industry"`
	Price       flexFloat64 `json:"price"`
	Beta        flexFloat64 `json:"beta"`
}

// GetProfile retrieves a company profile
func (c *Client) GetProfile(ctx context.Context, ticker string) (*models.StockProfile, error) {
	var profiles []profileResponse
	if err := c.get(ctx, fmt.Sprintf("/profile/%s", ticker), nil, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no profile for %s", ticker),
			Endpoint:   "/profile",
		}
	}

	p := profiles[0]
	return &models.StockProfile{
		Ticker:       models.NormalizeTicker(p.Symbol),
		Name:         p.CompanyName,
		Sector:       p.Sector,
		Industry:     p.Industry,
		CurrentPrice: float64(p.Price),
	}, nil
}

// peersResponse represents the API response for declared peers
type peersResponse struct {
	Symbol    string   `json:"symbol"`
	PeersList []string `json:"peersList"`
}

// GetPeerSymbols retrieves the tickers FMP lists as peers of the target
func (c *Client) GetPeerSymbols(ctx context.Context, ticker string) ([]string, error) {
	params := url.Values{}
	params.Set("symbol", ticker)

	var resp []peersResponse
	if err := c.get(ctx, "/stock_peers", params, &resp); err != nil {
		return nil, err
	}
	if len(resp) == 0 || len(resp[0].PeersList) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no peers for %s", ticker),
			Endpoint:   "/stock_peers",
		}
	}

	return resp[0].PeersList, nil
}

// ScreenBySector queries the stock screener for companies in a sector
func (c *Client) ScreenBySector(ctx context.Context, sector string, limit int) ([]models.ScreenerHit, error) {
	params := url.Values{}
	params.Set("sector", sector)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("isActivelyTrading", "true")

	var hits []models.ScreenerHit
	if err := c.get(ctx, "/stock-screener", params, &hits); err != nil {
		return nil, err
	}

	return hits, nil
}

// GetRatiosTTM retrieves trailing-twelve-month ratios as a raw payload.
// The peers package normalizes the field names onto canonical metrics.
func (c *Client) GetRatiosTTM(ctx context.Context, ticker string) (map[string]any, error) {
	var ratios []map[string]any
	if err := c.get(ctx, fmt.Sprintf("/ratios-ttm/%s", ticker), nil, &ratios); err != nil {
		return nil, err
	}
	if len(ratios) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no ratios for %s", ticker),
			Endpoint:   "/ratios-ttm",
		}
	}

	return ratios[0], nil
}

// estimateResponse represents one year of analyst revenue estimates
type estimateResponse struct {
	Date                string      `json:"date"`
	EstimatedRevenueAvg flexFloat64 `json:"estimatedRevenueAvg"`
}

// targetConsensusResponse represents the analyst price target consensus
type targetConsensusResponse struct {
	TargetConsensus flexFloat64 `json:"targetConsensus"`
}

// GetEstimates retrieves analyst growth and price target estimates.
// A missing price target is not an error; the target stays nil.
func (c *Client) GetEstimates(ctx context.Context, ticker string) (*models.AnalystEstimates, error) {
	params := url.Values{}
	params.Set("limit", "2")

	var estimates []estimateResponse
	if err := c.get(ctx, fmt.Sprintf("/analyst-estimates/%s", ticker), params, &estimates); err != nil {
		return nil, err
	}

	// Estimates are returned most recent first
	growth := 0.05
	if len(estimates) >= 2 && estimates[1].EstimatedRevenueAvg > 0 {
		growth = float64(estimates[0].EstimatedRevenueAvg)/float64(estimates[1].EstimatedRevenueAvg) - 1
	}

	result := &models.AnalystEstimates{GrowthRate: growth}

	var consensus []targetConsensusResponse
	if err := c.get(ctx, fmt.Sprintf("/price-target-consensus/%s", ticker), nil, &consensus); err == nil {
		if len(consensus) > 0 && consensus[0].TargetConsensus > 0 {
			target := float64(consensus[0].TargetConsensus)
			result.TargetPrice = &target
		}
	}

	return result, nil
}

// incomeStatementResponse holds the income statement fields used by the DCF
type incomeStatementResponse struct {
	Revenue           flexFloat64 `json:"revenue"`
	NetIncome         flexFloat64 `json:"netIncome"`
	SharesOutstanding flexFloat64 `json:"weightedAverageShsOut"`
}

// balanceSheetResponse holds the balance sheet fields used by the DCF
type balanceSheetResponse struct {
	TotalDebt   flexFloat64 `json:"totalDebt"`
	TotalEquity flexFloat64 `json:"totalStockholdersEquity"`
}

// cashFlowResponse holds the cash flow statement fields used by the DCF
type cashFlowResponse struct {
	OperatingCashFlow flexFloat64 `json:"operatingCashFlow"`
}

// GetFinancials retrieves the latest annual fundamentals for the DCF
func (c *Client) GetFinancials(ctx context.Context, ticker string) (*models.Financials, error) {
	params := url.Values{}
	params.Set("limit", "1")

	var income []incomeStatementResponse
	if err := c.get(ctx, fmt.Sprintf("/income-statement/%s", ticker), params, &income); err != nil {
		return nil, err
	}
	if len(income) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no income statement for %s", ticker),
			Endpoint:   "/income-statement",
		}
	}

	var balance []balanceSheetResponse
	if err := c.get(ctx, fmt.Sprintf("/balance-sheet-statement/%s", ticker), params, &balance); err != nil {
		return nil, err
	}

	var cashflow []cashFlowResponse
	if err := c.get(ctx, fmt.Sprintf("/cash-flow-statement/%s", ticker), params, &cashflow); err != nil {
		return nil, err
	}

	fin := &models.Financials{
		Ticker:            models.NormalizeTicker(ticker),
		Revenue:           float64(income[0].Revenue),
		NetIncome:         float64(income[0].NetIncome),
		SharesOutstanding: float64(income[0].SharesOutstanding),
	}
	if len(balance) > 0 {
		fin.TotalDebt = float64(balance[0].TotalDebt)
		fin.TotalEquity = float64(balance[0].TotalEquity)
	}
	if len(cashflow) > 0 {
		fin.OperatingCashFlow = float64(cashflow[0].OperatingCashFlow)
	}

	// Beta comes from the profile endpoint
	var profiles []profileResponse
	if err := c.get(ctx, fmt.Sprintf("/profile/%s", ticker), nil, &profiles); err == nil && len(profiles) > 0 {
		fin.Beta = float64(profiles[0].Beta)
	}

	return fin, nil
}

// historicalPriceResponse represents the daily price history payload
type historicalPriceResponse struct {
	Symbol     string `json:"symbol"`
	Historical []struct {
		Date  string      `json:"date"`
		Close flexFloat64 `json:"close"`
	} `json:"historical"`
}

// GetAnnualReturns computes calendar-year total returns from daily closes.
// Returns are ordered most recent year first, limited to the requested
// number of years.
func (c *Client) GetAnnualReturns(ctx context.Context, symbol string, years int) ([]models.PeriodReturn, error) {
	if years < 1 {
		years = 1
	}

	from := time.Now().AddDate(-(years + 1), 0, 0)
	params := url.Values{}
	params.Set("serietype", "line")
	params.Set("from", from.Format("2006-01-02"))

	var resp historicalPriceResponse
	if err := c.get(ctx, fmt.Sprintf("/historical-price-full/%s", symbol), params, &resp); err != nil {
		return nil, err
	}
	if len(resp.Historical) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("no price history for %s", symbol),
			Endpoint:   "/historical-price-full",
		}
	}

	// Last close of each calendar year (history is most recent first)
	yearEnd := make(map[int]float64)
	for i := len(resp.Historical) - 1; i >= 0; i-- {
		bar := resp.Historical[i]
		d, err := time.Parse("2006-01-02", bar.Date)
		if err != nil || bar.Close <= 0 {
			continue
		}
		yearEnd[d.Year()] = float64(bar.Close)
	}

	yearsSeen := make([]int, 0, len(yearEnd))
	for y := range yearEnd {
		yearsSeen = append(yearsSeen, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(yearsSeen)))

	var returns []models.PeriodReturn
	for _, y := range yearsSeen {
		prev, ok := yearEnd[y-1]
		if !ok || prev == 0 {
			continue
		}
		returns = append(returns, models.PeriodReturn{
			Year:   y,
			Return: yearEnd[y]/prev - 1,
		})
		if len(returns) >= years {
			break
		}
	}

	if len(returns) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("insufficient price history for %s", symbol),
			Endpoint:   "/historical-price-full",
		}
	}

	return returns, nil
}

var _ interfaces.FMPClient = (*Client)(nil)
