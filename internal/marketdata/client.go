package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is an HTTP market-data vendor client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
}

// NewClient creates a new market-data client. limiter may be nil to disable
// client-side rate limiting.
func NewClient(apiKey, baseURL string, limiter *RateLimiter) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
}

// GetQuote fetches the current quote for a symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var quote Quote
	if err := c.get(ctx, "/v1/quote", params, &quote); err != nil {
		return nil, fmt.Errorf("error fetching quote: %w", err)
	}
	if quote.AverageVolume > 0 {
		quote.RelativeVolume = quote.Volume / quote.AverageVolume
	}
	return &quote, nil
}

// GetHistoricalBars fetches daily bars for the most recent trading days
func (c *Client) GetHistoricalBars(ctx context.Context, symbol string, days int) ([]Bar, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("days", strconv.Itoa(days))

	var bars []Bar
	if err := c.get(ctx, "/v1/bars/daily", params, &bars); err != nil {
		return nil, fmt.Errorf("error fetching bars: %w", err)
	}
	return bars, nil
}

// GetTechnicals fetches vendor-computed indicator values
func (c *Client) GetTechnicals(ctx context.Context, symbol string) (*Technicals, error) {
	params := url.Values{}
	params.Set("symbol", symbol)

	var technicals Technicals
	if err := c.get(ctx, "/v1/technicals", params, &technicals); err != nil {
		return nil, fmt.Errorf("error fetching technicals: %w", err)
	}
	return &technicals, nil
}

// GetNews fetches recent news articles for a symbol
func (c *Client) GetNews(ctx context.Context, symbol string, limit int) ([]Article, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var articles []Article
	if err := c.get(ctx, "/v1/news", params, &articles); err != nil {
		return nil, fmt.Errorf("error fetching news: %w", err)
	}
	return articles, nil
}

// get performs a rate-limited GET and decodes the JSON response
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, path); err != nil {
			return err
		}
	}

	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("rate limited by vendor: %s", string(body))
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API error: %s", string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error parsing response: %w", err)
	}
	return nil
}
