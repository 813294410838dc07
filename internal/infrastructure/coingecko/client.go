package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v5"

	"github.com/vitos/crypto_narratives/internal/domain"
)

const (
	BaseURL = "https://api.coingecko.com/api/v3"

	apiKeyHeader = "x-cg-demo-api-key"
	vsCurrency   = "usd"
)

// APIError is returned for HTTP responses with status >= 400.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("coingecko api error %d: %s", e.StatusCode, string(e.Body))
}

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = BaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}

// MarketChart returns the USD price history of tokenID over the trailing
// number of days, as raw samples in upstream order.
func (c *Client) MarketChart(ctx context.Context, tokenID string, days int) ([]domain.PriceSample, error) {
	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("days", strconv.Itoa(days))

	body, err := c.get(ctx, "/coins/"+url.PathEscape(tokenID)+"/market_chart", query)
	if err != nil {
		return nil, err
	}

	var result struct {
		Prices [][]null.Float `json:"prices"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal market chart %s: %w", tokenID, err)
	}

	// null or non-positive prices are gaps, left for the daily resample to fill
	samples := make([]domain.PriceSample, 0, len(result.Prices))
	for _, p := range result.Prices {
		if len(p) < 2 || !p[0].Valid || !p[1].Valid {
			continue
		}
		price := p[1].Float64
		if !(price > 0) || math.IsInf(price, 0) {
			continue
		}
		samples = append(samples, domain.PriceSample{
			Time:  time.UnixMilli(int64(p[0].Float64)).UTC(),
			Price: price,
		})
	}
	return samples, nil
}
