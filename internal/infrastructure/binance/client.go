package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"
	"github.com/vitos/crypto_narratives/internal/domain"
)

const (
	FuturesBaseURL = "https://fapi.binance.com"

	pathLongShort    = "/futures/data/globalLongShortAccountRatio"
	pathOpenInterest = "/futures/data/openInterestHist"
	pathLiquidations = "/futures/data/liquidationOrders"

	timestampLayout = "2006-01-02 15:04:05"
)

// APIError carries either an HTTP status or a Binance {code, msg} payload.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("binance api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("binance api error code %d: %s", e.Code, e.Message)
}

// FuturesDataClient reads the public USDⓈ-M futures data endpoints.
type FuturesDataClient struct {
	baseURL string
	client  *http.Client
}

func NewFuturesDataClient(baseURL string, timeout time.Duration) *FuturesDataClient {
	if baseURL == "" {
		baseURL = FuturesBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FuturesDataClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (b *FuturesDataClient) getTable(ctx context.Context, path string, query url.Values) (domain.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return domain.Table{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return domain.Table{}, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		if decoded, ok := decodeErrorObject(body).(*APIError); ok {
			apiErr.Code = decoded.Code
			apiErr.Message = decoded.Message
		}
		return domain.Table{}, apiErr
	}
	return decodeTable(body)
}

// GlobalLongShortAccountRatio returns the most recent `limit` ratio rows.
func (b *FuturesDataClient) GlobalLongShortAccountRatio(ctx context.Context, symbol, period string, limit int) ([]domain.LongShortRatio, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("period", period)
	query.Set("limit", strconv.Itoa(limit))

	table, err := b.getTable(ctx, pathLongShort, query)
	if err != nil {
		return nil, err
	}

	ratios := make([]domain.LongShortRatio, 0, len(table.Rows))
	for _, row := range table.Rows {
		long, err := strconv.ParseFloat(firstOf(row, "longAccount", "longAccountRatio"), 64)
		if err != nil {
			return nil, fmt.Errorf("parse long account ratio: %w", err)
		}
		short, err := strconv.ParseFloat(firstOf(row, "shortAccount", "shortAccountRatio"), 64)
		if err != nil {
			return nil, fmt.Errorf("parse short account ratio: %w", err)
		}
		ts, err := parseMillis(row["timestamp"])
		if err != nil {
			return nil, err
		}
		ratio, _ := strconv.ParseFloat(row["longShortRatio"], 64)
		if ratio == 0 && short != 0 {
			ratio = long / short
		}
		sym := row["symbol"]
		if sym == "" {
			sym = symbol
		}
		ratios = append(ratios, domain.LongShortRatio{
			Symbol:         sym,
			LongAccount:    long,
			ShortAccount:   short,
			LongShortRatio: ratio,
			Timestamp:      ts,
		})
	}
	return ratios, nil
}

// OpenInterestHist returns open-interest history. Points carry whichever
// of the value/count columns the response had; Raw keeps the full table
// with the timestamp column formatted as a date-time.
func (b *FuturesDataClient) OpenInterestHist(ctx context.Context, symbol, period string, limit int) (domain.OpenInterestHistory, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("period", period)
	query.Set("limit", strconv.Itoa(limit))

	table, err := b.getTable(ctx, pathOpenInterest, query)
	if err != nil {
		return domain.OpenInterestHistory{}, err
	}

	history := domain.OpenInterestHistory{Raw: table}
	points := make([]domain.OpenInterestPoint, 0, len(table.Rows))
	for _, row := range table.Rows {
		ts, err := parseMillis(row["timestamp"])
		if err != nil {
			// without a time axis only the raw table can be shown
			return history, nil
		}
		points = append(points, domain.OpenInterestPoint{
			Timestamp:            ts,
			SumOpenInterest:      optionalFloat(row, domain.ColumnOpenInterest),
			SumOpenInterestValue: optionalFloat(row, domain.ColumnOpenInterestValue),
		})
	}
	for i, row := range table.Rows {
		row["timestamp"] = points[i].Timestamp.Format(timestampLayout)
	}
	history.Points = points
	return history, nil
}

// LiquidationOrders returns recent forced orders for symbol.
func (b *FuturesDataClient) LiquidationOrders(ctx context.Context, symbol string, limit int) (domain.LiquidationFeed, error) {
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("limit", strconv.Itoa(limit))

	table, err := b.getTable(ctx, pathLiquidations, query)
	if err != nil {
		return domain.LiquidationFeed{}, err
	}

	feed := domain.LiquidationFeed{Raw: table}
	for _, row := range table.Rows {
		ev := domain.Liquidation{
			Symbol:       row["symbol"],
			Side:         row["side"],
			OrderType:    row["type"],
			Status:       row["status"],
			Price:        optionalDecimal(row, "price"),
			AveragePrice: optionalDecimal(row, "averagePrice"),
			OrigQty:      optionalDecimal(row, "origQty"),
			ExecutedQty:  optionalDecimal(row, "executedQty"),
		}
		if ts, err := parseMillis(firstOf(row, "time", "updateTime")); err == nil {
			ev.Time = ts
		}
		feed.Events = append(feed.Events, ev)
	}
	return feed, nil
}

func optionalFloat(row map[string]string, key string) null.Float {
	s, ok := row[key]
	if !ok || s == "" {
		return null.Float{}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

func optionalDecimal(row map[string]string, key string) decimal.Decimal {
	d, err := decimal.NewFromString(row[key])
	if err != nil {
		return decimal.Zero
	}
	return d
}
