package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/metrics"
	"github.com/vitos/crypto_narratives/internal/usecase"
)

var errDown = errors.New("down")

type stubPrices struct {
	samples map[string][]domain.PriceSample
}

func (p *stubPrices) MarketChart(ctx context.Context, tokenID string, days int) ([]domain.PriceSample, error) {
	s, ok := p.samples[tokenID]
	if !ok {
		return nil, errDown
	}
	return s, nil
}

type stubDerivatives struct {
	ratios       []domain.LongShortRatio
	openInterest domain.OpenInterestHistory
	liquidations domain.LiquidationFeed
	ratioErr     error
}

func (d *stubDerivatives) GlobalLongShortAccountRatio(ctx context.Context, symbol, period string, limit int) ([]domain.LongShortRatio, error) {
	return d.ratios, d.ratioErr
}

func (d *stubDerivatives) OpenInterestHist(ctx context.Context, symbol, period string, limit int) (domain.OpenInterestHistory, error) {
	return d.openInterest, nil
}

func (d *stubDerivatives) LiquidationOrders(ctx context.Context, symbol string, limit int) (domain.LiquidationFeed, error) {
	return d.liquidations, nil
}

type stubArchive struct {
	narratives []*domain.NarrativeRecord
}

func (a *stubArchive) SaveDerivativesSnapshot(ctx context.Context, snap *domain.DerivativesSnapshot) error {
	return nil
}

func (a *stubArchive) ListDerivativesRecords(ctx context.Context, limit int) ([]*domain.DerivativesRecord, error) {
	return nil, nil
}

func (a *stubArchive) SaveNarrativeSummaries(ctx context.Context, computedAt time.Time, rows []domain.NarrativeSummary) error {
	return nil
}

func (a *stubArchive) ListNarrativeRecords(ctx context.Context, limit int) ([]*domain.NarrativeRecord, error) {
	if limit < len(a.narratives) {
		return a.narratives[:limit], nil
	}
	return a.narratives, nil
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func flat(price float64, days int) []domain.PriceSample {
	out := make([]domain.PriceSample, days)
	for i := range out {
		out[i] = domain.PriceSample{Time: day0.AddDate(0, 0, i), Price: price}
	}
	return out
}

func rising(start float64, days int) []domain.PriceSample {
	out := make([]domain.PriceSample, days)
	for i := range out {
		out[i] = domain.PriceSample{Time: day0.AddDate(0, 0, i), Price: start * (1 + 0.01*float64(i*i%5))}
	}
	return out
}

func newNarrativeTestServer(t *testing.T, prices *stubPrices, archive domain.SnapshotArchive) *Server {
	t.Helper()
	svc := usecase.NewNarrativeService(prices, archive, usecase.NarrativeConfig{
		Narratives: []domain.Narrative{
			{Name: "BlueChip", Tokens: []string{"bitcoin", "ethereum"}},
			{Name: "DeFi", Tokens: []string{"uniswap", "aave"}},
		},
		Days:     730,
		CacheTTL: time.Hour,
	}, nil, nil)
	s := NewNarrativeServer(0, svc, archive, metrics.New("test"), nil)
	s.timeNow = func() time.Time { return day0.AddDate(0, 0, 10) }
	return s
}

func newTrackerTestServer(t *testing.T, provider *stubDerivatives) *Server {
	t.Helper()
	svc := usecase.NewTrackerService(provider, nil, usecase.TrackerConfig{
		Symbol:            "BTCUSDT",
		Period:            "5m",
		OpenInterestLimit: 24,
		LiquidationLimit:  20,
	}, nil, nil)
	s := NewTrackerServer(0, svc, nil, 30*time.Second, metrics.New("test"), nil)
	s.timeNow = func() time.Time { return day0 }
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNarrativeDashboardRenders(t *testing.T) {
	s := newNarrativeTestServer(t, &stubPrices{samples: map[string][]domain.PriceSample{
		"bitcoin":  rising(100, 10),
		"ethereum": rising(50, 10),
		"uniswap":  rising(5, 10),
		"aave":     flat(80, 10),
	}}, nil)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `id="summary"`)
	assert.Contains(t, body, "BlueChip")
	assert.Contains(t, body, "DeFi")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Last updated: 2024-01-11")
	assert.NotContains(t, body, `id="no-data"`)
}

func TestNarrativeDashboardAllSourcesDown(t *testing.T) {
	s := newNarrativeTestServer(t, &stubPrices{}, nil)

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="no-data"`)
	assert.NotContains(t, rec.Body.String(), `id="summary"`)
}

func TestNarrativesJSON(t *testing.T) {
	s := newNarrativeTestServer(t, &stubPrices{samples: map[string][]domain.PriceSample{
		"bitcoin":  flat(100, 3),
		"ethereum": flat(100, 3),
	}}, nil)

	rec := get(t, s.Handler(), "/api/narratives")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.NarrativeDashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Summary, 1)
	assert.Equal(t, "BlueChip", got.Summary[0].Narrative)
	assert.Equal(t, 0.0, got.Summary[0].AnnualVolatility)
	assert.Equal(t, 0.0, got.Summary[0].Sharpe)
	assert.Equal(t, 1.0, got.Summary[0].RiskParityWeight)
	assert.Equal(t, []float64{1, 1, 1}, got.Table.Values["BlueChip"])
}

func TestNarrativesRefresh(t *testing.T) {
	prices := &stubPrices{samples: map[string][]domain.PriceSample{}}
	s := newNarrativeTestServer(t, prices, nil)
	h := s.Handler()

	rec := get(t, h, "/api/narratives")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"summary":null`)

	prices.samples["bitcoin"] = flat(100, 3)

	// still cached
	rec = get(t, h, "/api/narratives")
	assert.Contains(t, rec.Body.String(), `"summary":null`)

	req := httptest.NewRequest(http.MethodPost, "/api/narratives/refresh", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = get(t, h, "/api/narratives")
	assert.Contains(t, rec.Body.String(), `"narrative":"BlueChip"`)
}

func TestNarrativesRefreshFromForm(t *testing.T) {
	s := newNarrativeTestServer(t, &stubPrices{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/narratives/refresh", strings.NewReader("redirect=/"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHistoryArchiveDisabled(t *testing.T) {
	s := newNarrativeTestServer(t, &stubPrices{}, nil)
	rec := get(t, s.Handler(), "/api/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNarrativeHistoryLimit(t *testing.T) {
	archive := &stubArchive{narratives: []*domain.NarrativeRecord{
		{Narrative: "BlueChip"}, {Narrative: "DeFi"}, {Narrative: "Layer2"},
	}}
	s := newNarrativeTestServer(t, &stubPrices{}, archive)

	rec := get(t, s.Handler(), "/api/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []domain.NarrativeRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func fullDerivatives() *stubDerivatives {
	return &stubDerivatives{
		ratios: []domain.LongShortRatio{{
			Symbol: "BTCUSDT", LongAccount: 0.62, ShortAccount: 0.38, LongShortRatio: 1.63, Timestamp: day0,
		}},
		openInterest: domain.OpenInterestHistory{
			Points: []domain.OpenInterestPoint{
				{Timestamp: day0, SumOpenInterest: null.FloatFrom(80000), SumOpenInterestValue: null.FloatFrom(5.1e9)},
				{Timestamp: day0.Add(5 * time.Minute), SumOpenInterest: null.FloatFrom(80100), SumOpenInterestValue: null.FloatFrom(5.2e9)},
			},
		},
		liquidations: domain.LiquidationFeed{
			Events: []domain.Liquidation{{Symbol: "BTCUSDT", Side: "SELL", Price: decimal.NewFromInt(64000), OrigQty: decimal.NewFromFloat(0.5)}},
			Raw: domain.Table{
				Columns: []string{"symbol", "side", "price"},
				Rows:    []map[string]string{{"symbol": "BTCUSDT", "side": "SELL", "price": "64000"}},
			},
		},
	}
}

func TestTrackerDashboardRenders(t *testing.T) {
	s := newTrackerTestServer(t, fullDerivatives())

	rec := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `id="long-short"`)
	assert.Contains(t, body, "62.00%")
	assert.Contains(t, body, domain.ColumnOpenInterestValue)
	assert.Contains(t, body, `id="liquidations"`)
	assert.Contains(t, body, "Last updated: 2024-01-01 00:00:00")
	assert.Contains(t, body, "30000")
}

func TestTrackerEmptyLiquidationsOmitTable(t *testing.T) {
	d := fullDerivatives()
	d.liquidations = domain.LiquidationFeed{}
	s := newTrackerTestServer(t, d)

	rec := get(t, s.Handler(), "/panels")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.NotContains(t, body, `id="liquidations"`)
	assert.Contains(t, body, `id="long-short"`)
	assert.Contains(t, body, `id="open-interest"`)
}

func TestTrackerOpenInterestFallbacks(t *testing.T) {
	t.Run("contract count when value column missing", func(t *testing.T) {
		d := fullDerivatives()
		for i := range d.openInterest.Points {
			d.openInterest.Points[i].SumOpenInterestValue = null.Float{}
		}
		body := get(t, newTrackerTestServer(t, d).Handler(), "/panels").Body.String()
		assert.Contains(t, body, domain.ColumnOpenInterest)
		assert.NotContains(t, body, domain.ColumnOpenInterestValue)
	})

	t.Run("raw table when neither column present", func(t *testing.T) {
		d := fullDerivatives()
		d.openInterest = domain.OpenInterestHistory{Raw: domain.Table{
			Columns: []string{"symbol", "timestamp"},
			Rows:    []map[string]string{{"symbol": "BTCUSDT", "timestamp": "2024-01-01 00:00:00"}},
		}}
		body := get(t, newTrackerTestServer(t, d).Handler(), "/panels").Body.String()
		assert.Contains(t, body, `id="open-interest-raw"`)
	})
}

func TestTrackerLongShortFailure(t *testing.T) {
	d := fullDerivatives()
	d.ratios = nil
	d.ratioErr = errDown
	s := newTrackerTestServer(t, d)

	body := get(t, s.Handler(), "/panels").Body.String()
	assert.NotContains(t, body, `id="long-short"`)
	assert.Contains(t, body, "Long/short ratio unavailable")
	assert.Contains(t, body, `id="liquidations"`)
}

func TestSnapshotJSON(t *testing.T) {
	s := newTrackerTestServer(t, fullDerivatives())

	rec := get(t, s.Handler(), "/api/snapshot")
	require.Equal(t, http.StatusOK, rec.Code)

	var got domain.DerivativesSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "BTCUSDT", got.Symbol)
	require.NotNil(t, got.LongShort)
	assert.Equal(t, 0.62, got.LongShort.LongAccount)
	assert.Len(t, got.OpenInterest.Points, 2)
}

func TestTrackerWebsocketRefresh(t *testing.T) {
	s := newTrackerTestServer(t, fullDerivatives())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("refresh")))
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `id="long-short"`)
	assert.NotContains(t, string(msg), "<html")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTrackerTestServer(t, fullDerivatives())
	h := s.Handler()

	rec := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	get(t, h, "/panels")
	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_web_renders_total")
}
