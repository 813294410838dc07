package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketChart(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get(apiKeyHeader)
		w.Write([]byte(`{"prices":[[1704067200000,42000.5],[1704153600000,43000.25],[1704160000000]],"market_caps":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "demo", time.Second)
	samples, err := c.MarketChart(context.Background(), "bitcoin", 730)
	require.NoError(t, err)

	assert.Equal(t, "/coins/bitcoin/market_chart", gotPath)
	assert.Equal(t, "days=730&vs_currency=usd", gotQuery)
	assert.Equal(t, "demo", gotKey)

	require.Len(t, samples, 2, "malformed pair is skipped")
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), samples[0].Time)
	assert.Equal(t, 42000.5, samples[0].Price)
	assert.Equal(t, 43000.25, samples[1].Price)
}

func TestMarketChart_NoKeyHeaderWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get(apiKeyHeader))
		w.Write([]byte(`{"prices":[]}`))
	}))
	defer srv.Close()

	samples, err := NewClient(srv.URL, "", time.Second).MarketChart(context.Background(), "pepe", 30)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestMarketChart_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).MarketChart(context.Background(), "bitcoin", 730)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
}

func TestMarketChart_BadJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).MarketChart(context.Background(), "bitcoin", 730)
	assert.Error(t, err)
}

func TestMarketChart_SkipsMissingPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"prices":[[1704067200000,100],[1704153600000,null],[1704240000000,0],[1704326400000,-3],[null,101],[1704412800000,102]]}`))
	}))
	defer srv.Close()

	samples, err := NewClient(srv.URL, "", time.Second).MarketChart(context.Background(), "bitcoin", 730)
	require.NoError(t, err)

	require.Len(t, samples, 2)
	assert.Equal(t, 100.0, samples[0].Price)
	assert.Equal(t, 102.0, samples[1].Price)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), samples[1].Time)
	for _, s := range samples {
		assert.Greater(t, s.Price, 0.0)
	}
}
