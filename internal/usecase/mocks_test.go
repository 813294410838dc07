package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/vitos/crypto_narratives/internal/domain"
)

var errUpstream = errors.New("upstream unavailable")

// MockPriceProvider serves canned samples per token; tokens listed in
// Fail return errUpstream.
type MockPriceProvider struct {
	Samples map[string][]domain.PriceSample
	Fail    map[string]bool

	mu    sync.Mutex
	Calls map[string]int
}

func (m *MockPriceProvider) MarketChart(ctx context.Context, tokenID string, days int) ([]domain.PriceSample, error) {
	m.mu.Lock()
	if m.Calls == nil {
		m.Calls = make(map[string]int)
	}
	m.Calls[tokenID]++
	m.mu.Unlock()

	if m.Fail[tokenID] {
		return nil, errUpstream
	}
	return m.Samples[tokenID], nil
}

func (m *MockPriceProvider) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		n += c
	}
	return n
}

// MockDerivatives returns the configured values or errors per endpoint.
type MockDerivatives struct {
	Ratios       []domain.LongShortRatio
	OpenInterest domain.OpenInterestHistory
	Liquidations domain.LiquidationFeed

	RatioErr, OpenInterestErr, LiquidationErr error
}

func (m *MockDerivatives) GlobalLongShortAccountRatio(ctx context.Context, symbol, period string, limit int) ([]domain.LongShortRatio, error) {
	return m.Ratios, m.RatioErr
}

func (m *MockDerivatives) OpenInterestHist(ctx context.Context, symbol, period string, limit int) (domain.OpenInterestHistory, error) {
	return m.OpenInterest, m.OpenInterestErr
}

func (m *MockDerivatives) LiquidationOrders(ctx context.Context, symbol string, limit int) (domain.LiquidationFeed, error) {
	return m.Liquidations, m.LiquidationErr
}

// MockArchive records what was saved.
type MockArchive struct {
	Snapshots []*domain.DerivativesSnapshot
	Summaries [][]domain.NarrativeSummary
	Err       error
}

func (m *MockArchive) SaveDerivativesSnapshot(ctx context.Context, snap *domain.DerivativesSnapshot) error {
	m.Snapshots = append(m.Snapshots, snap)
	return m.Err
}

func (m *MockArchive) ListDerivativesRecords(ctx context.Context, limit int) ([]*domain.DerivativesRecord, error) {
	return nil, nil
}

func (m *MockArchive) SaveNarrativeSummaries(ctx context.Context, computedAt time.Time, rows []domain.NarrativeSummary) error {
	m.Summaries = append(m.Summaries, rows)
	return m.Err
}

func (m *MockArchive) ListNarrativeRecords(ctx context.Context, limit int) ([]*domain.NarrativeRecord, error) {
	return nil, nil
}

var day0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// dailySamples builds one sample per day starting at day0.
func dailySamples(prices ...float64) []domain.PriceSample {
	out := make([]domain.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = domain.PriceSample{Time: day0.AddDate(0, 0, i), Price: p}
	}
	return out
}

func dailySeries(token string, prices ...float64) domain.PriceSeries {
	return ResampleDaily(token, dailySamples(prices...))
}
