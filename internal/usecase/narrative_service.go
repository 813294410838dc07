package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/metrics"
)

const sourceCoinGecko = "coingecko"

type NarrativeConfig struct {
	Narratives []domain.Narrative
	Days       int
	CacheTTL   time.Duration
}

type cachedDashboard struct {
	Data   *domain.NarrativeDashboard
	Expiry time.Time
}

// NarrativeService builds the narrative dashboard and caches it until the
// TTL expires.
type NarrativeService struct {
	provider domain.PriceHistoryProvider
	archive  domain.SnapshotArchive
	cfg      NarrativeConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger

	mu      sync.Mutex
	cache   *cachedDashboard
	loads   singleflight.Group
	timeNow func() time.Time // For testing
}

// NewNarrativeService wires the service. archive and m may be nil.
func NewNarrativeService(provider domain.PriceHistoryProvider, archive domain.SnapshotArchive, cfg NarrativeConfig, m *metrics.Metrics, logger *zap.Logger) *NarrativeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NarrativeService{
		provider: provider,
		archive:  archive,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		timeNow:  time.Now,
	}
}

func (s *NarrativeService) Narratives() []domain.Narrative {
	return s.cfg.Narratives
}

// FetchPrices returns the daily series for one token. Any failure yields an
// empty series.
func (s *NarrativeService) FetchPrices(ctx context.Context, token string) domain.PriceSeries {
	started := time.Now()
	samples, err := s.provider.MarketChart(ctx, token, s.cfg.Days)
	if err != nil {
		s.logger.Warn("Price fetch failed", zap.String("token", token), zap.Error(err))
		s.metrics.ObserveFetch(sourceCoinGecko, "market_chart", metrics.OutcomeError, started)
		return domain.PriceSeries{Token: token}
	}

	series := ResampleDaily(token, samples)
	outcome := metrics.OutcomeOK
	if series.IsEmpty() {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveFetch(sourceCoinGecko, "market_chart", outcome, started)
	return series
}

// Dashboard returns the cached dashboard, building it when the cache is
// empty or expired. Concurrent misses share one build.
func (s *NarrativeService) Dashboard(ctx context.Context) *domain.NarrativeDashboard {
	s.mu.Lock()
	if s.cache != nil && s.timeNow().Before(s.cache.Expiry) {
		data := s.cache.Data
		s.mu.Unlock()
		s.metrics.CacheHit()
		return data
	}
	s.mu.Unlock()
	s.metrics.CacheMiss()

	// shared by concurrent callers, detached from the first caller's cancellation
	buildCtx := context.WithoutCancel(ctx)
	v, _, _ := s.loads.Do("dashboard", func() (interface{}, error) {
		data := s.build(buildCtx)

		s.mu.Lock()
		s.cache = &cachedDashboard{Data: data, Expiry: s.timeNow().Add(s.cfg.CacheTTL)}
		s.mu.Unlock()
		return data, nil
	})
	return v.(*domain.NarrativeDashboard)
}

// Refresh drops the cached dashboard.
func (s *NarrativeService) Refresh() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

func (s *NarrativeService) build(ctx context.Context) *domain.NarrativeDashboard {
	started := time.Now()

	series := make(map[string]domain.PriceSeries)
	for _, n := range s.cfg.Narratives {
		for _, token := range n.Tokens {
			if _, ok := series[token]; ok {
				continue
			}
			series[token] = s.FetchPrices(ctx, token)
		}
	}

	table := CumulativeReturns(s.cfg.Narratives, series)
	data := &domain.NarrativeDashboard{
		Table:     table,
		Summary:   Summarize(table),
		UpdatedAt: s.timeNow(),
	}

	s.logger.Info("Narrative dashboard built",
		zap.Int("baskets", len(table.Baskets)),
		zap.Int("dates", len(table.Dates)),
		zap.Duration("took", time.Since(started)),
	)

	if s.archive != nil && len(data.Summary) > 0 {
		if err := s.archive.SaveNarrativeSummaries(ctx, data.UpdatedAt, data.Summary); err != nil {
			s.logger.Error("Failed to archive narrative summary", zap.Error(err))
		}
	}
	return data
}
