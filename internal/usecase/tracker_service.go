package usecase

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/metrics"
)

const sourceBinance = "binance"

type TrackerConfig struct {
	Symbol            string
	Period            string
	OpenInterestLimit int
	LiquidationLimit  int
}

// TrackerService fetches the derivatives snapshot. Each of its three
// fetches fails on its own: an error becomes the empty value and the other
// fetches still run.
type TrackerService struct {
	provider domain.DerivativesProvider
	archive  domain.SnapshotArchive
	cfg      TrackerConfig
	metrics  *metrics.Metrics
	logger   *zap.Logger
	timeNow  func() time.Time // For testing
}

// NewTrackerService wires the service. archive and m may be nil.
func NewTrackerService(provider domain.DerivativesProvider, archive domain.SnapshotArchive, cfg TrackerConfig, m *metrics.Metrics, logger *zap.Logger) *TrackerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackerService{
		provider: provider,
		archive:  archive,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
		timeNow:  time.Now,
	}
}

func (s *TrackerService) Symbol() string {
	return s.cfg.Symbol
}

// LongShort returns the most recent long/short account ratio, or nil.
func (s *TrackerService) LongShort(ctx context.Context) *domain.LongShortRatio {
	started := time.Now()
	ratios, err := s.provider.GlobalLongShortAccountRatio(ctx, s.cfg.Symbol, s.cfg.Period, 1)
	if err != nil {
		s.fail("globalLongShortAccountRatio", started, err)
		return nil
	}
	if len(ratios) == 0 {
		s.metrics.ObserveFetch(sourceBinance, "globalLongShortAccountRatio", metrics.OutcomeEmpty, started)
		return nil
	}
	s.metrics.ObserveFetch(sourceBinance, "globalLongShortAccountRatio", metrics.OutcomeOK, started)

	latest := ratios[0]
	for _, r := range ratios[1:] {
		if r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	return &latest
}

func (s *TrackerService) OpenInterest(ctx context.Context) domain.OpenInterestHistory {
	started := time.Now()
	history, err := s.provider.OpenInterestHist(ctx, s.cfg.Symbol, s.cfg.Period, s.cfg.OpenInterestLimit)
	if err != nil {
		s.fail("openInterestHist", started, err)
		return domain.OpenInterestHistory{}
	}
	s.metrics.ObserveFetch(sourceBinance, "openInterestHist", outcomeOf(history.IsEmpty()), started)
	return history
}

func (s *TrackerService) Liquidations(ctx context.Context) domain.LiquidationFeed {
	started := time.Now()
	feed, err := s.provider.LiquidationOrders(ctx, s.cfg.Symbol, s.cfg.LiquidationLimit)
	if err != nil {
		s.fail("liquidationOrders", started, err)
		return domain.LiquidationFeed{}
	}
	s.metrics.ObserveFetch(sourceBinance, "liquidationOrders", outcomeOf(feed.IsEmpty()), started)
	return feed
}

// Snapshot runs the three fetches one after another.
func (s *TrackerService) Snapshot(ctx context.Context) *domain.DerivativesSnapshot {
	snap := &domain.DerivativesSnapshot{
		Symbol:       s.cfg.Symbol,
		LongShort:    s.LongShort(ctx),
		OpenInterest: s.OpenInterest(ctx),
		Liquidations: s.Liquidations(ctx),
		FetchedAt:    s.timeNow(),
	}

	if s.archive != nil {
		if err := s.archive.SaveDerivativesSnapshot(ctx, snap); err != nil {
			s.logger.Error("Failed to archive derivatives snapshot", zap.Error(err))
		}
	}
	return snap
}

func (s *TrackerService) fail(endpoint string, started time.Time, err error) {
	s.logger.Warn("Derivatives fetch failed",
		zap.String("endpoint", endpoint),
		zap.String("symbol", s.cfg.Symbol),
		zap.Error(err),
	)
	s.metrics.ObserveFetch(sourceBinance, endpoint, metrics.OutcomeError, started)
}

func outcomeOf(empty bool) string {
	if empty {
		return metrics.OutcomeEmpty
	}
	return metrics.OutcomeOK
}
