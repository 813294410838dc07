package domain

import (
	"context"
	"time"
)

// PriceHistoryProvider fetches raw historical prices for a token.
type PriceHistoryProvider interface {
	MarketChart(ctx context.Context, tokenID string, days int) ([]PriceSample, error)
}

// DerivativesProvider wraps the public futures-data endpoints of an exchange.
type DerivativesProvider interface {
	GlobalLongShortAccountRatio(ctx context.Context, symbol, period string, limit int) ([]LongShortRatio, error)
	OpenInterestHist(ctx context.Context, symbol, period string, limit int) (OpenInterestHistory, error)
	LiquidationOrders(ctx context.Context, symbol string, limit int) (LiquidationFeed, error)
}

// SnapshotArchive stores dashboard results for later inspection.
type SnapshotArchive interface {
	SaveDerivativesSnapshot(ctx context.Context, snap *DerivativesSnapshot) error
	ListDerivativesRecords(ctx context.Context, limit int) ([]*DerivativesRecord, error)

	SaveNarrativeSummaries(ctx context.Context, computedAt time.Time, rows []NarrativeSummary) error
	ListNarrativeRecords(ctx context.Context, limit int) ([]*NarrativeRecord, error)
}
