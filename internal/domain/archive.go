package domain

import (
	"time"

	"github.com/guregu/null/v5"
)

// DerivativesRecord is the archived digest of one tracker snapshot.
type DerivativesRecord struct {
	ID                string
	Symbol            string
	LongAccount       null.Float
	ShortAccount      null.Float
	OpenInterest      null.Float
	OpenInterestValue null.Float
	LiquidationCount  int
	LiquidationValue  null.Float
	FetchedAt         time.Time
}

// NarrativeRecord is one archived summary row. Rows computed together share
// a BatchID.
type NarrativeRecord struct {
	ID               string
	BatchID          string
	Narrative        string
	AnnualReturn     float64
	AnnualVolatility float64
	Sharpe           float64
	RiskParityWeight float64
	ComputedAt       time.Time
}
