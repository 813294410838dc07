package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/vitos/crypto_narratives/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS derivatives_snapshots (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			long_account REAL,
			short_account REAL,
			open_interest REAL,
			open_interest_value REAL,
			liquidation_count INTEGER NOT NULL DEFAULT 0,
			liquidation_value REAL,
			fetched_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_derivatives_fetched_at ON derivatives_snapshots(fetched_at);`,
		`CREATE TABLE IF NOT EXISTS narrative_summaries (
			id TEXT PRIMARY KEY,
			batch_id TEXT NOT NULL,
			narrative TEXT NOT NULL,
			annual_return REAL NOT NULL,
			annual_volatility REAL NOT NULL,
			sharpe REAL NOT NULL,
			risk_parity_weight REAL NOT NULL,
			computed_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_narrative_computed_at ON narrative_summaries(computed_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("failed to exec query %s: %w", q, err)
		}
	}
	return nil
}

// SaveDerivativesSnapshot stores a digest of snap: the ratio, the latest
// open-interest row and the liquidation count and value.
func (s *SQLiteStore) SaveDerivativesSnapshot(ctx context.Context, snap *domain.DerivativesSnapshot) error {
	var long, short, oi, oiValue, liqValue null.Float
	if snap.LongShort != nil {
		long = null.FloatFrom(snap.LongShort.LongAccount)
		short = null.FloatFrom(snap.LongShort.ShortAccount)
	}
	if latest, ok := snap.OpenInterest.Latest(); ok {
		oi = latest.SumOpenInterest
		oiValue = latest.SumOpenInterestValue
	}
	if len(snap.Liquidations.Events) > 0 {
		liqValue = null.FloatFrom(snap.Liquidations.TotalNotional().InexactFloat64())
	}

	query := `INSERT INTO derivatives_snapshots (id, symbol, long_account, short_account, open_interest, open_interest_value, liquidation_count, liquidation_value, fetched_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		uuid.NewString(), snap.Symbol, long, short, oi, oiValue,
		len(snap.Liquidations.Raw.Rows), liqValue, snap.FetchedAt.UTC())
	return err
}

func (s *SQLiteStore) ListDerivativesRecords(ctx context.Context, limit int) ([]*domain.DerivativesRecord, error) {
	query := `SELECT id, symbol, long_account, short_account, open_interest, open_interest_value, liquidation_count, liquidation_value, fetched_at
			  FROM derivatives_snapshots ORDER BY fetched_at DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DerivativesRecord
	for rows.Next() {
		var r domain.DerivativesRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.LongAccount, &r.ShortAccount, &r.OpenInterest, &r.OpenInterestValue, &r.LiquidationCount, &r.LiquidationValue, &r.FetchedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// SaveNarrativeSummaries stores one computation as a batch of rows.
func (s *SQLiteStore) SaveNarrativeSummaries(ctx context.Context, computedAt time.Time, summaries []domain.NarrativeSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	batchID := uuid.NewString()
	query := `INSERT INTO narrative_summaries (id, batch_id, narrative, annual_return, annual_volatility, sharpe, risk_parity_weight, computed_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, row := range summaries {
		if _, err := tx.ExecContext(ctx, query,
			uuid.NewString(), batchID, row.Narrative, row.AnnualReturn, row.AnnualVolatility,
			row.Sharpe, row.RiskParityWeight, computedAt.UTC()); err != nil {
			return fmt.Errorf("insert summary %s: %w", row.Narrative, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) ListNarrativeRecords(ctx context.Context, limit int) ([]*domain.NarrativeRecord, error) {
	query := `SELECT id, batch_id, narrative, annual_return, annual_volatility, sharpe, risk_parity_weight, computed_at
			  FROM narrative_summaries ORDER BY computed_at DESC, narrative ASC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.NarrativeRecord
	for rows.Next() {
		var r domain.NarrativeRecord
		if err := rows.Scan(&r.ID, &r.BatchID, &r.Narrative, &r.AnnualReturn, &r.AnnualVolatility, &r.Sharpe, &r.RiskParityWeight, &r.ComputedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}
