package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/vitos/crypto_narratives/internal/config"
	"github.com/vitos/crypto_narratives/internal/domain"
	"github.com/vitos/crypto_narratives/internal/infrastructure/storage"
)

// Usage: history [derivatives|narratives] [limit]
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Archive.Path == "" {
		fmt.Println("Archive disabled: set archive.path in the config.")
		return
	}

	kind := "derivatives"
	if len(os.Args) > 1 {
		kind = os.Args[1]
	}
	limit := 50
	if len(os.Args) > 2 {
		if n, err := strconv.Atoi(os.Args[2]); err == nil && n > 0 {
			limit = n
		}
	}

	store, err := storage.NewSQLiteStore(cfg.Archive.Path)
	if err != nil {
		fmt.Printf("Error opening archive: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	switch kind {
	case "derivatives":
		records, err := store.ListDerivativesRecords(ctx, limit)
		if err != nil {
			fmt.Printf("Error reading snapshots: %v\n", err)
			os.Exit(1)
		}
		printDerivatives(records)
	case "narratives":
		records, err := store.ListNarrativeRecords(ctx, limit)
		if err != nil {
			fmt.Printf("Error reading summaries: %v\n", err)
			os.Exit(1)
		}
		printNarratives(records)
	default:
		fmt.Printf("Unknown history kind %q (want derivatives or narratives)\n", kind)
		os.Exit(2)
	}
}

func printDerivatives(records []*domain.DerivativesRecord) {
	if len(records) == 0 {
		fmt.Println("No snapshots archived.")
		return
	}

	fmt.Printf("%-20s | %-10s | %-8s | %-8s | %-18s | %-6s | %s\n",
		"Fetched", "Symbol", "Long", "Short", "OI value", "Liqs", "Liq value")
	fmt.Println("------------------------------------------------------------------------------------------------")
	for _, r := range records {
		fmt.Printf("%-20s | %-10s | %-8s | %-8s | %-18s | %-6d | %s\n",
			r.FetchedAt.Format("2006-01-02 15:04:05"), r.Symbol,
			orDash(r.LongAccount.Valid, r.LongAccount.Float64, 4),
			orDash(r.ShortAccount.Valid, r.ShortAccount.Float64, 4),
			orDash(r.OpenInterestValue.Valid, r.OpenInterestValue.Float64, 2),
			r.LiquidationCount,
			orDash(r.LiquidationValue.Valid, r.LiquidationValue.Float64, 2))
	}

	trend := openInterestTrend(records)
	if trend.Datapoints < 2 {
		return
	}
	consistent := ""
	if trend.IsConsistent {
		consistent = " (consistent)"
	}
	fmt.Printf("\nOpen interest %s %.3f%% over %d snapshots%s\n",
		trend.Direction, trend.ChangePcnt, trend.Datapoints, consistent)
}

type oiTrend struct {
	ChangePcnt   float64
	Direction    string
	IsConsistent bool
	Datapoints   int
}

// openInterestTrend walks the records oldest first. A move is consistent
// when more than 60% of the non-flat steps go the same way.
func openInterestTrend(records []*domain.DerivativesRecord) oiTrend {
	var points []float64
	for i := len(records) - 1; i >= 0; i-- {
		if v := records[i].OpenInterestValue; v.Valid {
			points = append(points, v.Float64)
		} else if v := records[i].OpenInterest; v.Valid {
			points = append(points, v.Float64)
		}
	}
	t := oiTrend{Direction: "flat", Datapoints: len(points)}
	if len(points) < 2 || points[0] == 0 {
		return t
	}

	t.ChangePcnt = (points[len(points)-1] - points[0]) / points[0] * 100

	upSteps, downSteps, totalSteps := 0, 0, 0
	for i := 1; i < len(points); i++ {
		diff := points[i] - points[i-1]
		if diff > 0 {
			upSteps++
		} else if diff < 0 {
			downSteps++
		}
		if diff != 0 {
			totalSteps++
		}
	}

	if t.ChangePcnt > 0 {
		t.Direction = "up"
		t.IsConsistent = totalSteps > 0 && float64(upSteps)/float64(totalSteps) > 0.6
	} else if t.ChangePcnt < 0 {
		t.Direction = "down"
		t.IsConsistent = totalSteps > 0 && float64(downSteps)/float64(totalSteps) > 0.6
	}
	return t
}

func printNarratives(records []*domain.NarrativeRecord) {
	if len(records) == 0 {
		fmt.Println("No narrative summaries archived.")
		return
	}

	fmt.Printf("%-20s | %-12s | %-10s | %-10s | %-8s | %s\n",
		"Computed", "Narrative", "Return %", "Vol %", "Sharpe", "Weight %")
	fmt.Println("--------------------------------------------------------------------------------")
	batch := ""
	for _, r := range records {
		if batch != "" && r.BatchID != batch {
			fmt.Println()
		}
		batch = r.BatchID
		fmt.Printf("%-20s | %-12s | %-10.2f | %-10.2f | %-8.2f | %.2f\n",
			r.ComputedAt.Format("2006-01-02 15:04:05"), r.Narrative,
			r.AnnualReturn*100, r.AnnualVolatility*100, r.Sharpe, r.RiskParityWeight*100)
	}
}

func orDash(valid bool, v float64, prec int) string {
	if !valid {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
