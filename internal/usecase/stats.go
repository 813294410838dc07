package usecase

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/vitos/crypto_narratives/internal/domain"
)

// TradingDays annualizes daily statistics. Crypto trades every calendar
// day, hence 365.
const TradingDays = 365

// volatilities at or below this are treated as zero
const minVolatility = 1e-12

// LogReturns returns log(v[i]/v[i-1]) for consecutive values.
func LogReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		out = append(out, math.Log(values[i]/values[i-1]))
	}
	return out
}

// Summarize computes per-basket annualized return, volatility, Sharpe ratio
// (risk-free rate zero) and inverse-volatility weights. It needs at least
// two aligned dates; otherwise the summary is empty. A basket whose
// statistics are not finite is reported with zero values and zero weight,
// and the weights are spread over the remaining baskets.
func Summarize(table domain.CumulativeTable) []domain.NarrativeSummary {
	if len(table.Dates) < 2 {
		return nil
	}

	rows := make([]domain.NarrativeSummary, 0, len(table.Baskets))
	var vols []float64
	var weighted []int
	for _, name := range table.Baskets {
		row := domain.NarrativeSummary{Narrative: name}
		lr := LogReturns(table.Values[name])

		annualReturn := stat.Mean(lr, nil) * TradingDays
		var vol float64
		if len(lr) > 1 {
			vol = stat.StdDev(lr, nil) * math.Sqrt(TradingDays)
		}
		if !isFinite(annualReturn) || !isFinite(vol) {
			rows = append(rows, row)
			continue
		}

		row.AnnualReturn = annualReturn
		row.AnnualVolatility = vol
		if vol > minVolatility {
			row.Sharpe = annualReturn / vol
		}
		rows = append(rows, row)
		vols = append(vols, vol)
		weighted = append(weighted, len(rows)-1)
	}

	for i, w := range RiskParityWeights(vols) {
		rows[weighted[i]].RiskParityWeight = w
	}
	return rows
}

// RiskParityWeights normalizes 1/vol to sum to one, ignoring covariance.
// Zero-volatility entries, when present, share the whole weight equally,
// which is the limit of 1/vol as vol goes to zero.
func RiskParityWeights(vols []float64) []float64 {
	weights := make([]float64, len(vols))
	if len(vols) == 0 {
		return weights
	}

	var zero []int
	for i, v := range vols {
		if v <= minVolatility {
			zero = append(zero, i)
		}
	}
	if len(zero) > 0 {
		for _, i := range zero {
			weights[i] = 1 / float64(len(zero))
		}
		return weights
	}

	for i, v := range vols {
		weights[i] = 1 / v
	}
	floats.Scale(1/floats.Sum(weights), weights)
	return weights
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
