package usecase

import (
	"sort"
	"time"

	"github.com/vitos/crypto_narratives/internal/domain"
)

type basket struct {
	name   string
	prices []map[time.Time]float64 // one per non-empty constituent
}

// hasDate reports whether at least one constituent is priced on d.
func (b basket) hasDate(d time.Time) bool {
	for _, p := range b.prices {
		if _, ok := p[d]; ok {
			return true
		}
	}
	return false
}

// meanReturn is the equal-weighted mean percentage change from prev to cur
// over the constituents with a positive price on both dates.
func (b basket) meanReturn(prev, cur time.Time) (float64, bool) {
	var sum float64
	var n int
	for _, p := range b.prices {
		p0, ok0 := p[prev]
		p1, ok1 := p[cur]
		if !ok0 || !ok1 || !(p0 > 0) || !(p1 > 0) {
			continue
		}
		sum += p1/p0 - 1
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func newBasket(name string, series []domain.PriceSeries) basket {
	b := basket{name: name}
	for _, s := range series {
		if !s.IsEmpty() {
			b.prices = append(b.prices, s.ByDate())
		}
	}
	return b
}

// BasketReturns is the equal-weighted daily return of a basket: for every
// date t, the mean percentage change from t-1 to t over the constituents
// priced on both days. Dates with no such constituent are omitted.
func BasketReturns(series []domain.PriceSeries) map[time.Time]float64 {
	b := newBasket("", series)
	out := make(map[time.Time]float64)
	for _, p := range b.prices {
		for d := range p {
			if _, done := out[d]; done {
				continue
			}
			if r, ok := b.meanReturn(d.AddDate(0, 0, -1), d); ok {
				out[d] = r
			}
		}
	}
	return out
}

// CumulativeReturns builds the cumulative-return table for the narratives.
// Baskets whose constituents all have empty series are left out. The
// remaining baskets are inner-joined on date; each column starts at 1.0 and
// compounds the basket's mean daily return.
func CumulativeReturns(narratives []domain.Narrative, series map[string]domain.PriceSeries) domain.CumulativeTable {
	var baskets []basket
	for _, n := range narratives {
		constituents := make([]domain.PriceSeries, 0, len(n.Tokens))
		for _, token := range n.Tokens {
			constituents = append(constituents, series[token])
		}
		if b := newBasket(n.Name, constituents); len(b.prices) > 0 {
			baskets = append(baskets, b)
		}
	}

	table := domain.CumulativeTable{Values: make(map[string][]float64)}
	if len(baskets) == 0 {
		return table
	}

	table.Dates = alignedDates(baskets)
	if len(table.Dates) == 0 {
		return table
	}

	for _, b := range baskets {
		col := make([]float64, len(table.Dates))
		col[0] = 1.0
		for i := 1; i < len(table.Dates); i++ {
			r, _ := b.meanReturn(table.Dates[i-1], table.Dates[i])
			col[i] = col[i-1] * (1 + r)
		}
		table.Baskets = append(table.Baskets, b.name)
		table.Values[b.name] = col
	}
	return table
}

// alignedDates returns, in order, the dates on which every basket has at
// least one priced constituent.
func alignedDates(baskets []basket) []time.Time {
	candidates := make(map[time.Time]bool)
	for _, p := range baskets[0].prices {
		for d := range p {
			candidates[d] = true
		}
	}

	var dates []time.Time
	for d := range candidates {
		all := true
		for _, b := range baskets[1:] {
			if !b.hasDate(d) {
				all = false
				break
			}
		}
		if all {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
