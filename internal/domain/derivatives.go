package domain

import (
	"time"

	"github.com/guregu/null/v5"
	"github.com/shopspring/decimal"
)

const (
	ColumnOpenInterestValue = "sumOpenInterestValue"
	ColumnOpenInterest      = "sumOpenInterest"
)

// LongShortRatio is the share of accounts net long vs net short.
type LongShortRatio struct {
	Symbol         string    `json:"symbol"`
	LongAccount    float64   `json:"long_account_ratio"`
	ShortAccount   float64   `json:"short_account_ratio"`
	LongShortRatio float64   `json:"long_short_ratio"`
	Timestamp      time.Time `json:"timestamp"`
}

// OpenInterestPoint is one row of open-interest history. Either column may
// be missing upstream.
type OpenInterestPoint struct {
	Timestamp            time.Time  `json:"timestamp"`
	SumOpenInterest      null.Float `json:"sum_open_interest"`
	SumOpenInterestValue null.Float `json:"sum_open_interest_value"`
}

// ChartPoint is an (x, y) pair ready for plotting.
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

type OpenInterestHistory struct {
	Points []OpenInterestPoint `json:"points"`
	Raw    Table               `json:"raw"`
}

func (h OpenInterestHistory) IsEmpty() bool {
	return len(h.Points) == 0 && h.Raw.IsEmpty()
}

// Series picks the column to chart: notional value first, then contract
// count. ok is false when neither column is present and the raw table
// should be shown instead.
func (h OpenInterestHistory) Series() (column string, points []ChartPoint, ok bool) {
	if pts := h.collect(func(p OpenInterestPoint) null.Float { return p.SumOpenInterestValue }); len(pts) > 0 {
		return ColumnOpenInterestValue, pts, true
	}
	if pts := h.collect(func(p OpenInterestPoint) null.Float { return p.SumOpenInterest }); len(pts) > 0 {
		return ColumnOpenInterest, pts, true
	}
	return "", nil, false
}

func (h OpenInterestHistory) collect(col func(OpenInterestPoint) null.Float) []ChartPoint {
	var out []ChartPoint
	for _, p := range h.Points {
		if v := col(p); v.Valid {
			out = append(out, ChartPoint{Time: p.Timestamp, Value: v.Float64})
		}
	}
	return out
}

// Latest returns the most recent point, if any.
func (h OpenInterestHistory) Latest() (OpenInterestPoint, bool) {
	if len(h.Points) == 0 {
		return OpenInterestPoint{}, false
	}
	return h.Points[len(h.Points)-1], true
}

// Liquidation is a forced order reported by the exchange.
type Liquidation struct {
	Symbol       string          `json:"symbol"`
	Side         string          `json:"side"`
	OrderType    string          `json:"order_type"`
	Status       string          `json:"status"`
	Price        decimal.Decimal `json:"price"`
	AveragePrice decimal.Decimal `json:"average_price"`
	OrigQty      decimal.Decimal `json:"orig_qty"`
	ExecutedQty  decimal.Decimal `json:"executed_qty"`
	Time         time.Time       `json:"time"`
}

// Notional is the filled quantity at the average price, falling back to
// the order price and quantity when the fill is not reported.
func (l Liquidation) Notional() decimal.Decimal {
	price := l.AveragePrice
	if price.IsZero() {
		price = l.Price
	}
	qty := l.ExecutedQty
	if qty.IsZero() {
		qty = l.OrigQty
	}
	return price.Mul(qty)
}

type LiquidationFeed struct {
	Events []Liquidation `json:"events"`
	Raw    Table         `json:"raw"`
}

func (f LiquidationFeed) IsEmpty() bool {
	return len(f.Events) == 0 && f.Raw.IsEmpty()
}

// TotalNotional sums Notional over all events.
func (f LiquidationFeed) TotalNotional() decimal.Decimal {
	total := decimal.Zero
	for _, e := range f.Events {
		total = total.Add(e.Notional())
	}
	return total
}

// DerivativesSnapshot groups three independent fetches. Any part may be
// absent without affecting the others.
type DerivativesSnapshot struct {
	Symbol       string              `json:"symbol"`
	LongShort    *LongShortRatio     `json:"long_short,omitempty"`
	OpenInterest OpenInterestHistory `json:"open_interest"`
	Liquidations LiquidationFeed     `json:"liquidations"`
	FetchedAt    time.Time           `json:"fetched_at"`
}
