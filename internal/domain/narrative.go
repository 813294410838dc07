package domain

import "time"

// PriceSample is a raw (timestamp, price) pair as returned by a market-data API.
type PriceSample struct {
	Time  time.Time
	Price float64
}

// PricePoint is one daily price for a token. Date is midnight UTC.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Price float64   `json:"price"`
}

// PriceSeries is a daily, gap-free price series for one token.
// An empty series means the token could not be fetched.
type PriceSeries struct {
	Token  string       `json:"token"`
	Points []PricePoint `json:"points"`
}

func (s PriceSeries) IsEmpty() bool {
	return len(s.Points) == 0
}

// ByDate indexes the series by date.
func (s PriceSeries) ByDate() map[time.Time]float64 {
	m := make(map[time.Time]float64, len(s.Points))
	for _, p := range s.Points {
		m[p.Date] = p.Price
	}
	return m
}

// Narrative is a named, equal-weighted basket of token ids.
type Narrative struct {
	Name   string   `yaml:"name" json:"name"`
	Tokens []string `yaml:"tokens" json:"tokens"`
}

// DefaultNarratives returns the built-in baskets (CoinGecko ids).
func DefaultNarratives() []Narrative {
	return []Narrative{
		{Name: "BlueChip", Tokens: []string{"bitcoin", "ethereum"}},
		{Name: "DeFi", Tokens: []string{"uniswap", "aave"}},
		{Name: "Layer2", Tokens: []string{"arbitrum", "optimism"}},
		{Name: "Stablecoin", Tokens: []string{"tether", "usd-coin"}},
		{Name: "Memecoin", Tokens: []string{"dogecoin", "pepe"}},
	}
}

// CumulativeTable holds one cumulative-return column per basket over the
// dates on which every basket in the table has data.
type CumulativeTable struct {
	Dates   []time.Time          `json:"dates"`
	Baskets []string             `json:"baskets"`
	Values  map[string][]float64 `json:"values"`
}

func (t CumulativeTable) IsEmpty() bool {
	return len(t.Dates) == 0 || len(t.Baskets) == 0
}

// Normalized divides every column by its first value.
func (t CumulativeTable) Normalized() CumulativeTable {
	out := CumulativeTable{
		Dates:   t.Dates,
		Baskets: t.Baskets,
		Values:  make(map[string][]float64, len(t.Values)),
	}
	for name, col := range t.Values {
		norm := make([]float64, len(col))
		if len(col) > 0 && col[0] != 0 {
			for i, v := range col {
				norm[i] = v / col[0]
			}
		} else {
			copy(norm, col)
		}
		out.Values[name] = norm
	}
	return out
}

// NarrativeSummary is the statistics row for one basket.
type NarrativeSummary struct {
	Narrative        string  `json:"narrative"`
	AnnualReturn     float64 `json:"annualised_return"`
	AnnualVolatility float64 `json:"annualised_volatility"`
	Sharpe           float64 `json:"sharpe_ratio"`
	RiskParityWeight float64 `json:"risk_parity_weight"`
}

// NarrativeDashboard is everything the narrative page renders.
type NarrativeDashboard struct {
	Table     CumulativeTable    `json:"cumulative"`
	Summary   []NarrativeSummary `json:"summary"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (d *NarrativeDashboard) IsEmpty() bool {
	return d == nil || len(d.Summary) == 0
}
