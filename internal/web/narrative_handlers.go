package web

import (
	"net/http"

	"github.com/vitos/crypto_narratives/internal/domain"
)

type narrativePage struct {
	Dashboard  *domain.NarrativeDashboard
	Weights    *BarChart
	Cumulative *LineChart
	UpdatedAt  string
}

func (s *Server) handleNarrativeDashboard(w http.ResponseWriter, r *http.Request) {
	d := s.narratives.Dashboard(r.Context())

	page := narrativePage{
		Dashboard: d,
		UpdatedAt: s.timeNow().Format("2006-01-02"),
	}
	if !d.IsEmpty() {
		labels := make([]string, len(d.Summary))
		weights := make([]float64, len(d.Summary))
		for i, row := range d.Summary {
			labels[i] = row.Narrative
			weights[i] = row.RiskParityWeight
		}
		page.Weights = NewBarChart(labels, weights, formatPercent)
	}
	if !d.Table.IsEmpty() {
		page.Cumulative = NewLineChart(cumulativeSeries(d.Table.Normalized()), formatFixed2)
	}

	s.render(w, "narratives.html", page)
}
