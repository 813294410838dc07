package web

import (
	"net/http"

	"github.com/vitos/crypto_narratives/internal/domain"
)

type tableView struct {
	Columns []string
	Rows    [][]string
}

func newTableView(t domain.Table) *tableView {
	if t.IsEmpty() {
		return nil
	}
	v := &tableView{Columns: t.Columns, Rows: make([][]string, len(t.Rows))}
	for i := range t.Rows {
		v.Rows[i] = t.Cells(i)
	}
	return v
}

type trackerPanels struct {
	Symbol       string
	LongShort    *domain.LongShortRatio
	RatioChart   *BarChart
	OIColumn     string
	OIChart      *LineChart
	OIRaw        *tableView
	Liquidations *tableView
	UpdatedAt    string
}

type trackerPage struct {
	Panels    trackerPanels
	RefreshMs int64
}

func (s *Server) buildPanels(snap *domain.DerivativesSnapshot) trackerPanels {
	p := trackerPanels{
		Symbol:    snap.Symbol,
		LongShort: snap.LongShort,
		UpdatedAt: s.timeNow().Format("2006-01-02 15:04:05"),
	}

	if ls := snap.LongShort; ls != nil {
		p.RatioChart = NewBarChart(
			[]string{"Long", "Short"},
			[]float64{ls.LongAccount, ls.ShortAccount},
			formatFixed2,
		)
	}

	if !snap.OpenInterest.IsEmpty() {
		if col, pts, ok := snap.OpenInterest.Series(); ok {
			p.OIColumn = col
			p.OIChart = NewLineChart([]LineSeries{{Name: col, Points: pts}}, formatCompact)
		} else {
			p.OIRaw = newTableView(snap.OpenInterest.Raw)
		}
	}

	p.Liquidations = newTableView(snap.Liquidations.Raw)
	return p
}

func (s *Server) handleTrackerDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot(r.Context())
	s.render(w, "tracker.html", trackerPage{
		Panels:    s.buildPanels(snap),
		RefreshMs: s.refresh.Milliseconds(),
	})
}

func (s *Server) handleTrackerPanels(w http.ResponseWriter, r *http.Request) {
	snap := s.tracker.Snapshot(r.Context())
	s.render(w, "tracker_panels", s.buildPanels(snap))
}
