package web

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/vitos/crypto_narratives/internal/domain"
)

const (
	chartWidth   = 760.0
	chartHeight  = 280.0
	chartPadding = 48.0
)

var palette = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2", "#7f7f7f"}

type LineSeries struct {
	Name   string
	Color  string
	Path   string
	Points []domain.ChartPoint
}

// LineChart is an SVG line chart with precomputed paths.
type LineChart struct {
	Width, Height float64
	Series        []LineSeries
	YMin, YMax    string
	XStart, XEnd  string
	Left, Right   float64
	Top, Bottom   float64
}

type Bar struct {
	Label      string
	Value      string
	X, Y, W, H float64
	Color      string
}

type BarChart struct {
	Width, Height float64
	Baseline      float64
	Bars          []Bar
}

// NewLineChart lays out series on shared axes. yFormat formats the axis
// bounds. Returns nil when there is nothing to draw.
func NewLineChart(series []LineSeries, yFormat func(float64) string) *LineChart {
	var minT, maxT time.Time
	minV, maxV := math.Inf(1), math.Inf(-1)
	n := 0
	for _, s := range series {
		for _, p := range s.Points {
			if n == 0 || p.Time.Before(minT) {
				minT = p.Time
			}
			if n == 0 || p.Time.After(maxT) {
				maxT = p.Time
			}
			minV = math.Min(minV, p.Value)
			maxV = math.Max(maxV, p.Value)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	if maxV == minV {
		minV, maxV = minV-1, maxV+1
	}
	span := maxT.Sub(minT).Seconds()

	c := &LineChart{
		Width:  chartWidth,
		Height: chartHeight,
		YMin:   yFormat(minV),
		YMax:   yFormat(maxV),
		XStart: minT.Format("2006-01-02 15:04"),
		XEnd:   maxT.Format("2006-01-02 15:04"),
		Left:   chartPadding * 1.5,
		Right:  chartWidth - chartPadding/2,
		Top:    chartPadding / 2,
		Bottom: chartHeight - chartPadding,
	}
	plotW := c.Right - c.Left
	plotH := c.Bottom - c.Top

	for i, s := range series {
		var b strings.Builder
		for j, p := range s.Points {
			x := c.Left
			if span > 0 {
				x += p.Time.Sub(minT).Seconds() / span * plotW
			}
			y := c.Bottom - (p.Value-minV)/(maxV-minV)*plotH
			cmd := "L"
			if j == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s%.1f %.1f ", cmd, x, y)
		}
		s.Path = strings.TrimSpace(b.String())
		if s.Color == "" {
			s.Color = palette[i%len(palette)]
		}
		c.Series = append(c.Series, s)
	}
	return c
}

// NewBarChart lays out one bar per value, scaled to the largest magnitude.
func NewBarChart(labels []string, values []float64, format func(float64) string) *BarChart {
	if len(values) == 0 {
		return nil
	}
	maxV := 0.0
	for _, v := range values {
		maxV = math.Max(maxV, math.Abs(v))
	}
	if maxV == 0 {
		maxV = 1
	}

	c := &BarChart{Width: chartWidth, Height: chartHeight, Baseline: chartHeight - chartPadding}
	slot := (chartWidth - chartPadding) / float64(len(values))
	plotH := c.Baseline - chartPadding/2
	for i, v := range values {
		h := math.Abs(v) / maxV * plotH
		c.Bars = append(c.Bars, Bar{
			Label: labels[i],
			Value: format(v),
			X:     chartPadding/2 + float64(i)*slot + slot*0.15,
			Y:     c.Baseline - h,
			W:     slot * 0.7,
			H:     h,
			Color: palette[i%len(palette)],
		})
	}
	return c
}

// cumulativeSeries converts a table into one line per basket.
func cumulativeSeries(table domain.CumulativeTable) []LineSeries {
	out := make([]LineSeries, 0, len(table.Baskets))
	for _, name := range table.Baskets {
		col := table.Values[name]
		pts := make([]domain.ChartPoint, len(col))
		for i, v := range col {
			pts[i] = domain.ChartPoint{Time: table.Dates[i], Value: v}
		}
		out = append(out, LineSeries{Name: name, Points: pts})
	}
	return out
}
