package web

import (
	"fmt"
	"html/template"
	"math"
	"strconv"
	"time"
)

var templateFuncs = template.FuncMap{
	"pct":      formatPercent,
	"fixed2":   formatFixed2,
	"compact":  formatCompact,
	"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatFixed2(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatCompact renders large magnitudes with K/M/B suffixes.
func formatCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return strconv.FormatFloat(v/1e9, 'f', 2, 64) + "B"
	case abs >= 1e6:
		return strconv.FormatFloat(v/1e6, 'f', 2, 64) + "M"
	case abs >= 1e3:
		return strconv.FormatFloat(v/1e3, 'f', 2, 64) + "K"
	default:
		return strconv.FormatFloat(v, 'f', 4, 64)
	}
}
