package usecase

import (
	"sort"
	"time"

	"github.com/vitos/crypto_narratives/internal/domain"
)

// dayOf truncates t to midnight UTC.
func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ResampleDaily turns raw samples into one price per UTC day, from the first
// to the last sampled day. The last sample of a day wins; days without a
// sample carry the previous day's price forward.
func ResampleDaily(token string, samples []domain.PriceSample) domain.PriceSeries {
	series := domain.PriceSeries{Token: token}
	if len(samples) == 0 {
		return series
	}

	sorted := make([]domain.PriceSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	byDay := make(map[time.Time]float64, len(sorted))
	for _, s := range sorted {
		byDay[dayOf(s.Time)] = s.Price
	}

	first := dayOf(sorted[0].Time)
	last := dayOf(sorted[len(sorted)-1].Time)

	var carry float64
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if p, ok := byDay[d]; ok {
			carry = p
		}
		series.Points = append(series.Points, domain.PricePoint{Date: d, Price: carry})
	}
	return series
}
