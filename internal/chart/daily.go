package chart

import (
	"slices"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

type DailySeries struct {
	Points []DailyPoint
	// HourlyDetails holds the drill-down for every day of the window, keyed
	// by date. Empty when the window has no observations.
	HourlyDetails map[string][]HourlyBucket
	Keys          LocationKeys
	Skipped       int
}

type mean struct {
	total decimal.Decimal
	count int64
}

func (m *mean) add(price float64) {
	m.total = m.total.Add(decimal.NewFromFloat(price))
	m.count++
}

func (m *mean) value() null.Float {
	if m == nil || m.count == 0 {
		return null.Float{}
	}
	return null.FloatFrom(m.total.Div(decimal.NewFromInt(m.count)).InexactFloat64())
}

// BuildDailySeries averages the window ending on reference's day into one
// point per observed day, and builds the hourly drill-down for each day of
// the window with the same location keys. The daily mean covers every
// sample with a positive price, independent of the hourly collision rule.
func (b *Builder) BuildDailySeries(obs []models.Observation, reference time.Time) DailySeries {
	from, to := b.WindowRange(reference)
	bt := b.prepare(obs, from, to)
	keys := AssignLocationKeys(bt.obs)

	out := DailySeries{
		Points:        []DailyPoint{},
		HourlyDetails: map[string][]HourlyBucket{},
		Keys:          keys,
		Skipped:       bt.skipped,
	}
	if len(bt.obs) == 0 {
		return out
	}

	seriesKeys := keys.SeriesKeys()
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		out.HourlyDetails[d.Format(DateLayout)] = emptyBuckets(seriesKeys)
	}

	sums := make(map[string]map[string]*mean)
	for _, o := range bt.obs {
		key, ok := keys.Key(o.Location.String)
		if !ok {
			continue
		}
		t := o.RecordedTime.In(b.loc)
		date := t.Format(DateLayout)

		if buckets, ok := out.HourlyDetails[date]; ok {
			buckets[t.Hour()].Values[key] = priceValue(o.Price)
		}

		day, ok := sums[date]
		if !ok {
			day = make(map[string]*mean)
			sums[date] = day
		}
		m, ok := day[key]
		if !ok {
			m = &mean{}
			day[key] = m
		}
		if o.Price > 0 {
			m.add(o.Price)
		}
	}

	dates := make([]string, 0, len(sums))
	for date := range sums {
		dates = append(dates, date)
	}
	slices.Sort(dates)

	for _, date := range dates {
		vals := absentValues(seriesKeys)
		for key, m := range sums[date] {
			vals[key] = m.value()
		}
		out.Points = append(out.Points, DailyPoint{Date: date, Values: vals})
	}
	return out
}
