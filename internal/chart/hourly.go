package chart

import (
	"time"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

type HourlySeries struct {
	Date    string
	Buckets []HourlyBucket
	Keys    LocationKeys
	// Skipped counts malformed observations that were dropped.
	Skipped int
}

// BuildHourlySeries gap-fills one day into 24 hourly buckets. Observations
// outside the day are ignored. When several samples fall into the same hour
// and location, the one recorded last wins, including a zero that blanks an
// earlier price.
func (b *Builder) BuildHourlySeries(obs []models.Observation, day time.Time) HourlySeries {
	from, to := b.DayRange(day)
	bt := b.prepare(obs, from, to)
	keys := AssignLocationKeys(bt.obs)
	return HourlySeries{
		Date:    from.Format(DateLayout),
		Buckets: b.fillHours(bt.obs, keys),
		Keys:    keys,
		Skipped: bt.skipped,
	}
}

// fillHours expects obs already prepared and keyed by keys.
func (b *Builder) fillHours(obs []models.Observation, keys LocationKeys) []HourlyBucket {
	buckets := emptyBuckets(keys.SeriesKeys())
	for _, o := range obs {
		key, ok := keys.Key(o.Location.String)
		if !ok {
			continue
		}
		buckets[o.RecordedTime.In(b.loc).Hour()].Values[key] = priceValue(o.Price)
	}
	return buckets
}
