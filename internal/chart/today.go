package chart

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

// BuildTodayHourlySeries returns one observation per hour of the current
// day. Unlike the chart series, missing hours are synthesized as rows with
// price, count and quality 0, so the result is a continuous zero baseline.
// An empty location keeps samples from every city (and none).
func (b *Builder) BuildTodayHourlySeries(obs []models.Observation, uniqueID, location string) []models.Observation {
	from, to := b.DayRange(b.now())

	var slots [HoursPerDay]*models.Observation
	kept := make([]models.Observation, 0, len(obs))
	for _, o := range obs {
		if !wellFormed(o) {
			continue
		}
		if o.RecordedTime.Before(from) || !o.RecordedTime.Before(to) {
			continue
		}
		if location != "" && o.Location.String != location {
			continue
		}
		kept = append(kept, o)
	}
	sortByTime(kept)
	for i := range kept {
		slots[kept[i].RecordedTime.In(b.loc).Hour()] = &kept[i]
	}

	out := make([]models.Observation, HoursPerDay)
	for h := range out {
		if slots[h] != nil {
			out[h] = *slots[h]
			continue
		}
		out[h] = models.Observation{
			UniqueID:     uniqueID,
			Location:     null.NewString(location, location != ""),
			RecordedTime: from.Add(time.Duration(h) * time.Hour).UTC(),
		}
	}
	return out
}
