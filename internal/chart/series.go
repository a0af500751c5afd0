package chart

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/guregu/null/v6"
)

// DateLayout is the calendar-day key used by daily points and drill-down.
const DateLayout = "2006-01-02"

const HoursPerDay = 24

// HourlyBucket is one hour of a day. Values holds one entry per series key;
// an invalid null.Float means no usable sample, which renders as a gap.
type HourlyBucket struct {
	Hour   int
	Label  string
	Values map[string]null.Float
}

func (b HourlyBucket) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(b.Values)+1)
	for k, v := range b.Values {
		row[k] = v
	}
	row["hour"] = b.Label
	return json.Marshal(row)
}

// DailyPoint is the per-location mean price for one calendar day.
type DailyPoint struct {
	Date   string
	Values map[string]null.Float
}

func (p DailyPoint) MarshalJSON() ([]byte, error) {
	row := make(map[string]any, len(p.Values)+1)
	for k, v := range p.Values {
		row[k] = v
	}
	row["date"] = p.Date
	return json.Marshal(row)
}

// HourLabel formats an hour of day the way the chart axis shows it.
func HourLabel(hour int) string {
	h := hour % 12
	if h == 0 {
		h = 12
	}
	suffix := "AM"
	if hour >= 12 {
		suffix = "PM"
	}
	return fmt.Sprintf("%d %s", h, suffix)
}

func emptyBuckets(keys []string) []HourlyBucket {
	out := make([]HourlyBucket, HoursPerDay)
	for h := range out {
		out[h] = HourlyBucket{Hour: h, Label: HourLabel(h), Values: absentValues(keys)}
	}
	return out
}

func absentValues(keys []string) map[string]null.Float {
	vals := make(map[string]null.Float, len(keys))
	for _, k := range keys {
		vals[k] = null.Float{}
	}
	return vals
}

// priceValue turns a stored price into a chart value; 0 means no trade.
func priceValue(price float64) null.Float {
	return null.NewFloat(price, price > 0)
}
