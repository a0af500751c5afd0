package chart

import (
	"math"

	"github.com/guregu/null/v6"
)

// DefaultAxisMax is used when a chart has no positive values.
const DefaultAxisMax = 1000

// NiceCeiling rounds max up to 1, 2, 5 or 10 times a power of ten.
func NiceCeiling(max float64) float64 {
	if max <= 0 || math.IsNaN(max) || math.IsInf(max, 0) {
		return DefaultAxisMax
	}
	pow := math.Pow(10, math.Floor(math.Log10(max)))
	var c float64
	switch n := max / pow; {
	case n <= 1:
		c = 1
	case n <= 2:
		c = 2
	case n <= 5:
		c = 5
	default:
		c = 10
	}
	return c * pow
}

func HourlyAxisMax(buckets []HourlyBucket) float64 {
	rows := make([]map[string]null.Float, len(buckets))
	for i, bk := range buckets {
		rows[i] = bk.Values
	}
	return NiceCeiling(maxValue(rows))
}

func DailyAxisMax(points []DailyPoint) float64 {
	rows := make([]map[string]null.Float, len(points))
	for i, p := range points {
		rows[i] = p.Values
	}
	return NiceCeiling(maxValue(rows))
}

func maxValue(rows []map[string]null.Float) float64 {
	var max float64
	for _, row := range rows {
		for _, v := range row {
			if v.Valid && v.Float64 > max {
				max = v.Float64
			}
		}
	}
	return max
}
