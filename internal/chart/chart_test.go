package chart

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

var day1 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func obs(loc string, ts time.Time, price float64) models.Observation {
	return models.Observation{
		UniqueID:     "T4_BAG",
		Location:     null.NewString(loc, loc != ""),
		RecordedTime: ts,
		Price:        price,
	}
}

func at(day time.Time, hour, minute int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func newTestBuilder() *Builder {
	return NewBuilder(Options{Now: func() time.Time { return at(day1, 20, 0) }})
}

func scenario() []models.Observation {
	return []models.Observation{
		obs("A", at(day1, 10, 0), 100),
		obs("A", at(day1, 10, 0), 150),
		obs("B", at(day1, 14, 0), 0),
	}
}

func TestHourLabel(t *testing.T) {
	cases := map[int]string{
		0: "12 AM", 1: "1 AM", 11: "11 AM",
		12: "12 PM", 13: "1 PM", 23: "11 PM",
	}
	for hour, want := range cases {
		assert.Equal(t, want, HourLabel(hour), "hour %d", hour)
	}
}

func TestBuildHourlySeries_Density(t *testing.T) {
	b := newTestBuilder()
	for _, n := range []int{0, 1, 5, 100} {
		var in []models.Observation
		for i := 0; i < n; i++ {
			in = append(in, obs(fmt.Sprintf("City%d", i%3), at(day1, i%24, i%60), float64(i+1)))
		}
		series := b.BuildHourlySeries(in, day1)
		require.Len(t, series.Buckets, HoursPerDay)
		for h, bk := range series.Buckets {
			assert.Equal(t, h, bk.Hour)
			assert.Equal(t, HourLabel(h), bk.Label)
		}
	}
}

func TestBuildHourlySeries_EmptyIsAllAbsent(t *testing.T) {
	series := newTestBuilder().BuildHourlySeries(nil, day1)
	require.Len(t, series.Buckets, HoursPerDay)
	assert.Equal(t, 0, series.Keys.Len())
	for _, bk := range series.Buckets {
		assert.Empty(t, bk.Values)
	}
	assert.Equal(t, "2025-03-10", series.Date)
}

func TestBuildHourlySeries_Scenario(t *testing.T) {
	series := newTestBuilder().BuildHourlySeries(scenario(), day1)

	keyA, ok := series.Keys.Key("A")
	require.True(t, ok)
	keyB, ok := series.Keys.Key("B")
	require.True(t, ok)
	assert.Equal(t, "location1", keyA)
	assert.Equal(t, "location2", keyB)

	assert.Equal(t, null.FloatFrom(150), series.Buckets[10].Values[keyA])
	assert.False(t, series.Buckets[14].Values[keyB].Valid, "zero price must be absent")

	valid := 0
	for _, bk := range series.Buckets {
		for _, v := range bk.Values {
			if v.Valid {
				valid++
				assert.NotZero(t, v.Float64)
			}
		}
	}
	assert.Equal(t, 1, valid)
}

func TestBuildHourlySeries_LastWriteWinsByTimestamp(t *testing.T) {
	in := []models.Observation{
		obs("A", at(day1, 10, 45), 300),
		obs("A", at(day1, 10, 5), 200),
	}
	series := newTestBuilder().BuildHourlySeries(in, day1)
	assert.Equal(t, null.FloatFrom(300), series.Buckets[10].Values["location1"])
}

func TestBuildHourlySeries_IgnoresOtherDaysAndUnlocated(t *testing.T) {
	in := []models.Observation{
		obs("A", at(day1, -1, 0), 10),
		obs("A", at(day1, 24, 0), 20),
		obs("", at(day1, 5, 0), 30),
		obs("B", at(day1, 5, 0), 40),
	}
	series := newTestBuilder().BuildHourlySeries(in, day1)
	assert.Equal(t, []string{"B"}, series.Keys.Locations())
	assert.Equal(t, null.FloatFrom(40), series.Buckets[5].Values["location1"])
}

func TestBuildDailySeries_Scenario(t *testing.T) {
	series := newTestBuilder().BuildDailySeries(scenario(), day1)

	require.Len(t, series.Points, 1)
	p := series.Points[0]
	assert.Equal(t, "2025-03-10", p.Date)
	assert.Equal(t, null.FloatFrom(125), p.Values["location1"])
	assert.False(t, p.Values["location2"].Valid)

	require.Len(t, series.HourlyDetails, DefaultWindowDays)
	hourly := series.HourlyDetails["2025-03-10"]
	require.Len(t, hourly, HoursPerDay)
	assert.Equal(t, null.FloatFrom(150), hourly[10].Values["location1"])
	assert.False(t, hourly[14].Values["location2"].Valid)
}

func TestBuildDailySeries_Empty(t *testing.T) {
	series := newTestBuilder().BuildDailySeries(nil, day1)
	assert.NotNil(t, series.Points)
	assert.Empty(t, series.Points)
	assert.Empty(t, series.Keys.Map())
	assert.Empty(t, series.HourlyDetails)

	raw, err := json.Marshal(series.Points)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestBuildDailySeries_OrderingIndependentOfInput(t *testing.T) {
	in := []models.Observation{
		obs("Caerleon", day1.AddDate(0, 0, -1).Add(3*time.Hour), 90),
		obs("Martlock", day1.Add(2*time.Hour), 70),
		obs("Caerleon", day1.AddDate(0, 0, -5).Add(time.Hour), 50),
		obs("Martlock", day1.AddDate(0, 0, -3), 60),
	}
	series := newTestBuilder().BuildDailySeries(in, day1)

	var dates []string
	for _, p := range series.Points {
		dates = append(dates, p.Date)
	}
	assert.Equal(t, []string{"2025-03-05", "2025-03-07", "2025-03-09", "2025-03-10"}, dates)
}

func TestBuildDailySeries_KeysSortedByTimeAndShared(t *testing.T) {
	in := []models.Observation{
		obs("Martlock", at(day1, 9, 0), 70),
		obs("Caerleon", at(day1, 4, 0), 90),
	}
	series := newTestBuilder().BuildDailySeries(in, day1)

	key, ok := series.Keys.Key("Caerleon")
	require.True(t, ok)
	assert.Equal(t, "location1", key)

	hourly := series.HourlyDetails["2025-03-10"]
	assert.Equal(t, null.FloatFrom(90), hourly[4].Values[key])
	assert.Equal(t, null.FloatFrom(90), series.Points[0].Values[key])
}

func TestBuildDailySeries_Idempotent(t *testing.T) {
	b := newTestBuilder()
	in := scenario()
	in = append(in, obs("C", day1.AddDate(0, 0, -2).Add(7*time.Hour), 33))

	first := b.BuildDailySeries(in, day1)
	second := b.BuildDailySeries(in, day1)
	assert.Equal(t, first, second)

	a, err := json.Marshal(first.Points)
	require.NoError(t, err)
	c, err := json.Marshal(second.Points)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestBuildDailySeries_WindowBounds(t *testing.T) {
	in := []models.Observation{
		obs("A", day1.AddDate(0, 0, -7).Add(12*time.Hour), 10),
		obs("B", day1.AddDate(0, 0, -6), 20),
		obs("C", day1.AddDate(0, 0, 1), 30),
	}
	series := newTestBuilder().BuildDailySeries(in, day1)
	assert.Equal(t, []string{"B"}, series.Keys.Locations())
	require.Len(t, series.Points, 1)
	assert.Equal(t, "2025-03-04", series.Points[0].Date)
}

func TestBuildDailySeries_SkipsMalformed(t *testing.T) {
	in := []models.Observation{
		obs("A", time.Time{}, 10),
		obs("A", at(day1, 1, 0), -5),
		obs("A", at(day1, 2, 0), 40),
	}
	series := newTestBuilder().BuildDailySeries(in, day1)
	assert.Equal(t, 2, series.Skipped)
	require.Len(t, series.Points, 1)
	assert.Equal(t, null.FloatFrom(40), series.Points[0].Values["location1"])
}

func TestBuildDailySeries_Timezone(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	b := NewBuilder(Options{Location: plus2})

	in := []models.Observation{obs("A", at(day1, 23, 30), 10)}
	series := b.BuildDailySeries(in, at(day1, 23, 30))

	require.Len(t, series.Points, 1)
	assert.Equal(t, "2025-03-11", series.Points[0].Date)
	assert.Equal(t, null.FloatFrom(10), series.HourlyDetails["2025-03-11"][1].Values["location1"])
}

func TestBuildTodayHourlySeries(t *testing.T) {
	in := []models.Observation{
		obs("Lymhurst", at(day1, 3, 15), 500),
		obs("Lymhurst", at(day1, 3, 45), 600),
		obs("Bridgewatch", at(day1, 4, 0), 700),
		obs("Lymhurst", at(day1, -2, 0), 800),
	}
	b := newTestBuilder()

	all := b.BuildTodayHourlySeries(in, "T4_BAG", "")
	require.Len(t, all, HoursPerDay)
	assert.Equal(t, 600.0, all[3].Price)
	assert.Equal(t, 700.0, all[4].Price)

	lym := b.BuildTodayHourlySeries(in, "T4_BAG", "Lymhurst")
	require.Len(t, lym, HoursPerDay)
	assert.Equal(t, 600.0, lym[3].Price)

	filled := lym[4]
	assert.Equal(t, "T4_BAG", filled.UniqueID)
	assert.Equal(t, 0.0, filled.Price)
	assert.Zero(t, filled.Count)
	assert.Zero(t, filled.Quality)
	assert.False(t, filled.CreatedAt.Valid)
	assert.Equal(t, null.StringFrom("Lymhurst"), filled.Location)
	assert.True(t, at(day1, 4, 0).Equal(filled.RecordedTime))

	empty := b.BuildTodayHourlySeries(nil, "T4_BAG", "")
	require.Len(t, empty, HoursPerDay)
	assert.False(t, empty[0].Location.Valid)
}

func TestLocationKeysConfig_RoundRobin(t *testing.T) {
	var in []models.Observation
	for i := 0; i < 7; i++ {
		in = append(in, obs(fmt.Sprintf("City%d", i), at(day1, i, 0), 1))
	}
	keys := AssignLocationKeys(in)
	cfg := keys.Config(5)

	require.Len(t, cfg, 7)
	assert.Equal(t, SeriesConfig{Label: "City0", ColorIndex: 0}, cfg["location1"])
	assert.Equal(t, SeriesConfig{Label: "City4", ColorIndex: 4}, cfg["location5"])
	assert.Equal(t, SeriesConfig{Label: "City5", ColorIndex: 0}, cfg["location6"])
	assert.Equal(t, SeriesConfig{Label: "City6", ColorIndex: 1}, cfg["location7"])
	assert.Equal(t, cfg, AssignLocationKeys(in).Config(5))
}

func TestBucketJSON(t *testing.T) {
	bk := HourlyBucket{
		Hour:  10,
		Label: "10 AM",
		Values: map[string]null.Float{
			"location1": null.FloatFrom(150),
			"location2": {},
		},
	}
	raw, err := json.Marshal(bk)
	require.NoError(t, err)
	assert.JSONEq(t, `{"hour":"10 AM","location1":150,"location2":null}`, string(raw))

	p := DailyPoint{Date: "2025-03-10", Values: map[string]null.Float{"location1": null.FloatFrom(125)}}
	raw, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2025-03-10","location1":125}`, string(raw))
}

func TestNiceCeiling(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 1000},
		{-3, 1000},
		{125, 200},
		{150, 200},
		{450, 500},
		{7000, 10000},
		{0.3, 0.5},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, NiceCeiling(tc.in), 1e-9, "NiceCeiling(%v)", tc.in)
	}
}

func TestAxisMax(t *testing.T) {
	series := newTestBuilder().BuildDailySeries(scenario(), day1)
	assert.InDelta(t, 200, DailyAxisMax(series.Points), 1e-9)
	assert.InDelta(t, 200, HourlyAxisMax(series.HourlyDetails["2025-03-10"]), 1e-9)
	assert.InDelta(t, DefaultAxisMax, HourlyAxisMax(nil), 1e-9)
}
