// Package pricing joins the two reads a chart needs (display name and price
// observations) and hands the observations to the chart builder.
package pricing

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/apperr"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/chart"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/metrics"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

type ObservationSource interface {
	Range(ctx context.Context, uniqueID string, from, to time.Time, location string) ([]models.Observation, error)
}

type NameSource interface {
	Name(ctx context.Context, uniqueID string) (string, bool, error)
}

type HourlyChart struct {
	ItemName     string                        `json:"itemName"`
	Date         string                        `json:"date"`
	ChartData    []chart.HourlyBucket          `json:"chartData"`
	ChartConfig  map[string]chart.SeriesConfig `json:"chartConfig"`
	LocationKeys map[string]string             `json:"locationKeyMap"`
	YAxisMax     float64                       `json:"yAxisMax"`
}

type WeeklyChart struct {
	ItemName       string                          `json:"itemName"`
	DailyAverages  []chart.DailyPoint              `json:"dailyAverages"`
	HourlyDetails  map[string][]chart.HourlyBucket `json:"hourlyDetails"`
	ChartConfig    map[string]chart.SeriesConfig   `json:"chartConfig"`
	LocationKeys   map[string]string               `json:"locationKeyMap"`
	YAxisMax       float64                         `json:"yAxisMax"`
	HourlyYAxisMax map[string]float64              `json:"hourlyYAxisMax"`
}

type Service struct {
	observations ObservationSource
	names        NameSource
	builder      *chart.Builder
	metrics      *metrics.Metrics
	log          zerolog.Logger
}

func NewService(observations ObservationSource, names NameSource, builder *chart.Builder, m *metrics.Metrics, log zerolog.Logger) *Service {
	return &Service{
		observations: observations,
		names:        names,
		builder:      builder,
		metrics:      m,
		log:          log,
	}
}

func (s *Service) Builder() *chart.Builder { return s.builder }

// DayChart builds the gapped hourly chart for the day containing day.
func (s *Service) DayChart(ctx context.Context, uniqueID string, day time.Time) (*HourlyChart, error) {
	from, to := s.builder.DayRange(day)
	name, obs, err := s.fetch(ctx, uniqueID, from, to)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	series := s.builder.BuildHourlySeries(obs, from)
	s.metrics.ObserveChartBuild("day", time.Since(start), series.Skipped)

	s.log.Debug().
		Str("unique_id", uniqueID).
		Str("date", series.Date).
		Int("observations", len(obs)).
		Int("locations", series.Keys.Len()).
		Int("skipped", series.Skipped).
		Msg("hourly chart built")

	return &HourlyChart{
		ItemName:     name,
		Date:         series.Date,
		ChartData:    series.Buckets,
		ChartConfig:  series.Keys.Config(s.builder.PaletteSize()),
		LocationKeys: series.Keys.Map(),
		YAxisMax:     chart.HourlyAxisMax(series.Buckets),
	}, nil
}

func (s *Service) TodayChart(ctx context.Context, uniqueID string) (*HourlyChart, error) {
	return s.DayChart(ctx, uniqueID, s.builder.Now())
}

// WeekChart builds the daily-average chart with its hourly drill-down for
// the window ending today.
func (s *Service) WeekChart(ctx context.Context, uniqueID string) (*WeeklyChart, error) {
	now := s.builder.Now()
	from, to := s.builder.WindowRange(now)
	name, obs, err := s.fetch(ctx, uniqueID, from, to)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	series := s.builder.BuildDailySeries(obs, now)
	s.metrics.ObserveChartBuild("week", time.Since(start), series.Skipped)

	hourlyMax := make(map[string]float64, len(series.HourlyDetails))
	for date, buckets := range series.HourlyDetails {
		hourlyMax[date] = chart.HourlyAxisMax(buckets)
	}

	s.log.Debug().
		Str("unique_id", uniqueID).
		Int("observations", len(obs)).
		Int("days", len(series.Points)).
		Int("locations", series.Keys.Len()).
		Int("skipped", series.Skipped).
		Msg("weekly chart built")

	return &WeeklyChart{
		ItemName:       name,
		DailyAverages:  series.Points,
		HourlyDetails:  series.HourlyDetails,
		ChartConfig:    series.Keys.Config(s.builder.PaletteSize()),
		LocationKeys:   series.Keys.Map(),
		YAxisMax:       chart.DailyAxisMax(series.Points),
		HourlyYAxisMax: hourlyMax,
	}, nil
}

// Today returns the zero-baseline hourly rows for the current day.
func (s *Service) Today(ctx context.Context, uniqueID, location string) ([]models.Observation, error) {
	from, to := s.builder.DayRange(s.builder.Now())
	obs, err := s.observations.Range(ctx, uniqueID, from, to, location)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeDependency, err, "fetch observations")
	}

	start := time.Now()
	rows := s.builder.BuildTodayHourlySeries(obs, uniqueID, location)
	s.metrics.ObserveChartBuild("today", time.Since(start), 0)
	return rows, nil
}

// fetch issues the name and observation reads in parallel. Either failure
// fails the whole call. A missing item name falls back to the identifier.
func (s *Service) fetch(ctx context.Context, uniqueID string, from, to time.Time) (string, []models.Observation, error) {
	var (
		name string
		obs  []models.Observation
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, found, err := s.names.Name(gctx, uniqueID)
		if err != nil {
			return apperr.Wrap(apperr.CodeDependency, err, "fetch item name")
		}
		name = uniqueID
		if found && n != "" {
			name = n
		}
		return nil
	})
	g.Go(func() error {
		o, err := s.observations.Range(gctx, uniqueID, from, to, "")
		if err != nil {
			return apperr.Wrap(apperr.CodeDependency, err, "fetch observations")
		}
		obs = o
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return name, obs, nil
}
