package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/external"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/metrics"
	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

type TrackedSource interface {
	TrackedUniqueIDs(ctx context.Context) ([]string, error)
}

type PriceFetcher interface {
	Prices(ctx context.Context, itemIDs, locations []string) ([]external.PriceStat, error)
}

type ObservationWriter interface {
	RecordBatch(ctx context.Context, obs []models.Observation) (int64, error)
}

type Notifier interface {
	Send(ctx context.Context, msg string)
}

type CollectorConfig struct {
	Interval  time.Duration // e.g. 1*time.Hour
	Locations []string
	// Quality keeps only stats of this quality. 0 keeps every quality.
	Quality    int
	RunTimeout time.Duration
	Now        func() time.Time
}

// Collector polls the market API for every tracked item and stores one
// observation per item, city and quality.
type Collector struct {
	tracked  TrackedSource
	prices   PriceFetcher
	store    ObservationWriter
	notifier Notifier
	metrics  *metrics.Metrics
	log      zerolog.Logger
	cfg      CollectorConfig

	mu      sync.Mutex
	running bool
	failing bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func NewCollector(tracked TrackedSource, prices PriceFetcher, store ObservationWriter, notifier Notifier, m *metrics.Metrics, log zerolog.Logger, cfg CollectorConfig) *Collector {
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 2 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Collector{
		tracked:  tracked,
		prices:   prices,
		store:    store,
		notifier: notifier,
		metrics:  m,
		log:      log,
		cfg:      cfg,
	}
}

func (c *Collector) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		c.log.Warn().Msg("collector already running")
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		c.tick(stopCh)

		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-stopCh:
				return
			case <-ticker.C:
				c.tick(stopCh)
			}
		}
	}()

	c.log.Info().Dur("interval", c.cfg.Interval).Strs("locations", c.cfg.Locations).Msg("collector started")
}

// Stop halts the schedule and waits for an in-flight run to finish.
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopCh)
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	c.log.Info().Msg("collector stopped")
}

func (c *Collector) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// FetchNow runs one collection outside the normal schedule.
func (c *Collector) FetchNow(ctx context.Context) (int, error) {
	c.log.Info().Msg("manual collection triggered")
	return c.run(ctx)
}

func (c *Collector) tick(stopCh <-chan struct{}) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.RunTimeout)
	defer cancel()
	go func() {
		select {
		case <-stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	if _, err := c.run(ctx); err != nil {
		c.log.Error().Err(err).Msg("collection failed")
	}
}

func (c *Collector) run(ctx context.Context) (int, error) {
	recorded, err := c.collect(ctx)
	c.metrics.CollectorRun(err, recorded)
	c.report(ctx, recorded, err)
	return recorded, err
}

func (c *Collector) collect(ctx context.Context) (int, error) {
	ids, err := c.tracked.TrackedUniqueIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("load tracked items: %w", err)
	}
	if len(ids) == 0 {
		c.log.Debug().Msg("no tracked items, nothing to collect")
		return 0, nil
	}

	stats, err := c.prices.Prices(ctx, ids, c.cfg.Locations)
	if err != nil {
		return 0, fmt.Errorf("fetch prices: %w", err)
	}

	recordedAt := c.cfg.Now().UTC()
	obs := make([]models.Observation, 0, len(stats))
	for _, s := range stats {
		if c.cfg.Quality > 0 && s.Quality != c.cfg.Quality {
			continue
		}
		obs = append(obs, s.Observation(recordedAt))
	}

	n, err := c.store.RecordBatch(ctx, obs)
	if err != nil {
		return 0, fmt.Errorf("record observations: %w", err)
	}

	c.log.Info().
		Int("items", len(ids)).
		Int("stats", len(stats)).
		Int64("recorded", n).
		Msg("collection complete")
	return int(n), nil
}

// report notifies on the first failure and on recovery, not on every run.
func (c *Collector) report(ctx context.Context, recorded int, err error) {
	c.mu.Lock()
	wasFailing := c.failing
	c.failing = err != nil
	c.mu.Unlock()

	if c.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	switch {
	case err != nil && !wasFailing:
		c.notifier.Send(ctx, fmt.Sprintf("price collection failing: %v", err))
	case err == nil && wasFailing:
		c.notifier.Send(ctx, fmt.Sprintf("price collection recovered, recorded %d observations", recorded))
	}
}
