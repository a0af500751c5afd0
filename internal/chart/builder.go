package chart

import (
	"math"
	"slices"
	"time"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

const DefaultWindowDays = 7

type Options struct {
	// Location decides every day boundary and hour bucket. Defaults to UTC.
	Location    *time.Location
	WindowDays  int
	PaletteSize int
	Now         func() time.Time
}

// Builder turns raw observations into chart series. It holds no per-call
// state and is safe for concurrent use.
type Builder struct {
	loc         *time.Location
	windowDays  int
	paletteSize int
	now         func() time.Time
}

func NewBuilder(opts Options) *Builder {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = DefaultPaletteSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Builder{
		loc:         opts.Location,
		windowDays:  opts.WindowDays,
		paletteSize: opts.PaletteSize,
		now:         opts.Now,
	}
}

func (b *Builder) Location() *time.Location { return b.loc }
func (b *Builder) PaletteSize() int         { return b.paletteSize }
func (b *Builder) Now() time.Time           { return b.now().In(b.loc) }

// StartOfDay returns local midnight of the day containing t.
func (b *Builder) StartOfDay(t time.Time) time.Time {
	t = t.In(b.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, b.loc)
}

// DayRange returns [midnight, next midnight) for the day containing t.
func (b *Builder) DayRange(t time.Time) (time.Time, time.Time) {
	start := b.StartOfDay(t)
	return start, start.AddDate(0, 0, 1)
}

// WindowRange returns the half-open range covering the window's calendar
// days, ending with the day containing reference.
func (b *Builder) WindowRange(reference time.Time) (time.Time, time.Time) {
	start, end := b.DayRange(reference)
	return start.AddDate(0, 0, -(b.windowDays - 1)), end
}

// ParseDay parses a YYYY-MM-DD key as a day in the builder's timezone.
func (b *Builder) ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, b.loc)
}

type batch struct {
	obs     []models.Observation
	skipped int
}

// prepare keeps located, well-formed observations inside [from, to) and
// sorts them by recorded time. Equal timestamps keep their input order.
func (b *Builder) prepare(obs []models.Observation, from, to time.Time) batch {
	out := make([]models.Observation, 0, len(obs))
	skipped := 0
	for _, o := range obs {
		if !wellFormed(o) {
			skipped++
			continue
		}
		if !o.HasLocation() {
			continue
		}
		if o.RecordedTime.Before(from) || !o.RecordedTime.Before(to) {
			continue
		}
		out = append(out, o)
	}
	sortByTime(out)
	return batch{obs: out, skipped: skipped}
}

func sortByTime(obs []models.Observation) {
	slices.SortStableFunc(obs, func(a, b models.Observation) int {
		return a.RecordedTime.Compare(b.RecordedTime)
	})
}

func wellFormed(o models.Observation) bool {
	if o.RecordedTime.IsZero() {
		return false
	}
	return o.Price >= 0 && !math.IsNaN(o.Price) && !math.IsInf(o.Price, 0)
}
