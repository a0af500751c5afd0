package chart

import (
	"fmt"

	"github.com/adan-ayaz-stan/albion-marketplace/internal/models"
)

// DefaultPaletteSize matches the five chart colors the dashboard ships with.
const DefaultPaletteSize = 5

// LocationKeys maps each city seen in a batch to a synthetic series field
// name (location1, location2, ...) in first-seen order. A mapping is built
// per call and must not be reused across calls.
type LocationKeys struct {
	order []string
	keys  map[string]string
}

// SeriesConfig describes how one series is labeled and colored.
type SeriesConfig struct {
	Label      string `json:"label"`
	ColorIndex int    `json:"colorIndex"`
}

// AssignLocationKeys walks obs in order and assigns a key to every new
// location. Observations without a location are ignored.
func AssignLocationKeys(obs []models.Observation) LocationKeys {
	k := LocationKeys{keys: make(map[string]string)}
	for _, o := range obs {
		if !o.HasLocation() {
			continue
		}
		loc := o.Location.String
		if _, ok := k.keys[loc]; ok {
			continue
		}
		k.order = append(k.order, loc)
		k.keys[loc] = fmt.Sprintf("location%d", len(k.order))
	}
	return k
}

func (k LocationKeys) Key(location string) (string, bool) {
	key, ok := k.keys[location]
	return key, ok
}

// Locations returns the cities in key order.
func (k LocationKeys) Locations() []string {
	out := make([]string, len(k.order))
	copy(out, k.order)
	return out
}

// SeriesKeys returns location1..locationN.
func (k LocationKeys) SeriesKeys() []string {
	out := make([]string, len(k.order))
	for i, loc := range k.order {
		out[i] = k.keys[loc]
	}
	return out
}

func (k LocationKeys) Len() int { return len(k.order) }

// Map returns location -> key.
func (k LocationKeys) Map() map[string]string {
	out := make(map[string]string, len(k.keys))
	for loc, key := range k.keys {
		out[loc] = key
	}
	return out
}

// Config builds the chart config for the mapping. Colors are assigned
// round-robin: the i-th location gets color index i % paletteSize.
func (k LocationKeys) Config(paletteSize int) map[string]SeriesConfig {
	if paletteSize <= 0 {
		paletteSize = DefaultPaletteSize
	}
	out := make(map[string]SeriesConfig, len(k.order))
	for i, loc := range k.order {
		out[k.keys[loc]] = SeriesConfig{Label: loc, ColorIndex: i % paletteSize}
	}
	return out
}
