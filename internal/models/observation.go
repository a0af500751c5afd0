package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Observation is one row of item_n_location: a price sample for an item at a
// city. Price 0 means no order was seen when the sample was taken.
type Observation struct {
	UniqueID     string      `json:"unique_id"`
	Location     null.String `json:"location"`
	RecordedTime time.Time   `json:"recorded_time"`
	Price        float64     `json:"price"`
	Count        int         `json:"count"`
	Quality      int         `json:"quality"`
	CreatedAt    null.Time   `json:"created_at"`
}

// HasLocation reports whether the sample is attributed to a city.
func (o Observation) HasLocation() bool {
	return o.Location.Valid && o.Location.String != ""
}
