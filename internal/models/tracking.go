package models

import "time"

// TrackingRequest is one watch-list entry. Rows are written by the account
// frontend; this service only reads them.
type TrackingRequest struct {
	ID          int64     `json:"id"`
	UserID      string    `json:"user_id"`
	UniqueID    string    `json:"unique_id"`
	Enchantment int       `json:"enchantment"`
	CreatedAt   time.Time `json:"created_at"`
}
