package models

import "github.com/guregu/null/v6"

type Item struct {
	UniqueID        string      `json:"unique_id"`
	ItemName        string      `json:"item_name"`
	ItemDescription null.String `json:"item_description"`
	Enchantment     int         `json:"enchantment"`
	Tier            int         `json:"tier"`
}
