package models

import "time"

// Listing is reference data for one tradable symbol.
type Listing struct {
	ID            int        `json:"id"`
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Exchange      string     `json:"exchange,omitempty"`
	AssetType     string     `json:"asset_type,omitempty"`
	IPODate       *time.Time `json:"ipo_date,omitempty"`
	DelistingDate *time.Time `json:"delisting_date,omitempty"`
	Status        string     `json:"status,omitempty"`
}
