package model

import "time"

// Item represents an inventory item as returned by the remote API.
// Lookup references (category, condition, source, location) are carried
// by id; resolving id to name is the caller's concern.
type Item struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	CategoryID    string    `json:"category_id"`
	ConditionID   string    `json:"condition_id"`
	Quantity      int       `json:"quantity"`
	LocationID    string    `json:"location_id,omitempty"`
	SourceID      string    `json:"source_id,omitempty"`
	DonorID       string    `json:"donor_id,omitempty"`
	ProcurementID string    `json:"procurement_id,omitempty"`
	PhotoURL      string    `json:"photo_url,omitempty"`
	Value         float64   `json:"value,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewItem is the payload for creating an item. Server-assigned fields
// (id, created_at) are omitted.
type NewItem struct {
	Name          string  `json:"name"`
	CategoryID    string  `json:"category_id"`
	ConditionID   string  `json:"condition_id"`
	Quantity      int     `json:"quantity"`
	LocationID    string  `json:"location_id,omitempty"`
	SourceID      string  `json:"source_id,omitempty"`
	DonorID       string  `json:"donor_id,omitempty"`
	ProcurementID string  `json:"procurement_id,omitempty"`
	PhotoURL      string  `json:"photo_url,omitempty"`
	Value         float64 `json:"value,omitempty"`
}

// UpdateItem is a partial patch: nil fields are left untouched by the server.
type UpdateItem struct {
	Name          *string  `json:"name,omitempty"`
	CategoryID    *string  `json:"category_id,omitempty"`
	ConditionID   *string  `json:"condition_id,omitempty"`
	Quantity      *int     `json:"quantity,omitempty"`
	LocationID    *string  `json:"location_id,omitempty"`
	SourceID      *string  `json:"source_id,omitempty"`
	DonorID       *string  `json:"donor_id,omitempty"`
	ProcurementID *string  `json:"procurement_id,omitempty"`
	PhotoURL      *string  `json:"photo_url,omitempty"`
	Value         *float64 `json:"value,omitempty"`
}

// ItemFilter narrows an item listing. Zero values mean "no filter".
type ItemFilter struct {
	CategoryID string
	SourceID   string
	Query      string
	Page       int
}

// IsZero reports whether the filter applies no narrowing at all.
func (f ItemFilter) IsZero() bool {
	return f.CategoryID == "" && f.SourceID == "" && f.Query == "" && f.Page == 0
}
