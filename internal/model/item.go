package model

import "time"

// DateLayout is the calendar date form used for expiry dates.
const DateLayout = "2006-01-02"

// Item represents one stocked good in the catalog.
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	ReorderLevel float64   `json:"reorder_level"`
	Supplier     string    `json:"supplier,omitempty"`
	ExpiryDate   string    `json:"expiry_date,omitempty"` // YYYY-MM-DD, empty if none
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsLowStock reports whether the item is at or below its reorder level.
func (i Item) IsLowStock() bool {
	return i.Quantity <= i.ReorderLevel
}

// ExpiresWithin reports whether the item has an expiry date on or before
// today plus the given number of days. Already-expired items are included.
func (i Item) ExpiresWithin(days int, today time.Time) bool {
	if i.ExpiryDate == "" {
		return false
	}
	threshold := today.AddDate(0, 0, days).Format(DateLayout)
	return i.ExpiryDate <= threshold
}

// DaysUntilExpiry returns the number of days from today until the item's
// expiry date. Negative values mean the item is already expired. The second
// return value is false if the item has no expiry date.
func (i Item) DaysUntilExpiry(today time.Time) (int, bool) {
	if i.ExpiryDate == "" {
		return 0, false
	}
	expiry, err := time.Parse(DateLayout, i.ExpiryDate)
	if err != nil {
		return 0, false
	}
	// Compare UTC midnights so the difference is an exact number of days.
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(expiry.Sub(base).Hours() / 24), true
}
