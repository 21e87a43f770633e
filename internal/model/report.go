package model

import "time"

// UsageRow is one item's OUT-transaction aggregate over a reporting range.
type UsageRow struct {
	ItemID     int64   `json:"item_id"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Unit       string  `json:"unit"`
	TotalUsed  float64 `json:"total_used"`
	UsageCount int     `json:"usage_count"`
	AvgUsed    float64 `json:"avg_used"`
}

// Movement is one transaction joined with item and user display data.
type Movement struct {
	At       time.Time `json:"at"`
	ItemID   int64     `json:"item_id"`
	ItemName string    `json:"item_name"`
	Category string    `json:"category"`
	Type     string    `json:"type"`
	Quantity float64   `json:"quantity"`
	Username string    `json:"username"`
	Notes    string    `json:"notes,omitempty"`
}

// GroupStats aggregates catalog items by category or supplier.
type GroupStats struct {
	Name          string  `json:"name"`
	ItemCount     int     `json:"item_count"`
	TotalStock    float64 `json:"total_stock"`
	AvgStock      float64 `json:"avg_stock"`
	LowStockCount int     `json:"low_stock_count"`
}

// Summary is the single-row whole-catalog aggregate.
type Summary struct {
	TotalItems      int `json:"total_items"`
	LowStockItems   int `json:"low_stock_items"`
	TotalCategories int `json:"total_categories"`
	TotalSuppliers  int `json:"total_suppliers"`
}
