package model

import "time"

// Transaction types.
const (
	TransactionIn  = "IN"
	TransactionOut = "OUT"
)

// Transaction is an immutable audit record of one stock movement.
// Rows are only ever inserted, never updated or deleted.
type Transaction struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ItemID    int64     `json:"item_id"`
	Type      string    `json:"type"`
	Quantity  float64   `json:"quantity"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Joined fields (not always populated).
	Username string `json:"username,omitempty"`
	ItemName string `json:"item_name,omitempty"`
}
