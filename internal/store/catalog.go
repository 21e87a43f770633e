package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/madit/hotelstock/internal/model"
)

// ItemParams are the caller-supplied fields for creating or updating an item.
// Supplier and ExpiryDate are optional; empty strings are stored as NULL.
type ItemParams struct {
	Name         string
	Category     string
	Quantity     float64
	Unit         string
	ReorderLevel float64
	Supplier     string
	ExpiryDate   string // YYYY-MM-DD
}

func validateItemParams(p ItemParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Category) == "" {
		return &ValidationError{Field: "category", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Unit) == "" {
		return &ValidationError{Field: "unit", Reason: "must not be empty"}
	}
	if p.Quantity < 0 || math.IsNaN(p.Quantity) || math.IsInf(p.Quantity, 0) {
		return &ValidationError{Field: "quantity", Reason: "must be a non-negative number"}
	}
	if p.ReorderLevel < 0 || math.IsNaN(p.ReorderLevel) || math.IsInf(p.ReorderLevel, 0) {
		return &ValidationError{Field: "reorder_level", Reason: "must be a non-negative number"}
	}
	if p.ExpiryDate != "" {
		if _, err := time.Parse(model.DateLayout, p.ExpiryDate); err != nil {
			return &ValidationError{Field: "expiry_date", Reason: "must be a date in YYYY-MM-DD form"}
		}
	}
	return nil
}

// nullable converts an optional string field to its stored form,
// so that empty supplier/expiry values become NULL rather than ''.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// AddItem creates a new catalog item and returns it.
func AddItem(ctx context.Context, db *sql.DB, p ItemParams) (*model.Item, error) {
	if err := validateItemParams(p); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, category, quantity, unit, reorder_level, supplier, expiry_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Category, p.Quantity, p.Unit, p.ReorderLevel,
		nullable(p.Supplier), nullable(p.ExpiryDate),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// UpdateItem overwrites all mutable fields of an item, including quantity.
// This is a direct catalog edit and bypasses the transaction ledger.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, p ItemParams) error {
	if err := validateItemParams(p); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items
		 SET name = ?, category = ?, quantity = ?, unit = ?, reorder_level = ?,
		     supplier = ?, expiry_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Name, p.Category, p.Quantity, p.Unit, p.ReorderLevel,
		nullable(p.Supplier), nullable(p.ExpiryDate), id,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteItem removes an item. Items with any logged transactions cannot be
// deleted, preserving the audit trail.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE item_id = ?`, id,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking item history: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("item %d has %d logged transactions: %w", id, count, ErrConflict)
	}

	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	return nil
}

const itemColumns = `id, name, category, quantity, unit, reorder_level, supplier, expiry_date, created_at, updated_at`

func scanItem(row *sql.Row) (*model.Item, error) {
	item := &model.Item{}
	var supplier, expiry sql.NullString
	err := row.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Unit,
		&item.ReorderLevel, &supplier, &expiry, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Supplier = supplier.String
	item.ExpiryDate = expiry.String
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var supplier, expiry sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &item.Category, &item.Quantity, &item.Unit,
			&item.ReorderLevel, &supplier, &expiry, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Supplier = supplier.String
		item.ExpiryDate = expiry.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// GetItem returns an item by ID, or ErrNotFound.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	item, err := scanItem(db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns all items ordered by name.
func ListItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems returns items whose name contains term (case-insensitive),
// optionally restricted to an exact category and/or supplier.
func SearchItems(ctx context.Context, db *sql.DB, term, category, supplier string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE name LIKE ?`
	args := []any{"%" + term + "%"}

	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if supplier != "" {
		query += ` AND supplier = ?`
		args = append(args, supplier)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// Categories returns all distinct categories in ascending order.
func Categories(ctx context.Context, db *sql.DB) ([]string, error) {
	return distinctColumn(ctx, db,
		`SELECT DISTINCT category FROM items ORDER BY category`)
}

// Suppliers returns all distinct non-empty suppliers in ascending order.
func Suppliers(ctx context.Context, db *sql.DB) ([]string, error) {
	return distinctColumn(ctx, db,
		`SELECT DISTINCT supplier FROM items WHERE supplier IS NOT NULL ORDER BY supplier`)
}

func distinctColumn(ctx context.Context, db *sql.DB, query string) ([]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing distinct values: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning value: %w", err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
