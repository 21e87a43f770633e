package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/madit/hotelstock/internal/model"
)

// DefaultHistoryLimit bounds ItemHistory when the caller passes limit <= 0.
const DefaultHistoryLimit = 50

// RecordIn adds stock to an item (delivery/purchase). The quantity increase
// and the IN transaction row are applied in a single database transaction:
// either both become visible or neither does.
func RecordIn(ctx context.Context, db *sql.DB, userID, itemID int64, quantity float64, notes string) (*model.Transaction, error) {
	return record(ctx, db, userID, itemID, model.TransactionIn, quantity, notes)
}

// RecordOut removes stock from an item (consumption). Fails with
// InsufficientStockError if the requested quantity exceeds what is available;
// requesting exactly the available quantity is allowed. Applied atomically
// like RecordIn.
func RecordOut(ctx context.Context, db *sql.DB, userID, itemID int64, quantity float64, notes string) (*model.Transaction, error) {
	return record(ctx, db, userID, itemID, model.TransactionOut, quantity, notes)
}

func record(ctx context.Context, db *sql.DB, userID, itemID int64, typ string, quantity float64, notes string) (*model.Transaction, error) {
	if !(quantity > 0) || math.IsInf(quantity, 0) {
		return nil, &ValidationError{Field: "quantity", Reason: "must be a positive number"}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// The ledger references the acting user; reject unknown ids up front
	// rather than surfacing a foreign key failure on insert.
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking user: %w", err)
	}

	// Read the current quantity inside the transaction so concurrent
	// ledger operations on the same item serialize on the write lock.
	var available float64
	err = tx.QueryRowContext(ctx, `SELECT quantity FROM items WHERE id = ?`, itemID).Scan(&available)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking available quantity: %w", err)
	}

	newQuantity := available + quantity
	if typ == model.TransactionOut {
		if quantity > available {
			return nil, &InsufficientStockError{ItemID: itemID, Requested: quantity, Available: available}
		}
		newQuantity = available - quantity
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET quantity = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		newQuantity, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item quantity: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO transactions (user_id, item_id, type, quantity, notes)
		 VALUES (?, ?, ?, ?, ?)`,
		userID, itemID, typ, quantity, nullable(notes),
	)
	if err != nil {
		return nil, fmt.Errorf("recording transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing stock movement: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetTransaction(ctx, db, id)
}

// GetTransaction returns a transaction by ID joined with username and item name.
func GetTransaction(ctx context.Context, db *sql.DB, id int64) (*model.Transaction, error) {
	t := &model.Transaction{}
	var notes sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT t.id, t.user_id, t.item_id, t.type, t.quantity, t.notes, t.created_at,
		        u.username, i.name AS item_name
		 FROM transactions t
		 JOIN users u ON u.id = t.user_id
		 JOIN items i ON i.id = t.item_id
		 WHERE t.id = ?`, id,
	).Scan(&t.ID, &t.UserID, &t.ItemID, &t.Type, &t.Quantity, &notes, &t.CreatedAt,
		&t.Username, &t.ItemName)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting transaction: %w", err)
	}
	t.Notes = notes.String
	return t, nil
}

// ItemHistory returns an item's transactions, newest first, joined with
// username and item name. A limit <= 0 falls back to DefaultHistoryLimit.
func ItemHistory(ctx context.Context, db *sql.DB, itemID int64, limit int) ([]model.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := db.QueryContext(ctx,
		`SELECT t.id, t.user_id, t.item_id, t.type, t.quantity, t.notes, t.created_at,
		        u.username, i.name AS item_name
		 FROM transactions t
		 JOIN users u ON u.id = t.user_id
		 JOIN items i ON i.id = t.item_id
		 WHERE t.item_id = ?
		 ORDER BY t.created_at DESC, t.id DESC
		 LIMIT ?`, itemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var notes sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.ItemID, &t.Type, &t.Quantity, &notes, &t.CreatedAt,
			&t.Username, &t.ItemName); err != nil {
			return nil, fmt.Errorf("scanning transaction: %w", err)
		}
		t.Notes = notes.String
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// TransactionCount returns the number of logged transactions for an item.
func TransactionCount(ctx context.Context, db *sql.DB, itemID int64) (int, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE item_id = ?`, itemID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return count, nil
}
