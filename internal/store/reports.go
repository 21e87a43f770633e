package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/madit/hotelstock/internal/model"
)

// sqlTimeLayout matches the form CURRENT_TIMESTAMP stores (UTC).
const sqlTimeLayout = "2006-01-02 15:04:05"

func sqlTime(t time.Time) string {
	return t.UTC().Format(sqlTimeLayout)
}

// LowStockItems returns items at or below their reorder level, ordered by name.
func LowStockItems(ctx context.Context, db *sql.DB) ([]model.Item, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE quantity <= reorder_level ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing low stock items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ExpiringItems returns items with an expiry date within windowDays of today,
// including already-expired items, ordered by expiry date ascending.
// "Today" is the local civil date at call time.
func ExpiringItems(ctx context.Context, db *sql.DB, windowDays int) ([]model.Item, error) {
	threshold := time.Now().AddDate(0, 0, windowDays).Format(model.DateLayout)

	rows, err := db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE expiry_date IS NOT NULL AND expiry_date <= ?
		 ORDER BY expiry_date`, threshold,
	)
	if err != nil {
		return nil, fmt.Errorf("listing expiring items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UsageReport aggregates OUT transactions per item over [start, end],
// inclusive. Only items with at least one OUT transaction in range appear,
// ordered by total used descending.
func UsageReport(ctx context.Context, db *sql.DB, start, end time.Time) ([]model.UsageRow, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT i.id, i.name, i.category, i.unit,
		        SUM(t.quantity) AS total_used,
		        COUNT(*) AS usage_count,
		        AVG(t.quantity) AS avg_used
		 FROM transactions t
		 JOIN items i ON i.id = t.item_id
		 WHERE t.type = 'OUT' AND t.created_at BETWEEN ? AND ?
		 GROUP BY i.id, i.name, i.category, i.unit
		 HAVING total_used > 0
		 ORDER BY total_used DESC`,
		sqlTime(start), sqlTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("building usage report: %w", err)
	}
	defer rows.Close()

	return scanUsageRows(rows)
}

// TopUsedItems returns the most-consumed items over the trailing days window,
// ordered by total used descending and truncated to limit.
func TopUsedItems(ctx context.Context, db *sql.DB, days, limit int) ([]model.UsageRow, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	rows, err := db.QueryContext(ctx,
		`SELECT i.id, i.name, i.category, i.unit,
		        SUM(t.quantity) AS total_used,
		        COUNT(*) AS usage_count,
		        AVG(t.quantity) AS avg_used
		 FROM transactions t
		 JOIN items i ON i.id = t.item_id
		 WHERE t.type = 'OUT' AND t.created_at BETWEEN ? AND ?
		 GROUP BY i.id, i.name, i.category, i.unit
		 ORDER BY total_used DESC
		 LIMIT ?`,
		sqlTime(start), sqlTime(end), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing top used items: %w", err)
	}
	defer rows.Close()

	return scanUsageRows(rows)
}

func scanUsageRows(rows *sql.Rows) ([]model.UsageRow, error) {
	var report []model.UsageRow
	for rows.Next() {
		var r model.UsageRow
		if err := rows.Scan(&r.ItemID, &r.Name, &r.Category, &r.Unit,
			&r.TotalUsed, &r.UsageCount, &r.AvgUsed); err != nil {
			return nil, fmt.Errorf("scanning usage row: %w", err)
		}
		report = append(report, r)
	}
	return report, rows.Err()
}

// StockMovements returns all transactions in [start, end], both directions,
// joined with item and user display data, newest first.
func StockMovements(ctx context.Context, db *sql.DB, start, end time.Time) ([]model.Movement, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT t.created_at, t.item_id, i.name, i.category, t.type, t.quantity, u.username, t.notes
		 FROM transactions t
		 JOIN items i ON i.id = t.item_id
		 JOIN users u ON u.id = t.user_id
		 WHERE t.created_at BETWEEN ? AND ?
		 ORDER BY t.created_at DESC, t.id DESC`,
		sqlTime(start), sqlTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("listing stock movements: %w", err)
	}
	defer rows.Close()

	var movements []model.Movement
	for rows.Next() {
		var m model.Movement
		var notes sql.NullString
		if err := rows.Scan(&m.At, &m.ItemID, &m.ItemName, &m.Category, &m.Type,
			&m.Quantity, &m.Username, &notes); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		m.Notes = notes.String
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// CategoryAnalysis aggregates items per category, most populous first.
func CategoryAnalysis(ctx context.Context, db *sql.DB) ([]model.GroupStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT category,
		        COUNT(*) AS item_count,
		        SUM(quantity) AS total_stock,
		        AVG(quantity) AS avg_stock,
		        SUM(CASE WHEN quantity <= reorder_level THEN 1 ELSE 0 END) AS low_stock_count
		 FROM items
		 GROUP BY category
		 ORDER BY item_count DESC, category`,
	)
	if err != nil {
		return nil, fmt.Errorf("building category analysis: %w", err)
	}
	defer rows.Close()

	return scanGroupStats(rows)
}

// SupplierAnalysis aggregates items per supplier, most populous first.
// Items with no supplier are grouped under "Unknown".
func SupplierAnalysis(ctx context.Context, db *sql.DB) ([]model.GroupStats, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT COALESCE(supplier, 'Unknown') AS supplier_name,
		        COUNT(*) AS item_count,
		        SUM(quantity) AS total_stock,
		        AVG(quantity) AS avg_stock,
		        SUM(CASE WHEN quantity <= reorder_level THEN 1 ELSE 0 END) AS low_stock_count
		 FROM items
		 GROUP BY supplier
		 ORDER BY item_count DESC, supplier_name`,
	)
	if err != nil {
		return nil, fmt.Errorf("building supplier analysis: %w", err)
	}
	defer rows.Close()

	return scanGroupStats(rows)
}

func scanGroupStats(rows *sql.Rows) ([]model.GroupStats, error) {
	var stats []model.GroupStats
	for rows.Next() {
		var g model.GroupStats
		if err := rows.Scan(&g.Name, &g.ItemCount, &g.TotalStock, &g.AvgStock, &g.LowStockCount); err != nil {
			return nil, fmt.Errorf("scanning group stats: %w", err)
		}
		stats = append(stats, g)
	}
	return stats, rows.Err()
}

// InventorySummary returns the whole-catalog aggregate counts.
// NULL suppliers do not count towards the distinct supplier total.
func InventorySummary(ctx context.Context, db *sql.DB) (*model.Summary, error) {
	s := &model.Summary{}
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN quantity <= reorder_level THEN 1 ELSE 0 END), 0),
		        COUNT(DISTINCT category),
		        COUNT(DISTINCT supplier)
		 FROM items`,
	).Scan(&s.TotalItems, &s.LowStockItems, &s.TotalCategories, &s.TotalSuppliers)
	if err != nil {
		return nil, fmt.Errorf("building inventory summary: %w", err)
	}
	return s, nil
}
