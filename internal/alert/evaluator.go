package alert

import (
	"context"
	"database/sql"
	"sync"

	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// Snapshot is a point-in-time view of everything needing attention.
// An item low on stock and close to expiry appears in both sets and is
// counted twice in Total.
type Snapshot struct {
	LowStock []model.Item `json:"low_stock"`
	Expiring []model.Item `json:"expiring"`
	Total    int          `json:"total"`
}

// Notification is emitted by Poll when the alert total grew since the
// previous poll.
type Notification struct {
	NewCount int       `json:"new_count"`
	Snapshot *Snapshot `json:"snapshot"`
}

// Evaluator computes alert snapshots and remembers the total from the
// previous poll. It is the only stateful component; everything else reads
// the store fresh on every call.
type Evaluator struct {
	db                *sql.DB
	defaultExpiryDays int

	mu        sync.Mutex
	lastTotal int
}

// NewEvaluator creates an evaluator. defaultExpiryDays is used when no
// persisted expiry window override exists.
func NewEvaluator(db *sql.DB, defaultExpiryDays int) *Evaluator {
	return &Evaluator{db: db, defaultExpiryDays: defaultExpiryDays}
}

// expiryWindow resolves the effective expiry window, preferring the
// persisted settings override.
func (e *Evaluator) expiryWindow(ctx context.Context) (int, error) {
	s, err := store.LoadAlertSettings(ctx, e.db, store.AlertSettings{ExpiryDays: e.defaultExpiryDays})
	if err != nil {
		return 0, err
	}
	return s.ExpiryDays, nil
}

// Snapshot computes a fresh alert snapshot without touching poll state.
func (e *Evaluator) Snapshot(ctx context.Context) (*Snapshot, error) {
	window, err := e.expiryWindow(ctx)
	if err != nil {
		return nil, err
	}

	lowStock, err := store.LowStockItems(ctx, e.db)
	if err != nil {
		return nil, err
	}

	expiring, err := store.ExpiringItems(ctx, e.db, window)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		LowStock: lowStock,
		Expiring: expiring,
		Total:    len(lowStock) + len(expiring),
	}, nil
}

// Poll computes a fresh snapshot and compares its total against the previous
// poll's. It returns a notification only when the total strictly increased;
// the remembered total is updated either way. The baseline before the first
// poll is zero, so a first poll against a catalog that already has alerts
// fires immediately.
func (e *Evaluator) Poll(ctx context.Context) (*Notification, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	var notification *Notification
	if snap.Total > e.lastTotal {
		notification = &Notification{
			NewCount: snap.Total - e.lastTotal,
			Snapshot: snap,
		}
	}
	e.lastTotal = snap.Total

	return notification, nil
}
