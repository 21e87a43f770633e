package api

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// ReportsHandler exposes the read-only query layer.
type ReportsHandler struct {
	DB *sql.DB
}

// parseRange reads start/end query parameters as YYYY-MM-DD dates. The end
// date is extended to the end of its day so both boundaries are inclusive.
func parseRange(r *http.Request) (time.Time, time.Time, bool) {
	start, err := time.ParseInLocation(model.DateLayout, r.URL.Query().Get("start"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err := time.ParseInLocation(model.DateLayout, r.URL.Query().Get("end"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end = end.AddDate(0, 0, 1).Add(-time.Second)
	return start, end, true
}

func intQuery(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// Summary handles GET /api/reports/summary.
func (h *ReportsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := store.InventorySummary(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, summary)
}

// Usage handles GET /api/reports/usage?start=YYYY-MM-DD&end=YYYY-MM-DD.
func (h *ReportsHandler) Usage(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "start and end must be dates in YYYY-MM-DD form")
		return
	}

	report, err := store.UsageReport(r.Context(), h.DB, start, end)
	if err != nil {
		storeError(w, err)
		return
	}
	if report == nil {
		report = []model.UsageRow{}
	}
	jsonResponse(w, http.StatusOK, report)
}

// TopUsed handles GET /api/reports/top-used?days=7&limit=5.
func (h *ReportsHandler) TopUsed(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 7)
	limit := intQuery(r, "limit", 5)

	report, err := store.TopUsedItems(r.Context(), h.DB, days, limit)
	if err != nil {
		storeError(w, err)
		return
	}
	if report == nil {
		report = []model.UsageRow{}
	}
	jsonResponse(w, http.StatusOK, report)
}

// Movements handles GET /api/reports/movements?start=...&end=....
func (h *ReportsHandler) Movements(w http.ResponseWriter, r *http.Request) {
	start, end, ok := parseRange(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "start and end must be dates in YYYY-MM-DD form")
		return
	}

	movements, err := store.StockMovements(r.Context(), h.DB, start, end)
	if err != nil {
		storeError(w, err)
		return
	}
	if movements == nil {
		movements = []model.Movement{}
	}
	jsonResponse(w, http.StatusOK, movements)
}

// Categories handles GET /api/reports/categories.
func (h *ReportsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	stats, err := store.CategoryAnalysis(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if stats == nil {
		stats = []model.GroupStats{}
	}
	jsonResponse(w, http.StatusOK, stats)
}

// Suppliers handles GET /api/reports/suppliers.
func (h *ReportsHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	stats, err := store.SupplierAnalysis(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if stats == nil {
		stats = []model.GroupStats{}
	}
	jsonResponse(w, http.StatusOK, stats)
}

// LowStock handles GET /api/reports/low-stock.
func (h *ReportsHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	items, err := store.LowStockItems(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Expiring handles GET /api/reports/expiring?days=5.
func (h *ReportsHandler) Expiring(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 5)

	items, err := store.ExpiringItems(r.Context(), h.DB, days)
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}
