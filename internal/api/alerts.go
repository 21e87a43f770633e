package api

import (
	"database/sql"
	"net/http"

	"github.com/madit/hotelstock/internal/alert"
	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// AlertsHandler exposes the alert evaluator and its persisted settings.
type AlertsHandler struct {
	DB        *sql.DB
	Evaluator *alert.Evaluator
	Defaults  store.AlertSettings
}

// Snapshot handles GET /api/alerts. It computes a fresh snapshot without
// affecting the background watcher's poll state.
func (h *AlertsHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Evaluator.Snapshot(r.Context())
	if err != nil {
		storeError(w, err)
		return
	}
	if snap.LowStock == nil {
		snap.LowStock = []model.Item{}
	}
	if snap.Expiring == nil {
		snap.Expiring = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, snap)
}

// GetSettings handles GET /api/alerts/settings.
func (h *AlertsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := store.LoadAlertSettings(r.Context(), h.DB, h.Defaults)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}

// UpdateSettings handles PUT /api/alerts/settings.
func (h *AlertsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings store.AlertSettings
	if err := decodeJSON(r, &settings); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.SaveAlertSettings(r.Context(), h.DB, settings); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, settings)
}
