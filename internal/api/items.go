package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// ItemsHandler handles catalog endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

type itemRequest struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	Quantity     float64 `json:"quantity"`
	Unit         string  `json:"unit"`
	ReorderLevel float64 `json:"reorder_level"`
	Supplier     string  `json:"supplier"`
	ExpiryDate   string  `json:"expiry_date"`
}

func (r itemRequest) params() store.ItemParams {
	return store.ItemParams{
		Name:         r.Name,
		Category:     r.Category,
		Quantity:     r.Quantity,
		Unit:         r.Unit,
		ReorderLevel: r.ReorderLevel,
		Supplier:     r.Supplier,
		ExpiryDate:   r.ExpiryDate,
	}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil
}

// List handles GET /api/items. With a q, category or supplier query
// parameter it searches; otherwise it returns the full catalog.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term, category, supplier := q.Get("q"), q.Get("category"), q.Get("supplier")

	var items []model.Item
	var err error
	if term != "" || category != "" || supplier != "" {
		items, err = store.SearchItems(r.Context(), h.DB, term, category, supplier)
	} else {
		items, err = store.ListItems(r.Context(), h.DB)
	}
	if err != nil {
		storeError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := store.AddItem(r.Context(), h.DB, req.params())
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := store.UpdateItem(r.Context(), h.DB, id, req.params()); err != nil {
		storeError(w, err)
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}. Items with logged transactions
// cannot be deleted (409).
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}

	// Return 404 for unknown items rather than an empty history.
	if _, err := store.GetItem(r.Context(), h.DB, id); err != nil {
		storeError(w, err)
		return
	}

	history, err := store.ItemHistory(r.Context(), h.DB, id, limit)
	if err != nil {
		storeError(w, err)
		return
	}
	if history == nil {
		history = []model.Transaction{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// Categories handles GET /api/items/categories.
func (h *ItemsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := store.Categories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Suppliers handles GET /api/items/suppliers.
func (h *ItemsHandler) Suppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := store.Suppliers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err)
		return
	}
	if suppliers == nil {
		suppliers = []string{}
	}
	jsonResponse(w, http.StatusOK, suppliers)
}
