package api

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// StockHandler handles the ledger's mutation endpoints. The acting user is
// always taken from the verified token, never from the request body.
type StockHandler struct {
	DB *sql.DB
}

type stockRequest struct {
	ItemID   int64   `json:"item_id"`
	Quantity float64 `json:"quantity"`
	Notes    string  `json:"notes"`
}

type recordFunc func(ctx context.Context, db *sql.DB, userID, itemID int64, quantity float64, notes string) (*model.Transaction, error)

// In handles POST /api/stock/in (delivery/purchase).
func (h *StockHandler) In(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, store.RecordIn)
}

// Out handles POST /api/stock/out (consumption). Responds 409 with the
// available amount when the request exceeds current stock.
func (h *StockHandler) Out(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, store.RecordOut)
}

func (h *StockHandler) record(w http.ResponseWriter, r *http.Request, op recordFunc) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transaction, err := op(r.Context(), h.DB, claims.UserID, req.ItemID, req.Quantity, req.Notes)
	if err != nil {
		storeError(w, err)
		return
	}

	log.Info().
		Str("user", claims.Username).
		Int64("item_id", transaction.ItemID).
		Str("type", transaction.Type).
		Float64("quantity", transaction.Quantity).
		Msg("stock movement recorded")

	jsonResponse(w, http.StatusCreated, transaction)
}
