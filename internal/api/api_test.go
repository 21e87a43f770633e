package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madit/hotelstock/internal/alert"
	"github.com/madit/hotelstock/internal/db"
	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

const testSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()

	database := db.NewTestDB(t)

	_, err := store.CreateUser(context.Background(), database, "admin", "adminpass", model.RoleAdmin)
	require.NoError(t, err)

	evaluator := alert.NewEvaluator(database, 5)
	defaults := store.AlertSettings{ExpiryDays: 5, SoundEnabled: true}

	server := httptest.NewServer(NewRouter(database, testSecret, evaluator, defaults))
	t.Cleanup(server.Close)

	return server, database
}

func doRequest(t *testing.T, server *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func login(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()

	resp := doRequest(t, server, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.Token)
	return body.Token
}

// createUserAs makes a user through the API and returns a token for them.
func createUserAs(t *testing.T, server *httptest.Server, adminToken, username, role string) string {
	t.Helper()

	resp := doRequest(t, server, http.MethodPost, "/api/users", adminToken,
		map[string]string{"username": username, "password": "password123", "role": role})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	return login(t, server, username, "password123")
}

func TestLogin(t *testing.T) {
	server, _ := setupTestServer(t)

	token := login(t, server, "admin", "adminpass")
	assert.NotEmpty(t, token)

	resp := doRequest(t, server, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "ghost", "password": "whatever"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestRequiresAuthentication(t *testing.T) {
	server, _ := setupTestServer(t)

	for _, path := range []string{"/api/items", "/api/reports/summary", "/api/alerts", "/api/users"} {
		resp := doRequest(t, server, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		resp.Body.Close()
	}

	resp := doRequest(t, server, http.MethodGet, "/api/items", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The revoked token no longer works.
	resp = doRequest(t, server, http.MethodGet, "/api/items", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestChangePassword(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPut, "/api/auth/password", token,
		map[string]string{"current_password": "wrong", "new_password": "newpass456"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPut, "/api/auth/password", token,
		map[string]string{"current_password": "adminpass", "new_password": "newpass456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	login(t, server, "admin", "newpass456")
}

func TestItemCRUD(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/items", token, map[string]any{
		"name":          "Soap",
		"category":      "Toiletries",
		"quantity":      100,
		"unit":          "pieces",
		"reorder_level": 20,
		"supplier":      "CleanCo",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.Item
	decodeBody(t, resp, &item)
	assert.Equal(t, "Soap", item.Name)

	resp = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Item
	decodeBody(t, resp, &got)
	assert.Equal(t, 100.0, got.Quantity)

	resp = doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/items/%d", item.ID), token, map[string]any{
		"name":          "Hand Soap",
		"category":      "Toiletries",
		"quantity":      80,
		"unit":          "pieces",
		"reorder_level": 10,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &got)
	assert.Equal(t, "Hand Soap", got.Name)
	assert.Equal(t, 80.0, got.Quantity)

	resp = doRequest(t, server, http.MethodGet, "/api/items", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var items []model.Item
	decodeBody(t, resp, &items)
	assert.Len(t, items, 1)

	resp = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/items/%d", item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestItemValidationResponse(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/items", token, map[string]any{
		"name":     "",
		"category": "Toiletries",
		"unit":     "pieces",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestStockFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/items", token, map[string]any{
		"name":          "Towels",
		"category":      "Linen",
		"quantity":      100,
		"unit":          "pieces",
		"reorder_level": 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.Item
	decodeBody(t, resp, &item)

	resp = doRequest(t, server, http.MethodPost, "/api/stock/in", token,
		map[string]any{"item_id": item.ID, "quantity": 50, "notes": "delivery"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var transaction model.Transaction
	decodeBody(t, resp, &transaction)
	assert.Equal(t, model.TransactionIn, transaction.Type)
	assert.Equal(t, "admin", transaction.Username)

	resp = doRequest(t, server, http.MethodPost, "/api/stock/out", token,
		map[string]any{"item_id": item.ID, "quantity": 25})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got model.Item
	decodeBody(t, resp, &got)
	assert.Equal(t, 125.0, got.Quantity)

	resp = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/items/%d/history", item.ID), token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var history []model.Transaction
	decodeBody(t, resp, &history)
	require.Len(t, history, 2)
	assert.Equal(t, model.TransactionOut, history[0].Type)
	assert.Equal(t, model.TransactionIn, history[1].Type)
}

func TestStockOutInsufficient(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/items", token, map[string]any{
		"name":          "Bleach",
		"category":      "Cleaning",
		"quantity":      10,
		"unit":          "bottles",
		"reorder_level": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.Item
	decodeBody(t, resp, &item)

	resp = doRequest(t, server, http.MethodPost, "/api/stock/out", token,
		map[string]any{"item_id": item.ID, "quantity": 50})
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body struct {
		Available float64 `json:"available"`
		Requested float64 `json:"requested"`
	}
	decodeBody(t, resp, &body)
	assert.Equal(t, 10.0, body.Available)
	assert.Equal(t, 50.0, body.Requested)

	// Quantity is untouched after the refused withdrawal.
	resp = doRequest(t, server, http.MethodGet, fmt.Sprintf("/api/items/%d", item.ID), token, nil)
	var got model.Item
	decodeBody(t, resp, &got)
	assert.Equal(t, 10.0, got.Quantity)
}

func TestRoleGates(t *testing.T) {
	server, _ := setupTestServer(t)
	adminToken := login(t, server, "admin", "adminpass")
	clerkToken := createUserAs(t, server, adminToken, "clerk", model.RoleClerk)
	stockToken := createUserAs(t, server, adminToken, "porter", model.RoleStockUser)

	// Catalog writes need clerk or better.
	newItem := map[string]any{
		"name":          "Soap",
		"category":      "Toiletries",
		"quantity":      100,
		"unit":          "pieces",
		"reorder_level": 20,
	}
	resp := doRequest(t, server, http.MethodPost, "/api/items", stockToken, newItem)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPost, "/api/items", clerkToken, newItem)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.Item
	decodeBody(t, resp, &item)

	// Receiving stock is clerk work; consuming is open to everyone.
	resp = doRequest(t, server, http.MethodPost, "/api/stock/in", stockToken,
		map[string]any{"item_id": item.ID, "quantity": 10})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPost, "/api/stock/out", stockToken,
		map[string]any{"item_id": item.ID, "quantity": 10})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// User management is admin only.
	resp = doRequest(t, server, http.MethodGet, "/api/users", clerkToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, "/api/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Reading the catalog is open to all roles.
	resp = doRequest(t, server, http.MethodGet, "/api/items", stockToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func TestReports(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/items", token, map[string]any{
		"name":          "Soap",
		"category":      "Toiletries",
		"quantity":      5,
		"unit":          "pieces",
		"reorder_level": 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var item model.Item
	decodeBody(t, resp, &item)

	resp = doRequest(t, server, http.MethodGet, "/api/reports/summary", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary model.Summary
	decodeBody(t, resp, &summary)
	assert.Equal(t, 1, summary.TotalItems)
	assert.Equal(t, 1, summary.LowStockItems)

	resp = doRequest(t, server, http.MethodGet, "/api/reports/low-stock", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var lowStock []model.Item
	decodeBody(t, resp, &lowStock)
	require.Len(t, lowStock, 1)
	assert.Equal(t, "Soap", lowStock[0].Name)

	resp = doRequest(t, server, http.MethodGet, "/api/reports/top-used", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, "/api/reports/categories", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var stats []model.GroupStats
	decodeBody(t, resp, &stats)
	require.Len(t, stats, 1)
	assert.Equal(t, "Toiletries", stats[0].Name)
}

func TestAlertEndpoints(t *testing.T) {
	server, _ := setupTestServer(t)
	adminToken := login(t, server, "admin", "adminpass")
	clerkToken := createUserAs(t, server, adminToken, "clerk", model.RoleClerk)

	resp := doRequest(t, server, http.MethodPost, "/api/items", adminToken, map[string]any{
		"name":          "Soap",
		"category":      "Toiletries",
		"quantity":      5,
		"unit":          "pieces",
		"reorder_level": 20,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, "/api/alerts", clerkToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var snap alert.Snapshot
	decodeBody(t, resp, &snap)
	assert.Len(t, snap.LowStock, 1)
	assert.Equal(t, 1, snap.Total)

	// Settings: readable by all, writable by admins only.
	resp = doRequest(t, server, http.MethodGet, "/api/alerts/settings", clerkToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var settings store.AlertSettings
	decodeBody(t, resp, &settings)
	assert.Equal(t, 5, settings.ExpiryDays)

	resp = doRequest(t, server, http.MethodPut, "/api/alerts/settings", clerkToken,
		store.AlertSettings{ExpiryDays: 10, SoundEnabled: false})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPut, "/api/alerts/settings", adminToken,
		store.AlertSettings{ExpiryDays: 10, SoundEnabled: false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodGet, "/api/alerts/settings", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &settings)
	assert.Equal(t, 10, settings.ExpiryDays)
}

func TestUserManagement(t *testing.T) {
	server, _ := setupTestServer(t)
	adminToken := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodPost, "/api/users", adminToken,
		map[string]string{"username": "clerk", "password": "password123", "role": model.RoleClerk})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created model.User
	decodeBody(t, resp, &created)
	assert.Equal(t, "clerk", created.Username)

	// Duplicate usernames are refused.
	resp = doRequest(t, server, http.MethodPost, "/api/users", adminToken,
		map[string]string{"username": "clerk", "password": "other456", "role": model.RoleClerk})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = doRequest(t, server, http.MethodPut, fmt.Sprintf("/api/users/%d/password", created.ID), adminToken,
		map[string]string{"password": "reset789"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	login(t, server, "clerk", "reset789")

	resp = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/users/%d", created.ID), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The only admin cannot delete themselves.
	var users []model.User
	resp = doRequest(t, server, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &users)
	require.Len(t, users, 1)

	resp = doRequest(t, server, http.MethodDelete, fmt.Sprintf("/api/users/%d", users[0].ID), adminToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestItemHistoryUnknownItem(t *testing.T) {
	server, _ := setupTestServer(t)
	token := login(t, server, "admin", "adminpass")

	resp := doRequest(t, server, http.MethodGet, "/api/items/999/history", token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
