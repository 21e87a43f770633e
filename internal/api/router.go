package api

import (
	"database/sql"
	"net/http"

	"github.com/madit/hotelstock/internal/alert"
	"github.com/madit/hotelstock/internal/model"
	"github.com/madit/hotelstock/internal/store"
)

// NewRouter creates the API router with all endpoints registered.
//
// Role model, mirroring the operation's staffing: Stock Users may read
// everything and record OUT movements; Clerks additionally manage the
// catalog and record IN movements; Admins additionally manage users and
// alert settings.
func NewRouter(db *sql.DB, jwtSecret string, evaluator *alert.Evaluator, alertDefaults store.AlertSettings) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	itemsHandler := &ItemsHandler{DB: db}
	stockHandler := &StockHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}
	alertsHandler := &AlertsHandler{DB: db, Evaluator: evaluator, Defaults: alertDefaults}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireClerk := RequireRole(model.RoleClerk)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Session management.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}/password", authMW(requireAdmin(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Catalog: read (all roles), write (clerk+).
	mux.Handle("GET /api/items", authMW(http.HandlerFunc(itemsHandler.List)))
	mux.Handle("POST /api/items", authMW(requireClerk(http.HandlerFunc(itemsHandler.Create))))
	mux.Handle("GET /api/items/categories", authMW(http.HandlerFunc(itemsHandler.Categories)))
	mux.Handle("GET /api/items/suppliers", authMW(http.HandlerFunc(itemsHandler.Suppliers)))
	mux.Handle("GET /api/items/{id}", authMW(http.HandlerFunc(itemsHandler.Get)))
	mux.Handle("PUT /api/items/{id}", authMW(requireClerk(http.HandlerFunc(itemsHandler.Update))))
	mux.Handle("DELETE /api/items/{id}", authMW(requireClerk(http.HandlerFunc(itemsHandler.Delete))))
	mux.Handle("GET /api/items/{id}/history", authMW(http.HandlerFunc(itemsHandler.History)))

	// Ledger: receiving stock is clerk work, consuming is open to all roles.
	mux.Handle("POST /api/stock/in", authMW(requireClerk(http.HandlerFunc(stockHandler.In))))
	mux.Handle("POST /api/stock/out", authMW(http.HandlerFunc(stockHandler.Out)))

	// Reports (read-only, all roles).
	mux.Handle("GET /api/reports/summary", authMW(http.HandlerFunc(reportsHandler.Summary)))
	mux.Handle("GET /api/reports/usage", authMW(http.HandlerFunc(reportsHandler.Usage)))
	mux.Handle("GET /api/reports/top-used", authMW(http.HandlerFunc(reportsHandler.TopUsed)))
	mux.Handle("GET /api/reports/movements", authMW(http.HandlerFunc(reportsHandler.Movements)))
	mux.Handle("GET /api/reports/categories", authMW(http.HandlerFunc(reportsHandler.Categories)))
	mux.Handle("GET /api/reports/suppliers", authMW(http.HandlerFunc(reportsHandler.Suppliers)))
	mux.Handle("GET /api/reports/low-stock", authMW(http.HandlerFunc(reportsHandler.LowStock)))
	mux.Handle("GET /api/reports/expiring", authMW(http.HandlerFunc(reportsHandler.Expiring)))

	// Alerts.
	mux.Handle("GET /api/alerts", authMW(http.HandlerFunc(alertsHandler.Snapshot)))
	mux.Handle("GET /api/alerts/settings", authMW(http.HandlerFunc(alertsHandler.GetSettings)))
	mux.Handle("PUT /api/alerts/settings", authMW(requireAdmin(http.HandlerFunc(alertsHandler.UpdateSettings))))

	return mux
}
