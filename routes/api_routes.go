// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/coursework_bi/metrics"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/monitor"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// corsMiddleware разрешает кросс-доменные запросы к API отчетов
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// SetupRoutes настраивает все маршруты API и WebSocket
func SetupRoutes(
	router *mux.Router,
	store warehouse.Store,
	runRepo models.LoadRunRepository,
	hub *monitor.Hub,
	tenants []string,
) {
	// Применяем CORS middleware
	router.Use(corsMiddleware)

	// WebSocket мониторинг запусков
	router.HandleFunc("/ws/monitor", hub.HandleConnections)

	// Метрики Prometheus
	router.Handle("/metrics", metrics.Handler())

	// Проверка доступности
	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	}).Methods("GET", "OPTIONS")

	// API журнала загрузок
	router.HandleFunc("/api/runs", GetRecentRunsHandler(runRepo)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/tenants/{tenantId}/runs", GetTenantRunsHandler(runRepo)).Methods("GET", "OPTIONS")

	// API отчетов по кампаниям
	router.HandleFunc("/api/summary", GetSummaryHandler(store, tenants)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/tenants/{tenantId}/summary/daily", GetDailyHandler(store, tenants)).Methods("GET", "OPTIONS")
}
