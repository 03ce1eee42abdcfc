// routes/run_handlers.go
package routes

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/coursework_bi/models"
)

// RunsResponse структура ответа API для журнала загрузок
type RunsResponse struct {
	Runs []models.LoadRun `json:"runs"`
}

// GetRecentRunsHandler обрабатывает запросы на получение последних запусков
func GetRecentRunsHandler(repo models.LoadRunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if daysStr := r.URL.Query().Get("days"); daysStr != "" {
			parsed, err := strconv.Atoi(daysStr)
			if err != nil || parsed <= 0 {
				http.Error(w, "Неверный формат параметра days", http.StatusBadRequest)
				return
			}
			days = parsed
		}

		runs, err := repo.GetRecentRuns(days)
		if err != nil {
			http.Error(w, "Ошибка при получении журнала загрузок", http.StatusInternalServerError)
			return
		}
		writeJSON(w, &RunsResponse{Runs: runs})
	}
}

// GetTenantRunsHandler обрабатывает запросы на журнал загрузок арендатора
func GetTenantRunsHandler(repo models.LoadRunRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenantId"]

		limit := 20
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			parsed, err := strconv.Atoi(limitStr)
			if err != nil || parsed <= 0 {
				http.Error(w, "Неверный формат параметра limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		runs, err := repo.GetRunsByTenant(tenantID, limit)
		if err != nil {
			http.Error(w, "Ошибка при получении журнала загрузок", http.StatusInternalServerError)
			return
		}
		writeJSON(w, &RunsResponse{Runs: runs})
	}
}
