// routes/report_handlers.go
package routes

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/gorilla/mux"

	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// TenantSummary агрегированные показатели кампаний одного арендатора
type TenantSummary struct {
	TenantID           string  `json:"tenantId"`
	Campaigns          int     `json:"campaigns"`
	TotalImpressions   int     `json:"totalImpressions"`
	TotalClicks        int     `json:"totalClicks"`
	TotalConversions   int     `json:"totalConversions"`
	TotalSpend         float64 `json:"totalSpend"`
	TotalRevenue       float64 `json:"totalRevenue"`
	AvgCTR             float64 `json:"avgCtr"`
	AvgROI             float64 `json:"avgRoi"`
	AvgConversionRate  float64 `json:"avgConversionRate"`
}

// SummaryResponse структура ответа API для сводки по арендаторам
type SummaryResponse struct {
	Tenants []TenantSummary `json:"tenants"`
}

// DailyPerformance показатели кампаний арендатора за один день
type DailyPerformance struct {
	Date        string  `json:"date"`
	Campaigns   int     `json:"campaigns"`
	Impressions int     `json:"impressions"`
	Clicks      int     `json:"clicks"`
	Conversions int     `json:"conversions"`
	Spend       float64 `json:"spend"`
	Revenue     float64 `json:"revenue"`
}

// DailyResponse структура ответа API для ежедневной динамики
type DailyResponse struct {
	TenantID string             `json:"tenantId"`
	Days     []DailyPerformance `json:"days"`
}

// BuildTenantSummary агрегирует fact_campaigns одного арендатора
func BuildTenantSummary(store warehouse.Store, tenantID string) (*TenantSummary, error) {
	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	summary := &TenantSummary{TenantID: tenantID, Campaigns: len(rows)}
	var sumCTR, sumROI, sumConv float64
	for _, row := range rows {
		summary.TotalImpressions += warehouse.AsInt(row["impressions"])
		summary.TotalClicks += warehouse.AsInt(row["clicks"])
		summary.TotalConversions += warehouse.AsInt(row["conversions"])
		summary.TotalSpend += warehouse.AsFloat(row["spend"])
		summary.TotalRevenue += warehouse.AsFloat(row["revenue"])
		sumCTR += warehouse.AsFloat(row["ctr"])
		sumROI += warehouse.AsFloat(row["roi"])
		sumConv += warehouse.AsFloat(row["conversion_rate"])
	}

	if len(rows) > 0 {
		n := float64(len(rows))
		summary.AvgCTR = sumCTR / n
		summary.AvgROI = sumROI / n
		summary.AvgConversionRate = sumConv / n
	}

	return summary, nil
}

// BuildCampaignSummary собирает сводку по всем известным арендаторам
func BuildCampaignSummary(store warehouse.Store, tenants []string) (*SummaryResponse, error) {
	response := &SummaryResponse{Tenants: make([]TenantSummary, 0, len(tenants))}
	for _, tenantID := range tenants {
		summary, err := BuildTenantSummary(store, tenantID)
		if err != nil {
			return nil, err
		}
		response.Tenants = append(response.Tenants, *summary)
	}
	return response, nil
}

// BuildDailyPerformance собирает ежедневную динамику кампаний арендатора
func BuildDailyPerformance(store warehouse.Store, tenantID string) (*DailyResponse, error) {
	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: tenantID})
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*DailyPerformance)
	for _, row := range rows {
		date := warehouse.AsTime(row["date"]).Format(schema.DateLayout)
		day, ok := byDate[date]
		if !ok {
			day = &DailyPerformance{Date: date}
			byDate[date] = day
		}
		day.Campaigns++
		day.Impressions += warehouse.AsInt(row["impressions"])
		day.Clicks += warehouse.AsInt(row["clicks"])
		day.Conversions += warehouse.AsInt(row["conversions"])
		day.Spend += warehouse.AsFloat(row["spend"])
		day.Revenue += warehouse.AsFloat(row["revenue"])
	}

	response := &DailyResponse{TenantID: tenantID, Days: make([]DailyPerformance, 0, len(byDate))}
	for _, day := range byDate {
		response.Days = append(response.Days, *day)
	}
	sort.Slice(response.Days, func(i, j int) bool {
		return response.Days[i].Date < response.Days[j].Date
	})

	return response, nil
}

// GetSummaryHandler обрабатывает запросы на получение сводки по арендаторам
func GetSummaryHandler(store warehouse.Store, tenants []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, err := BuildCampaignSummary(store, tenants)
		if err != nil {
			http.Error(w, "Ошибка при получении сводки", http.StatusInternalServerError)
			return
		}
		writeJSON(w, response)
	}
}

// GetDailyHandler обрабатывает запросы на получение ежедневной динамики
func GetDailyHandler(store warehouse.Store, tenants []string) http.HandlerFunc {
	known := make(map[string]bool, len(tenants))
	for _, t := range tenants {
		known[t] = true
	}

	return func(w http.ResponseWriter, r *http.Request) {
		tenantID := mux.Vars(r)["tenantId"]
		if !known[tenantID] {
			http.Error(w, "Неизвестный арендатор", http.StatusNotFound)
			return
		}

		response, err := BuildDailyPerformance(store, tenantID)
		if err != nil {
			http.Error(w, "Ошибка при получении динамики", http.StatusInternalServerError)
			return
		}
		writeJSON(w, response)
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Ошибка при формировании ответа", http.StatusInternalServerError)
	}
}
