package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/monitor"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

var testTenants = []string{"tenant_001", "tenant_002"}

func seedStore(t *testing.T) *warehouse.MemoryStore {
	t.Helper()
	store := warehouse.NewMemoryStore()

	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []warehouse.Row{
		{
			"tenant_id": "tenant_001", "campaign_name": "Summer Sale", "date": date,
			"impressions": 1000, "clicks": 50, "conversions": 5,
			"spend": 200.0, "revenue": 350.0, "ctr": 0.05, "roi": 0.75, "conversion_rate": 0.1,
		},
		{
			"tenant_id": "tenant_001", "campaign_name": "Autumn Promo", "date": date.AddDate(0, 0, 1),
			"impressions": 2000, "clicks": 100, "conversions": 10,
			"spend": 400.0, "revenue": 700.0, "ctr": 0.05, "roi": 0.75, "conversion_rate": 0.1,
		},
		{
			"tenant_id": "tenant_002", "campaign_name": "Summer Sale", "date": date,
			"impressions": 500, "clicks": 10, "conversions": 1,
			"spend": 80.0, "revenue": 40.0, "ctr": 0.02, "roi": -0.5, "conversion_rate": 0.1,
		},
	}
	_, _, err := store.Append(schema.TableFactCampaigns, rows)
	require.NoError(t, err)
	return store
}

func newTestRouter(t *testing.T, store warehouse.Store, repo models.LoadRunRepository) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	SetupRoutes(router, store, repo, monitor.NewHub(), testTenants)
	return router
}

func TestSummaryEndpoint(t *testing.T) {
	router := newTestRouter(t, seedStore(t), models.NewMemoryLoadRunRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response SummaryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Tenants, 2)

	first := response.Tenants[0]
	require.Equal(t, "tenant_001", first.TenantID)
	require.Equal(t, 2, first.Campaigns)
	require.Equal(t, 3000, first.TotalImpressions)
	require.InDelta(t, 1050.0, first.TotalRevenue, 1e-9)
	require.InDelta(t, 0.05, first.AvgCTR, 1e-9)
	require.InDelta(t, 0.75, first.AvgROI, 1e-9)
}

func TestDailyEndpoint(t *testing.T) {
	router := newTestRouter(t, seedStore(t), models.NewMemoryLoadRunRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/tenants/tenant_001/summary/daily", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response DailyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Equal(t, "tenant_001", response.TenantID)
	require.Len(t, response.Days, 2)
	// Дни отсортированы по возрастанию даты
	require.Equal(t, "2026-06-01", response.Days[0].Date)
	require.Equal(t, 1000, response.Days[0].Impressions)
}

func TestDailyEndpointUnknownTenant(t *testing.T) {
	router := newTestRouter(t, seedStore(t), models.NewMemoryLoadRunRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/tenants/tenant_999/summary/daily", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunsEndpoints(t *testing.T) {
	repo := models.NewMemoryLoadRunRepository()

	run := models.NewLoadRun("tenant_001", schema.TableFactCampaigns)
	require.NoError(t, repo.CreateEntry(run))
	run.SealSuccess(100, 5, 0, "")
	require.NoError(t, repo.SealEntry(run))

	router := newTestRouter(t, warehouse.NewMemoryStore(), repo)

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var response RunsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Runs, 1)
	require.Equal(t, models.RunStatusSuccess, response.Runs[0].Status)
	require.Equal(t, 100, response.Runs[0].RecordsProcessed)

	req = httptest.NewRequest(http.MethodGet, "/api/tenants/tenant_001/runs?limit=5", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	response = RunsResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response.Runs, 1)

	// Неверный параметр limit отклоняется
	req = httptest.NewRequest(http.MethodGet, "/api/tenants/tenant_001/runs?limit=abc", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, warehouse.NewMemoryStore(), models.NewMemoryLoadRunRepository())

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
