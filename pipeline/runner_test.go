package pipeline

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_bi/config"
	"github.com/LilVoxy/coursework_bi/extractors"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

var campaignColumns = []string{
	"tenant_id", "campaign_id", "campaign_name", "date",
	"impressions", "clicks", "conversions", "spend", "revenue",
	"region", "product",
}

func testConfig(t *testing.T) config.ETLConfig {
	t.Helper()
	cfg := config.DefaultETLConfig
	cfg.IngestionWindowFrom = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg.IngestionWindowTo = time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	cfg.ArchiveDir = t.TempDir()
	cfg.EnableDetailedLogging = false
	return cfg
}

func newTestRunner(t *testing.T, cfg config.ETLConfig) (*Runner, *warehouse.MemoryStore, *models.MemoryLoadRunRepository) {
	t.Helper()
	store := warehouse.NewMemoryStore()
	runRepo := models.NewMemoryLoadRunRepository()
	runner, err := NewRunner(cfg, utils.NewETLLogger(false), store, runRepo)
	require.NoError(t, err)
	return runner, store, runRepo
}

func campaignRawRow(tenantID string, i int) extractors.RawRow {
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%120)
	return extractors.RawRow{
		"tenant_id":     tenantID,
		"campaign_id":   fmt.Sprintf("cmp-%s-%d", tenantID, i),
		"campaign_name": fmt.Sprintf("Campaign %d", i),
		"date":          date.Format(schema.DateLayout),
		"impressions":   "1000",
		"clicks":        "50",
		"conversions":   "5",
		"spend":         "200.00",
		"revenue":       "350.00",
		"region":        "EU",
		"product":       "subscription",
	}
}

func campaignSource(tenantID string, n int) *extractors.MemorySource {
	rows := make([]extractors.RawRow, n)
	for i := range rows {
		rows[i] = campaignRawRow(tenantID, i)
	}
	return &extractors.MemorySource{
		SourceKind: models.SourceCSV,
		Columns:    campaignColumns,
		Rows:       rows,
	}
}

func customerSource(rows []extractors.RawRow) *extractors.MemorySource {
	return &extractors.MemorySource{
		SourceKind: models.SourceAPI,
		Columns:    []string{"tenant_id", "customer_id", "name", "category", "email", "region"},
		Rows:       rows,
	}
}

func TestExecuteEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	runner, store, runRepo := newTestRunner(t, cfg)

	summary, err := runner.Execute(Sources{Campaigns: campaignSource("tenant_001", 100)})
	require.NoError(t, err)
	require.False(t, summary.Failed())
	require.Equal(t, int64(100), summary.RecordsProcessed)
	require.Zero(t, summary.RowsRejected)

	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, rows, 100)

	// Производные метрики рассчитаны до загрузки
	var totalRevenue float64
	for _, row := range rows {
		require.InDelta(t, 0.05, warehouse.AsFloat(row["ctr"]), 1e-9)
		require.InDelta(t, 0.75, warehouse.AsFloat(row["roi"]), 1e-9)
		totalRevenue += warehouse.AsFloat(row["revenue"])
	}
	require.InDelta(t, 35000.0, totalRevenue, 1e-6)

	// Запись журнала загрузок зафиксирована успешной
	runs, err := runRepo.GetRunsByTenant("tenant_001", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, models.RunStatusSuccess, runs[0].Status)
	require.Equal(t, 100, runs[0].RecordsProcessed)
}

func TestValidationFailureIsolatesTenant(t *testing.T) {
	cfg := testConfig(t)
	runner, store, runRepo := newTestRunner(t, cfg)

	// У tenant_002 кликов больше, чем показов: CTR > 1, весь пакет отклоняется
	bad := campaignRawRow("tenant_002", 0)
	bad["impressions"] = "10"
	bad["clicks"] = "50"

	src := campaignSource("tenant_001", 20)
	src.Rows = append(src.Rows, bad, campaignRawRow("tenant_002", 1))

	summary, err := runner.Execute(Sources{Campaigns: src})
	require.NoError(t, err)
	require.True(t, summary.Failed())
	require.Equal(t, []string{"tenant_002"}, summary.FailedTenants)

	// Для отклоненного арендатора не загружено ни одной строки
	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_002"})
	require.NoError(t, err)
	require.Empty(t, rows)

	// Остальные арендаторы не затронуты
	rows, err = store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, rows, 20)

	runs, err := runRepo.GetRunsByTenant("tenant_002", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, models.RunStatusFailed, runs[0].Status)
	require.NotEmpty(t, runs[0].ErrorDetail)
}

func TestRerunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	runner, store, _ := newTestRunner(t, cfg)

	sources := Sources{Campaigns: campaignSource("tenant_001", 30)}

	first, err := runner.Execute(sources)
	require.NoError(t, err)
	require.Equal(t, int64(30), first.RecordsProcessed)

	// Повторный запуск того же окна ничего не добавляет
	second, err := runner.Execute(sources)
	require.NoError(t, err)
	require.False(t, second.Failed())
	require.Zero(t, second.RecordsProcessed)
	require.Equal(t, int64(30), second.DuplicatesSkipped)

	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, rows, 30)
}

func TestSchemaMismatchStopsOnlyThatDataset(t *testing.T) {
	cfg := testConfig(t)
	runner, store, _ := newTestRunner(t, cfg)

	// Источник кампаний без колонки clicks
	broken := campaignSource("tenant_001", 5)
	broken.Columns = []string{
		"tenant_id", "campaign_id", "campaign_name", "date",
		"impressions", "conversions", "spend", "revenue", "region", "product",
	}

	targets := &extractors.MemorySource{
		SourceKind: models.SourceSpreadsheet,
		Columns:    []string{"tenant_id", "period", "target_amount", "actual_amount"},
		Rows: []extractors.RawRow{
			{"tenant_id": "tenant_001", "period": "2026-06", "target_amount": "10000", "actual_amount": "12000"},
		},
	}

	summary, err := runner.Execute(Sources{Campaigns: broken, Targets: targets})
	require.NoError(t, err)
	require.Contains(t, summary.DatasetErrors, models.DatasetCampaigns)

	// Набор планов продаж загружен несмотря на остановку кампаний
	rows, err := store.ReadTable(schema.TableDimSalesTargets, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestRejectedRowsArchived(t *testing.T) {
	cfg := testConfig(t)
	runner, _, _ := newTestRunner(t, cfg)

	orphan := campaignRawRow("", 99)
	src := campaignSource("tenant_001", 3)
	src.Rows = append(src.Rows, orphan)

	summary, err := runner.Execute(Sources{Campaigns: src})
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.RowsRejected)
	require.Equal(t, int64(3), summary.RecordsProcessed)

	// Отброшенная строка заархивирована для разбора
	entries, err := os.ReadDir(cfg.ArchiveDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCustomerVersioningAcrossRuns(t *testing.T) {
	cfg := testConfig(t)
	runner, store, _ := newTestRunner(t, cfg)

	row := extractors.RawRow{
		"tenant_id":   "tenant_001",
		"customer_id": "c-1",
		"name":        "Acme LLC",
		"category":    "premium",
		"email":       "ops@acme.example",
		"region":      "EU",
	}

	summary, err := runner.Execute(Sources{Customers: customerSource([]extractors.RawRow{row})})
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.RecordsProcessed)

	// Тот же клиент без изменений: новая версия не создается
	summary, err = runner.Execute(Sources{Customers: customerSource([]extractors.RawRow{row})})
	require.NoError(t, err)
	require.Zero(t, summary.RecordsProcessed)
	require.Equal(t, int64(1), summary.UnchangedSkipped)

	// Изменение категории создает новую версию и закрывает старую
	changed := extractors.RawRow{}
	for k, v := range row {
		changed[k] = v
	}
	changed["category"] = "enterprise"

	summary, err = runner.Execute(Sources{Customers: customerSource([]extractors.RawRow{changed})})
	require.NoError(t, err)
	require.Equal(t, int64(1), summary.RecordsProcessed)

	all, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, all, 2)

	current, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: "tenant_001",
		Where:    map[string]interface{}{"is_current": true},
	})
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, "enterprise", warehouse.AsString(current[0]["category"]))
}

func TestEmptyNumericFactRejectsBatch(t *testing.T) {
	cfg := testConfig(t)
	runner, store, runRepo := newTestRunner(t, cfg)

	// Пустые spend и impressions: парсер приводит их к нулю, но пакет
	// должен быть отклонен валидатором, а не загружен с нулевыми фактами
	hollow := campaignRawRow("tenant_001", 0)
	hollow["spend"] = ""
	hollow["impressions"] = ""

	src := &extractors.MemorySource{
		SourceKind: models.SourceCSV,
		Columns:    campaignColumns,
		Rows:       []extractors.RawRow{hollow},
	}

	summary, err := runner.Execute(Sources{Campaigns: src})
	require.NoError(t, err)
	require.True(t, summary.Failed())
	require.Equal(t, []string{"tenant_001"}, summary.FailedTenants)

	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Empty(t, rows)

	runs, err := runRepo.GetRunsByTenant("tenant_001", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, models.RunStatusFailed, runs[0].Status)
}

// gatedStore задерживает транзакции до открытия канала gate
type gatedStore struct {
	*warehouse.MemoryStore
	gate chan struct{}
}

func (s *gatedStore) Transaction(fn func(tx warehouse.Tx) error) error {
	<-s.gate
	return s.MemoryStore.Transaction(fn)
}

func TestTimeoutSealsLateRunsAsFailed(t *testing.T) {
	cfg := testConfig(t)
	cfg.RunTimeout = 50 * time.Millisecond

	store := &gatedStore{MemoryStore: warehouse.NewMemoryStore(), gate: make(chan struct{})}
	runRepo := models.NewMemoryLoadRunRepository()
	runner, err := NewRunner(cfg, utils.NewETLLogger(false), store, runRepo)
	require.NoError(t, err)

	summary, err := runner.Execute(Sources{Campaigns: campaignSource("tenant_001", 5)})
	require.NoError(t, err)
	require.True(t, summary.TimedOut)
	require.True(t, summary.Failed())

	// Загрузка завершается уже после истечения таймаута: запись журнала
	// не должна быть зафиксирована успешной
	close(store.gate)
	require.Eventually(t, func() bool {
		runs, err := runRepo.GetRunsByTenant("tenant_001", 10)
		return err == nil && len(runs) == 1 && runs[0].Status == models.RunStatusFailed
	}, time.Second, 10*time.Millisecond)

	runs, err := runRepo.GetRunsByTenant("tenant_001", 10)
	require.NoError(t, err)
	require.Contains(t, runs[0].ErrorDetail, "таймаут")
}
