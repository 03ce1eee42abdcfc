package load

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

func newTestManager(t *testing.T) (*LoadManager, *warehouse.MemoryStore) {
	t.Helper()
	store := warehouse.NewMemoryStore()
	return NewLoadManager(store, utils.NewETLLogger(false)), store
}

func testCampaigns(tenantID string, n int) []models.CampaignRecord {
	records := make([]models.CampaignRecord, n)
	for i := range records {
		records[i] = models.CampaignRecord{
			TenantID:     tenantID,
			CampaignID:   fmt.Sprintf("cmp-%d", i),
			CampaignName: fmt.Sprintf("Campaign %d", i),
			Date:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i%28),
			Impressions:  1000,
			Clicks:       50,
			Conversions:  5,
			Spend:        200,
			Revenue:      350,
			CTR:          0.05,
			ROI:          0.75,
		}
	}
	return records
}

func TestCampaignLoadIsIdempotent(t *testing.T) {
	manager, store := newTestManager(t)
	records := testCampaigns("tenant_001", 10)

	result, err := manager.LoadCampaigns("tenant_001", records)
	require.NoError(t, err)
	require.Equal(t, 10, result.Inserted)
	require.Zero(t, result.SkippedDuplicates)

	// Повторная загрузка того же пакета ничего не меняет
	result, err = manager.LoadCampaigns("tenant_001", records)
	require.NoError(t, err)
	require.Zero(t, result.Inserted)
	require.Equal(t, 10, result.SkippedDuplicates)

	rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: "tenant_001"})
	require.NoError(t, err)
	require.Len(t, rows, 10)
}

func TestTargetLoadIsIdempotent(t *testing.T) {
	manager, _ := newTestManager(t)
	records := []models.SalesTargetRecord{
		{TenantID: "tenant_001", Period: "2026-06", TargetAmount: 10000, ActualAmount: 12000, Variance: 2000},
		{TenantID: "tenant_001", Period: "2026-07", TargetAmount: 10000, ActualAmount: 9000, Variance: -1000},
	}

	result, err := manager.LoadTargets("tenant_001", records)
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)

	result, err = manager.LoadTargets("tenant_001", records)
	require.NoError(t, err)
	require.Zero(t, result.Inserted)
	require.Equal(t, 2, result.SkippedDuplicates)
}

func TestCustomerSCDLifecycle(t *testing.T) {
	manager, store := newTestManager(t)

	// Первая загрузка: обе сущности новые
	first := []models.CustomerRecord{
		{TenantID: "tenant_001", CustomerID: "c-1", Name: "Acme LLC", Category: "premium", SCDStatus: models.SCDNew},
		{TenantID: "tenant_001", CustomerID: "c-2", Name: "Globex", Category: "basic", SCDStatus: models.SCDNew},
	}
	result, err := manager.LoadCustomers("tenant_001", first)
	require.NoError(t, err)
	require.Equal(t, 2, result.Inserted)
	require.Zero(t, result.VersionsClosed)

	snapshot, err := manager.CustomerSnapshot("tenant_001")
	require.NoError(t, err)
	require.Len(t, snapshot, 2)
	require.Equal(t, "Acme LLC", snapshot[models.CustomerKey{TenantID: "tenant_001", CustomerID: "c-1"}].Name)

	// Вторая загрузка: c-1 меняет категорию, c-2 без изменений
	second := []models.CustomerRecord{
		{TenantID: "tenant_001", CustomerID: "c-1", Name: "Acme LLC", Category: "enterprise", SCDStatus: models.SCDChanged},
		{TenantID: "tenant_001", CustomerID: "c-2", Name: "Globex", Category: "basic", SCDStatus: models.SCDUnchanged},
	}
	result, err = manager.LoadCustomers("tenant_001", second)
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 1, result.VersionsClosed)
	require.Equal(t, 1, result.UnchangedSkipped)

	// История: две версии c-1, из них текущая ровно одна
	all, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: "tenant_001",
		Where:    map[string]interface{}{"customer_id": "c-1"},
	})
	require.NoError(t, err)
	require.Len(t, all, 2)

	current, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: "tenant_001",
		Where:    map[string]interface{}{"customer_id": "c-1", "is_current": true},
	})
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, "enterprise", warehouse.AsString(current[0]["category"]))

	// Закрытая версия получила valid_to
	for _, row := range all {
		if !warehouse.AsBool(row["is_current"]) {
			require.False(t, warehouse.AsTime(row["valid_to"]).IsZero())
		}
	}
}

func TestStaleSnapshotDoesNotDuplicateVersions(t *testing.T) {
	manager, store := newTestManager(t)

	// Два перекрывающихся запуска прочитали пустой снимок до начала загрузки
	// и оба пометили одну и ту же запись как новую. Загрузчик пересверяет
	// статус с текущими версиями внутри транзакции, поэтому вторая загрузка
	// не вставляет дубликат версии с теми же атрибутами.
	record := models.CustomerRecord{
		TenantID: "tenant_001", CustomerID: "c-1",
		Name: "Acme LLC", Category: "premium", SCDStatus: models.SCDNew,
	}

	result, err := manager.LoadCustomers("tenant_001", []models.CustomerRecord{record})
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)

	result, err = manager.LoadCustomers("tenant_001", []models.CustomerRecord{record})
	require.NoError(t, err)
	require.Zero(t, result.Inserted)
	require.Equal(t, 1, result.UnchangedSkipped)

	rows, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: "tenant_001",
		Where:    map[string]interface{}{"customer_id": "c-1"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestStaleStatusWithChangedAttributesVersionsEntity(t *testing.T) {
	manager, store := newTestManager(t)

	first := models.CustomerRecord{
		TenantID: "tenant_001", CustomerID: "c-1",
		Name: "Acme LLC", Category: "premium", SCDStatus: models.SCDNew,
	}
	_, err := manager.LoadCustomers("tenant_001", []models.CustomerRecord{first})
	require.NoError(t, err)

	// Запуск со старым снимком считает сущность новой, хотя атрибуты
	// уже отличаются от текущей версии: внутри транзакции статус
	// превращается в changed и история ведется корректно
	stale := first
	stale.Category = "enterprise"
	result, err := manager.LoadCustomers("tenant_001", []models.CustomerRecord{stale})
	require.NoError(t, err)
	require.Equal(t, 1, result.Inserted)
	require.Equal(t, 1, result.VersionsClosed)

	current, err := store.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: "tenant_001",
		Where:    map[string]interface{}{"customer_id": "c-1", "is_current": true},
	})
	require.NoError(t, err)
	require.Len(t, current, 1)
	require.Equal(t, "enterprise", warehouse.AsString(current[0]["category"]))
}

func TestCustomerLoadRejectsUndiffedRecord(t *testing.T) {
	manager, _ := newTestManager(t)

	records := []models.CustomerRecord{
		{TenantID: "tenant_001", CustomerID: "c-1", Name: "Acme LLC"},
	}
	_, err := manager.LoadCustomers("tenant_001", records)
	require.Error(t, err)
}

func TestConcurrentTenantLoadsAreIsolated(t *testing.T) {
	manager, store := newTestManager(t)
	tenants := []string{"tenant_001", "tenant_002", "tenant_003"}

	var wg sync.WaitGroup
	errs := make(chan error, len(tenants)*3)
	for _, tenantID := range tenants {
		wg.Add(1)
		go func(tenantID string) {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				if _, err := manager.LoadCampaigns(tenantID, testCampaigns(tenantID, 20)); err != nil {
					errs <- err
				}
			}
		}(tenantID)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Повторные загрузки отфильтрованы, у каждого арендатора ровно свои строки
	for _, tenantID := range tenants {
		rows, err := store.ReadTable(schema.TableFactCampaigns, warehouse.Filter{TenantID: tenantID})
		require.NoError(t, err)
		require.Len(t, rows, 20)
		for _, row := range rows {
			require.Equal(t, tenantID, warehouse.AsString(row["tenant_id"]))
		}
	}
}

func TestTableForKind(t *testing.T) {
	require.Equal(t, schema.TableFactCampaigns, TableForKind(models.DatasetCampaigns))
	require.Equal(t, schema.TableDimSalesTargets, TableForKind(models.DatasetSalesTargets))
	require.Equal(t, schema.TableDimCustomers, TableForKind(models.DatasetCustomers))
}
