package load

import (
	"fmt"
	"sync"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// LoadManager управляет загрузкой пакетов в хранилище.
// Конкурентные загрузки одной пары (арендатор, таблица) сериализуются
// эксклюзивной блокировкой; загрузки разных арендаторов независимы.
type LoadManager struct {
	store  warehouse.Store
	logger *utils.ETLLogger

	campaignLoader *CampaignLoader
	targetLoader   *TargetLoader
	customerLoader *CustomerLoader

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(store warehouse.Store, logger *utils.ETLLogger) *LoadManager {
	return &LoadManager{
		store:          store,
		logger:         logger,
		campaignLoader: NewCampaignLoader(store, logger),
		targetLoader:   NewTargetLoader(store, logger),
		customerLoader: NewCustomerLoader(store, logger),
		locks:          make(map[string]*sync.Mutex),
	}
}

// tableLock возвращает блокировку пары (арендатор, таблица)
func (m *LoadManager) tableLock(tenantID, table string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tenantID + "|" + table
	lock, ok := m.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[key] = lock
	}
	return lock
}

// LoadCampaigns загружает факты кампаний под блокировкой (арендатор, таблица)
func (m *LoadManager) LoadCampaigns(tenantID string, records []models.CampaignRecord) (*LoadResult, error) {
	lock := m.tableLock(tenantID, TableForKind(models.DatasetCampaigns))
	lock.Lock()
	defer lock.Unlock()

	return m.campaignLoader.Load(tenantID, records)
}

// LoadTargets загружает планы продаж под блокировкой (арендатор, таблица)
func (m *LoadManager) LoadTargets(tenantID string, records []models.SalesTargetRecord) (*LoadResult, error) {
	lock := m.tableLock(tenantID, TableForKind(models.DatasetSalesTargets))
	lock.Lock()
	defer lock.Unlock()

	return m.targetLoader.Load(tenantID, records)
}

// LoadCustomers применяет правило SCD под блокировкой (арендатор, таблица)
func (m *LoadManager) LoadCustomers(tenantID string, records []models.CustomerRecord) (*LoadResult, error) {
	lock := m.tableLock(tenantID, TableForKind(models.DatasetCustomers))
	lock.Lock()
	defer lock.Unlock()

	return m.customerLoader.Load(tenantID, records)
}

// CustomerSnapshot читает текущие версии клиентов арендатора
func (m *LoadManager) CustomerSnapshot(tenantID string) (models.CustomerSnapshot, error) {
	return m.customerLoader.Snapshot(tenantID)
}

// LoadBatch загружает преобразованный пакет в таблицу его набора данных
func (m *LoadManager) LoadBatch(tenantID string, batch *models.Batch) (*LoadResult, error) {
	switch batch.Kind {
	case models.DatasetCampaigns:
		return m.LoadCampaigns(tenantID, batch.Campaigns)
	case models.DatasetSalesTargets:
		return m.LoadTargets(tenantID, batch.Targets)
	case models.DatasetCustomers:
		return m.LoadCustomers(tenantID, batch.Customers)
	}
	return nil, fmt.Errorf("неизвестный набор данных: %s", batch.Kind)
}

var _ Loader = (*LoadManager)(nil)
