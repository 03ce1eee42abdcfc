package load

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// CustomerLoader отвечает за ведение измерения клиентов по правилу SCD Type 2
type CustomerLoader struct {
	store  warehouse.Store
	logger *utils.ETLLogger
}

// NewCustomerLoader создает новый экземпляр CustomerLoader
func NewCustomerLoader(store warehouse.Store, logger *utils.ETLLogger) *CustomerLoader {
	return &CustomerLoader{
		store:  store,
		logger: logger,
	}
}

// Snapshot читает текущие версии клиентов арендатора из хранилища.
// Снимок используется трансформатором для сравнения атрибутов.
func (l *CustomerLoader) Snapshot(tenantID string) (models.CustomerSnapshot, error) {
	snapshot, err := currentVersions(l.store, tenantID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении снимка клиентов арендатора %s: %w", tenantID, err)
	}
	return snapshot, nil
}

// currentVersions собирает текущие версии клиентов арендатора из источника
// чтения: самого хранилища либо открытой транзакции
func currentVersions(src warehouse.Tx, tenantID string) (models.CustomerSnapshot, error) {
	rows, err := src.ReadTable(schema.TableDimCustomers, warehouse.Filter{
		TenantID: tenantID,
		Where:    map[string]interface{}{"is_current": true},
	})
	if err != nil {
		return nil, err
	}

	snapshot := make(models.CustomerSnapshot, len(rows))
	for _, row := range rows {
		record := rowToCustomer(row)
		key := models.CustomerKey{TenantID: record.TenantID, CustomerID: record.CustomerID}
		snapshot[key] = record
	}

	return snapshot, nil
}

// Load применяет правило SCD Type 2 к записям клиентов одного арендатора.
// Для каждой записи new/changed текущая версия закрывается и вставляется
// новая открытая версия одним атомарным шагом; записи unchanged
// пропускаются. Весь пакет фиксируется одной транзакцией.
func (l *CustomerLoader) Load(tenantID string, records []models.CustomerRecord) (*LoadResult, error) {
	result := &LoadResult{}
	if len(records) == 0 {
		l.logger.Debug("Нет записей клиентов для загрузки (арендатор %s)", tenantID)
		return result, nil
	}

	startTime := time.Now()
	runTime := runTimestamp()
	l.logger.Debug("Начало загрузки измерения клиентов (арендатор %s, всего: %d)", tenantID, len(records))

	err := l.store.Transaction(func(tx warehouse.Tx) error {
		// Снимок, по которому трансформатор сравнивал атрибуты, мог устареть
		// к моменту получения блокировки таблицы. Статусы пересверяются
		// с текущими версиями внутри транзакции, иначе параллельный запуск
		// вставил бы вторую версию с теми же атрибутами.
		current, err := currentVersions(tx, tenantID)
		if err != nil {
			return err
		}

		for i := range records {
			record := records[i]

			if record.SCDStatus == "" {
				return fmt.Errorf("запись клиента %s/%s не прошла сравнение SCD", record.TenantID, record.CustomerID)
			}

			key := models.CustomerKey{TenantID: record.TenantID, CustomerID: record.CustomerID}
			existing, exists := current[key]
			switch {
			case !exists:
				record.SCDStatus = models.SCDNew
			case record.AttributesEqual(&existing):
				record.SCDStatus = models.SCDUnchanged
			default:
				record.SCDStatus = models.SCDChanged
			}

			switch record.SCDStatus {
			case models.SCDUnchanged:
				result.UnchangedSkipped++
				continue
			case models.SCDChanged:
				result.VersionsClosed++
			case models.SCDNew:
				// Первая версия сущности: закрывать нечего
			}

			record.VersionID = uuid.NewString()
			record.ValidFrom = runTime
			record.ValidTo = time.Time{}
			record.IsCurrent = true

			scdKey := warehouse.SCDKey{TenantID: record.TenantID, EntityID: record.CustomerID}
			if err := tx.UpsertSCD(schema.TableDimCustomers, scdKey, customerToRow(&record)); err != nil {
				return err
			}
			result.Inserted++
		}
		return nil
	})
	if err != nil {
		if warehouse.IsConflictErr(err) {
			return nil, &models.StorageConflictError{
				Table:    schema.TableDimCustomers,
				TenantID: tenantID,
				Err:      err,
			}
		}
		return nil, fmt.Errorf("ошибка при загрузке измерения клиентов арендатора %s: %w", tenantID, err)
	}

	l.logger.Info("Загрузка измерения клиентов завершена (арендатор %s): новых версий %d, закрыто %d, без изменений %d. Длительность: %v",
		tenantID, result.Inserted, result.VersionsClosed, result.UnchangedSkipped, time.Since(startTime))

	return result, nil
}
