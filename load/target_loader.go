package load

import (
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// TargetLoader отвечает за загрузку планов продаж
type TargetLoader struct {
	store  warehouse.Store
	logger *utils.ETLLogger
}

// NewTargetLoader создает новый экземпляр TargetLoader
func NewTargetLoader(store warehouse.Store, logger *utils.ETLLogger) *TargetLoader {
	return &TargetLoader{
		store:  store,
		logger: logger,
	}
}

// Load загружает планы продаж одного арендатора с дедупликацией
// по естественному ключу (tenant_id, period)
func (l *TargetLoader) Load(tenantID string, records []models.SalesTargetRecord) (*LoadResult, error) {
	result := &LoadResult{}
	if len(records) == 0 {
		l.logger.Debug("Нет планов продаж для загрузки (арендатор %s)", tenantID)
		return result, nil
	}

	startTime := time.Now()
	l.logger.Debug("Начало загрузки планов продаж (арендатор %s, всего: %d)", tenantID, len(records))

	rows := make([]warehouse.Row, len(records))
	for i := range records {
		rows[i] = targetToRow(&records[i])
	}

	err := l.store.Transaction(func(tx warehouse.Tx) error {
		inserted, skipped, txErr := tx.Append(schema.TableDimSalesTargets, rows)
		if txErr != nil {
			return txErr
		}
		result.Inserted = inserted
		result.SkippedDuplicates = skipped
		return nil
	})
	if err != nil {
		if warehouse.IsConflictErr(err) {
			return nil, &models.StorageConflictError{
				Table:    schema.TableDimSalesTargets,
				TenantID: tenantID,
				Err:      err,
			}
		}
		return nil, fmt.Errorf("ошибка при загрузке планов продаж арендатора %s: %w", tenantID, err)
	}

	l.logger.Info("Загрузка планов продаж завершена (арендатор %s): вставлено %d, пропущено дубликатов %d. Длительность: %v",
		tenantID, result.Inserted, result.SkippedDuplicates, time.Since(startTime))

	return result, nil
}
