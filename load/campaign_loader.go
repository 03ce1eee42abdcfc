package load

import (
	"fmt"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// CampaignLoader отвечает за загрузку фактов рекламных кампаний
type CampaignLoader struct {
	store  warehouse.Store
	logger *utils.ETLLogger
}

// NewCampaignLoader создает новый экземпляр CampaignLoader
func NewCampaignLoader(store warehouse.Store, logger *utils.ETLLogger) *CampaignLoader {
	return &CampaignLoader{
		store:  store,
		logger: logger,
	}
}

// Load загружает факты кампаний одного арендатора.
// Загрузка идемпотентна: строки с существующим естественным ключом
// (tenant_id, campaign_name, date) пропускаются, не перезаписываются.
// Весь пакет фиксируется одной транзакцией.
func (l *CampaignLoader) Load(tenantID string, records []models.CampaignRecord) (*LoadResult, error) {
	result := &LoadResult{}
	if len(records) == 0 {
		l.logger.Debug("Нет фактов кампаний для загрузки (арендатор %s)", tenantID)
		return result, nil
	}

	startTime := time.Now()
	l.logger.Debug("Начало загрузки фактов кампаний (арендатор %s, всего: %d)", tenantID, len(records))

	rows := make([]warehouse.Row, len(records))
	for i := range records {
		rows[i] = campaignToRow(&records[i])
	}

	err := l.store.Transaction(func(tx warehouse.Tx) error {
		inserted, skipped, txErr := tx.Append(schema.TableFactCampaigns, rows)
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
				Table:    schema.TableFactCampaigns,
				TenantID: tenantID,
				Err:      err,
			}
		}
		return nil, fmt.Errorf("ошибка при загрузке фактов кампаний арендатора %s: %w", tenantID, err)
	}

	l.logger.Info("Загрузка фактов кампаний завершена (арендатор %s): вставлено %d, пропущено дубликатов %d. Длительность: %v",
		tenantID, result.Inserted, result.SkippedDuplicates, time.Since(startTime))

	return result, nil
}
