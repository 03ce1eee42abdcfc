// Package transform реализует фазу Transform пайплайна: расчет производных
// метрик и подготовку записей к загрузке в звездообразную схему.
// Все преобразования чистые и детерминированные, без обращений к I/O.
package transform

import (
	"fmt"
	"math"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/utils"
)

// Transformer координирует преобразование пакетов по типу набора данных
type Transformer struct {
	logger *utils.ETLLogger
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(logger *utils.ETLLogger) *Transformer {
	return &Transformer{
		logger: logger,
	}
}

// Transform преобразует пакет записей. Для клиентов требуется снимок
// текущих версий из хранилища: сравнение выполняется здесь, применение
// правила SCD выполняется в загрузчике.
func (t *Transformer) Transform(batch *models.Batch, snapshot models.CustomerSnapshot) (*models.Batch, error) {
	startTime := time.Now()
	t.logger.Debug("Начало фазы Transform для набора %s", batch.Kind)

	result := &models.Batch{
		Kind:       batch.Kind,
		SourceKind: batch.SourceKind,
		Rejected:   batch.Rejected,
	}

	switch batch.Kind {
	case models.DatasetCampaigns:
		result.Campaigns = transformCampaigns(batch.Campaigns)
	case models.DatasetSalesTargets:
		result.Targets = transformTargets(batch.Targets)
	case models.DatasetCustomers:
		result.Customers = diffCustomers(batch.Customers, snapshot)
	default:
		return nil, fmt.Errorf("неизвестный набор данных: %s", batch.Kind)
	}

	t.logger.Debug("Фаза Transform для набора %s завершена. Длительность: %v", batch.Kind, time.Since(startTime))

	return result, nil
}

// roundTo округляет значение до указанного числа знаков после запятой
func roundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
