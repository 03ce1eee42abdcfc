package transform

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// transformTargets рассчитывает отклонение фактических продаж от плана:
// variance = actual_amount - target_amount
func transformTargets(records []models.SalesTargetRecord) []models.SalesTargetRecord {
	result := make([]models.SalesTargetRecord, len(records))

	for i, record := range records {
		if record.TargetAmount < 0 || record.ActualAmount < 0 {
			record.Flags = appendFlagOnce(record.Flags, models.FlagNegativeInput)
		}

		record.Variance = roundTo(record.ActualAmount-record.TargetAmount, 2)
		result[i] = record
	}

	return result
}
