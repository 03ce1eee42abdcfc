package extractors

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// normalizeTargetRow приводит сырую строку к записи плана продаж
func normalizeTargetRow(row RawRow) (models.SalesTargetRecord, error) {
	var record models.SalesTargetRecord
	var err error

	record.TenantID = row["tenant_id"]
	record.Period = row["period"]

	if record.TargetAmount, err = parseFloatField(row, "target_amount"); err != nil {
		return record, err
	}
	if record.ActualAmount, err = parseFloatField(row, "actual_amount"); err != nil {
		return record, err
	}

	// Пустая сумма приводится парсером к нулю: фиксируем отсутствие значения флагом
	if row["target_amount"] == "" || row["actual_amount"] == "" {
		record.Flags = append(record.Flags, models.FlagNullFact)
	}

	return record, nil
}
