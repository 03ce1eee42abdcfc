package extractors

import (
	"fmt"
	"strconv"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/utils"
)

// Extractor координирует извлечение данных из разнородных источников.
// Выполняется только структурная нормализация: переименование колонок,
// приведение типов и проверка наличия tenant_id. Никакой бизнес-логики.
type Extractor struct {
	logger *utils.ETLLogger
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(logger *utils.ETLLogger) *Extractor {
	return &Extractor{
		logger: logger,
	}
}

// columnAliases сопоставляет имена колонок источников каноническим именам схемы
var columnAliases = map[models.DatasetKind]map[string]string{
	models.DatasetCustomers: {
		"customer_name":      "name",
		"product_preference": "category",
	},
	models.DatasetSalesTargets: {
		"target_revenue": "target_amount",
		"actual_revenue": "actual_amount",
	},
}

// Extract извлекает пакет типизированных записей из источника.
// Несоответствие схемы полностью останавливает набор; строка без tenant_id или с
// некорректным значением отбрасывается индивидуально с диагностикой.
func (e *Extractor) Extract(kind models.DatasetKind, src Source) (*models.Batch, error) {
	startTime := time.Now()
	e.logger.Debug("Начало извлечения набора %s из источника %s", kind, src.Kind())

	sch, ok := schema.ForKind(kind)
	if !ok {
		return nil, fmt.Errorf("неизвестный набор данных: %s", kind)
	}

	columns, rows, err := src.Read()
	if err != nil {
		e.logger.Error("Ошибка чтения источника %s: %v", src.Kind(), err)
		return nil, fmt.Errorf("ошибка чтения источника %s: %w", src.Kind(), err)
	}

	// Структурная нормализация имен колонок
	columns, rows = applyAliases(kind, columns, rows)

	// Сверка формы пакета со схемой до любой обработки
	var sample map[string]string
	if len(rows) > 0 {
		sample = rows[0]
	}
	if err := sch.Check(columns, sample); err != nil {
		e.logger.Error("Несоответствие схемы набора %s: %v", kind, err)
		return nil, err
	}

	batch := &models.Batch{
		Kind:       kind,
		SourceKind: src.Kind(),
	}

	for i, row := range rows {
		// Номер строки данных в источнике: заголовок занимает первую строку
		rowNumber := i + 2

		if row["tenant_id"] == "" {
			batch.Rejected = append(batch.Rejected, models.RowDiagnostic{
				Kind:      kind,
				RowNumber: rowNumber,
				Reason:    models.ReasonMissingTenantID,
			})
			continue
		}

		if err := e.appendRecord(batch, row); err != nil {
			batch.Rejected = append(batch.Rejected, models.RowDiagnostic{
				Kind:      kind,
				RowNumber: rowNumber,
				Reason:    models.ReasonBadValue,
				Detail:    err.Error(),
			})
		}
	}

	e.logger.LogExtractComplete(string(kind), batch.Len(), len(batch.Rejected), time.Since(startTime))

	return batch, nil
}

// appendRecord приводит сырую строку к типизированной записи набора
func (e *Extractor) appendRecord(batch *models.Batch, row RawRow) error {
	switch batch.Kind {
	case models.DatasetCampaigns:
		record, err := normalizeCampaignRow(row)
		if err != nil {
			return err
		}
		batch.Campaigns = append(batch.Campaigns, record)
	case models.DatasetSalesTargets:
		record, err := normalizeTargetRow(row)
		if err != nil {
			return err
		}
		batch.Targets = append(batch.Targets, record)
	case models.DatasetCustomers:
		record, err := normalizeCustomerRow(row)
		if err != nil {
			return err
		}
		batch.Customers = append(batch.Customers, record)
	}
	return nil
}

// applyAliases переименовывает колонки источника в канонические имена схемы
func applyAliases(kind models.DatasetKind, columns []string, rows []RawRow) ([]string, []RawRow) {
	aliases, ok := columnAliases[kind]
	if !ok || len(aliases) == 0 {
		return columns, rows
	}

	renamed := make([]string, len(columns))
	for i, col := range columns {
		if canonical, ok := aliases[col]; ok {
			renamed[i] = canonical
		} else {
			renamed[i] = col
		}
	}

	// Строки переписываются в новые карты: источник может переиспользоваться,
	// его данные не изменяются
	renamedRows := make([]RawRow, len(rows))
	for i, row := range rows {
		fresh := make(RawRow, len(row))
		for name, value := range row {
			if canonical, ok := aliases[name]; ok {
				fresh[canonical] = value
			} else {
				fresh[name] = value
			}
		}
		renamedRows[i] = fresh
	}

	return renamed, renamedRows
}

// parseIntField приводит текстовое значение к целому числу
func parseIntField(row RawRow, name string) (int, error) {
	value := row[name]
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("поле %s: %q не является целым числом", name, value)
	}
	return n, nil
}

// parseFloatField приводит текстовое значение к числу с плавающей точкой
func parseFloatField(row RawRow, name string) (float64, error) {
	value := row[name]
	if value == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("поле %s: %q не является числом", name, value)
	}
	return f, nil
}

// parseDateField приводит текстовое значение к дате
func parseDateField(row RawRow, name string) (time.Time, error) {
	value := row[name]
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(schema.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("поле %s: %q не является датой в формате %s", name, value, schema.DateLayout)
	}
	return t, nil
}
