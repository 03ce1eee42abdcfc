package transform

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// diffCustomers сравнивает входящие записи клиентов с текущими версиями
// из снимка хранилища и помечает каждую как new, changed или unchanged.
// К шагу применения правила SCD в загрузчике проходят только new и changed.
func diffCustomers(records []models.CustomerRecord, snapshot models.CustomerSnapshot) []models.CustomerRecord {
	result := make([]models.CustomerRecord, len(records))

	for i, record := range records {
		key := models.CustomerKey{
			TenantID:   record.TenantID,
			CustomerID: record.CustomerID,
		}

		current, exists := snapshot[key]
		switch {
		case !exists:
			record.SCDStatus = models.SCDNew
		case record.AttributesEqual(&current):
			record.SCDStatus = models.SCDUnchanged
		default:
			record.SCDStatus = models.SCDChanged
		}

		result[i] = record
	}

	return result
}
