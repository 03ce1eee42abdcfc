package extractors

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// normalizeCustomerRow приводит сырую строку к записи клиента.
// Поля версионирования SCD заполняются загрузчиком, не экстрактором.
func normalizeCustomerRow(row RawRow) (models.CustomerRecord, error) {
	record := models.CustomerRecord{
		TenantID:   row["tenant_id"],
		CustomerID: row["customer_id"],
		Name:       row["name"],
		Category:   row["category"],
		Email:      row["email"],
		Region:     row["region"],
	}

	return record, nil
}
