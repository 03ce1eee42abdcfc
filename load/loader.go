// Package load реализует фазу Load пайплайна: идемпотентную загрузку
// проверенных пакетов в таблицы звездообразной схемы в рамках одного
// арендатора.
package load

import (
	"time"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// LoadResult итог загрузки одного пакета в одну таблицу
type LoadResult struct {
	// Inserted количество вставленных строк (для SCD новых версий)
	Inserted int

	// SkippedDuplicates строки, пропущенные из-за существующего
	// естественного ключа при повторной загрузке того же окна
	SkippedDuplicates int

	// UnchangedSkipped записи клиентов без изменений атрибутов,
	// не потребовавшие новой версии
	UnchangedSkipped int

	// VersionsClosed закрытые предыдущие версии измерения SCD
	VersionsClosed int
}

// Loader загрузка пакетов одного арендатора в хранилище
type Loader interface {
	// LoadCampaigns загружает факты кампаний с дедупликацией
	LoadCampaigns(tenantID string, records []models.CampaignRecord) (*LoadResult, error)

	// LoadTargets загружает планы продаж с дедупликацией
	LoadTargets(tenantID string, records []models.SalesTargetRecord) (*LoadResult, error)

	// LoadCustomers применяет правило SCD Type 2 к записям клиентов
	LoadCustomers(tenantID string, records []models.CustomerRecord) (*LoadResult, error)

	// CustomerSnapshot читает текущие версии клиентов арендатора
	CustomerSnapshot(tenantID string) (models.CustomerSnapshot, error)
}

// campaignToRow преобразует запись кампании в строку таблицы fact_campaigns
func campaignToRow(r *models.CampaignRecord) warehouse.Row {
	return warehouse.Row{
		"tenant_id":       r.TenantID,
		"campaign_id":     r.CampaignID,
		"campaign_name":   r.CampaignName,
		"date":            r.Date,
		"impressions":     r.Impressions,
		"clicks":          r.Clicks,
		"conversions":     r.Conversions,
		"spend":           r.Spend,
		"revenue":         r.Revenue,
		"ctr":             r.CTR,
		"roi":             r.ROI,
		"conversion_rate": r.ConversionRate,
		"region":          r.Region,
		"product":         r.Product,
	}
}

// targetToRow преобразует план продаж в строку таблицы dim_sales_targets
func targetToRow(r *models.SalesTargetRecord) warehouse.Row {
	return warehouse.Row{
		"tenant_id":     r.TenantID,
		"period":        r.Period,
		"target_amount": r.TargetAmount,
		"actual_amount": r.ActualAmount,
		"variance":      r.Variance,
	}
}

// customerToRow преобразует версию клиента в строку таблицы dim_customers.
// Открытая версия хранится с valid_to = NULL.
func customerToRow(r *models.CustomerRecord) warehouse.Row {
	var validTo interface{}
	if !r.ValidTo.IsZero() {
		validTo = r.ValidTo
	}

	return warehouse.Row{
		"version_id":  r.VersionID,
		"tenant_id":   r.TenantID,
		"customer_id": r.CustomerID,
		"name":        r.Name,
		"category":    r.Category,
		"email":       r.Email,
		"region":      r.Region,
		"valid_from":  r.ValidFrom,
		"valid_to":    validTo,
		"is_current":  r.IsCurrent,
	}
}

// rowToCustomer восстанавливает версию клиента из строки dim_customers
func rowToCustomer(row warehouse.Row) models.CustomerRecord {
	record := models.CustomerRecord{
		TenantID:   warehouse.AsString(row["tenant_id"]),
		CustomerID: warehouse.AsString(row["customer_id"]),
		Name:       warehouse.AsString(row["name"]),
		Category:   warehouse.AsString(row["category"]),
		Email:      warehouse.AsString(row["email"]),
		Region:     warehouse.AsString(row["region"]),
		VersionID:  warehouse.AsString(row["version_id"]),
		ValidFrom:  warehouse.AsTime(row["valid_from"]),
		IsCurrent:  warehouse.AsBool(row["is_current"]),
	}

	if row["valid_to"] != nil {
		record.ValidTo = warehouse.AsTime(row["valid_to"])
	}

	return record
}

// TableForKind возвращает имя таблицы хранилища для набора данных
func TableForKind(kind models.DatasetKind) string {
	if s, ok := schema.ForKind(kind); ok {
		return s.Table
	}
	return ""
}

// runTimestamp единая метка времени запуска для версионирования SCD
func runTimestamp() time.Time {
	return time.Now().Truncate(time.Second)
}
