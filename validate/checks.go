package validate

import (
	"fmt"

	"github.com/LilVoxy/coursework_bi/config"
	"github.com/LilVoxy/coursework_bi/models"
)

// nullCriticalCheck проверяет заполненность критичных полей:
// tenant_id, дата/период и первичный числовой факт. Пустые значения
// числовых фактов распознаются по флагу null_fact, установленному
// на фазе Extract.
type nullCriticalCheck struct{}

func (c *nullCriticalCheck) Name() string { return "null_critical_fields" }

func (c *nullCriticalCheck) Run(batch *models.Batch) []CheckResult {
	result := CheckResult{Name: c.Name(), Severity: SeverityFail}

	violate := func(format string, v ...interface{}) {
		result.Violations++
		result.Details = append(result.Details, fmt.Sprintf(format, v...))
	}

	switch batch.Kind {
	case models.DatasetCampaigns:
		for i := range batch.Campaigns {
			r := &batch.Campaigns[i]
			if r.TenantID == "" {
				violate("кампания %s: отсутствует tenant_id", r.CampaignName)
			}
			if r.Date.IsZero() {
				violate("кампания %s: отсутствует дата", r.CampaignName)
			}
			if r.HasFlag(models.FlagNullFact) {
				violate("кампания %s: пустое значение числового факта", r.CampaignName)
			}
		}
	case models.DatasetSalesTargets:
		for i := range batch.Targets {
			r := &batch.Targets[i]
			if r.TenantID == "" {
				violate("план продаж за период %s: отсутствует tenant_id", r.Period)
			}
			if r.Period == "" {
				violate("план продаж арендатора %s: отсутствует период", r.TenantID)
			}
			if r.HasFlag(models.FlagNullFact) {
				violate("план продаж за период %s: пустое значение суммы", r.Period)
			}
		}
	case models.DatasetCustomers:
		for i := range batch.Customers {
			r := &batch.Customers[i]
			if r.TenantID == "" {
				violate("клиент %s: отсутствует tenant_id", r.CustomerID)
			}
			if r.CustomerID == "" {
				violate("клиент %q: отсутствует customer_id", r.Name)
			}
		}
	}

	return []CheckResult{result}
}

// rangeCheck проверяет доменные диапазоны метрик и попадание даты факта
// в окно загрузки. Пороги задаются конфигурацией: выход ROI за пределы
// правдоподобия дает fail, умеренно неправдоподобное значение дает warn.
type rangeCheck struct {
	cfg config.ETLConfig
}

func (c *rangeCheck) Name() string { return "metric_range" }

func (c *rangeCheck) Run(batch *models.Batch) []CheckResult {
	fail := CheckResult{Name: c.Name(), Severity: SeverityFail}
	warn := CheckResult{Name: c.Name() + "_plausibility", Severity: SeverityWarn}

	if batch.Kind != models.DatasetCampaigns {
		return []CheckResult{fail, warn}
	}

	for i := range batch.Campaigns {
		r := &batch.Campaigns[i]

		if r.CTR < 0 || r.CTR > 1 {
			fail.Violations++
			fail.Details = append(fail.Details,
				fmt.Sprintf("кампания %s: CTR %.4f вне диапазона [0,1]", r.CampaignName, r.CTR))
		}

		if r.ROI < c.cfg.ROIFailMin || r.ROI > c.cfg.ROIFailMax {
			fail.Violations++
			fail.Details = append(fail.Details,
				fmt.Sprintf("кампания %s: ROI %.2f вне правдоподобных пределов [%.2f, %.2f]",
					r.CampaignName, r.ROI, c.cfg.ROIFailMin, c.cfg.ROIFailMax))
		} else if r.ROI > c.cfg.ROIWarnMax {
			warn.Violations++
			warn.Details = append(warn.Details,
				fmt.Sprintf("кампания %s: подозрительно высокий ROI %.2f", r.CampaignName, r.ROI))
		}

		if r.ConversionRate < 0 || r.ConversionRate > 1 {
			fail.Violations++
			fail.Details = append(fail.Details,
				fmt.Sprintf("кампания %s: конверсия %.2f вне диапазона [0,1]", r.CampaignName, r.ConversionRate))
		}

		if r.HasFlag(models.FlagNegativeInput) {
			fail.Violations++
			fail.Details = append(fail.Details,
				fmt.Sprintf("кампания %s: отрицательные входные значения", r.CampaignName))
		}

		if !r.Date.IsZero() && !c.cfg.IngestionWindowFrom.IsZero() {
			if r.Date.Before(c.cfg.IngestionWindowFrom) || r.Date.After(c.cfg.IngestionWindowTo) {
				fail.Violations++
				fail.Details = append(fail.Details,
					fmt.Sprintf("кампания %s: дата %s вне окна загрузки", r.CampaignName, r.Date.Format("2006-01-02")))
			}
		}
	}

	return []CheckResult{fail, warn}
}

// duplicateCheck ищет дубликаты естественного ключа внутри пакета.
// Ключ зависит от набора: {campaign_name, date} / {period} / {customer_id}.
type duplicateCheck struct{}

func (c *duplicateCheck) Name() string { return "duplicate_natural_key" }

func (c *duplicateCheck) Run(batch *models.Batch) []CheckResult {
	result := CheckResult{Name: c.Name(), Severity: SeverityFail}
	seen := make(map[string]bool)

	record := func(key, description string) {
		if seen[key] {
			result.Violations++
			result.Details = append(result.Details, fmt.Sprintf("дубликат естественного ключа: %s", description))
			return
		}
		seen[key] = true
	}

	switch batch.Kind {
	case models.DatasetCampaigns:
		for i := range batch.Campaigns {
			r := &batch.Campaigns[i]
			key := r.TenantID + "|" + r.CampaignName + "|" + r.Date.Format("2006-01-02")
			record(key, fmt.Sprintf("кампания %s на %s (арендатор %s)", r.CampaignName, r.Date.Format("2006-01-02"), r.TenantID))
		}
	case models.DatasetSalesTargets:
		for i := range batch.Targets {
			r := &batch.Targets[i]
			key := r.TenantID + "|" + r.Period
			record(key, fmt.Sprintf("план продаж за период %s (арендатор %s)", r.Period, r.TenantID))
		}
	case models.DatasetCustomers:
		for i := range batch.Customers {
			r := &batch.Customers[i]
			key := r.TenantID + "|" + r.CustomerID
			record(key, fmt.Sprintf("клиент %s (арендатор %s)", r.CustomerID, r.TenantID))
		}
	}

	return []CheckResult{result}
}

// referentialCheck проверяет, что tenant_id входит в известное множество
// арендаторов. Применяется только к фактовым наборам.
type referentialCheck struct {
	cfg config.ETLConfig
}

func (c *referentialCheck) Name() string { return "referential_tenant" }

func (c *referentialCheck) Run(batch *models.Batch) []CheckResult {
	result := CheckResult{Name: c.Name(), Severity: SeverityFail}

	if batch.Kind == models.DatasetCustomers {
		return []CheckResult{result}
	}

	reported := make(map[string]bool)
	for _, tenantID := range batch.Tenants() {
		if tenantID == "" || reported[tenantID] {
			continue
		}
		if !c.cfg.KnownTenant(tenantID) {
			reported[tenantID] = true
			result.Violations++
			result.Details = append(result.Details, (&models.UnknownTenantError{TenantID: tenantID}).Error())
		}
	}

	return []CheckResult{result}
}
