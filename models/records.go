package models

import (
	"time"
)

// DatasetKind определяет тип набора данных, проходящего через пайплайн
type DatasetKind string

const (
	DatasetCampaigns    DatasetKind = "campaigns"
	DatasetSalesTargets DatasetKind = "sales_targets"
	DatasetCustomers    DatasetKind = "customers"
)

// SourceKind определяет тип источника данных
type SourceKind string

const (
	SourceCSV         SourceKind = "csv"
	SourceSpreadsheet SourceKind = "spreadsheet"
	SourceAPI         SourceKind = "api"
)

// RowFlag помечает строку для последующей проверки валидатором
type RowFlag string

const (
	// FlagZeroDenominator: деление на ноль при расчете метрики, значение обнулено
	FlagZeroDenominator RowFlag = "zero_denominator"
	// FlagNegativeInput: отрицательное входное значение, строка передана без изменений
	FlagNegativeInput RowFlag = "negative_input"
	// FlagNullFact: в источнике отсутствует значение числового факта.
	// Парсер приводит пустое значение к нулю, поэтому факт пустоты
	// фиксируется флагом на фазе Extract и проверяется валидатором.
	FlagNullFact RowFlag = "null_fact"
)

// SCDStatus результат сравнения записи клиента с текущей версией в хранилище
type SCDStatus string

const (
	SCDUnchanged SCDStatus = "unchanged"
	SCDNew       SCDStatus = "new"
	SCDChanged   SCDStatus = "changed"
)

// CampaignRecord представляет запись рекламной кампании
type CampaignRecord struct {
	TenantID     string
	CampaignID   string
	CampaignName string
	Date         time.Time
	Impressions  int
	Clicks       int
	Conversions  int
	Spend        float64
	Revenue      float64
	Region       string
	Product      string

	// Производные метрики, рассчитываются на фазе Transform
	CTR            float64
	ROI            float64
	ConversionRate float64

	Flags []RowFlag
}

// HasFlag проверяет наличие флага у записи кампании
func (r *CampaignRecord) HasFlag(flag RowFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SalesTargetRecord представляет план продаж за период
type SalesTargetRecord struct {
	TenantID     string
	Period       string // формат YYYY-MM
	TargetAmount float64
	ActualAmount float64

	// Variance = ActualAmount - TargetAmount, рассчитывается на фазе Transform
	Variance float64

	Flags []RowFlag
}

// HasFlag проверяет наличие флага у записи плана продаж
func (r *SalesTargetRecord) HasFlag(flag RowFlag) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// CustomerRecord представляет версию записи клиента (измерение SCD Type 2).
// Логическую сущность идентифицирует пара (TenantID, CustomerID),
// конкретную версию задает суррогатный ключ VersionID.
type CustomerRecord struct {
	TenantID   string
	CustomerID string
	Name       string
	Category   string
	Email      string
	Region     string

	VersionID string
	ValidFrom time.Time
	ValidTo   time.Time // нулевое время = открытая версия
	IsCurrent bool

	SCDStatus SCDStatus
	Flags     []RowFlag
}

// AttributesEqual сравнивает бизнес-атрибуты двух версий клиента
func (r *CustomerRecord) AttributesEqual(other *CustomerRecord) bool {
	return r.Name == other.Name &&
		r.Category == other.Category &&
		r.Email == other.Email &&
		r.Region == other.Region
}

// CustomerKey идентифицирует логическую сущность клиента
type CustomerKey struct {
	TenantID   string
	CustomerID string
}

// CustomerSnapshot содержит текущие версии клиентов на момент чтения из хранилища
type CustomerSnapshot map[CustomerKey]CustomerRecord

// Batch содержит однородные записи одного набора данных.
// Заполнен ровно один из срезов, в соответствии с Kind.
type Batch struct {
	Kind       DatasetKind
	SourceKind SourceKind

	Campaigns []CampaignRecord
	Targets   []SalesTargetRecord
	Customers []CustomerRecord

	// Строки, отброшенные на фазе Extract (построчная политика отказа)
	Rejected []RowDiagnostic
}

// Len возвращает количество записей в пакете
func (b *Batch) Len() int {
	switch b.Kind {
	case DatasetCampaigns:
		return len(b.Campaigns)
	case DatasetSalesTargets:
		return len(b.Targets)
	case DatasetCustomers:
		return len(b.Customers)
	}
	return 0
}

// Tenants возвращает список идентификаторов арендаторов, встречающихся в пакете
func (b *Batch) Tenants() []string {
	seen := make(map[string]bool)
	var tenants []string

	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			tenants = append(tenants, id)
		}
	}

	for i := range b.Campaigns {
		add(b.Campaigns[i].TenantID)
	}
	for i := range b.Targets {
		add(b.Targets[i].TenantID)
	}
	for i := range b.Customers {
		add(b.Customers[i].TenantID)
	}

	return tenants
}

// SplitByTenant разбивает пакет на отдельные пакеты по арендаторам.
// Диагностика отброшенных строк остается в исходном пакете.
func (b *Batch) SplitByTenant() map[string]*Batch {
	result := make(map[string]*Batch)

	get := func(tenantID string) *Batch {
		tb, ok := result[tenantID]
		if !ok {
			tb = &Batch{Kind: b.Kind, SourceKind: b.SourceKind}
			result[tenantID] = tb
		}
		return tb
	}

	for i := range b.Campaigns {
		tb := get(b.Campaigns[i].TenantID)
		tb.Campaigns = append(tb.Campaigns, b.Campaigns[i])
	}
	for i := range b.Targets {
		tb := get(b.Targets[i].TenantID)
		tb.Targets = append(tb.Targets, b.Targets[i])
	}
	for i := range b.Customers {
		tb := get(b.Customers[i].TenantID)
		tb.Customers = append(tb.Customers, b.Customers[i])
	}

	return result
}
