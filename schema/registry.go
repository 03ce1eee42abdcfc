// Package schema объявляет канонические схемы наборов данных.
// Экстракторы сверяют форму входного пакета со схемой до любой трансформации.
package schema

import (
	"strconv"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
)

// FieldType семантический тип поля набора данных
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeFloat   FieldType = "float"
	TypeDate    FieldType = "date"
)

// DateLayout формат дат во входных данных
const DateLayout = "2006-01-02"

// Field описывает одно поле схемы
type Field struct {
	Name     string
	Type     FieldType
	Nullable bool
}

// TableSchema описывает упорядоченный список полей набора данных
// и таблицу хранилища, в которую он загружается
type TableSchema struct {
	Kind   models.DatasetKind
	Table  string
	Fields []Field
}

// Имена таблиц хранилища
const (
	TableFactCampaigns   = "fact_campaigns"
	TableDimSalesTargets = "dim_sales_targets"
	TableDimCustomers    = "dim_customers"
	TableLoadLog         = "etl_load_log"
)

// registry каноническая схема каждого набора данных
var registry = map[models.DatasetKind]TableSchema{
	models.DatasetCampaigns: {
		Kind:  models.DatasetCampaigns,
		Table: TableFactCampaigns,
		Fields: []Field{
			{Name: "tenant_id", Type: TypeString},
			{Name: "campaign_id", Type: TypeString},
			{Name: "campaign_name", Type: TypeString},
			{Name: "date", Type: TypeDate},
			{Name: "impressions", Type: TypeInteger},
			{Name: "clicks", Type: TypeInteger},
			{Name: "conversions", Type: TypeInteger},
			{Name: "spend", Type: TypeFloat},
			{Name: "revenue", Type: TypeFloat},
			{Name: "region", Type: TypeString, Nullable: true},
			{Name: "product", Type: TypeString, Nullable: true},
		},
	},
	models.DatasetSalesTargets: {
		Kind:  models.DatasetSalesTargets,
		Table: TableDimSalesTargets,
		Fields: []Field{
			{Name: "tenant_id", Type: TypeString},
			{Name: "period", Type: TypeString},
			{Name: "target_amount", Type: TypeFloat},
			{Name: "actual_amount", Type: TypeFloat},
		},
	},
	models.DatasetCustomers: {
		Kind:  models.DatasetCustomers,
		Table: TableDimCustomers,
		Fields: []Field{
			{Name: "tenant_id", Type: TypeString},
			{Name: "customer_id", Type: TypeString},
			{Name: "name", Type: TypeString},
			{Name: "category", Type: TypeString, Nullable: true},
			{Name: "email", Type: TypeString, Nullable: true},
			{Name: "region", Type: TypeString, Nullable: true},
		},
	},
}

// ForKind возвращает схему указанного набора данных
func ForKind(kind models.DatasetKind) (TableSchema, bool) {
	s, ok := registry[kind]
	return s, ok
}

// FieldNames возвращает упорядоченный список имен полей схемы
func (s TableSchema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Check сверяет колонки источника со схемой. Типы проверяются по первой
// строке данных. Любое расхождение полностью останавливает извлечение пакета.
func (s TableSchema) Check(columns []string, sample map[string]string) error {
	declared := make(map[string]Field, len(s.Fields))
	for _, f := range s.Fields {
		declared[f.Name] = f
	}

	present := make(map[string]bool, len(columns))
	mismatch := &models.SchemaMismatchError{Kind: s.Kind}

	for _, col := range columns {
		present[col] = true
		if _, ok := declared[col]; !ok {
			mismatch.Extra = append(mismatch.Extra, col)
		}
	}

	for _, f := range s.Fields {
		if !present[f.Name] {
			mismatch.Missing = append(mismatch.Missing, f.Name)
		}
	}

	// Проверка типов по образцовой строке: пустые значения пропускаются,
	// их допустимость решает валидатор
	if sample != nil {
		for _, f := range s.Fields {
			value, ok := sample[f.Name]
			if !ok || value == "" {
				continue
			}
			if !f.Type.Accepts(value) {
				mismatch.Mistyped = append(mismatch.Mistyped, f.Name)
			}
		}
	}

	if len(mismatch.Missing) > 0 || len(mismatch.Extra) > 0 || len(mismatch.Mistyped) > 0 {
		return mismatch
	}

	return nil
}

// Accepts проверяет, представимо ли текстовое значение в данном типе
func (t FieldType) Accepts(value string) bool {
	switch t {
	case TypeString:
		return true
	case TypeInteger:
		_, err := strconv.Atoi(value)
		return err == nil
	case TypeFloat:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case TypeDate:
		_, err := time.Parse(DateLayout, value)
		return err == nil
	}
	return false
}
