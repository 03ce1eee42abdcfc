// Package warehouse определяет границу табличного хранилища звездообразной
// схемы. Требование атомарности "проверить, затем записать" лежит на
// реализации хранилища, а не на вызывающем коде.
package warehouse

import (
	"github.com/LilVoxy/coursework_bi/schema"
)

// Row строка таблицы хранилища: имя колонки -> значение
type Row map[string]interface{}

// Filter ограничивает выборку из таблицы. TenantID обязателен для запросов
// к данным арендаторов: межарендный доступ на этой границе невозможен.
type Filter struct {
	TenantID string
	Where    map[string]interface{}
}

// SCDKey идентифицирует логическую сущность измерения SCD Type 2
type SCDKey struct {
	TenantID string
	EntityID string
}

// Tx операции, доступные внутри транзакции хранилища
type Tx interface {
	// ReadTable возвращает строки таблицы, удовлетворяющие фильтру
	ReadTable(name string, filter Filter) ([]Row, error)

	// Append добавляет строки в таблицу. Строки, чей естественный ключ уже
	// существует, пропускаются и учитываются в skipped: повторная загрузка
	// того же окна идемпотентна.
	Append(name string, rows []Row) (inserted, skipped int, err error)

	// UpsertSCD атомарно закрывает текущую версию сущности (valid_to,
	// is_current=false) и вставляет новую открытую версию. Читатель никогда
	// не наблюдает ноль или две текущие версии одной сущности.
	UpsertSCD(name string, key SCDKey, newRow Row) error
}

// Store граница табличного хранилища
type Store interface {
	Tx

	// Transaction выполняет fn как одну атомарную единицу.
	// Внутри одной загрузки таблицы частичных фиксаций не бывает.
	Transaction(fn func(tx Tx) error) error
}

// naturalKeys естественные ключи фактовых таблиц для дедупликации при Append
var naturalKeys = map[string][]string{
	schema.TableFactCampaigns:   {"tenant_id", "campaign_name", "date"},
	schema.TableDimSalesTargets: {"tenant_id", "period"},
}

// tableColumns упорядоченные списки колонок таблиц хранилища
var tableColumns = map[string][]string{
	schema.TableFactCampaigns: {
		"tenant_id", "campaign_id", "campaign_name", "date",
		"impressions", "clicks", "conversions", "spend", "revenue",
		"ctr", "roi", "conversion_rate", "region", "product",
	},
	schema.TableDimSalesTargets: {
		"tenant_id", "period", "target_amount", "actual_amount", "variance",
	},
	schema.TableDimCustomers: {
		"version_id", "tenant_id", "customer_id", "name", "category",
		"email", "region", "valid_from", "valid_to", "is_current",
	},
}

// NaturalKey возвращает естественный ключ таблицы
func NaturalKey(table string) []string {
	return naturalKeys[table]
}

// Columns возвращает упорядоченный список колонок таблицы
func Columns(table string) []string {
	return tableColumns[table]
}
