package warehouse

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemoryStore реализация Store в памяти. Используется в демо-режиме
// и в тестах; повторяет транзакционные гарантии настоящего хранилища:
// изменения применяются к копии таблиц и публикуются только при фиксации.
type MemoryStore struct {
	mu     sync.Mutex
	tables map[string][]Row
}

// NewMemoryStore создает новый экземпляр MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables: make(map[string][]Row),
	}
}

// ReadTable возвращает строки таблицы, удовлетворяющие фильтру
func (s *MemoryStore) ReadTable(name string, filter Filter) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return filterRows(s.tables[name], filter), nil
}

// Append добавляет строки в рамках отдельной транзакции
func (s *MemoryStore) Append(name string, rows []Row) (int, int, error) {
	var inserted, skipped int
	err := s.Transaction(func(tx Tx) error {
		var txErr error
		inserted, skipped, txErr = tx.Append(name, rows)
		return txErr
	})
	return inserted, skipped, err
}

// UpsertSCD применяет правило SCD в рамках отдельной транзакции
func (s *MemoryStore) UpsertSCD(name string, key SCDKey, newRow Row) error {
	return s.Transaction(func(tx Tx) error {
		return tx.UpsertSCD(name, key, newRow)
	})
}

// Transaction выполняет fn над копией таблиц и публикует результат
// только при успешном завершении. Глобальная блокировка сериализует
// конкурентные загрузки.
func (s *MemoryStore) Transaction(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string][]Row, len(s.tables))
	for name, rows := range s.tables {
		copied := make([]Row, len(rows))
		for i, row := range rows {
			copied[i] = copyRow(row)
		}
		staged[name] = copied
	}

	tx := &memoryTx{tables: staged}
	if err := fn(tx); err != nil {
		return err
	}

	s.tables = staged
	return nil
}

// memoryTx операции хранилища над промежуточной копией таблиц
type memoryTx struct {
	tables map[string][]Row
}

// ReadTable возвращает строки таблицы, удовлетворяющие фильтру
func (t *memoryTx) ReadTable(name string, filter Filter) ([]Row, error) {
	return filterRows(t.tables[name], filter), nil
}

// Append вставляет строки с дедупликацией по естественному ключу
func (t *memoryTx) Append(name string, rows []Row) (int, int, error) {
	keyColumns := NaturalKey(name)

	existing := make(map[string]bool)
	if keyColumns != nil {
		for _, row := range t.tables[name] {
			existing[rowKey(row, keyColumns)] = true
		}
	}

	inserted, skipped := 0, 0
	for _, row := range rows {
		if keyColumns != nil {
			key := rowKey(row, keyColumns)
			if existing[key] {
				skipped++
				continue
			}
			existing[key] = true
		}
		t.tables[name] = append(t.tables[name], copyRow(row))
		inserted++
	}

	return inserted, skipped, nil
}

// UpsertSCD закрывает текущую версию сущности и вставляет новую
func (t *memoryTx) UpsertSCD(name string, key SCDKey, newRow Row) error {
	for _, row := range t.tables[name] {
		if AsString(row["tenant_id"]) == key.TenantID &&
			AsString(row["customer_id"]) == key.EntityID &&
			AsBool(row["is_current"]) {
			row["valid_to"] = newRow["valid_from"]
			row["is_current"] = false
		}
	}

	t.tables[name] = append(t.tables[name], copyRow(newRow))
	return nil
}

// filterRows возвращает копии строк, удовлетворяющих фильтру
func filterRows(rows []Row, filter Filter) []Row {
	var result []Row
	for _, row := range rows {
		if filter.TenantID != "" && AsString(row["tenant_id"]) != filter.TenantID {
			continue
		}
		if !matchesWhere(row, filter.Where) {
			continue
		}
		result = append(result, copyRow(row))
	}
	return result
}

// matchesWhere проверяет равенство значений строки условиям фильтра
func matchesWhere(row Row, where map[string]interface{}) bool {
	for col, expected := range where {
		if keyPart(row[col]) != keyPart(expected) {
			return false
		}
	}
	return true
}

// copyRow создает независимую копию строки
func copyRow(row Row) Row {
	copied := make(Row, len(row))
	for k, v := range row {
		copied[k] = v
	}
	return copied
}

// rowKey формирует ключ дедупликации из колонок естественного ключа
func rowKey(row Row, columns []string) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = keyPart(row[col])
	}
	return strings.Join(parts, "|")
}

// keyPart каноническое текстовое представление значения колонки
func keyPart(v interface{}) string {
	switch value := v.(type) {
	case time.Time:
		return value.Format("2006-01-02")
	case []byte:
		return string(value)
	case bool:
		if value {
			return "1"
		}
		return "0"
	default:
		return fmt.Sprintf("%v", value)
	}
}
