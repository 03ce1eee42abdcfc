package extractors

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// RawRow представляет сырую строку источника: имя колонки -> текстовое значение
type RawRow map[string]string

// Source абстракция источника данных. Пайплайну не важно, как именно
// получены строки, важно лишь соответствие объявленной схеме.
type Source interface {
	// Kind возвращает тип источника
	Kind() models.SourceKind

	// Read возвращает список колонок и сырые строки источника
	Read() (columns []string, rows []RawRow, err error)
}

// MemorySource источник с заранее подготовленными строками.
// Используется генератором данных и в тестах.
type MemorySource struct {
	SourceKind models.SourceKind
	Columns    []string
	Rows       []RawRow
}

// Kind возвращает тип источника
func (s *MemorySource) Kind() models.SourceKind {
	return s.SourceKind
}

// Read возвращает подготовленные строки
func (s *MemorySource) Read() ([]string, []RawRow, error) {
	return s.Columns, s.Rows, nil
}
