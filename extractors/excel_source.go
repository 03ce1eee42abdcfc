package extractors

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/coursework_bi/models"
)

// ExcelSource источник данных из XLSX-файла (таблица планов продаж)
type ExcelSource struct {
	path  string
	sheet string
}

// NewExcelSource создает новый экземпляр ExcelSource.
// Если имя листа не указано, читается первый лист книги.
func NewExcelSource(path, sheet string) *ExcelSource {
	return &ExcelSource{
		path:  path,
		sheet: sheet,
	}
}

// Kind возвращает тип источника
func (s *ExcelSource) Kind() models.SourceKind {
	return models.SourceSpreadsheet
}

// Read читает лист книги: первая строка содержит заголовок, остальные данные
func (s *ExcelSource) Read() ([]string, []RawRow, error) {
	file, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия XLSX-файла %s: %w", s.path, err)
	}
	defer file.Close()

	sheet := s.sheet
	if sheet == "" {
		sheet = file.GetSheetName(0)
	}

	records, err := file.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения листа %s из %s: %w", sheet, s.path, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("лист %s в %s пуст", sheet, s.path)
	}

	columns := records[0]
	rows := make([]RawRow, 0, len(records)-1)

	for _, record := range records[1:] {
		row := make(RawRow, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}
