package extractors

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/LilVoxy/coursework_bi/models"
)

// CSVSource источник данных из CSV-файла
type CSVSource struct {
	path string
}

// NewCSVSource создает новый экземпляр CSVSource
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{
		path: path,
	}
}

// Kind возвращает тип источника
func (s *CSVSource) Kind() models.SourceKind {
	return models.SourceCSV
}

// Read читает CSV-файл целиком: первая строка содержит заголовок,
// остальные строки данных
func (s *CSVSource) Read() ([]string, []RawRow, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка открытия CSV-файла %s: %w", s.path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка чтения CSV-файла %s: %w", s.path, err)
	}

	if len(records) == 0 {
		return nil, nil, fmt.Errorf("CSV-файл %s пуст", s.path)
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
