package extractors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/LilVoxy/coursework_bi/models"
)

// APISource источник данных из HTTP API, отдающего JSON-массив объектов
type APISource struct {
	url    string
	client *http.Client
}

// NewAPISource создает новый экземпляр APISource
func NewAPISource(url string) *APISource {
	return &APISource{
		url: url,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Kind возвращает тип источника
func (s *APISource) Kind() models.SourceKind {
	return models.SourceAPI
}

// Read запрашивает API и приводит JSON-объекты к табличному виду.
// Список колонок определяется по ключам первого объекта.
func (s *APISource) Read() ([]string, []RawRow, error) {
	resp, err := s.client.Get(s.url)
	if err != nil {
		return nil, nil, fmt.Errorf("ошибка запроса к API %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("API %s вернул статус %d", s.url, resp.StatusCode)
	}

	var objects []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, nil, fmt.Errorf("ошибка разбора ответа API %s: %w", s.url, err)
	}

	return flattenObjects(objects)
}

// flattenObjects приводит JSON-объекты к колонкам и текстовым строкам
func flattenObjects(objects []map[string]interface{}) ([]string, []RawRow, error) {
	if len(objects) == 0 {
		return nil, nil, nil
	}

	columns := make([]string, 0, len(objects[0]))
	for key := range objects[0] {
		columns = append(columns, key)
	}
	sort.Strings(columns)

	rows := make([]RawRow, 0, len(objects))
	for _, obj := range objects {
		row := make(RawRow, len(columns))
		for _, col := range columns {
			value, ok := obj[col]
			if !ok || value == nil {
				continue
			}
			row[col] = stringifyValue(value)
		}
		rows = append(rows, row)
	}

	return columns, rows, nil
}

// stringifyValue приводит значение JSON к текстовому виду
func stringifyValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		data, _ := json.Marshal(v)
		return string(data)
	}
}
