// Package archive сохраняет отброшенные строки и отчеты о неудачной
// валидации в сжатом виде для последующего разбора.
package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"

	"github.com/LilVoxy/coursework_bi/models"
)

// RejectedArchive архив отброшенных данных на диске
type RejectedArchive struct {
	dir string
}

// Entry одна запись архива
type Entry struct {
	RunID       string                 `json:"run_id"`
	TenantID    string                 `json:"tenant_id"`
	Dataset     models.DatasetKind     `json:"dataset"`
	ArchivedAt  time.Time              `json:"archived_at"`
	Diagnostics []models.RowDiagnostic `json:"diagnostics,omitempty"`
	Violations  []string               `json:"violations,omitempty"`
}

// NewRejectedArchive создает архив в указанном каталоге
func NewRejectedArchive(dir string) (*RejectedArchive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("ошибка при создании каталога архива %s: %w", dir, err)
	}
	return &RejectedArchive{dir: dir}, nil
}

// Write сохраняет запись архива в сжатый snappy-файл
func (a *RejectedArchive) Write(entry *Entry) (string, error) {
	entry.ArchivedAt = time.Now()

	data, err := json.Marshal(entry)
	if err != nil {
		return "", fmt.Errorf("ошибка при сериализации записи архива: %w", err)
	}

	compressed := snappy.Encode(nil, data)

	fileName := fmt.Sprintf("rejected_%s_%s.snappy", entry.Dataset, entry.RunID)
	path := filepath.Join(a.dir, fileName)

	if err := os.WriteFile(path, compressed, 0644); err != nil {
		return "", fmt.Errorf("ошибка при записи файла архива %s: %w", path, err)
	}

	return path, nil
}

// Read восстанавливает запись архива из файла
func (a *RejectedArchive) Read(path string) (*Entry, error) {
	compressed, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении файла архива %s: %w", path, err)
	}

	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("ошибка при распаковке файла архива %s: %w", path, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("ошибка при разборе записи архива %s: %w", path, err)
	}

	return &entry, nil
}
