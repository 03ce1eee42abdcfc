package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы записи о загрузке
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// LoadRun представляет запись журнала о попытке загрузки одной таблицы
// для одного арендатора. Журнал append-only: после завершения запись
// фиксируется и больше не изменяется.
type LoadRun struct {
	RunID                string    `json:"run_id"`
	TenantID             string    `json:"tenant_id"`
	TableName            string    `json:"table_name"`
	StartedAt            time.Time `json:"started_at"`
	FinishedAt           time.Time `json:"finished_at"`
	Status               string    `json:"status"`
	RecordsProcessed     int       `json:"records_processed"`
	RecordsSkipped       int       `json:"records_skipped"`
	RecordsRejected      int       `json:"records_rejected"`
	ErrorDetail          string    `json:"error_detail,omitempty"`
	ValidationReport     string    `json:"validation_report,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// NewLoadRun создает новую запись о попытке загрузки
func NewLoadRun(tenantID, tableName string) *LoadRun {
	return &LoadRun{
		RunID:     uuid.NewString(),
		TenantID:  tenantID,
		TableName: tableName,
		StartedAt: time.Now(),
		Status:    RunStatusInProgress,
	}
}

// SealSuccess фиксирует успешное завершение загрузки
func (r *LoadRun) SealSuccess(processed, skipped, rejected int, validationReport string) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusSuccess
	r.RecordsProcessed = processed
	r.RecordsSkipped = skipped
	r.RecordsRejected = rejected
	r.ValidationReport = validationReport
	r.ExecutionTimeSeconds = r.FinishedAt.Sub(r.StartedAt).Seconds()
}

// SealFailure фиксирует неудачное завершение загрузки
func (r *LoadRun) SealFailure(errorDetail string) {
	r.FinishedAt = time.Now()
	r.Status = RunStatusFailed
	r.ErrorDetail = errorDetail
	r.ExecutionTimeSeconds = r.FinishedAt.Sub(r.StartedAt).Seconds()
}

// LoadRunRepository представляет репозиторий журнала загрузок etl_load_log
type LoadRunRepository interface {
	// CreateEntry создает запись о начале попытки загрузки
	CreateEntry(run *LoadRun) error

	// SealEntry фиксирует итог попытки загрузки
	SealEntry(run *LoadRun) error

	// GetRecentRuns возвращает записи журнала за указанное число дней
	GetRecentRuns(days int) ([]LoadRun, error)

	// GetRunsByTenant возвращает записи журнала для одного арендатора
	GetRunsByTenant(tenantID string, limit int) ([]LoadRun, error)
}
