package models

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MySQLLoadRunRepository реализация LoadRunRepository для MySQL
type MySQLLoadRunRepository struct {
	db *sql.DB
}

// NewMySQLLoadRunRepository создает новый экземпляр MySQLLoadRunRepository
func NewMySQLLoadRunRepository(db *sql.DB) *MySQLLoadRunRepository {
	return &MySQLLoadRunRepository{
		db: db,
	}
}

// CreateLoadLogTable создает таблицу журнала загрузок, если она не существует
func (r *MySQLLoadRunRepository) CreateLoadLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_load_log (
		run_id CHAR(36) PRIMARY KEY,
		tenant_id VARCHAR(64) NOT NULL,
		table_name VARCHAR(64) NOT NULL,
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP NULL,
		status ENUM('in_progress', 'success', 'failed') NOT NULL DEFAULT 'in_progress',
		records_processed INT DEFAULT 0,
		records_skipped INT DEFAULT 0,
		records_rejected INT DEFAULT 0,
		error_detail TEXT,
		validation_report TEXT,
		execution_time_seconds FLOAT,
		INDEX idx_load_log_tenant (tenant_id, started_at)
	);
	`

	_, err := r.db.Exec(query)
	if err != nil {
		return fmt.Errorf("ошибка при создании таблицы etl_load_log: %w", err)
	}

	return nil
}

// CreateEntry создает запись о начале попытки загрузки
func (r *MySQLLoadRunRepository) CreateEntry(run *LoadRun) error {
	query := `
	INSERT INTO etl_load_log (run_id, tenant_id, table_name, started_at, status)
	VALUES (?, ?, ?, ?, 'in_progress')
	`

	_, err := r.db.Exec(query, run.RunID, run.TenantID, run.TableName, run.StartedAt)
	if err != nil {
		return fmt.Errorf("ошибка при создании записи журнала загрузок: %w", err)
	}

	return nil
}

// SealEntry фиксирует итог попытки загрузки
func (r *MySQLLoadRunRepository) SealEntry(run *LoadRun) error {
	query := `
	UPDATE etl_load_log
	SET
		finished_at = ?,
		status = ?,
		records_processed = ?,
		records_skipped = ?,
		records_rejected = ?,
		error_detail = ?,
		validation_report = ?,
		execution_time_seconds = ?
	WHERE run_id = ?
	`

	_, err := r.db.Exec(
		query,
		run.FinishedAt,
		run.Status,
		run.RecordsProcessed,
		run.RecordsSkipped,
		run.RecordsRejected,
		run.ErrorDetail,
		run.ValidationReport,
		run.ExecutionTimeSeconds,
		run.RunID,
	)
	if err != nil {
		return fmt.Errorf("ошибка при фиксации записи журнала загрузок: %w", err)
	}

	return nil
}

// GetRecentRuns возвращает записи журнала за указанное число дней
func (r *MySQLLoadRunRepository) GetRecentRuns(days int) ([]LoadRun, error) {
	query := `
	SELECT
		run_id, tenant_id, table_name, started_at, IFNULL(finished_at, NOW()), status,
		records_processed, records_skipped, records_rejected,
		IFNULL(error_detail, ''), IFNULL(validation_report, ''), IFNULL(execution_time_seconds, 0)
	FROM etl_load_log
	WHERE started_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY started_at DESC
	`

	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала загрузок: %w", err)
	}
	defer rows.Close()

	return scanLoadRuns(rows)
}

// GetRunsByTenant возвращает записи журнала для одного арендатора
func (r *MySQLLoadRunRepository) GetRunsByTenant(tenantID string, limit int) ([]LoadRun, error) {
	query := `
	SELECT
		run_id, tenant_id, table_name, started_at, IFNULL(finished_at, NOW()), status,
		records_processed, records_skipped, records_rejected,
		IFNULL(error_detail, ''), IFNULL(validation_report, ''), IFNULL(execution_time_seconds, 0)
	FROM etl_load_log
	WHERE tenant_id = ?
	ORDER BY started_at DESC
	LIMIT ?
	`

	rows, err := r.db.Query(query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении журнала загрузок арендатора %s: %w", tenantID, err)
	}
	defer rows.Close()

	return scanLoadRuns(rows)
}

// scanLoadRuns читает записи журнала из результата запроса
func scanLoadRuns(rows *sql.Rows) ([]LoadRun, error) {
	var runs []LoadRun
	for rows.Next() {
		var run LoadRun
		err := rows.Scan(
			&run.RunID, &run.TenantID, &run.TableName, &run.StartedAt, &run.FinishedAt, &run.Status,
			&run.RecordsProcessed, &run.RecordsSkipped, &run.RecordsRejected,
			&run.ErrorDetail, &run.ValidationReport, &run.ExecutionTimeSeconds,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи журнала загрузок: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по журналу загрузок: %w", err)
	}

	return runs, nil
}

// MemoryLoadRunRepository реализация LoadRunRepository в памяти.
// Используется в демо-режиме и в тестах.
type MemoryLoadRunRepository struct {
	mu   sync.Mutex
	runs []LoadRun
}

// NewMemoryLoadRunRepository создает новый экземпляр MemoryLoadRunRepository
func NewMemoryLoadRunRepository() *MemoryLoadRunRepository {
	return &MemoryLoadRunRepository{}
}

// CreateEntry создает запись о начале попытки загрузки
func (r *MemoryLoadRunRepository) CreateEntry(run *LoadRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs = append(r.runs, *run)
	return nil
}

// SealEntry фиксирует итог попытки загрузки
func (r *MemoryLoadRunRepository) SealEntry(run *LoadRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.runs {
		if r.runs[i].RunID == run.RunID {
			r.runs[i] = *run
			return nil
		}
	}

	return fmt.Errorf("запись журнала %s не найдена", run.RunID)
}

// GetRecentRuns возвращает записи журнала за указанное число дней
func (r *MemoryLoadRunRepository) GetRecentRuns(days int) ([]LoadRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().AddDate(0, 0, -days)
	var result []LoadRun
	for _, run := range r.runs {
		if run.StartedAt.After(cutoff) {
			result = append(result, run)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	return result, nil
}

// GetRunsByTenant возвращает записи журнала для одного арендатора
func (r *MemoryLoadRunRepository) GetRunsByTenant(tenantID string, limit int) ([]LoadRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []LoadRun
	for _, run := range r.runs {
		if run.TenantID == tenantID {
			result = append(result, run)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
