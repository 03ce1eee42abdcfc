// Package metrics экспортирует показатели работы пайплайна в Prometheus
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RecordsProcessed количество загруженных записей по арендаторам и таблицам
	RecordsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_records_processed_total",
		Help: "Количество записей, загруженных в хранилище",
	}, []string{"tenant", "table"})

	// DuplicatesSkipped количество пропущенных дубликатов
	DuplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_duplicates_skipped_total",
		Help: "Количество строк, пропущенных из-за существующего естественного ключа",
	}, []string{"tenant", "table"})

	// RowsRejected количество строк, отброшенных на фазе Extract
	RowsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_rows_rejected_total",
		Help: "Количество строк, отброшенных при извлечении",
	}, []string{"dataset"})

	// RunsTotal количество попыток загрузки по статусам
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "etl_load_runs_total",
		Help: "Количество попыток загрузки по итоговому статусу",
	}, []string{"status"})

	// PipelineDuration длительность полного запуска пайплайна
	PipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "etl_pipeline_duration_seconds",
		Help:    "Длительность полного запуска ETL-процесса",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
)

// Handler возвращает HTTP-обработчик для эндпоинта /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
