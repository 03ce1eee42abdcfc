// Package pipeline последовательно выполняет фазы Extract, Transform,
// Validate и Load для каждого арендатора и каждого набора данных.
// Арендаторы обрабатываются параллельно: их данные полностью изолированы,
// и сбой одного арендатора не прерывает обработку остальных.
package pipeline

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/LilVoxy/coursework_bi/archive"
	"github.com/LilVoxy/coursework_bi/config"
	"github.com/LilVoxy/coursework_bi/extractors"
	"github.com/LilVoxy/coursework_bi/load"
	"github.com/LilVoxy/coursework_bi/metrics"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/transform"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/validate"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

// Sources источники всех наборов данных одного запуска.
// Неуказанный источник означает, что набор в этом запуске не загружается.
type Sources struct {
	Campaigns extractors.Source
	Targets   extractors.Source
	Customers extractors.Source
}

// RunSummary итог одного запуска пайплайна
type RunSummary struct {
	RunID             string                        `json:"run_id"`
	StartedAt         time.Time                     `json:"started_at"`
	Duration          time.Duration                 `json:"duration"`
	RecordsProcessed  int64                         `json:"records_processed"`
	DuplicatesSkipped int64                         `json:"duplicates_skipped"`
	UnchangedSkipped  int64                         `json:"unchanged_skipped"`
	RowsRejected      int64                         `json:"rows_rejected"`
	DatasetErrors     map[models.DatasetKind]string `json:"dataset_errors,omitempty"`
	FailedTenants     []string                      `json:"failed_tenants,omitempty"`
	TimedOut          bool                          `json:"timed_out,omitempty"`
}

// Failed сообщает, завершился ли запуск хотя бы одной ошибкой
func (s *RunSummary) Failed() bool {
	return s.TimedOut || len(s.FailedTenants) > 0 || len(s.DatasetErrors) > 0
}

// Notifier получатель итогов завершенных запусков
type Notifier interface {
	BroadcastSummary(summary interface{})
}

// Runner оркестратор пайплайна
type Runner struct {
	cfg         config.ETLConfig
	logger      *utils.ETLLogger
	extractor   *extractors.Extractor
	transformer *transform.Transformer
	validator   *validate.Validator
	loadManager *load.LoadManager
	runRepo     models.LoadRunRepository
	rejected    *archive.RejectedArchive
	notifier    Notifier
}

// NewRunner создает новый экземпляр Runner
func NewRunner(
	cfg config.ETLConfig,
	logger *utils.ETLLogger,
	store warehouse.Store,
	runRepo models.LoadRunRepository,
) (*Runner, error) {
	rejected, err := archive.NewRejectedArchive(cfg.ArchiveDir)
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:         cfg,
		logger:      logger,
		extractor:   extractors.NewExtractor(logger),
		transformer: transform.NewTransformer(logger),
		validator:   validate.NewValidator(cfg, logger),
		loadManager: load.NewLoadManager(store, logger),
		runRepo:     runRepo,
		rejected:    rejected,
		notifier:    nil,
	}, nil
}

// SetNotifier подключает получателя итогов запусков
func (r *Runner) SetNotifier(notifier Notifier) {
	r.notifier = notifier
}

// Execute выполняет полный запуск пайплайна по всем источникам
func (r *Runner) Execute(sources Sources) (*RunSummary, error) {
	startTime := time.Now()
	summary := &RunSummary{
		RunID:         uuid.NewString(),
		StartedAt:     startTime,
		DatasetErrors: make(map[models.DatasetKind]string),
	}

	r.logger.LogPipelineStart(len(r.cfg.Tenants))

	// 1. Фаза извлечения: каждый источник читается один раз,
	// затем пакет разбивается по арендаторам
	batches := r.extractAll(sources, summary)

	tasks := make(map[string][]*models.Batch)
	for _, batch := range batches {
		for tenantID, tenantBatch := range batch.SplitByTenant() {
			tasks[tenantID] = append(tasks[tenantID], tenantBatch)
		}
	}

	tenants := make([]string, 0, len(tasks))
	for tenantID := range tasks {
		tenants = append(tenants, tenantID)
	}
	sort.Strings(tenants)

	// 2. Параллельная обработка арендаторов
	processed := atomic.NewInt64(0)
	duplicates := atomic.NewInt64(0)
	unchanged := atomic.NewInt64(0)
	timedOut := atomic.NewBool(false)

	var mu sync.Mutex
	var failedTenants []string

	var wg sync.WaitGroup
	for _, tenantID := range tenants {
		wg.Add(1)
		go func(tenantID string, tenantBatches []*models.Batch) {
			defer wg.Done()

			failed := false
			for _, batch := range tenantBatches {
				if timedOut.Load() {
					// Таймаут уже истек: набор не обрабатывается,
					// но запись в журнале загрузок остается
					r.sealTimedOutRun(models.NewLoadRun(tenantID, load.TableForKind(batch.Kind)))
					failed = true
					continue
				}

				result, err := r.processBatch(tenantID, batch, timedOut)
				if err != nil {
					// Сбой одной пары (арендатор, таблица) не прерывает
					// обработку остальных наборов этого арендатора
					r.logger.Error("Обработка набора %s арендатора %s завершилась ошибкой: %v", batch.Kind, tenantID, err)
					failed = true
					continue
				}
				processed.Add(int64(result.Inserted))
				duplicates.Add(int64(result.SkippedDuplicates))
				unchanged.Add(int64(result.UnchangedSkipped))
			}

			if failed {
				mu.Lock()
				failedTenants = append(failedTenants, tenantID)
				mu.Unlock()
			}
		}(tenantID, tasks[tenantID])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	if r.cfg.RunTimeout > 0 {
		select {
		case <-done:
		case <-time.After(r.cfg.RunTimeout):
			summary.TimedOut = true
			timedOut.Store(true)
			r.logger.Error("Запуск пайплайна превысил таймаут %v и помечен как неудачный", r.cfg.RunTimeout)
		}
	} else {
		<-done
	}

	// 3. Итог запуска. Срез копируется: после таймаута горутины арендаторов
	// еще могут дописывать в failedTenants
	mu.Lock()
	sort.Strings(failedTenants)
	summary.FailedTenants = append([]string(nil), failedTenants...)
	mu.Unlock()

	summary.Duration = time.Since(startTime)
	summary.RecordsProcessed = processed.Load()
	summary.DuplicatesSkipped = duplicates.Load()
	summary.UnchangedSkipped = unchanged.Load()

	metrics.PipelineDuration.Observe(summary.Duration.Seconds())

	r.logger.LogPipelineComplete(startTime,
		int(summary.RecordsProcessed), int(summary.DuplicatesSkipped),
		int(summary.RowsRejected), len(summary.FailedTenants))

	if r.notifier != nil {
		r.notifier.BroadcastSummary(summary)
	}

	return summary, nil
}

// extractAll извлекает пакеты всех указанных источников. Несоответствие
// схемы останавливает только свой набор данных, остальные продолжаются.
func (r *Runner) extractAll(sources Sources, summary *RunSummary) []*models.Batch {
	inputs := []struct {
		kind models.DatasetKind
		src  extractors.Source
	}{
		{models.DatasetCampaigns, sources.Campaigns},
		{models.DatasetSalesTargets, sources.Targets},
		{models.DatasetCustomers, sources.Customers},
	}

	var batches []*models.Batch
	for _, input := range inputs {
		if input.src == nil {
			continue
		}

		batch, err := r.extractor.Extract(input.kind, input.src)
		if err != nil {
			summary.DatasetErrors[input.kind] = err.Error()
			continue
		}

		if len(batch.Rejected) > 0 {
			summary.RowsRejected += int64(len(batch.Rejected))
			metrics.RowsRejected.WithLabelValues(string(input.kind)).Add(float64(len(batch.Rejected)))

			if _, err := r.rejected.Write(&archive.Entry{
				RunID:       summary.RunID,
				Dataset:     input.kind,
				Diagnostics: batch.Rejected,
			}); err != nil {
				r.logger.Error("Не удалось заархивировать отброшенные строки набора %s: %v", input.kind, err)
			}
		}

		batches = append(batches, batch)
	}

	return batches
}

// timeoutErrorDetail записывается в журнал загрузок для запусков,
// не успевших завершиться до истечения таймаута пайплайна
const timeoutErrorDetail = "запуск пайплайна превысил таймаут"

// sealTimedOutRun фиксирует в журнале загрузок запись о запуске,
// оборванном таймаутом пайплайна
func (r *Runner) sealTimedOutRun(run *models.LoadRun) {
	if err := r.runRepo.CreateEntry(run); err != nil {
		r.logger.Error("Не удалось создать запись журнала загрузок: %v", err)
	}
	run.SealFailure(timeoutErrorDetail)
	if err := r.runRepo.SealEntry(run); err != nil {
		r.logger.Error("Не удалось зафиксировать запись журнала загрузок: %v", err)
	}
	metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()
}

// processBatch проводит пакет одного арендатора через фазы Transform,
// Validate и Load под одной записью журнала загрузок. Конфликт хранилища
// повторяется один раз со свежим снимком данных.
func (r *Runner) processBatch(tenantID string, batch *models.Batch, timedOut *atomic.Bool) (*load.LoadResult, error) {
	run := models.NewLoadRun(tenantID, load.TableForKind(batch.Kind))
	if err := r.runRepo.CreateEntry(run); err != nil {
		r.logger.Error("Не удалось создать запись журнала загрузок: %v", err)
	}

	result, report, err := r.attemptBatch(tenantID, batch)
	if models.IsStorageConflict(err) {
		r.logger.Info("Конфликт хранилища для арендатора %s, повтор со свежим снимком", tenantID)
		result, report, err = r.attemptBatch(tenantID, batch)
	}

	if err != nil {
		if report != nil {
			run.ValidationReport = report.ToJSON()
		}
		run.SealFailure(err.Error())
		if sealErr := r.runRepo.SealEntry(run); sealErr != nil {
			r.logger.Error("Не удалось зафиксировать запись журнала загрузок: %v", sealErr)
		}
		metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()

		if models.IsValidationFailed(err) {
			if _, archiveErr := r.rejected.Write(&archive.Entry{
				RunID:      run.RunID,
				TenantID:   tenantID,
				Dataset:    batch.Kind,
				Violations: report.FailureDetails(),
			}); archiveErr != nil {
				r.logger.Error("Не удалось заархивировать отчет о валидации: %v", archiveErr)
			}
		}

		return nil, err
	}

	// Запуск, завершившийся после истечения таймаута, не фиксируется
	// как успешный: итог уже объявлен неудачным
	if timedOut.Load() {
		run.SealFailure(timeoutErrorDetail)
		if sealErr := r.runRepo.SealEntry(run); sealErr != nil {
			r.logger.Error("Не удалось зафиксировать запись журнала загрузок: %v", sealErr)
		}
		metrics.RunsTotal.WithLabelValues(models.RunStatusFailed).Inc()
		return nil, errors.New(timeoutErrorDetail)
	}

	// Отчет с предупреждениями сохраняется рядом с записью журнала
	reportJSON := ""
	if report != nil && report.Warnings() > 0 {
		reportJSON = report.ToJSON()
	}
	run.SealSuccess(result.Inserted, result.SkippedDuplicates+result.UnchangedSkipped, 0, reportJSON)
	if sealErr := r.runRepo.SealEntry(run); sealErr != nil {
		r.logger.Error("Не удалось зафиксировать запись журнала загрузок: %v", sealErr)
	}

	metrics.RunsTotal.WithLabelValues(models.RunStatusSuccess).Inc()
	metrics.RecordsProcessed.WithLabelValues(tenantID, run.TableName).Add(float64(result.Inserted))
	metrics.DuplicatesSkipped.WithLabelValues(tenantID, run.TableName).Add(float64(result.SkippedDuplicates))

	return result, nil
}

// attemptBatch одна попытка Transform → Validate → Load
func (r *Runner) attemptBatch(tenantID string, batch *models.Batch) (*load.LoadResult, *validate.ValidationReport, error) {
	var snapshot models.CustomerSnapshot
	if batch.Kind == models.DatasetCustomers {
		var err error
		snapshot, err = r.loadManager.CustomerSnapshot(tenantID)
		if err != nil {
			return nil, nil, err
		}
	}

	transformed, err := r.transformer.Transform(batch, snapshot)
	if err != nil {
		return nil, nil, err
	}

	report := r.validator.Validate(transformed, tenantID)
	if report.Failed() {
		return nil, report, &models.ValidationFailedError{
			Kind:       batch.Kind,
			TenantID:   tenantID,
			Violations: report.FailureDetails(),
		}
	}

	result, err := r.loadManager.LoadBatch(tenantID, transformed)
	if err != nil {
		return nil, report, err
	}

	return result, report, nil
}

// FormatSummary готовит краткий отчет о запуске для вывода в лог
func FormatSummary(summary *RunSummary) string {
	var b strings.Builder
	b.WriteString("Итог запуска ")
	b.WriteString(summary.RunID)
	b.WriteString(": ")
	if summary.Failed() {
		b.WriteString("с ошибками")
	} else {
		b.WriteString("успешно")
	}
	return b.String()
}
