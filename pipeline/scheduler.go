package pipeline

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
)

// StartScheduler запускает планировщик для регулярного выполнения пайплайна.
// Блокирует до отмены контекста.
func (r *Runner) StartScheduler(ctx context.Context, sources Sources) {
	scheduler := gocron.NewScheduler(time.UTC)

	r.logger.Info("Запуск планировщика пайплайна с интервалом %v", r.cfg.RunInterval)

	_, err := scheduler.Every(r.cfg.RunInterval).Do(func() {
		r.logger.Info("Запланированный запуск пайплайна")
		summary, err := r.Execute(sources)
		if err != nil {
			r.logger.Error("Ошибка при выполнении запланированного запуска: %v", err)
			return
		}
		r.logger.Info("%s", FormatSummary(summary))
	})

	if err != nil {
		r.logger.Error("Ошибка при настройке планировщика: %v", err)
		return
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик
	scheduler.Stop()
	r.logger.Info("Планировщик пайплайна остановлен")
}
