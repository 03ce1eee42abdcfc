// main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"

	"github.com/LilVoxy/coursework_bi/config"
	"github.com/LilVoxy/coursework_bi/extractors"
	"github.com/LilVoxy/coursework_bi/generator"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/monitor"
	"github.com/LilVoxy/coursework_bi/pipeline"
	"github.com/LilVoxy/coursework_bi/routes"
	"github.com/LilVoxy/coursework_bi/utils"
	"github.com/LilVoxy/coursework_bi/warehouse"
)

func main() {
	mode := flag.String("mode", "once", "Режим работы: once, scheduled, serve или demo")
	flag.Parse()

	cfg := config.GetConfig()
	logger := utils.NewETLLogger(cfg.EnableDetailedLogging)

	switch *mode {
	case "once":
		runOnce(cfg, logger)
	case "scheduled":
		runScheduled(cfg, logger)
	case "serve":
		runServe(cfg, logger)
	case "demo":
		runDemo(cfg, logger)
	default:
		log.Fatalf("❌ Неизвестный режим: %s (доступны once, scheduled, serve, demo)", *mode)
	}
}

// connectWarehouse подключается к хранилищу и готовит его таблицы
func connectWarehouse(cfg config.ETLConfig, logger *utils.ETLLogger) (*warehouse.MySQLStore, *models.MySQLLoadRunRepository, func()) {
	db, err := config.ConnectWarehouse(cfg)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к хранилищу: %v", err)
	}

	store := warehouse.NewMySQLStore(db, logger)
	if err := store.CreateTables(); err != nil {
		config.CloseWarehouse(db)
		log.Fatalf("❌ Не удалось создать таблицы хранилища: %v", err)
	}

	runRepo := models.NewMySQLLoadRunRepository(db)
	if err := runRepo.CreateLoadLogTable(); err != nil {
		config.CloseWarehouse(db)
		log.Fatalf("❌ Не удалось создать таблицу журнала загрузок: %v", err)
	}

	return store, runRepo, func() { config.CloseWarehouse(db) }
}

// buildSources собирает источники данных из конфигурации.
// Если API клиентов не настроен, используются сгенерированные данные.
func buildSources(cfg config.ETLConfig) pipeline.Sources {
	sources := pipeline.Sources{
		Campaigns: extractors.NewCSVSource(cfg.CampaignCSVPath),
		Targets:   extractors.NewExcelSource(cfg.TargetsXLSXPath, ""),
	}

	if cfg.CustomerAPIURL != "" {
		sources.Customers = extractors.NewAPISource(cfg.CustomerAPIURL)
	} else {
		gen := generator.NewGenerator(time.Now().UnixNano())
		sources.Customers = gen.CustomerSource(cfg.Tenants, 25)
	}

	return sources
}

// runOnce выполняет один запуск пайплайна и завершается
func runOnce(cfg config.ETLConfig, logger *utils.ETLLogger) {
	store, runRepo, closeFn := connectWarehouse(cfg, logger)
	defer closeFn()

	runner, err := pipeline.NewRunner(cfg, logger, store, runRepo)
	if err != nil {
		log.Fatalf("❌ Не удалось создать Runner: %v", err)
	}

	summary, err := runner.Execute(buildSources(cfg))
	if err != nil {
		log.Fatalf("❌ Ошибка при выполнении пайплайна: %v", err)
	}

	logger.Info("%s", pipeline.FormatSummary(summary))
	if summary.Failed() {
		os.Exit(1)
	}
}

// runScheduled запускает пайплайн по расписанию до сигнала завершения
func runScheduled(cfg config.ETLConfig, logger *utils.ETLLogger) {
	store, runRepo, closeFn := connectWarehouse(cfg, logger)
	defer closeFn()

	runner, err := pipeline.NewRunner(cfg, logger, store, runRepo)
	if err != nil {
		log.Fatalf("❌ Не удалось создать Runner: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов завершения
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Println("Получен сигнал завершения. Останавливаем пайплайн...")
		cancel()
	}()

	runner.StartScheduler(ctx, buildSources(cfg))
}

// runServe запускает HTTP-сервер отчетов вместе с планировщиком
func runServe(cfg config.ETLConfig, logger *utils.ETLLogger) {
	fmt.Println("Запуск сервера...")

	store, runRepo, closeFn := connectWarehouse(cfg, logger)
	defer closeFn()

	runner, err := pipeline.NewRunner(cfg, logger, store, runRepo)
	if err != nil {
		log.Fatalf("❌ Не удалось создать Runner: %v", err)
	}

	// Монитор запусков через WebSocket
	hub := monitor.NewHub()
	go hub.Run()
	runner.SetNotifier(hub)

	// Создаем маршрутизатор
	router := mux.NewRouter()
	routes.SetupRoutes(router, store, runRepo, hub, cfg.Tenants)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		log.Println("Получен сигнал завершения. Останавливаем сервер...")
		cancel()
	}()

	go runner.StartScheduler(ctx, buildSources(cfg))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Ошибка при остановке сервера: %v", err)
		}
	}()

	logger.Info("Сервер отчетов запущен на %s", cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("❌ Ошибка сервера: %v", err)
	}
}

// runDemo прогоняет пайплайн на сгенерированных данных в памяти
// и печатает сводку по кампаниям каждого арендатора
func runDemo(cfg config.ETLConfig, logger *utils.ETLLogger) {
	fmt.Println("Демонстрационный запуск на сгенерированных данных")

	tmpDir, err := os.MkdirTemp("", "bi_demo")
	if err != nil {
		log.Fatalf("❌ Не удалось создать временный каталог: %v", err)
	}
	defer os.RemoveAll(tmpDir)
	cfg.ArchiveDir = filepath.Join(tmpDir, "archive")

	gen := generator.NewGenerator(time.Now().UnixNano())
	csvPath := filepath.Join(tmpDir, "marketing_campaigns.csv")
	xlsxPath := filepath.Join(tmpDir, "sales_targets.xlsx")

	if err := gen.GenerateCampaignCSV(csvPath, cfg.Tenants, 40, cfg.IngestionWindowFrom, cfg.IngestionWindowTo); err != nil {
		log.Fatalf("❌ Не удалось сгенерировать кампании: %v", err)
	}
	if err := gen.GenerateTargetsXLSX(xlsxPath, cfg.Tenants, time.Now().Year()); err != nil {
		log.Fatalf("❌ Не удалось сгенерировать планы продаж: %v", err)
	}

	store := warehouse.NewMemoryStore()
	runRepo := models.NewMemoryLoadRunRepository()

	runner, err := pipeline.NewRunner(cfg, logger, store, runRepo)
	if err != nil {
		log.Fatalf("❌ Не удалось создать Runner: %v", err)
	}

	sources := pipeline.Sources{
		Campaigns: extractors.NewCSVSource(csvPath),
		Targets:   extractors.NewExcelSource(xlsxPath, ""),
		Customers: gen.CustomerSource(cfg.Tenants, 25),
	}

	summary, err := runner.Execute(sources)
	if err != nil {
		log.Fatalf("❌ Ошибка при выполнении пайплайна: %v", err)
	}

	fmt.Printf("\nОбработано записей: %d, пропущено дубликатов: %d, отброшено строк: %d\n\n",
		summary.RecordsProcessed, summary.DuplicatesSkipped, summary.RowsRejected)

	// Сводка по арендаторам как в отчетном API
	report, err := routes.BuildCampaignSummary(store, cfg.Tenants)
	if err != nil {
		log.Fatalf("❌ Не удалось собрать сводку: %v", err)
	}
	for _, t := range report.Tenants {
		fmt.Printf("Арендатор %s: кампаний %d, показов %d, кликов %d, выручка %.2f, средний CTR %.4f, средний ROI %.2f\n",
			t.TenantID, t.Campaigns, t.TotalImpressions, t.TotalClicks, t.TotalRevenue, t.AvgCTR, t.AvgROI)
	}
}
