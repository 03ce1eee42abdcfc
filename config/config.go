package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ETLConfig содержит конфигурацию для ETL-процесса
type ETLConfig struct {
	// Конфигурация подключения к хранилищу (OLAP)
	WarehouseConfig DatabaseConfig `json:"warehouse_config"`

	// Известные арендаторы; ссылочная проверка валидатора опирается на этот список
	Tenants []string `json:"tenants"`

	// Окно загрузки: даты фактов вне окна отклоняются валидатором
	IngestionWindowFrom time.Time `json:"ingestion_window_from"`
	IngestionWindowTo   time.Time `json:"ingestion_window_to"`

	// Пороговые значения правдоподобия для ROI
	ROIFailMin float64 `json:"roi_fail_min"` // ниже порога: ошибка валидации
	ROIFailMax float64 `json:"roi_fail_max"` // выше порога: ошибка валидации
	ROIWarnMax float64 `json:"roi_warn_max"` // выше порога: предупреждение

	// Интервал запуска ETL в режиме scheduled
	RunInterval time.Duration `json:"run_interval"`

	// Таймаут одного запуска пайплайна; 0 означает без ограничения
	RunTimeout time.Duration `json:"run_timeout"`

	// Пути к источникам данных
	CampaignCSVPath string `json:"campaign_csv_path"`
	TargetsXLSXPath string `json:"targets_xlsx_path"`
	CustomerAPIURL  string `json:"customer_api_url"`

	// Каталог архива отброшенных строк
	ArchiveDir string `json:"archive_dir"`

	// Адрес HTTP API отчетности
	HTTPAddr string `json:"http_addr"`

	// Включение/отключение подробного логирования
	EnableDetailedLogging bool `json:"enable_detailed_logging"`
}

// DatabaseConfig содержит настройки подключения к базе данных
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// Значения конфигурации по умолчанию
var (
	DefaultWarehouseConfig = DatabaseConfig{
		Driver:   "mysql",
		Host:     "localhost",
		Port:     3306,
		User:     "root",
		Password: "",
		DBName:   "bi_warehouse",
	}

	DefaultETLConfig = ETLConfig{
		WarehouseConfig:       DefaultWarehouseConfig,
		Tenants:               []string{"tenant_001", "tenant_002", "tenant_003"},
		ROIFailMin:            -1.0,
		ROIFailMax:            100.0,
		ROIWarnMax:            10.0,
		RunInterval:           1 * time.Hour,
		RunTimeout:            30 * time.Minute,
		CampaignCSVPath:       "marketing_campaigns.csv",
		TargetsXLSXPath:       "sales_targets.xlsx",
		CustomerAPIURL:        "",
		ArchiveDir:            "etl_archive",
		HTTPAddr:              ":8090",
		EnableDetailedLogging: true,
	}
)

// GetConfig возвращает конфигурацию ETL.
// Значения по умолчанию могут быть переопределены переменными окружения
// (в том числе из файла .env, если он присутствует).
func GetConfig() ETLConfig {
	// Загружаем .env, если файл существует; отсутствие файла не является ошибкой
	if err := godotenv.Load(); err == nil {
		log.Println("Конфигурация дополнена значениями из .env")
	}

	config := DefaultETLConfig

	// Окно загрузки по умолчанию: последние 90 дней
	now := time.Now()
	config.IngestionWindowTo = now
	config.IngestionWindowFrom = now.AddDate(0, 0, -90)

	applyEnvOverrides(&config)

	return config
}

// applyEnvOverrides переопределяет поля конфигурации из переменных окружения
func applyEnvOverrides(config *ETLConfig) {
	if v := os.Getenv("BI_DB_HOST"); v != "" {
		config.WarehouseConfig.Host = v
	}
	if v := os.Getenv("BI_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.WarehouseConfig.Port = port
		}
	}
	if v := os.Getenv("BI_DB_USER"); v != "" {
		config.WarehouseConfig.User = v
	}
	if v := os.Getenv("BI_DB_PASSWORD"); v != "" {
		config.WarehouseConfig.Password = v
	}
	if v := os.Getenv("BI_DB_NAME"); v != "" {
		config.WarehouseConfig.DBName = v
	}
	if v := os.Getenv("BI_CAMPAIGN_CSV"); v != "" {
		config.CampaignCSVPath = v
	}
	if v := os.Getenv("BI_TARGETS_XLSX"); v != "" {
		config.TargetsXLSXPath = v
	}
	if v := os.Getenv("BI_CUSTOMER_API_URL"); v != "" {
		config.CustomerAPIURL = v
	}
	if v := os.Getenv("BI_ARCHIVE_DIR"); v != "" {
		config.ArchiveDir = v
	}
	if v := os.Getenv("BI_HTTP_ADDR"); v != "" {
		config.HTTPAddr = v
	}
	if v := os.Getenv("BI_RUN_INTERVAL"); v != "" {
		if interval, err := time.ParseDuration(v); err == nil {
			config.RunInterval = interval
		}
	}
	if v := os.Getenv("BI_RUN_TIMEOUT"); v != "" {
		if timeout, err := time.ParseDuration(v); err == nil {
			config.RunTimeout = timeout
		}
	}
}

// KnownTenant проверяет, входит ли арендатор в список известных
func (c *ETLConfig) KnownTenant(tenantID string) bool {
	for _, t := range c.Tenants {
		if t == tenantID {
			return true
		}
	}
	return false
}
