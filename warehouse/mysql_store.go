package warehouse

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/LilVoxy/coursework_bi/utils"
)

// MySQLStore реализация Store для MySQL
type MySQLStore struct {
	db     *sql.DB
	logger *utils.ETLLogger
}

// NewMySQLStore создает новый экземпляр MySQLStore
func NewMySQLStore(db *sql.DB, logger *utils.ETLLogger) *MySQLStore {
	return &MySQLStore{
		db:     db,
		logger: logger,
	}
}

// CreateTables создает таблицы хранилища, если они не существуют
func (s *MySQLStore) CreateTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS fact_campaigns (
			id INT AUTO_INCREMENT PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			campaign_id VARCHAR(64),
			campaign_name VARCHAR(255) NOT NULL,
			date DATE NOT NULL,
			impressions INT,
			clicks INT,
			conversions INT,
			spend DOUBLE,
			revenue DOUBLE,
			ctr DOUBLE,
			roi DOUBLE,
			conversion_rate DOUBLE,
			region VARCHAR(64),
			product VARCHAR(64),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_campaigns_natural (tenant_id, campaign_name, date),
			INDEX idx_campaigns_tenant (tenant_id)
		);`,
		`CREATE TABLE IF NOT EXISTS dim_sales_targets (
			id INT AUTO_INCREMENT PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			period VARCHAR(7) NOT NULL,
			target_amount DOUBLE,
			actual_amount DOUBLE,
			variance DOUBLE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uq_targets_natural (tenant_id, period),
			INDEX idx_targets_tenant (tenant_id)
		);`,
		`CREATE TABLE IF NOT EXISTS dim_customers (
			version_id CHAR(36) PRIMARY KEY,
			tenant_id VARCHAR(64) NOT NULL,
			customer_id VARCHAR(64) NOT NULL,
			name VARCHAR(255),
			category VARCHAR(64),
			email VARCHAR(255),
			region VARCHAR(64),
			valid_from TIMESTAMP NOT NULL,
			valid_to TIMESTAMP NULL,
			is_current BOOLEAN NOT NULL DEFAULT TRUE,
			INDEX idx_customers_entity (tenant_id, customer_id, is_current)
		);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("ошибка при создании таблиц хранилища: %w", err)
		}
	}

	s.logger.Debug("Таблицы хранилища созданы или уже существуют")
	return nil
}

// ReadTable возвращает строки таблицы, удовлетворяющие фильтру
func (s *MySQLStore) ReadTable(name string, filter Filter) ([]Row, error) {
	return readTableMySQL(s.db, name, filter)
}

// Append добавляет строки в рамках отдельной транзакции
func (s *MySQLStore) Append(name string, rows []Row) (int, int, error) {
	var inserted, skipped int
	err := s.Transaction(func(tx Tx) error {
		var txErr error
		inserted, skipped, txErr = tx.Append(name, rows)
		return txErr
	})
	return inserted, skipped, err
}

// UpsertSCD применяет правило SCD в рамках отдельной транзакции
func (s *MySQLStore) UpsertSCD(name string, key SCDKey, newRow Row) error {
	return s.Transaction(func(tx Tx) error {
		return tx.UpsertSCD(name, key, newRow)
	})
}

// Transaction выполняет fn как одну атомарную единицу
func (s *MySQLStore) Transaction(fn func(tx Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}

	if err := fn(&mysqlTx{tx: tx}); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return nil
}

// mysqlTx операции хранилища внутри одной транзакции MySQL
type mysqlTx struct {
	tx *sql.Tx
}

// queryer общий интерфейс *sql.DB и *sql.Tx
type queryer interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// ReadTable возвращает строки таблицы, удовлетворяющие фильтру
func (t *mysqlTx) ReadTable(name string, filter Filter) ([]Row, error) {
	return readTableMySQL(t.tx, name, filter)
}

// Append вставляет строки с дедупликацией по естественному ключу.
// INSERT IGNORE с уникальным ключом делает проверку и запись атомарными.
func (t *mysqlTx) Append(name string, rows []Row) (int, int, error) {
	columns := Columns(name)
	if columns == nil {
		return 0, 0, fmt.Errorf("неизвестная таблица хранилища: %s", name)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES (%s)",
		name, strings.Join(columns, ", "), placeholders)

	stmt, err := t.tx.Prepare(query)
	if err != nil {
		return 0, 0, fmt.Errorf("ошибка при подготовке запроса вставки в %s: %w", name, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, row := range rows {
		args := make([]interface{}, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}

		result, err := stmt.Exec(args...)
		if err != nil {
			return inserted, 0, fmt.Errorf("ошибка при вставке строки в %s: %w", name, err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return inserted, 0, fmt.Errorf("ошибка при подсчете вставленных строк: %w", err)
		}
		if affected > 0 {
			inserted++
		}
	}

	return inserted, len(rows) - inserted, nil
}

// UpsertSCD закрывает текущую версию сущности и вставляет новую
// одним атомарным шагом
func (t *mysqlTx) UpsertSCD(name string, key SCDKey, newRow Row) error {
	closeQuery := fmt.Sprintf(`
		UPDATE %s
		SET valid_to = ?, is_current = FALSE
		WHERE tenant_id = ? AND customer_id = ? AND is_current = TRUE
	`, name)

	if _, err := t.tx.Exec(closeQuery, newRow["valid_from"], key.TenantID, key.EntityID); err != nil {
		return fmt.Errorf("ошибка при закрытии текущей версии %s/%s: %w", key.TenantID, key.EntityID, err)
	}

	columns := Columns(name)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	insertQuery := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(columns, ", "), placeholders)

	args := make([]interface{}, len(columns))
	for i, col := range columns {
		args[i] = newRow[col]
	}

	if _, err := t.tx.Exec(insertQuery, args...); err != nil {
		return fmt.Errorf("ошибка при вставке новой версии %s/%s: %w", key.TenantID, key.EntityID, err)
	}

	return nil
}

// readTableMySQL выбирает строки таблицы через *sql.DB или *sql.Tx
func readTableMySQL(q queryer, name string, filter Filter) ([]Row, error) {
	columns := Columns(name)
	if columns == nil {
		return nil, fmt.Errorf("неизвестная таблица хранилища: %s", name)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE tenant_id = ?", strings.Join(columns, ", "), name)
	args := []interface{}{filter.TenantID}

	for col, value := range filter.Where {
		query += fmt.Sprintf(" AND %s = ?", col)
		args = append(args, value)
	}

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка при чтении таблицы %s: %w", name, err)
	}
	defer rows.Close()

	var result []Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("ошибка при сканировании строки таблицы %s: %w", name, err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по таблице %s: %w", name, err)
	}

	return result, nil
}

// IsConflictErr распознает ошибки MySQL, означающие конфликт конкурентных
// транзакций: deadlock (1213) и таймаут ожидания блокировки (1205)
func IsConflictErr(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1213 || mysqlErr.Number == 1205
	}
	return false
}
