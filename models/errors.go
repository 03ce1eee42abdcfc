package models

import (
	"errors"
	"fmt"
	"strings"
)

// Причины построчного отказа на фазе Extract
const (
	ReasonMissingTenantID = "missing_tenant_id"
	ReasonBadValue        = "bad_value"
)

// RowDiagnostic описывает отброшенную строку.
// Строка отбрасывается индивидуально, пакет при этом не считается ошибочным.
type RowDiagnostic struct {
	Kind      DatasetKind `json:"dataset"`
	RowNumber int         `json:"row_number"`
	Reason    string      `json:"reason"`
	Detail    string      `json:"detail,omitempty"`
}

func (d RowDiagnostic) String() string {
	if d.Detail != "" {
		return fmt.Sprintf("строка %d (%s): %s (%s)", d.RowNumber, d.Kind, d.Reason, d.Detail)
	}
	return fmt.Sprintf("строка %d (%s): %s", d.RowNumber, d.Kind, d.Reason)
}

// SchemaMismatchError сигнализирует о несоответствии колонок источника
// объявленной схеме. Извлечение пакета прерывается полностью.
type SchemaMismatchError struct {
	Kind     DatasetKind
	Missing  []string
	Extra    []string
	Mistyped []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("отсутствуют поля: %s", strings.Join(e.Missing, ", ")))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, fmt.Sprintf("лишние поля: %s", strings.Join(e.Extra, ", ")))
	}
	if len(e.Mistyped) > 0 {
		parts = append(parts, fmt.Sprintf("неверный тип полей: %s", strings.Join(e.Mistyped, ", ")))
	}
	if len(parts) == 0 {
		parts = append(parts, "схема не совпадает")
	}
	return fmt.Sprintf("несоответствие схемы набора %s: %s", e.Kind, strings.Join(parts, "; "))
}

// ValidationFailedError сигнализирует об отклонении пакета валидатором.
// Отклоняется весь пакет целиком, загрузка для этого арендатора не выполняется.
type ValidationFailedError struct {
	Kind       DatasetKind
	TenantID   string
	Violations []string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("валидация набора %s для арендатора %s не пройдена: %s",
		e.Kind, e.TenantID, strings.Join(e.Violations, "; "))
}

// StorageConflictError сигнализирует о нарушении атомарности на стороне хранилища.
// Загрузка повторяется один раз со свежим снимком данных.
type StorageConflictError struct {
	Table    string
	TenantID string
	Err      error
}

func (e *StorageConflictError) Error() string {
	return fmt.Sprintf("конфликт хранилища при загрузке в %s (арендатор %s): %v", e.Table, e.TenantID, e.Err)
}

func (e *StorageConflictError) Unwrap() error {
	return e.Err
}

// UnknownTenantError сигнализирует о ссылке на неизвестного арендатора
type UnknownTenantError struct {
	TenantID string
}

func (e *UnknownTenantError) Error() string {
	return fmt.Sprintf("неизвестный арендатор: %s", e.TenantID)
}

// IsStorageConflict проверяет, является ли ошибка конфликтом хранилища
func IsStorageConflict(err error) bool {
	var conflict *StorageConflictError
	return errors.As(err, &conflict)
}

// IsValidationFailed проверяет, является ли ошибка отказом валидации
func IsValidationFailed(err error) bool {
	var failed *ValidationFailedError
	return errors.As(err, &failed)
}

// IsSchemaMismatch проверяет, является ли ошибка несоответствием схемы
func IsSchemaMismatch(err error) bool {
	var mismatch *SchemaMismatchError
	return errors.As(err, &mismatch)
}
