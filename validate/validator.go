// Package validate реализует набор проверок качества данных.
// Проверки выполняются в фиксированном порядке над преобразованным пакетом;
// любое нарушение с серьезностью fail отклоняет пакет целиком.
package validate

import (
	"encoding/json"

	"github.com/LilVoxy/coursework_bi/config"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/utils"
)

// Severity серьезность нарушения
type Severity string

const (
	SeverityWarn Severity = "warn"
	SeverityFail Severity = "fail"
)

// CheckResult итог одной проверки
type CheckResult struct {
	Name       string   `json:"name"`
	Severity   Severity `json:"severity"`
	Violations int      `json:"violations"`
	Details    []string `json:"details,omitempty"`
}

// ValidationReport отчет о проверке пакета
type ValidationReport struct {
	Kind     models.DatasetKind `json:"dataset"`
	TenantID string             `json:"tenant_id"`
	Results  []CheckResult      `json:"results"`
}

// Failed сообщает, есть ли в отчете нарушения с серьезностью fail
func (r *ValidationReport) Failed() bool {
	for _, result := range r.Results {
		if result.Severity == SeverityFail && result.Violations > 0 {
			return true
		}
	}
	return false
}

// Warnings возвращает количество нарушений с серьезностью warn
func (r *ValidationReport) Warnings() int {
	total := 0
	for _, result := range r.Results {
		if result.Severity == SeverityWarn {
			total += result.Violations
		}
	}
	return total
}

// FailureDetails возвращает список нарушений с серьезностью fail
func (r *ValidationReport) FailureDetails() []string {
	var details []string
	for _, result := range r.Results {
		if result.Severity == SeverityFail && result.Violations > 0 {
			details = append(details, result.Details...)
		}
	}
	return details
}

// ToJSON сериализует отчет для сохранения рядом с записью журнала загрузок
func (r *ValidationReport) ToJSON() string {
	data, err := json.Marshal(r)
	if err != nil {
		return ""
	}
	return string(data)
}

// Check одна проверка качества данных. Проверка может вернуть несколько
// результатов с разной серьезностью.
type Check interface {
	Name() string
	Run(batch *models.Batch) []CheckResult
}

// Validator выполняет упорядоченный список проверок над пакетом
type Validator struct {
	cfg    config.ETLConfig
	logger *utils.ETLLogger
	checks []Check
}

// NewValidator создает валидатор с обязательным набором проверок
func NewValidator(cfg config.ETLConfig, logger *utils.ETLLogger) *Validator {
	return &Validator{
		cfg:    cfg,
		logger: logger,
		checks: []Check{
			&nullCriticalCheck{},
			&rangeCheck{cfg: cfg},
			&duplicateCheck{},
			&referentialCheck{cfg: cfg},
		},
	}
}

// AddCheck добавляет дополнительную проверку в конец списка
func (v *Validator) AddCheck(check Check) {
	v.checks = append(v.checks, check)
}

// Validate выполняет все проверки и формирует отчет
func (v *Validator) Validate(batch *models.Batch, tenantID string) *ValidationReport {
	report := &ValidationReport{
		Kind:     batch.Kind,
		TenantID: tenantID,
	}

	for _, check := range v.checks {
		results := check.Run(batch)
		report.Results = append(report.Results, results...)
	}

	v.logger.LogValidationReport(string(batch.Kind), tenantID, report.Failed(), report.Warnings())

	return report
}
