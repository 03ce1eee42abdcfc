package schema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_bi/models"
)

func TestCheckAcceptsCanonicalColumns(t *testing.T) {
	sch, ok := ForKind(models.DatasetCampaigns)
	require.True(t, ok)

	sample := map[string]string{
		"tenant_id":     "tenant_001",
		"campaign_id":   "cmp-1",
		"campaign_name": "Summer Sale",
		"date":          "2026-06-01",
		"impressions":   "1000",
		"clicks":        "50",
		"conversions":   "5",
		"spend":         "200.00",
		"revenue":       "350.00",
		"region":        "EU",
		"product":       "subscription",
	}

	require.NoError(t, sch.Check(sch.FieldNames(), sample))
}

func TestCheckReportsMissingColumn(t *testing.T) {
	sch, _ := ForKind(models.DatasetSalesTargets)

	// Колонка target_amount отсутствует
	columns := []string{"tenant_id", "period", "actual_amount"}
	err := sch.Check(columns, nil)
	require.Error(t, err)

	mismatch, ok := err.(*models.SchemaMismatchError)
	require.True(t, ok)
	require.Equal(t, []string{"target_amount"}, mismatch.Missing)
	require.Empty(t, mismatch.Extra)
}

func TestCheckReportsExtraColumn(t *testing.T) {
	sch, _ := ForKind(models.DatasetSalesTargets)

	columns := []string{"tenant_id", "period", "target_amount", "actual_amount", "comment"}
	err := sch.Check(columns, nil)
	require.Error(t, err)

	mismatch, ok := err.(*models.SchemaMismatchError)
	require.True(t, ok)
	require.Equal(t, []string{"comment"}, mismatch.Extra)
	require.Empty(t, mismatch.Missing)
}

func TestCheckReportsMistypedSample(t *testing.T) {
	sch, _ := ForKind(models.DatasetCampaigns)

	sample := map[string]string{
		"tenant_id":   "tenant_001",
		"date":        "01.06.2026", // неверный формат даты
		"impressions": "many",       // не целое число
	}

	err := sch.Check(sch.FieldNames(), sample)
	require.Error(t, err)

	mismatch, ok := err.(*models.SchemaMismatchError)
	require.True(t, ok)
	require.ElementsMatch(t, []string{"date", "impressions"}, mismatch.Mistyped)
}

func TestCheckSkipsEmptySampleValues(t *testing.T) {
	sch, _ := ForKind(models.DatasetCustomers)

	// Пустые значения пропускаются: их допустимость решает валидатор
	sample := map[string]string{
		"tenant_id":   "tenant_001",
		"customer_id": "c-1",
		"name":        "",
		"category":    "",
	}

	require.NoError(t, sch.Check(sch.FieldNames(), sample))
}

func TestFieldTypeAccepts(t *testing.T) {
	tests := []struct {
		fieldType FieldType
		value     string
		want      bool
	}{
		{TypeString, "anything", true},
		{TypeInteger, "42", true},
		{TypeInteger, "42.5", false},
		{TypeFloat, "42.5", true},
		{TypeFloat, "abc", false},
		{TypeDate, "2026-06-01", true},
		{TypeDate, "06/01/2026", false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, tt.fieldType.Accepts(tt.value),
			"тип %s, значение %q", tt.fieldType, tt.value)
	}
}
