package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/utils"
)

func newTestTransformer(t *testing.T) *Transformer {
	t.Helper()
	return NewTransformer(utils.NewETLLogger(false))
}

func TestCampaignMetrics(t *testing.T) {
	batch := &models.Batch{
		Kind: models.DatasetCampaigns,
		Campaigns: []models.CampaignRecord{
			{
				TenantID:     "tenant_001",
				CampaignName: "Summer Sale",
				Date:         time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
				Impressions:  1000,
				Clicks:       50,
				Conversions:  5,
				Spend:        200,
				Revenue:      350,
			},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, nil)
	require.NoError(t, err)
	require.Len(t, result.Campaigns, 1)

	r := result.Campaigns[0]
	require.InDelta(t, 0.05, r.CTR, 1e-9)
	require.InDelta(t, 0.75, r.ROI, 1e-9)
	require.InDelta(t, 0.1, r.ConversionRate, 1e-9)
	require.Empty(t, r.Flags)

	// Исходный пакет не изменяется
	require.Zero(t, batch.Campaigns[0].CTR)
}

func TestCampaignMetricsRounding(t *testing.T) {
	batch := &models.Batch{
		Kind: models.DatasetCampaigns,
		Campaigns: []models.CampaignRecord{
			{
				TenantID:    "tenant_001",
				Impressions: 3,
				Clicks:      1,
				Conversions: 1,
				Spend:       3,
				Revenue:     4,
			},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, nil)
	require.NoError(t, err)

	r := result.Campaigns[0]
	// CTR округляется до 4 знаков, ROI и конверсия до 2
	require.InDelta(t, 0.3333, r.CTR, 1e-9)
	require.InDelta(t, 0.33, r.ROI, 1e-9)
	require.InDelta(t, 1.0, r.ConversionRate, 1e-9)
}

func TestZeroDenominatorZeroesMetricAndFlags(t *testing.T) {
	tests := []struct {
		name   string
		record models.CampaignRecord
		check  func(t *testing.T, r models.CampaignRecord)
	}{
		{
			name:   "нет показов",
			record: models.CampaignRecord{TenantID: "tenant_001", Impressions: 0, Clicks: 0, Spend: 100, Revenue: 150},
			check: func(t *testing.T, r models.CampaignRecord) {
				require.Zero(t, r.CTR)
			},
		},
		{
			name:   "нулевые затраты",
			record: models.CampaignRecord{TenantID: "tenant_001", Impressions: 100, Clicks: 10, Spend: 0, Revenue: 150},
			check: func(t *testing.T, r models.CampaignRecord) {
				require.Zero(t, r.ROI)
			},
		},
		{
			name:   "нет кликов",
			record: models.CampaignRecord{TenantID: "tenant_001", Impressions: 100, Clicks: 0, Conversions: 0, Spend: 10, Revenue: 15},
			check: func(t *testing.T, r models.CampaignRecord) {
				require.Zero(t, r.ConversionRate)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			batch := &models.Batch{Kind: models.DatasetCampaigns, Campaigns: []models.CampaignRecord{tt.record}}
			result, err := newTestTransformer(t).Transform(batch, nil)
			require.NoError(t, err)

			r := result.Campaigns[0]
			tt.check(t, r)
			require.True(t, r.HasFlag(models.FlagZeroDenominator))
		})
	}
}

func TestNegativeInputFlagged(t *testing.T) {
	batch := &models.Batch{
		Kind: models.DatasetCampaigns,
		Campaigns: []models.CampaignRecord{
			{TenantID: "tenant_001", Impressions: 1000, Clicks: 50, Conversions: 5, Spend: -200, Revenue: 350},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, nil)
	require.NoError(t, err)

	// Значение передается без изменений, решение остается за валидатором
	r := result.Campaigns[0]
	require.True(t, r.HasFlag(models.FlagNegativeInput))
	require.InDelta(t, -200.0, r.Spend, 1e-9)
}

func TestExtractionFlagsSurviveTransform(t *testing.T) {
	batch := &models.Batch{
		Kind: models.DatasetCampaigns,
		Campaigns: []models.CampaignRecord{
			{
				TenantID: "tenant_001", CampaignName: "Hollow",
				Impressions: 0, Clicks: 0, Conversions: 0, Spend: 0, Revenue: 0,
				Flags: []models.RowFlag{models.FlagNullFact},
			},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, nil)
	require.NoError(t, err)

	// Флаг пустого факта, установленный при извлечении, доходит до валидатора
	r := result.Campaigns[0]
	require.True(t, r.HasFlag(models.FlagNullFact))
	require.True(t, r.HasFlag(models.FlagZeroDenominator))
}

func TestTargetVariance(t *testing.T) {
	batch := &models.Batch{
		Kind: models.DatasetSalesTargets,
		Targets: []models.SalesTargetRecord{
			{TenantID: "tenant_001", Period: "2026-06", TargetAmount: 10000, ActualAmount: 12500.25},
			{TenantID: "tenant_001", Period: "2026-07", TargetAmount: 10000, ActualAmount: 8000},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, nil)
	require.NoError(t, err)
	require.InDelta(t, 2500.25, result.Targets[0].Variance, 1e-9)
	require.InDelta(t, -2000.0, result.Targets[1].Variance, 1e-9)
}

func TestCustomerDiffAgainstSnapshot(t *testing.T) {
	snapshot := models.CustomerSnapshot{
		{TenantID: "tenant_001", CustomerID: "c-1"}: {
			TenantID: "tenant_001", CustomerID: "c-1",
			Name: "Acme LLC", Category: "premium", Email: "ops@acme.example", Region: "EU",
		},
		{TenantID: "tenant_001", CustomerID: "c-2"}: {
			TenantID: "tenant_001", CustomerID: "c-2",
			Name: "Globex", Category: "basic", Email: "info@globex.example", Region: "NA",
		},
	}

	batch := &models.Batch{
		Kind: models.DatasetCustomers,
		Customers: []models.CustomerRecord{
			// Атрибуты совпадают с текущей версией
			{TenantID: "tenant_001", CustomerID: "c-1", Name: "Acme LLC", Category: "premium", Email: "ops@acme.example", Region: "EU"},
			// Категория изменилась
			{TenantID: "tenant_001", CustomerID: "c-2", Name: "Globex", Category: "premium", Email: "info@globex.example", Region: "NA"},
			// Сущности нет в снимке
			{TenantID: "tenant_001", CustomerID: "c-3", Name: "Initech", Category: "basic"},
		},
	}

	result, err := newTestTransformer(t).Transform(batch, snapshot)
	require.NoError(t, err)
	require.Equal(t, models.SCDUnchanged, result.Customers[0].SCDStatus)
	require.Equal(t, models.SCDChanged, result.Customers[1].SCDStatus)
	require.Equal(t, models.SCDNew, result.Customers[2].SCDStatus)
}
