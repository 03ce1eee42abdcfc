package transform

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// transformCampaigns рассчитывает производные метрики рекламных кампаний:
// CTR = clicks/impressions, ROI = (revenue-spend)/spend,
// conversion_rate = conversions/clicks.
//
// Политика крайних случаев:
//   - нулевой знаменатель: метрика обнуляется, строка получает флаг
//     zero_denominator, решение об отклонении остается за валидатором;
//   - отрицательные входные значения передаются без изменений
//     с флагом negative_input.
func transformCampaigns(records []models.CampaignRecord) []models.CampaignRecord {
	result := make([]models.CampaignRecord, len(records))

	for i, record := range records {
		// Флаги, установленные на фазе Extract, сохраняются для валидатора
		if record.Impressions < 0 || record.Clicks < 0 || record.Conversions < 0 || record.Spend < 0 {
			record.Flags = appendFlagOnce(record.Flags, models.FlagNegativeInput)
		}

		// CTR, округление до 4 знаков
		if record.Impressions == 0 {
			record.CTR = 0
			record.Flags = appendFlagOnce(record.Flags, models.FlagZeroDenominator)
		} else {
			record.CTR = roundTo(float64(record.Clicks)/float64(record.Impressions), 4)
		}

		// ROI, округление до 2 знаков
		if record.Spend == 0 {
			record.ROI = 0
			record.Flags = appendFlagOnce(record.Flags, models.FlagZeroDenominator)
		} else {
			record.ROI = roundTo((record.Revenue-record.Spend)/record.Spend, 2)
		}

		// Конверсия из клика, округление до 2 знаков
		if record.Clicks == 0 {
			record.ConversionRate = 0
			record.Flags = appendFlagOnce(record.Flags, models.FlagZeroDenominator)
		} else {
			record.ConversionRate = roundTo(float64(record.Conversions)/float64(record.Clicks), 2)
		}

		result[i] = record
	}

	return result
}

// appendFlagOnce добавляет флаг, если он еще не установлен
func appendFlagOnce(flags []models.RowFlag, flag models.RowFlag) []models.RowFlag {
	for _, f := range flags {
		if f == flag {
			return flags
		}
	}
	return append(flags, flag)
}
