package extractors

import (
	"github.com/LilVoxy/coursework_bi/models"
)

// campaignFactFields числовые факты кампании, пустота которых помечается флагом
var campaignFactFields = []string{"impressions", "clicks", "conversions", "spend", "revenue"}

// normalizeCampaignRow приводит сырую строку к записи рекламной кампании
func normalizeCampaignRow(row RawRow) (models.CampaignRecord, error) {
	var record models.CampaignRecord
	var err error

	record.TenantID = row["tenant_id"]
	record.CampaignID = row["campaign_id"]
	record.CampaignName = row["campaign_name"]
	record.Region = row["region"]
	record.Product = row["product"]

	if record.Date, err = parseDateField(row, "date"); err != nil {
		return record, err
	}
	if record.Impressions, err = parseIntField(row, "impressions"); err != nil {
		return record, err
	}
	if record.Clicks, err = parseIntField(row, "clicks"); err != nil {
		return record, err
	}
	if record.Conversions, err = parseIntField(row, "conversions"); err != nil {
		return record, err
	}
	if record.Spend, err = parseFloatField(row, "spend"); err != nil {
		return record, err
	}
	if record.Revenue, err = parseFloatField(row, "revenue"); err != nil {
		return record, err
	}

	// Пустое значение факта парсер привел к нулю: помечаем строку,
	// чтобы валидатор отличил настоящий ноль от отсутствующего значения
	for _, name := range campaignFactFields {
		if row[name] == "" {
			record.Flags = append(record.Flags, models.FlagNullFact)
			break
		}
	}

	return record, nil
}
