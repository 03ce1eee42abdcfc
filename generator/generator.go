// Package generator создает синтетические данные источников для
// демо-режима и тестов: CSV с кампаниями, XLSX с планами продаж
// и ответ API с клиентами.
package generator

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/LilVoxy/coursework_bi/extractors"
	"github.com/LilVoxy/coursework_bi/models"
	"github.com/LilVoxy/coursework_bi/schema"
)

var (
	campaignTypes = []string{"Social Media", "Search", "Display", "Video", "Email"}
	products      = []string{"Product A", "Product B", "Product C", "Product D", "Product E"}
	regions       = []string{"North", "South", "East", "West"}
	categories    = []string{"Product A", "Product B", "Product C"}
)

// Generator генератор синтетических данных
type Generator struct {
	rng *rand.Rand
}

// NewGenerator создает генератор с заданным зерном
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GenerateCampaignCSV записывает CSV-файл с кампаниями для каждого
// арендатора. Даты кампаний равномерно распределены внутри окна загрузки.
func (g *Generator) GenerateCampaignCSV(path string, tenants []string, perTenant int, from, to time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка при создании CSV-файла %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	sch, _ := schema.ForKind(models.DatasetCampaigns)
	if err := writer.Write(sch.FieldNames()); err != nil {
		return fmt.Errorf("ошибка при записи заголовка CSV: %w", err)
	}

	windowDays := int(to.Sub(from).Hours() / 24)
	if windowDays < 1 {
		windowDays = 1
	}

	for _, tenant := range tenants {
		for i := 0; i < perTenant; i++ {
			date := from.AddDate(0, 0, g.rng.Intn(windowDays))

			impressions := 5000 + g.rng.Intn(45000)
			clicks := 100 + g.rng.Intn(impressions/10)
			conversions := g.rng.Intn(clicks/5 + 1)
			spend := 100 + g.rng.Float64()*9900
			revenue := spend * (0.5 + g.rng.Float64()*2.5)

			record := []string{
				tenant,
				fmt.Sprintf("camp_%s_%03d", tenant, i),
				fmt.Sprintf("Campaign %d - %s", i+1, campaignTypes[g.rng.Intn(len(campaignTypes))]),
				date.Format(schema.DateLayout),
				strconv.Itoa(impressions),
				strconv.Itoa(clicks),
				strconv.Itoa(conversions),
				fmt.Sprintf("%.2f", spend),
				fmt.Sprintf("%.2f", revenue),
				regions[g.rng.Intn(len(regions))],
				products[g.rng.Intn(len(products))],
			}

			if err := writer.Write(record); err != nil {
				return fmt.Errorf("ошибка при записи строки CSV: %w", err)
			}
		}
	}

	return nil
}

// GenerateTargetsXLSX записывает XLSX-файл с помесячными планами продаж
// за указанный год
func (g *Generator) GenerateTargetsXLSX(path string, tenants []string, year int) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)

	sch, _ := schema.ForKind(models.DatasetSalesTargets)
	header := sch.FieldNames()
	for i, name := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, name); err != nil {
			return fmt.Errorf("ошибка при записи заголовка XLSX: %w", err)
		}
	}

	rowIndex := 2
	for _, tenant := range tenants {
		for month := 1; month <= 12; month++ {
			target := 5000 + g.rng.Float64()*45000
			actual := target * (0.6 + g.rng.Float64()*0.8)

			values := []interface{}{
				tenant,
				fmt.Sprintf("%d-%02d", year, month),
				roundCents(target),
				roundCents(actual),
			}

			for i, value := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, rowIndex)
				if err := file.SetCellValue(sheet, cell, value); err != nil {
					return fmt.Errorf("ошибка при записи строки XLSX: %w", err)
				}
			}
			rowIndex++
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("ошибка при сохранении XLSX-файла %s: %w", path, err)
	}

	return nil
}

// CustomerSource возвращает источник клиентов, имитирующий ответ API.
// Используется как резервный вариант при недоступности настоящего API.
func (g *Generator) CustomerSource(tenants []string, perTenant int) *extractors.MemorySource {
	sch, _ := schema.ForKind(models.DatasetCustomers)

	source := &extractors.MemorySource{
		SourceKind: models.SourceAPI,
		Columns:    sch.FieldNames(),
	}

	for _, tenant := range tenants {
		for i := 0; i < perTenant; i++ {
			source.Rows = append(source.Rows, extractors.RawRow{
				"tenant_id":   tenant,
				"customer_id": fmt.Sprintf("cust_%s_%03d", tenant, i),
				"name":        fmt.Sprintf("Customer %d", i+1),
				"category":    categories[g.rng.Intn(len(categories))],
				"email":       fmt.Sprintf("customer%d@%s.example.com", i+1, tenant),
				"region":      regions[g.rng.Intn(len(regions))],
			})
		}
	}

	return source
}

// roundCents округляет сумму до копеек
func roundCents(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
