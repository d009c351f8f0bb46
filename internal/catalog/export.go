package catalog

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const rateCardSheet = "Rate card"

// WriteRateCard builds an xlsx workbook listing the fleet and its rates.
func WriteRateCard(f Fleet, generatedAt time.Time) ([]byte, error) {
	book := excelize.NewFile()
	defer book.Close()

	index, err := book.NewSheet(rateCardSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	book.SetActiveSheet(index)

	_ = book.SetCellValue(rateCardSheet, "A1", fmt.Sprintf("Fleet rate card, %s", generatedAt.Format("02 Jan 2006")))
	_ = book.MergeCell(rateCardSheet, "A1", "E1")
	titleStyle, _ := book.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = book.SetCellStyle(rateCardSheet, "A1", "A1", titleStyle)

	headers := []string{"Aircraft", "Passengers", "Range (nm)", "Cruise (kt)", "Hourly rate (USD)"}
	headerStyle, _ := book.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = book.SetCellValue(rateCardSheet, cell, h)
		_ = book.SetCellStyle(rateCardSheet, cell, cell, headerStyle)
	}

	for i, a := range f {
		row := i + 3
		values := []interface{}{a.Name, a.PassengerCapacity, a.RangeNauticalMiles, a.CruiseSpeedKnots, a.HourlyRate}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = book.SetCellValue(rateCardSheet, cell, v)
		}
	}

	_ = book.SetColWidth(rateCardSheet, "A", "A", 28)
	_ = book.SetColWidth(rateCardSheet, "B", "E", 18)
	_ = book.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := book.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
