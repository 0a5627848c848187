package spreadsheet

import (
	"bytes"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

const (
	// ContentTypeXLSX is the MIME type of workbooks written by WriteXLSX.
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	recordsSheet = "Records"
	reportSheet  = "Report"
)

// ReadXLSX parses the first sheet of a workbook.
func ReadXLSX(r io.Reader) (ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ImportResult{}, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return ImportResult{}, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseRows(rows), nil
}

// WriteXLSX writes a workbook with a Records sheet and, when report is not
// nil, a Report sheet holding the forecast, financials and ranking.
func WriteXLSX(w io.Writer, records []models.SaleRecord, report *models.Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), recordsSheet); err != nil {
		return fmt.Errorf("rename records sheet: %w", err)
	}
	if err := writeRecords(f, records); err != nil {
		return err
	}

	if report != nil {
		if _, err := f.NewSheet(reportSheet); err != nil {
			return fmt.Errorf("create report sheet: %w", err)
		}
		if err := writeReport(f, report); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Template returns an empty import workbook holding only the header row.
func Template() ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeRecords(f *excelize.File, records []models.SaleRecord) error {
	if err := setRow(f, recordsSheet, 1, toCells(Header)); err != nil {
		return err
	}
	for i, rec := range records {
		values := []interface{}{
			rec.ID,
			rec.Name,
			rec.Description,
			string(rec.QuantityType),
			rec.SKU,
			rec.Quantity,
			rec.CostPrice.InexactFloat64(),
			rec.SellPrice.InexactFloat64(),
			rec.Date.String(),
		}
		if err := setRow(f, recordsSheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(f *excelize.File, report *models.Report) error {
	rows := [][]interface{}{
		{"Report date", report.Date.String()},
		{"Records", report.RecordCount},
		{"Forecast mode", report.Month.Mode},
		{"Sales after a month", forecastCell(report.Month)},
		{"Sales after a year", forecastCell(report.Year)},
		{"Total profit", report.Financials.Profit.InexactFloat64()},
		{"Total loss", report.Financials.Loss.InexactFloat64()},
		{"Total earnings", report.Financials.Earnings.InexactFloat64()},
		{},
		{"Top products", "Quantity"},
	}
	for _, p := range report.TopProducts {
		rows = append(rows, []interface{}{p.Name, p.Quantity})
	}

	for i, row := range rows {
		if err := setRow(f, reportSheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func forecastCell(fc models.Forecast) interface{} {
	if !fc.Available {
		return "n/a"
	}
	return fc.Value.InexactFloat64()
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
