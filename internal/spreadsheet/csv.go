package spreadsheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// ReadCSV parses a comma separated sale record table.
func ReadCSV(r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}
	return parseRows(rows), nil
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []models.SaleRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(FormatRow(rec)); err != nil {
			return fmt.Errorf("write csv record %d: %w", rec.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
