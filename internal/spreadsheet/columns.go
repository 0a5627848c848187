// Package spreadsheet converts sale records to and from tabular rows
// (xlsx, csv and Google Sheets all share the same column layout).
package spreadsheet

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

const (
	colID = iota
	colName
	colDescription
	colQuantityType
	colSKU
	colQuantity
	colCostPrice
	colSellPrice
	colDate
	columnCount
)

// Header is the column layout of every sale record table.
var Header = []string{
	"ID",
	"Name",
	"Description",
	"Quantity Type",
	"SKU",
	"Quantity",
	"Cost Price",
	"Selling Price",
	"Date",
}

const dateLayout = "2006-01-02"

// RowError describes a rejected input row. Row is 1-based as shown by
// spreadsheet applications.
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ImportResult holds the accepted records and the rejected rows of one file.
type ImportResult struct {
	Records  []models.SaleRecord
	Rejected []RowError
}

// IsHeader reports whether cells look like the header row.
func IsHeader(cells []string) bool {
	return len(cells) > 0 && strings.EqualFold(strings.TrimSpace(cells[colID]), Header[colID])
}

// ParseRow converts one table row into a validated SaleRecord. Missing
// trailing cells are treated as empty.
func ParseRow(cells []string) (models.SaleRecord, error) {
	trimmed := make([]string, max(columnCount, len(cells)))
	for i, cell := range cells {
		trimmed[i] = strings.TrimSpace(cell)
	}
	cells = trimmed

	var rec models.SaleRecord
	var err error

	if rec.ID, err = parseInt(cells[colID]); err != nil {
		return rec, fmt.Errorf("id: %w", err)
	}
	rec.Name = cells[colName]
	rec.Description = cells[colDescription]
	rec.QuantityType = models.QuantityType(cells[colQuantityType])
	rec.SKU = cells[colSKU]
	if rec.Quantity, err = parseInt(cells[colQuantity]); err != nil {
		return rec, fmt.Errorf("quantity: %w", err)
	}
	if rec.CostPrice, err = parseDecimal(cells[colCostPrice]); err != nil {
		return rec, fmt.Errorf("cost price: %w", err)
	}
	if rec.SellPrice, err = parseDecimal(cells[colSellPrice]); err != nil {
		return rec, fmt.Errorf("selling price: %w", err)
	}
	if rec.Date, err = parseDate(cells[colDate]); err != nil {
		return rec, fmt.Errorf("date: %w", err)
	}

	if err := rec.Validate(); err != nil {
		return rec, err
	}
	return rec, nil
}

// FormatRow renders rec in Header order.
func FormatRow(rec models.SaleRecord) []string {
	return []string{
		strconv.Itoa(rec.ID),
		rec.Name,
		rec.Description,
		string(rec.QuantityType),
		rec.SKU,
		strconv.Itoa(rec.Quantity),
		rec.CostPrice.String(),
		rec.SellPrice.String(),
		rec.Date.String(),
	}
}

// parseRows turns raw rows into an ImportResult, skipping a leading header
// and blank lines.
func parseRows(rows [][]string) ImportResult {
	result := ImportResult{Records: make([]models.SaleRecord, 0, len(rows))}
	for i, row := range rows {
		if i == 0 && IsHeader(row) {
			continue
		}
		if blank(row) {
			continue
		}
		rec, err := ParseRow(row)
		if err != nil {
			result.Rejected = append(result.Rejected, RowError{Row: i + 1, Err: err})
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result
}

var errEmpty = errors.New("empty value")

func parseInt(value string) (int, error) {
	if value == "" {
		return 0, errEmpty
	}
	// Sheets and Excel may render integers as "12.0".
	return strconv.Atoi(strings.TrimSuffix(value, ".0"))
}

var (
	errDecimalComma = errors.New("ambiguous comma, use a dot as decimal separator")

	thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// parseDecimal accepts commas only as thousands separators ("1,234.50").
// Any other comma, such as a decimal comma in "1,5", rejects the value.
func parseDecimal(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, errEmpty
	}
	if strings.Contains(value, ",") {
		if !thousandsGrouped.MatchString(value) {
			return decimal.Zero, fmt.Errorf("%w: %q", errDecimalComma, value)
		}
		value = strings.ReplaceAll(value, ",", "")
	}
	return decimal.NewFromString(value)
}

func parseDate(value string) (civil.Date, error) {
	if value == "" {
		return civil.Date{}, errEmpty
	}
	if len(value) > len(dateLayout) {
		value = value[:len(dateLayout)]
	}
	return civil.ParseDate(value)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
