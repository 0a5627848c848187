package sheets

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/spreadsheet"
)

// DefaultSalesRange holds one sale record per row in spreadsheet.Header order.
const DefaultSalesRange = "Sales!A:I"

// RecordStore persists sale records as rows of a Google Sheet.
type RecordStore struct {
	repo       Repository
	salesRange string
	logger     *zap.Logger
}

// NewRecordStore wraps a raw sheet Repository. An empty salesRange selects
// DefaultSalesRange.
func NewRecordStore(repo Repository, salesRange string, logger *zap.Logger) *RecordStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if salesRange == "" {
		salesRange = DefaultSalesRange
	}
	return &RecordStore{repo: repo, salesRange: salesRange, logger: logger}
}

// Append writes rec as a new row.
func (s *RecordStore) Append(ctx context.Context, rec models.SaleRecord) error {
	values := []interface{}{
		rec.ID,
		rec.Name,
		rec.Description,
		string(rec.QuantityType),
		rec.SKU,
		rec.Quantity,
		rec.CostPrice.String(),
		rec.SellPrice.String(),
		rec.Date.String(),
	}
	if err := s.repo.WriteRow(ctx, s.salesRange, values); err != nil {
		return fmt.Errorf("save sale record %d: %w", rec.ID, err)
	}
	return nil
}

// Snapshot reads every row of the sales range. The header row and rows that
// do not parse are skipped.
func (s *RecordStore) Snapshot(ctx context.Context) ([]models.SaleRecord, error) {
	rows, err := s.repo.ReadRange(ctx, s.salesRange)
	if err != nil {
		return nil, fmt.Errorf("load sales range: %w", err)
	}

	records := make([]models.SaleRecord, 0, len(rows))
	for i, row := range rows {
		cells := toStrings(row)
		if i == 0 && spreadsheet.IsHeader(cells) {
			continue
		}

		rec, err := spreadsheet.ParseRow(cells)
		if err != nil {
			s.logger.Debug("skip sales row", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch value := v.(type) {
		case nil:
			out[i] = ""
		case float64:
			out[i] = strconv.FormatFloat(value, 'f', -1, 64)
		default:
			out[i] = fmt.Sprint(value)
		}
	}
	return out
}
