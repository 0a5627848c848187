package sheets

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

type fakeRepository struct {
	rows     [][]interface{}
	ranges   []string
	readErr  error
	writeErr error
}

func (f *fakeRepository) WriteRow(_ context.Context, sheetRange string, values []interface{}) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.ranges = append(f.ranges, sheetRange)
	f.rows = append(f.rows, values)
	return nil
}

func (f *fakeRepository) ReadRange(_ context.Context, sheetRange string) ([][]interface{}, error) {
	f.ranges = append(f.ranges, sheetRange)
	return f.rows, f.readErr
}

func TestRecordStore_AppendThenSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepository{rows: [][]interface{}{
		{"ID", "Name", "Description", "Quantity Type", "SKU", "Quantity", "Cost Price", "Selling Price", "Date"},
	}}
	store := NewRecordStore(repo, "", nil)

	rec := models.SaleRecord{
		ID:           3,
		Name:         "Flour",
		QuantityType: models.QuantityKilogram,
		Quantity:     2,
		CostPrice:    decimal.RequireFromString("1.10"),
		SellPrice:    decimal.RequireFromString("1.60"),
		Date:         civil.Date{Year: 2026, Month: 10, Day: 16},
	}
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if repo.ranges[0] != DefaultSalesRange {
		t.Errorf("expected default range, got %q", repo.ranges[0])
	}

	got, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	if got[0].Name != "Flour" || got[0].Quantity != 2 || !got[0].SellPrice.Equal(rec.SellPrice) || got[0].Date != rec.Date {
		t.Errorf("unexpected record %+v", got[0])
	}
}

func TestRecordStore_SnapshotParsesUnformattedValuesAndSkipsBadRows(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	repo := &fakeRepository{rows: [][]interface{}{
		{float64(1), "Tea", "", "Gram", "", float64(5), 0.5, 1.25, "2026-10-16"},
		{float64(2), "Broken", "", "Gram", "", "many", 0.5, 1.25, "2026-10-16"},
		{float64(3), "Short"},
	}}
	store := NewRecordStore(repo, "Sales!A:I", zap.New(core))

	got, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Tea" {
		t.Fatalf("expected only Tea, got %+v", got)
	}
	if !got[0].SellPrice.Equal(decimal.RequireFromString("1.25")) {
		t.Errorf("expected sell price 1.25, got %s", got[0].SellPrice)
	}
	if n := logs.FilterMessage("skip sales row").Len(); n != 2 {
		t.Errorf("expected 2 skipped rows, got %d", n)
	}
}

func TestRecordStore_PropagatesErrors(t *testing.T) {
	boom := errors.New("quota exceeded")
	store := NewRecordStore(&fakeRepository{readErr: boom, writeErr: boom}, "", nil)

	if _, err := store.Snapshot(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped read error, got %v", err)
	}
	if err := store.Append(context.Background(), models.SaleRecord{ID: 1}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
}
