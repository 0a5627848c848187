package analytics

import (
	"testing"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

func TestFinancials_ProfitLossPartition(t *testing.T) {
	engine := NewEngine(nil)
	records := []models.SaleRecord{
		sale(1, "Tea", 10, "5", "15", refDate),  // +100
		sale(2, "Milk", 3, "20", "10", refDate), // -30
		sale(3, "Bread", 4, "7", "7", refDate),  // 0
		sale(4, "Tea", 50, "1", "2", refDate.AddDays(-1)),
	}

	got := engine.Financials(records, refDate)

	if !got.Profit.Equal(dec("100")) {
		t.Errorf("expected profit 100, got %s", got.Profit)
	}
	if !got.Loss.Equal(dec("-30")) {
		t.Errorf("expected signed loss -30, got %s", got.Loss)
	}
	if !got.Earnings.Equal(dec("70")) {
		t.Errorf("expected earnings 70, got %s", got.Earnings)
	}
}

func TestFinancials_LossIsNeverPositive(t *testing.T) {
	engine := NewEngine(nil)
	records := []models.SaleRecord{
		sale(1, "A", 1, "3", "1", refDate),
		sale(2, "B", 2, "9.75", "4.25", refDate),
	}

	got := engine.Financials(records, refDate)

	if got.Loss.IsPositive() {
		t.Fatalf("expected loss <= 0, got %s", got.Loss)
	}
	if !got.Loss.Equal(dec("-13")) {
		t.Errorf("expected loss -13, got %s", got.Loss)
	}
	if !got.Profit.IsZero() {
		t.Errorf("expected zero profit, got %s", got.Profit)
	}
}

func TestFinancials_NoRecordsOnTargetDate(t *testing.T) {
	engine := NewEngine(nil)
	records := []models.SaleRecord{
		sale(1, "Tea", 10, "5", "15", refDate.AddDays(1)),
	}

	got := engine.Financials(records, refDate)

	if !got.Profit.IsZero() || !got.Loss.IsZero() || !got.Earnings.IsZero() {
		t.Errorf("expected all zero, got %+v", got)
	}
}

func TestFinancials_EarningsEqualsProfitPlusLoss(t *testing.T) {
	engine := NewEngine(nil)
	sets := [][]models.SaleRecord{
		nil,
		{sale(1, "A", 1, "1", "2", refDate)},
		{sale(1, "A", 7, "2.10", "1.05", refDate), sale(2, "B", 3, "0.33", "0.99", refDate)},
		{sale(1, "A", 0, "5", "1", refDate), sale(2, "A", 9, "4.5", "4.75", refDate), sale(3, "C", 2, "8", "1", refDate)},
	}

	for i, records := range sets {
		got := engine.Financials(records, refDate)
		if sum := got.Profit.Add(got.Loss); !sum.Equal(got.Earnings) {
			t.Errorf("set %d: profit %s + loss %s != earnings %s", i, got.Profit, got.Loss, got.Earnings)
		}
	}
}

func TestFinancials_SkipsInvalidRecords(t *testing.T) {
	engine, logs := observedEngine()
	records := []models.SaleRecord{
		sale(1, "Tea", 10, "5", "15", refDate),
		sale(2, "Broken", -4, "1", "100", refDate),
	}

	got := engine.Financials(records, refDate)

	if !got.Earnings.Equal(dec("100")) {
		t.Errorf("expected invalid record to be ignored, earnings %s", got.Earnings)
	}
	skipped := logs.FilterMessage("skip invalid sale record")
	if skipped.Len() != 1 {
		t.Fatalf("expected 1 skip log, got %d", skipped.Len())
	}
	if id := skipped.All()[0].ContextMap()["id"]; id != int64(2) {
		t.Errorf("expected skipped id 2, got %v", id)
	}
}
