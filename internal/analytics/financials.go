package analytics

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// Financials partitions the transactions dated exactly target into profit and
// loss. Loss is reported signed (<= 0), so Earnings == Profit + Loss.
func (e *Engine) Financials(records []models.SaleRecord, target civil.Date) models.Financials {
	out := models.Financials{
		Profit:   decimal.Zero,
		Loss:     decimal.Zero,
		Earnings: decimal.Zero,
	}

	for _, rec := range records {
		if rec.Date != target {
			continue
		}
		if e.skip(rec, "financials") {
			continue
		}

		total := rec.Total()
		switch total.Sign() {
		case 1:
			out.Profit = out.Profit.Add(total)
		case -1:
			out.Loss = out.Loss.Add(total)
		}
		out.Earnings = out.Earnings.Add(total)
	}

	return out
}
