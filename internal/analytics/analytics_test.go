package analytics

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

var refDate = civil.Date{Year: 2026, Month: 10, Day: 16}

func sale(id int, name string, qty int, cost, sell string, date civil.Date) models.SaleRecord {
	return models.SaleRecord{
		ID:           id,
		Name:         name,
		QuantityType: models.QuantityDozen,
		Quantity:     qty,
		CostPrice:    decimal.RequireFromString(cost),
		SellPrice:    decimal.RequireFromString(sell),
		Date:         date,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func observedEngine() (*Engine, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewEngine(zap.New(core)), logs
}
