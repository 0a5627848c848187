// Package analytics computes the report figures over a snapshot of sale
// records: a sales forecast, the profit/loss partition of one day, and the
// top products by quantity.
//
// Every Engine method is a pure function of its arguments. Callers must pass
// a snapshot that nobody mutates for the duration of the call.
package analytics

import (
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// Engine holds no state besides its logger and is safe for concurrent use.
type Engine struct {
	logger *zap.Logger
}

// NewEngine returns an Engine that logs skipped records to logger.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// skip reports whether rec violates a record invariant. Such records are left
// out of the computation instead of failing it.
func (e *Engine) skip(rec models.SaleRecord, operation string) bool {
	err := rec.Validate()
	if err == nil {
		return false
	}
	e.logger.Warn("skip invalid sale record",
		zap.String("operation", operation),
		zap.Int("id", rec.ID),
		zap.Error(err))
	return true
}
