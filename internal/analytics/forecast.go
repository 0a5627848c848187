package analytics

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

const (
	// MonthHorizon and YearHorizon are the report's forecast windows in days.
	MonthHorizon = 30
	YearHorizon  = 365
)

// ForecastMode selects how a forecast is produced.
type ForecastMode string

const (
	// ModeWindow sums quantity * sell price of records dated inside the horizon.
	ModeWindow ForecastMode = "window"
	// ModeRegression fits a linear model on past earnings and sums its
	// predictions over the horizon.
	ModeRegression ForecastMode = "regression"
)

// ErrUnknownForecastMode is returned for modes other than window/regression.
var ErrUnknownForecastMode = errors.New("unknown forecast mode")

// ParseForecastMode maps a configuration value to a ForecastMode. An empty
// value selects ModeWindow.
func ParseForecastMode(value string) (ForecastMode, error) {
	switch ForecastMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeWindow:
		return ModeWindow, nil
	case ModeRegression:
		return ModeRegression, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownForecastMode, value)
	}
}

// ErrInsufficientData is matched by every *InsufficientDataError.
var ErrInsufficientData = errors.New("insufficient data")

// InsufficientDataError means a regression could not be fitted because too
// few historical records were available.
type InsufficientDataError struct {
	Have int
	Need int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d historical records, need at least %d", e.Have, e.Need)
}

// Is lets errors.Is(err, ErrInsufficientData) match.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ErrInvalidPrediction is returned when a Predictor yields NaN or an
// infinite value.
var ErrInvalidPrediction = errors.New("invalid prediction")

// ForecastOptions configures Project.
type ForecastOptions struct {
	Mode ForecastMode
	// Model replaces the fitted regression in ModeRegression when set.
	Model Predictor
}

// Forecast sums quantity * sell price over records dated in the half-open
// window (ref, ref+horizonDays]. It returns zero for an empty window,
// including horizonDays <= 0.
func (e *Engine) Forecast(records []models.SaleRecord, ref civil.Date, horizonDays int) decimal.Decimal {
	end := ref.AddDays(horizonDays)
	total := decimal.Zero

	for _, rec := range records {
		if !rec.Date.After(ref) || rec.Date.After(end) {
			continue
		}
		if e.skip(rec, "forecast") {
			continue
		}
		total = total.Add(rec.Revenue())
	}

	return total
}

// ForecastRegression predicts earnings for each day ref+1 .. ref+horizonDays
// and returns their sum. Without a model it fits a LinearModel on the records
// dated on or before ref and fails with *InsufficientDataError when fewer than
// two are available. A non-finite prediction fails with ErrInvalidPrediction.
func (e *Engine) ForecastRegression(records []models.SaleRecord, ref civil.Date, horizonDays int, model Predictor) (decimal.Decimal, error) {
	if model == nil {
		fitted, err := FitLinear(e.history(records, ref))
		if err != nil {
			return decimal.Zero, err
		}
		model = fitted
	}

	var sum float64
	for day := 1; day <= horizonDays; day++ {
		date := ref.AddDays(day)
		y := model.Predict(Features(date))
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return decimal.Zero, fmt.Errorf("%w: %v for %s", ErrInvalidPrediction, y, date)
		}
		sum += y
	}
	if math.IsInf(sum, 0) {
		return decimal.Zero, fmt.Errorf("%w: sum overflows over %d days", ErrInvalidPrediction, horizonDays)
	}

	return decimal.NewFromFloat(sum), nil
}

// Project runs the forecast selected by opts and wraps it for a report. When
// the regression cannot be fitted the Forecast is marked unavailable and the
// error is returned as well, so a real zero is never confused with a missing
// prediction.
func (e *Engine) Project(records []models.SaleRecord, ref civil.Date, horizonDays int, opts ForecastOptions) (models.Forecast, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModeWindow
	}
	out := models.Forecast{Mode: string(mode), HorizonDays: horizonDays, Value: decimal.Zero}

	switch mode {
	case ModeWindow:
		out.Value = e.Forecast(records, ref, horizonDays)
	case ModeRegression:
		value, err := e.ForecastRegression(records, ref, horizonDays, opts.Model)
		if err != nil {
			out.Reason = err.Error()
			return out, err
		}
		out.Value = value
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownForecastMode, mode)
		out.Reason = err.Error()
		return out, err
	}

	out.Available = true
	return out, nil
}

func (e *Engine) history(records []models.SaleRecord, ref civil.Date) []Sample {
	samples := make([]Sample, 0, len(records))
	for _, rec := range records {
		if rec.Date.After(ref) {
			continue
		}
		if e.skip(rec, "forecast_regression") {
			continue
		}
		total, _ := rec.Total().Float64()
		samples = append(samples, Sample{Features: Features(rec.Date), Target: total})
	}
	return samples
}

// Features is the model input for a day: [dayOfYear, year].
func Features(d civil.Date) []float64 {
	return []float64{float64(d.In(time.UTC).YearDay()), float64(d.Year)}
}
