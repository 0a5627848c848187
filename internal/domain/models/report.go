package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Forecast is a projected sales value over a horizon of days.
// Available is false when the value could not be computed; Value is then zero
// and Reason says why.
type Forecast struct {
	Mode        string          `json:"mode"`
	HorizonDays int             `json:"horizon_days"`
	Value       decimal.Decimal `json:"value"`
	Available   bool            `json:"available"`
	Reason      string          `json:"reason,omitempty"`
}

// Financials is the profit/loss partition of one day's transactions.
// Loss is signed (<= 0) so that Earnings == Profit + Loss.
type Financials struct {
	Profit   decimal.Decimal `json:"profit"`
	Loss     decimal.Decimal `json:"loss"`
	Earnings decimal.Decimal `json:"earnings"`
}

// ProductQuantity is one row of the top products ranking.
type ProductQuantity struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Report bundles the three computations for a reference date.
type Report struct {
	Date        civil.Date        `json:"date"`
	GeneratedAt time.Time         `json:"generated_at"`
	RecordCount int               `json:"record_count"`
	Month       Forecast          `json:"month_forecast"`
	Year        Forecast          `json:"year_forecast"`
	Financials  Financials        `json:"financials"`
	TopProducts []ProductQuantity `json:"top_products"`
}

// DailyReport represents the aggregated daily data to be stored in MongoDB.
type DailyReport struct {
	Date          string            `bson:"date" json:"date"`
	RecordCount   int               `bson:"record_count" json:"record_count"`
	ForecastMode  string            `bson:"forecast_mode" json:"forecast_mode"`
	MonthForecast *float64          `bson:"month_forecast,omitempty" json:"month_forecast,omitempty"`
	YearForecast  *float64          `bson:"year_forecast,omitempty" json:"year_forecast,omitempty"`
	Profit        float64           `bson:"profit" json:"profit"`
	Loss          float64           `bson:"loss" json:"loss"`
	Earnings      float64           `bson:"earnings" json:"earnings"`
	TopProducts   []ProductQuantity `bson:"top_products" json:"top_products"`
	CreatedAt     time.Time         `bson:"created_at" json:"created_at"`
}

// NewDailyReport flattens a Report into its archive document. Unavailable
// forecasts are stored as missing fields rather than zero.
func NewDailyReport(r Report, createdAt time.Time) DailyReport {
	doc := DailyReport{
		Date:         r.Date.String(),
		RecordCount:  r.RecordCount,
		ForecastMode: r.Month.Mode,
		Profit:       r.Financials.Profit.InexactFloat64(),
		Loss:         r.Financials.Loss.InexactFloat64(),
		Earnings:     r.Financials.Earnings.InexactFloat64(),
		TopProducts:  r.TopProducts,
		CreatedAt:    createdAt,
	}
	if r.Month.Available {
		v := r.Month.Value.InexactFloat64()
		doc.MonthForecast = &v
	}
	if r.Year.Available {
		v := r.Year.Value.InexactFloat64()
		doc.YearForecast = &v
	}
	return doc
}
