package models

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// QuantityType is the unit a product is sold in.
type QuantityType string

const (
	QuantityDozen     QuantityType = "Dozen"
	QuantityFeet      QuantityType = "Feet"
	QuantityGallon    QuantityType = "Gallon"
	QuantityGram      QuantityType = "Gram"
	QuantityHours     QuantityType = "Hours"
	QuantityInch      QuantityType = "Inch"
	QuantityKilogram  QuantityType = "Kilogram"
	QuantityKilometer QuantityType = "Kilometer"
	QuantityLitre     QuantityType = "Litre"
)

// StandardQuantityTypes lists the built-in unit catalogue in display order.
// Stores accept any other non-empty value as a custom unit.
var StandardQuantityTypes = []QuantityType{
	QuantityDozen,
	QuantityFeet,
	QuantityGallon,
	QuantityGram,
	QuantityHours,
	QuantityInch,
	QuantityKilogram,
	QuantityKilometer,
	QuantityLitre,
}

// IsStandard reports whether the unit belongs to the built-in catalogue.
func (q QuantityType) IsStandard() bool {
	for _, std := range StandardQuantityTypes {
		if strings.EqualFold(string(std), string(q)) {
			return true
		}
	}
	return false
}

// SaleRecord captures one product/sale entry. Records are immutable once
// appended to a store.
type SaleRecord struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	QuantityType QuantityType    `json:"quantity_type"`
	SKU          string          `json:"sku"`
	Quantity     int             `json:"quantity"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellPrice    decimal.Decimal `json:"sell_price"`
	Date         civil.Date      `json:"date"`
}

// Total is the signed contribution of the record: quantity * (sell - cost).
// Positive means profit, negative means loss.
func (r SaleRecord) Total() decimal.Decimal {
	return decimal.NewFromInt(int64(r.Quantity)).Mul(r.SellPrice.Sub(r.CostPrice))
}

// Revenue is quantity * sell price.
func (r SaleRecord) Revenue() decimal.Decimal {
	return decimal.NewFromInt(int64(r.Quantity)).Mul(r.SellPrice)
}

// Validate checks the record invariants and returns an *InvalidRecordError
// describing the first violation.
func (r SaleRecord) Validate() error {
	switch {
	case r.ID <= 0:
		return &InvalidRecordError{ID: r.ID, Field: "id", Reason: "must be positive"}
	case strings.TrimSpace(r.Name) == "":
		return &InvalidRecordError{ID: r.ID, Field: "name", Reason: "must not be empty"}
	case r.Quantity < 0:
		return &InvalidRecordError{ID: r.ID, Field: "quantity", Reason: "must not be negative"}
	case r.CostPrice.IsNegative():
		return &InvalidRecordError{ID: r.ID, Field: "cost_price", Reason: "must not be negative"}
	case r.SellPrice.IsNegative():
		return &InvalidRecordError{ID: r.ID, Field: "sell_price", Reason: "must not be negative"}
	case !r.Date.IsValid():
		return &InvalidRecordError{ID: r.ID, Field: "date", Reason: "must be a valid calendar date"}
	}
	return nil
}

// ErrInvalidRecord is matched by every *InvalidRecordError.
var ErrInvalidRecord = errors.New("invalid sale record")

// InvalidRecordError reports a record that violates a data model invariant.
type InvalidRecordError struct {
	ID     int
	Field  string
	Reason string
}

func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid sale record %d: %s %s", e.ID, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrInvalidRecord) match.
func (e *InvalidRecordError) Is(target error) bool {
	return target == ErrInvalidRecord
}
