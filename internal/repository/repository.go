// Package repository declares the record store contract shared by the
// memory and Google Sheets backends.
package repository

import (
	"context"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// RecordStore is an append-only, ordered list of sale records.
type RecordStore interface {
	// Append adds rec after every record already stored.
	Append(ctx context.Context, rec models.SaleRecord) error
	// Snapshot returns the stored records in insertion order. The returned
	// slice is owned by the caller.
	Snapshot(ctx context.Context) ([]models.SaleRecord, error)
}
