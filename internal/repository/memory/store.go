// Package memory keeps sale records in process memory.
package memory

import (
	"context"
	"sync"

	"github.com/mamadbah2/salesreport/internal/domain/models"
)

// RecordStore is a goroutine-safe in-memory RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records []models.SaleRecord
}

// NewRecordStore returns a store pre-filled with seed, in order.
func NewRecordStore(seed ...models.SaleRecord) *RecordStore {
	records := make([]models.SaleRecord, len(seed))
	copy(records, seed)
	return &RecordStore{records: records}
}

// Append adds rec to the end of the store.
func (s *RecordStore) Append(ctx context.Context, rec models.SaleRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// Snapshot copies the current records so later appends never reach callers.
func (s *RecordStore) Snapshot(ctx context.Context) ([]models.SaleRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SaleRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
