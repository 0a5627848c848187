package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/metrics"
	"github.com/mamadbah2/salesreport/internal/repository"
	"github.com/mamadbah2/salesreport/internal/spreadsheet"
)

// Sources label where records came from in logs and metrics.
const (
	SourceHTTP     = "http"
	SourceImport   = "import"
	SourceWhatsApp = "whatsapp"
)

// ErrUnsupportedFormat is returned by Import for files that are neither
// .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrMalformedFile is returned by Import when the file cannot be read as a
// table at all.
var ErrMalformedFile = errors.New("malformed spreadsheet")

// ImportSummary reports the outcome of one file import.
type ImportSummary struct {
	Imported int                    `json:"imported"`
	Rejected []spreadsheet.RowError `json:"-"`
}

// Service validates sale records before they reach the store. Writes are
// serialised so an id handed out by Create is not handed out again by this
// process.
type Service struct {
	mu      sync.Mutex
	store   repository.RecordStore
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a new ingest service instance.
func NewService(store repository.RecordStore, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, metrics: m, logger: logger}
}

// Add validates rec and appends it. Invalid records are returned as
// *models.InvalidRecordError and never stored.
func (s *Service) Add(ctx context.Context, rec models.SaleRecord, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, rec, source)
}

// Create is Add that first assigns the next free id when rec.ID is zero. The
// stored record is returned.
func (s *Service) Create(ctx context.Context, rec models.SaleRecord, source string) (models.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == 0 {
		next, err := s.NextID(ctx)
		if err != nil {
			return rec, fmt.Errorf("allocate record id: %w", err)
		}
		rec.ID = next
	}
	if err := s.add(ctx, rec, source); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *Service) add(ctx context.Context, rec models.SaleRecord, source string) error {
	if err := rec.Validate(); err != nil {
		s.metrics.ObserveRejected(source, 1)
		s.logger.Info("sale record rejected", zap.String("source", source), zap.Error(err))
		return err
	}

	if err := s.store.Append(ctx, rec); err != nil {
		return fmt.Errorf("append sale record %d: %w", rec.ID, err)
	}

	s.metrics.ObserveIngested(source, 1)
	s.logger.Info("sale record stored",
		zap.String("source", source),
		zap.Int("id", rec.ID),
		zap.String("name", rec.Name),
		zap.Int("quantity", rec.Quantity),
	)
	return nil
}

// Import parses an .xlsx or .csv file and appends every accepted row in file
// order. Rejected rows are reported in the summary; a store failure stops the
// import and returns the rows stored so far.
func (s *Service) Import(ctx context.Context, filename string, r io.Reader) (ImportSummary, error) {
	var (
		result spreadsheet.ImportResult
		err    error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		result, err = spreadsheet.ReadXLSX(r)
	case ".csv":
		result, err = spreadsheet.ReadCSV(r)
	default:
		return ImportSummary{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
	if err != nil {
		return ImportSummary{}, fmt.Errorf("%w: %v", ErrMalformedFile, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	summary := ImportSummary{Rejected: result.Rejected}
	for _, rec := range result.Records {
		if err := s.store.Append(ctx, rec); err != nil {
			s.metrics.ObserveIngested(SourceImport, summary.Imported)
			return summary, fmt.Errorf("append imported record %d: %w", rec.ID, err)
		}
		summary.Imported++
	}

	s.metrics.ObserveIngested(SourceImport, summary.Imported)
	s.metrics.ObserveRejected(SourceImport, len(summary.Rejected))
	s.logger.Info("spreadsheet imported",
		zap.String("file", filename),
		zap.Int("imported", summary.Imported),
		zap.Int("rejected", len(summary.Rejected)),
	)
	return summary, nil
}

// List returns the stored records in append order.
func (s *Service) List(ctx context.Context) ([]models.SaleRecord, error) {
	records, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sale records: %w", err)
	}
	return records, nil
}

// NextID returns one more than the highest stored id.
func (s *Service) NextID(ctx context.Context) (int, error) {
	records, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	next := 1
	for _, rec := range records {
		if rec.ID >= next {
			next = rec.ID + 1
		}
	}
	return next, nil
}
