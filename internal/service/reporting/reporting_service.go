package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/analytics"
	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/metrics"
)

const (
	defaultHistoryLimit = 30
	maxHistoryLimit     = 365
)

// ErrArchiveDisabled is returned when no report archive is configured.
var ErrArchiveDisabled = errors.New("report archive is not configured")

// RecordSource provides the snapshot the engines run on.
type RecordSource interface {
	Snapshot(ctx context.Context) ([]models.SaleRecord, error)
}

// Cache stores generated reports by key.
type Cache interface {
	Get(ctx context.Context, key string) (*models.Report, bool, error)
	Set(ctx context.Context, key string, report *models.Report) error
}

// Archive persists daily reports.
type Archive interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	ListDailyReports(ctx context.Context, limit int) ([]models.DailyReport, error)
}

// Options configures report generation.
type Options struct {
	Mode     analytics.ForecastMode
	TopN     int
	Location *time.Location
	// Model is used instead of a freshly fitted regression when set.
	Model   analytics.Predictor
	Metrics *metrics.Metrics
}

// Service builds reports from the record store for HTTP, WhatsApp and the
// scheduler.
type Service struct {
	records RecordSource
	archive Archive
	cache   Cache
	engine  *analytics.Engine
	opts    Options
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new reporting service instance. archive and cache may be
// nil.
func NewService(records RecordSource, archive Archive, cache Cache, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Mode == "" {
		opts.Mode = analytics.ModeWindow
	}
	if opts.TopN <= 0 {
		opts.TopN = analytics.DefaultTopN
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		records: records,
		archive: archive,
		cache:   cache,
		engine:  analytics.NewEngine(logger.Named("analytics")),
		opts:    opts,
		logger:  logger,
		now:     time.Now,
	}
}

// Today is the current date in the configured location.
func (s *Service) Today() civil.Date {
	return civil.DateOf(s.now().In(s.opts.Location))
}

// CacheKey identifies a report by date, mode and snapshot. The snapshot part
// is the record count plus a digest of every record, so a row edited in place
// (possible with the Sheets backend) changes the key as well.
func CacheKey(date civil.Date, mode analytics.ForecastMode, records []models.SaleRecord) string {
	return fmt.Sprintf("salesreport:report:%s:%s:%d:%016x", date, mode, len(records), snapshotDigest(records))
}

func snapshotDigest(records []models.SaleRecord) uint64 {
	d := xxhash.New()
	for _, rec := range records {
		_, _ = fmt.Fprintf(d, "%d\x1f%s\x1f%s\x1f%d\x1f%s\x1f%s\x1f%s\x1e",
			rec.ID, rec.Name, rec.QuantityType, rec.Quantity,
			rec.CostPrice.String(), rec.SellPrice.String(), rec.Date)
	}
	return d.Sum64()
}

// Generate computes the report for date. A regression without enough history,
// or a model that predicts NaN or Inf, leaves the forecasts unavailable instead
// of failing the report.
func (s *Service) Generate(ctx context.Context, date civil.Date) (*models.Report, error) {
	report, _, err := s.GenerateWithRecords(ctx, date)
	return report, err
}

// GenerateWithRecords is Generate that also returns the snapshot the report
// was computed from.
func (s *Service) GenerateWithRecords(ctx context.Context, date civil.Date) (*models.Report, []models.SaleRecord, error) {
	records, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load sale records: %w", err)
	}

	key := CacheKey(date, s.opts.Mode, records)
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			s.opts.Metrics.ObserveCacheHit()
			s.logger.Debug("report served from cache", zap.String("key", key))
			return cached, records, nil
		}
	}

	start := time.Now()
	fopts := analytics.ForecastOptions{Mode: s.opts.Mode, Model: s.opts.Model}

	month, err := s.project(records, date, analytics.MonthHorizon, fopts)
	if err != nil {
		s.opts.Metrics.ObserveReport(string(s.opts.Mode), "error", time.Since(start))
		return nil, nil, err
	}
	year, err := s.project(records, date, analytics.YearHorizon, fopts)
	if err != nil {
		s.opts.Metrics.ObserveReport(string(s.opts.Mode), "error", time.Since(start))
		return nil, nil, err
	}

	report := &models.Report{
		Date:        date,
		GeneratedAt: s.now().In(s.opts.Location),
		RecordCount: len(records),
		Month:       month,
		Year:        year,
		Financials:  s.engine.Financials(records, date),
		TopProducts: s.engine.TopProducts(records, s.opts.TopN),
	}

	outcome := "ok"
	if !month.Available || !year.Available {
		outcome = "partial"
	}
	s.opts.Metrics.ObserveReport(string(s.opts.Mode), outcome, time.Since(start))
	s.logger.Info("report generated",
		zap.String("date", date.String()),
		zap.String("mode", string(s.opts.Mode)),
		zap.Int("records", len(records)),
		zap.String("outcome", outcome),
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, report); err != nil {
			s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return report, records, nil
}

// GenerateToday computes the report for Today.
func (s *Service) GenerateToday(ctx context.Context) (*models.Report, error) {
	return s.Generate(ctx, s.Today())
}

func (s *Service) project(records []models.SaleRecord, date civil.Date, horizon int, opts analytics.ForecastOptions) (models.Forecast, error) {
	fc, err := s.engine.Project(records, date, horizon, opts)
	if err == nil {
		return fc, nil
	}
	switch {
	case errors.Is(err, analytics.ErrInsufficientData):
		s.logger.Info("forecast unavailable",
			zap.Int("horizon_days", horizon),
			zap.Error(err))
		return fc, nil
	case errors.Is(err, analytics.ErrInvalidPrediction):
		s.logger.Warn("forecast model returned an unusable value",
			zap.Int("horizon_days", horizon),
			zap.Error(err))
		return fc, nil
	}
	return fc, fmt.Errorf("forecast %d days: %w", horizon, err)
}

// ArchiveDaily stores report in the archive.
func (s *Service) ArchiveDaily(ctx context.Context, report *models.Report) error {
	if s.archive == nil {
		return ErrArchiveDisabled
	}
	if err := s.archive.SaveDailyReport(ctx, models.NewDailyReport(*report, s.now())); err != nil {
		return fmt.Errorf("archive report %s: %w", report.Date, err)
	}
	return nil
}

// History returns archived reports, newest first. limit is clamped to
// [1, 365] and defaults to 30.
func (s *Service) History(ctx context.Context, limit int) ([]models.DailyReport, error) {
	if s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	switch {
	case limit <= 0:
		limit = defaultHistoryLimit
	case limit > maxHistoryLimit:
		limit = maxHistoryLimit
	}
	reports, err := s.archive.ListDailyReports(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list archived reports: %w", err)
	}
	return reports, nil
}

// TopProducts ranks the whole store. n <= 0 uses the configured size.
func (s *Service) TopProducts(ctx context.Context, n int) ([]models.ProductQuantity, error) {
	if n <= 0 {
		n = s.opts.TopN
	}
	records, err := s.records.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sale records: %w", err)
	}
	return s.engine.TopProducts(records, n), nil
}

// FormatSummary renders report as a plain text chat message.
func FormatSummary(report *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sales report %s (%d records)\n", report.Date, report.RecordCount)
	fmt.Fprintf(&b, "Forecast next %d days: %s\n", report.Month.HorizonDays, formatForecast(report.Month))
	fmt.Fprintf(&b, "Forecast next %d days: %s\n", report.Year.HorizonDays, formatForecast(report.Year))
	fmt.Fprintf(&b, "Profit: %s\n", report.Financials.Profit.StringFixed(2))
	fmt.Fprintf(&b, "Loss: %s\n", report.Financials.Loss.StringFixed(2))
	fmt.Fprintf(&b, "Earnings: %s\n", report.Financials.Earnings.StringFixed(2))
	b.WriteString(FormatRanking(report.TopProducts))
	return b.String()
}

// FormatRanking renders the top products as a numbered list.
func FormatRanking(items []models.ProductQuantity) string {
	if len(items) == 0 {
		return "Top products: no sales yet."
	}
	var b strings.Builder
	b.WriteString("Top products:")
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s (%d)", i+1, item.Name, item.Quantity)
	}
	return b.String()
}

func formatForecast(fc models.Forecast) string {
	if !fc.Available {
		return "n/a (" + fc.Reason + ")"
	}
	return fc.Value.StringFixed(2) + " (" + fc.Mode + ")"
}
