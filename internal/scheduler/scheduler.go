package scheduler

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/config"
	"github.com/mamadbah2/salesreport/internal/domain/models"
	"github.com/mamadbah2/salesreport/internal/service/reporting"
)

const (
	jobTimeout = 2 * time.Minute
	// dailyLockTTL outlives the day the lock is keyed on, so replicas firing
	// later for the same date find it held.
	dailyLockTTL = 25 * time.Hour
)

// ReportGenerator produces and archives the daily report.
type ReportGenerator interface {
	Today() civil.Date
	Generate(ctx context.Context, date civil.Date) (*models.Report, error)
	ArchiveDaily(ctx context.Context, report *models.Report) error
}

// Notifier delivers the report summary.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Locker guards a job across replicas. ok is false when the key is already
// held. An unreleased lock is held until ttl expires.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron       *cron.Cron
	recoverJob cron.JobWrapper
	schedule   string
	reports    ReportGenerator
	notifier   Notifier
	locker     Locker
	recipient  string
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier and locker may be
// nil; the summary is then not sent, and every replica runs the job.
func NewScheduler(cfg config.Config, reports ReportGenerator, notifier Notifier, locker Locker, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		return nil, err
	}

	recoverJob := cron.Recover(cron.PrintfLogger(zap.NewStdLog(logger)))

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc), cron.WithChain(recoverJob)),
		recoverJob: recoverJob,
		schedule:   cfg.Reporting.CronSchedule,
		reports:    reports,
		notifier:   notifier,
		locker:     locker,
		recipient:  cfg.WhatsApp.ReportRecipient,
		logger:     logger,
	}, nil
}

// Start registers the daily report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runDailyReport); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.dailyReport(ctx); err != nil {
		s.logger.Error("daily report job failed", zap.Error(err))
	}
}

// dailyLockKey scopes the job lock to one report date.
func dailyLockKey(date civil.Date) string {
	return "salesreport:lock:daily-report:" + date.String()
}

// dailyReport runs the job once per date across replicas. The lock is kept
// after a successful run and released after a failure so the date can be
// retried.
func (s *Scheduler) dailyReport(ctx context.Context) (err error) {
	date := s.reports.Today()

	if s.locker != nil {
		release, ok, lockErr := s.locker.Obtain(ctx, dailyLockKey(date), dailyLockTTL)
		if lockErr != nil {
			return lockErr
		}
		if !ok {
			s.logger.Info("daily report already handled by another instance", zap.String("date", date.String()))
			return nil
		}
		defer func() {
			if err == nil {
				return
			}
			if relErr := release(context.Background()); relErr != nil {
				s.logger.Warn("failed to release daily report lock", zap.Error(relErr))
			}
		}()
	}

	s.logger.Info("generating daily report", zap.String("date", date.String()))
	report, err := s.reports.Generate(ctx, date)
	if err != nil {
		return err
	}

	if err := s.reports.ArchiveDaily(ctx, report); err != nil {
		if !errors.Is(err, reporting.ErrArchiveDisabled) {
			return err
		}
		s.logger.Debug("report archive disabled")
	}

	if s.notifier == nil || s.recipient == "" {
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient,
		Message: reporting.FormatSummary(report),
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		return err
	}
	s.logger.Info("daily report sent successfully", zap.String("date", report.Date.String()))
	return nil
}
