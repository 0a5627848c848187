package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/salesreport/internal/analytics"
	"github.com/mamadbah2/salesreport/internal/config"
	"github.com/mamadbah2/salesreport/internal/metrics"
	"github.com/mamadbah2/salesreport/internal/repository"
	"github.com/mamadbah2/salesreport/internal/repository/memory"
	"github.com/mamadbah2/salesreport/internal/repository/mongodb"
	"github.com/mamadbah2/salesreport/internal/repository/rediscache"
	"github.com/mamadbah2/salesreport/internal/repository/sheets"
	"github.com/mamadbah2/salesreport/internal/scheduler"
	"github.com/mamadbah2/salesreport/internal/server/handlers"
	"github.com/mamadbah2/salesreport/internal/server/router"
	commandsvc "github.com/mamadbah2/salesreport/internal/service/commands"
	ingestsvc "github.com/mamadbah2/salesreport/internal/service/ingest"
	reportingsvc "github.com/mamadbah2/salesreport/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/salesreport/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/salesreport/pkg/clients/whatsapp"
	"github.com/mamadbah2/salesreport/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := buildRecordStore(ctx, cfg, baseLogger)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	var archive reportingsvc.Archive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
		archive = mongoRepo
	} else {
		baseLogger.Warn("mongodb uri missing, report archive disabled")
	}

	var (
		cache  reportingsvc.Cache
		locker scheduler.Locker
	)
	if cfg.Redis.Address != "" {
		redisClient, err := rediscache.NewClient(ctx, cfg.Redis.Address)
		if err != nil {
			baseLogger.Fatal("failed to init redis client", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		cache = rediscache.NewReportCache(redisClient, cfg.Reporting.CacheTTL, baseLogger.Named("cache.redis"))
		locker = rediscache.NewJobLocker(redisClient)
	} else {
		baseLogger.Warn("redis address missing, report cache disabled")
	}

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}
	mode, err := analytics.ParseForecastMode(cfg.Reporting.ForecastMode)
	if err != nil {
		baseLogger.Fatal("invalid forecast mode", zap.Error(err))
	}

	ingestSvc := ingestsvc.NewService(store, m, baseLogger.Named("svc.ingest"))
	reportingSvc := reportingsvc.NewService(store, archive, cache, reportingsvc.Options{
		Mode:     mode,
		TopN:     cfg.Reporting.TopN,
		Location: loc,
		Metrics:  m,
	}, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(ingestSvc, reportingSvc, baseLogger.Named("svc.commands"))

	routes := router.Handlers{
		Records: handlers.NewRecordsHandler(ingestSvc, reportingSvc, baseLogger.Named("handlers.records")),
		Reports: handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
	}

	var notifier scheduler.Notifier
	if cfg.WhatsApp.Enabled() {
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, commandDispatcher, reportingSvc, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp credentials missing, webhook and report delivery disabled")
	}

	opts := router.Options{AllowedOrigins: cfg.Server.AllowedOrigins}
	if m != nil {
		opts.Metrics = m.Handler()
	}
	engine := router.New(routes, opts, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, locker, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to schedule daily report", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildRecordStore(ctx context.Context, cfg *config.Config, baseLogger *zap.Logger) repository.RecordStore {
	if cfg.Store.Backend != config.StoreSheets {
		baseLogger.Warn("using in-memory record store, records are lost on restart")
		return memory.NewRecordStore()
	}

	sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
	if err != nil {
		baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
	}
	return sheets.NewRecordStore(sheetsRepo, cfg.Sheets.Range, baseLogger.Named("store.sheets"))
}
