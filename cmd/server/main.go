package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ozgurkara/portfoy/internal/clientdata"
	"github.com/ozgurkara/portfoy/internal/clients/binance"
	"github.com/ozgurkara/portfoy/internal/clients/exchangerate"
	"github.com/ozgurkara/portfoy/internal/clients/tefas"
	"github.com/ozgurkara/portfoy/internal/clients/yahoo"
	"github.com/ozgurkara/portfoy/internal/config"
	"github.com/ozgurkara/portfoy/internal/database"
	"github.com/ozgurkara/portfoy/internal/modules/alerts"
	alertshandlers "github.com/ozgurkara/portfoy/internal/modules/alerts/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/analytics"
	"github.com/ozgurkara/portfoy/internal/modules/backup"
	backuphandlers "github.com/ozgurkara/portfoy/internal/modules/backup/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/history"
	historyhandlers "github.com/ozgurkara/portfoy/internal/modules/history/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/ledger"
	ledgerhandlers "github.com/ozgurkara/portfoy/internal/modules/ledger/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/portfolio"
	portfoliohandlers "github.com/ozgurkara/portfoy/internal/modules/portfolio/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/settings"
	settingshandlers "github.com/ozgurkara/portfoy/internal/modules/settings/handlers"
	"github.com/ozgurkara/portfoy/internal/modules/valuation"
	"github.com/ozgurkara/portfoy/internal/scheduler"
	"github.com/ozgurkara/portfoy/internal/server"
	"github.com/ozgurkara/portfoy/internal/services/marketdata"
	"github.com/ozgurkara/portfoy/internal/services/overview"
	overviewhandlers "github.com/ozgurkara/portfoy/internal/services/overview/handlers"
	"github.com/ozgurkara/portfoy/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; fall back to stderr.
		println("failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting portfoy")

	// Databases: positions and trades, the daily value series, and the
	// client response cache.
	portfolioDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "portfolio.db"),
		Profile: database.ProfileStandard,
		Name:    "portfolio",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open portfolio database")
	}
	defer portfolioDB.Close()

	historyDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open history database")
	}
	defer historyDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "cache.db"),
		Profile: database.ProfileCache,
		Name:    "cache",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache database")
	}
	defer cacheDB.Close()

	for _, db := range []*database.DB{portfolioDB, historyDB, cacheDB} {
		if err := db.Migrate(); err != nil {
			log.Fatal().Err(err).Str("db", db.Name()).Msg("Failed to run migrations")
		}
	}

	// Repositories.
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	ledgerRepo := ledger.NewRepository(portfolioDB.Conn(), log)
	portfolioRepo := portfolio.NewRepository(portfolioDB.Conn(), log)
	settingsRepo := settings.NewRepository(portfolioDB.Conn(), log)
	alertsRepo := alerts.NewRepository(portfolioDB.Conn(), log)
	historyRepo := history.NewRepository(historyDB.Conn(), log)

	// Market data clients, all cache-first through cacheRepo.
	rateClient := exchangerate.NewClient(cacheRepo, log)
	tefasClient := tefas.NewClient(cacheRepo, log)
	binanceClient := binance.NewClient(cacheRepo, log)
	yahooClient := yahoo.NewClient(cacheRepo, log)

	marketSvc := marketdata.NewService(binanceClient, tefasClient, yahooClient, rateClient, cfg.FallbackUsdTryRate, log)

	// Core services.
	ledgerSvc := ledger.NewService(ledgerRepo, portfolioDB.Conn(), historyRepo, log)
	portfolioSvc := portfolio.NewService(portfolioRepo, ledgerRepo, settingsRepo, portfolioDB.Conn(), log)
	engine := valuation.NewEngine(cfg.FallbackUsdTryRate, cfg.PriceFallbackToAvgCost, log)
	analyzer := analytics.NewAnalyzer(log)
	notifier := alerts.NewLogNotifier(log)
	alertsSvc := alerts.NewService(alertsRepo, notifier, log)
	overviewSvc := overview.NewService(portfolioSvc, ledgerRepo, marketSvc, engine, analyzer, historyRepo, settingsRepo, log)

	backupSvc, err := backup.NewService(context.Background(), cfg.Backup, portfolioSvc, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backup")
	}

	// Background jobs.
	sched := scheduler.New(log)
	snapshotJob := scheduler.NewSnapshotJob(portfolioSvc, ledgerRepo, marketSvc, engine, historyRepo, log)
	alertJob := scheduler.NewAlertCheckJob(portfolioSvc, alertsSvc, marketSvc, log)
	backupJob := scheduler.NewBackupJob(backupSvc)
	cleanupJob := clientdata.NewCleanupJob(cacheRepo, log)

	jobs := map[string]scheduler.Job{
		snapshotJob.Name(): snapshotJob,
		alertJob.Name():    alertJob,
		backupJob.Name():   backupJob,
		cleanupJob.Name():  cleanupJob,
	}

	// Snapshot near market close, alerts every five minutes, backup nightly,
	// cache cleanup hourly.
	schedules := map[string]scheduler.Job{
		"0 0 18 * * *":  snapshotJob,
		"0 */5 * * * *": alertJob,
		"0 30 3 * * *":  backupJob,
		"@hourly":       cleanupJob,
	}
	for spec, job := range schedules {
		if err := sched.AddJob(spec, job); err != nil {
			log.Fatal().Err(err).Str("job", job.Name()).Msg("Failed to register job")
		}
	}

	sched.Start()
	defer sched.Stop()

	// HTTP server.
	srv := server.New(server.Config{
		Port:      cfg.Port,
		Log:       log,
		DevMode:   cfg.DevMode,
		Scheduler: sched,
		Jobs:      jobs,
		Modules: []server.RouteRegistrar{
			portfoliohandlers.NewHandler(portfolioSvc, log),
			ledgerhandlers.NewHandler(ledgerSvc, ledgerRepo, portfolioSvc, marketSvc, log),
			alertshandlers.NewHandler(alertsSvc, portfolioSvc, log),
			historyhandlers.NewHandler(historyRepo, portfolioSvc, log),
			settingshandlers.NewHandler(settingsRepo, log),
			overviewhandlers.NewHandler(overviewSvc, log),
			backuphandlers.NewHandler(backupSvc, portfolioSvc, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
