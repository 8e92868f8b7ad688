package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/bank-service/internal/config"
	"github.com/kjstillabower/bank-service/internal/console"
	httphandler "github.com/kjstillabower/bank-service/internal/http"
	"github.com/kjstillabower/bank-service/internal/lifecycle"
	"github.com/kjstillabower/bank-service/internal/observability"
	"github.com/kjstillabower/bank-service/internal/overload"
	"github.com/kjstillabower/bank-service/internal/repository"
	"github.com/kjstillabower/bank-service/internal/service"
)

func main() {
	fs := pflag.NewFlagSet("bank", pflag.ExitOnError)
	flags := config.BindFlags(fs)
	_ = fs.Parse(os.Args[1:])

	cfg, err := config.Load(flags.ConfigPath())
	if err == nil {
		err = flags.Apply(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	newLogger := observability.NewLogger
	if cfg.Mode == config.ModeConsole {
		newLogger = observability.NewConsoleLogger
	}
	logger, err := newLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	repo := repository.NewWithClock(time.Now, cfg.Location)
	if err := restoreSnapshot(repo, cfg.SnapshotPath, logger); err != nil {
		logger.Fatal("restore snapshot", zap.Error(err))
	}
	bank := service.NewBank(repo, cfg.ReportTimeout)

	observability.RegisterLedgerGauges(
		func() int { return len(repo.AllCustomers()) },
		func() int { return len(repo.AllAccounts()) },
	)
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case config.ModeHTTP:
		serveHTTP(ctx, cfg, repo, bank, logger)
	default:
		runConsole(ctx, cfg, repo, bank, logger)
	}

	if err := observability.FlushTelemetry(context.Background(), logger, snapshotFlusher(repo, cfg.SnapshotPath, logger)); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
}

// runConsole drives the menu on stdin/stdout until the user exits, input ends
// or a signal arrives.
func runConsole(ctx context.Context, cfg *config.Config, repo *repository.BankRepository, bank service.Bank, logger *zap.Logger) {
	app := console.New(os.Stdin, os.Stdout, repo, bank, console.Options{
		ReportTopN:     cfg.ReportTopN,
		ReportLookback: cfg.ReportLookback,
	}, logger)

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()
	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("console", zap.Error(err))
		}
		lifecycle.BeginShutdown("console exit")
	case <-ctx.Done():
		lifecycle.BeginShutdown("signal")
		logger.Info("console interrupted")
	}
}

// buildVersion returns the main module version stamped by the go tool, or
// "dev" for local builds.
func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func serveHTTP(ctx context.Context, cfg *config.Config, repo *repository.BankRepository, bank service.Bank, logger *zap.Logger) {
	healthConfig := &httphandler.HealthConfig{
		Overload: overload.Threshold{
			Window: cfg.OverloadWindow,
			RPS:    cfg.RateLimitRPS,
			Pct:    cfg.OverloadThresholdPct,
		},
		DegradedWindow:   cfg.DegradedWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		StartTime:        time.Now(),
		Version:          buildVersion(),
	}
	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(repo, bank, healthConfig, httphandler.ReportDefaults{
		TopN:     cfg.ReportTopN,
		Lookback: cfg.ReportLookback,
	}, logger)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("business_zone", cfg.BusinessZone))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()

	logger.Info("graceful shutdown triggered")
	lifecycle.BeginShutdown("signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}
	logger.Info("shutdown complete")
}
