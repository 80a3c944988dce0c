package main

import (
	"context"
	"os"

	"expenses/internal/cli"
	"expenses/internal/config"
	apphttp "expenses/internal/http"
	applog "expenses/internal/log"
	"expenses/internal/metrics"
	"expenses/internal/services"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(bootstrap)
	logger := cli.SetupLogger(cfg.LogLevel)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// run serves until shutdown and closes the database on every return path.
func run(logger *applog.Logger, cfg *config.Config) error {
	repo := cli.InitSQLite(logger, cfg)
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", applog.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Categories:         services.NewCategoryService(repo),
		Expenses:           services.NewExpenseService(repo),
		Ready:              repo,
		Logger:             logger,
		Metrics:            metrics.New(),
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	logger.Info("Starting expenses server",
		applog.FieldOperation, applog.OpStartup,
		"addr", cfg.Addr(),
		"db_path", cfg.DBPath)

	return cli.Serve(context.Background(), logger, srv, cfg.ShutdownTimeout)
}
