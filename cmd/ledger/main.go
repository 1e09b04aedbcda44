package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/cache"
	"ledger/internal/cli"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/proxy"
	"ledger/internal/repository"
	"ledger/internal/services"
	"ledger/internal/storage"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	amqpClient, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		return 1
	}
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	// Resolve the lazy handle up front so a bad connection fails at startup.
	p := proxy.Lazy(storage.Loader(logger), cfg.DBConnection, proxy.WithLogger(logger))
	driver, err := p.Driver(ctx)
	if err != nil {
		// The proxy has already logged the failure.
		return 1
	}
	db, ok := driver.(*storage.DB)
	if !ok {
		logger.Error("Unexpected driver type", log.FieldConnection, cfg.DBConnection)
		return 1
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithCategoryTTL(cfg.CategoryCacheTTL),
		services.WithClosers(db),
	}
	if amqpClient != nil {
		opts = append(opts, services.WithPublisher(amqpClient))
	}
	ledger := services.NewLedgerService(repository.New(p), opts...)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Shutdown cleanup failed", log.FieldError, err)
		}
	}()

	janitor := cache.NewJanitor(logger)
	janitor.Register(ledger.CategoryCache())

	srv := apphttp.NewServer(":"+cfg.Port, ledger, p,
		apphttp.WithLogger(logger),
		apphttp.WithReadiness(db.Ping))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting ledger server", "port", cfg.Port, log.FieldConnection, cfg.DBConnection)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return janitor.Run(gctx, cfg.CacheSweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", log.FieldError, err)
		return 1
	}
	logger.Info("Server stopped gracefully")
	return 0
}
