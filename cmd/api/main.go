package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/FilipeSCampos/GameSphere/internal/adapters/memory"
	pgstore "github.com/FilipeSCampos/GameSphere/internal/adapters/postgres"
	"github.com/FilipeSCampos/GameSphere/internal/adapters/rawg"
	"github.com/FilipeSCampos/GameSphere/internal/adapters/redisprobe"
	"github.com/FilipeSCampos/GameSphere/internal/config"
	"github.com/FilipeSCampos/GameSphere/internal/logging"
	"github.com/FilipeSCampos/GameSphere/internal/metrics"
	"github.com/FilipeSCampos/GameSphere/internal/ports"
	transporthttp "github.com/FilipeSCampos/GameSphere/internal/transport/http"
	"github.com/FilipeSCampos/GameSphere/internal/usecase"
)

// searchLogger is the store interface main needs: a log that can be probed.
type searchLogger interface {
	ports.SearchLog
	ports.Prober
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var searchLog searchLogger
	if cfg.DatabaseURL != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
		cancel()
		if err != nil {
			return err
		}
		defer pool.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err = pool.Ping(pingCtx)
		pingCancel()
		if err != nil {
			return err
		}
		logger.Info("connected to database")
		searchLog = pgstore.New(pool)
	} else {
		searchLog = memory.New(memory.DefaultCapacity)
	}

	probe, err := redisprobe.New(cfg.RedisURL)
	if err != nil {
		logger.Warn("redis disabled", "error", err)
		probe, _ = redisprobe.New("")
	}
	defer probe.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	catalogMetrics := metrics.NewCatalog(reg)

	client := rawg.New(cfg.APIKey,
		rawg.WithBaseURL(cfg.RAWGBaseURL),
		rawg.WithLogger(logger.With("component", "rawg")),
		rawg.WithObserver(catalogMetrics),
		rawg.WithObserver(usecase.NewRecorder(searchLog, logger)),
	)

	h := transporthttp.NewHandlers(
		usecase.NewGameSearcher(client),
		usecase.NewHistoryReader(searchLog),
		map[string]ports.Prober{
			"redis":      probe,
			"search_log": searchLog,
		},
	)
	e := transporthttp.New(h, transporthttp.Options{
		AllowOrigins: cfg.AllowOrigins,
		Logger:       logger,
		Metrics:      catalogMetrics.Handler(),
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting", "port", cfg.Port)
		errCh <- e.Start(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("shutting down")
	return e.Shutdown(shutdownCtx)
}
