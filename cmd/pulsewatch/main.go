package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulsewatch/pulsewatch/internal/alert"
	"github.com/pulsewatch/pulsewatch/internal/api"
	"github.com/pulsewatch/pulsewatch/internal/collector"
	"github.com/pulsewatch/pulsewatch/internal/config"
	"github.com/pulsewatch/pulsewatch/internal/sched"
	"github.com/pulsewatch/pulsewatch/internal/source"
	"github.com/pulsewatch/pulsewatch/internal/store"
	"github.com/pulsewatch/pulsewatch/internal/threshold"
	"github.com/pulsewatch/pulsewatch/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("pulsewatch starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"series", cfg.Series,
		"source", cfg.Source.Endpoint,
		"storage", cfg.Storage.Backend,
		"collect_interval", cfg.Collector.Interval,
		"evaluate_interval", cfg.Evaluator.Interval,
		"window", cfg.Evaluator.Window,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st, err := store.Open(cfg.Storage)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.Storage.Backend, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	src, err := source.New(cfg.Source)
	if err != nil {
		slog.Error("failed to build source", "type", cfg.Source.Type, "err", err)
		os.Exit(1)
	}

	calc := threshold.New(st, cfg.Evaluator.Multiplier)
	notifier := alert.Build(cfg.Notifiers)
	defer notifier.Close()

	eval := alert.NewEvaluator(cfg.Series, st, calc, notifier,
		cfg.Evaluator.Window, cfg.Evaluator.Floor)
	coll := collector.New(cfg.Series, src, st)

	// Watch the config file so drift from the running settings is visible.
	go func() {
		if err := config.Watch(ctx, *configPath, func(*config.Config) {
			slog.Warn("config changed on disk, restart to apply")
		}); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	// The two periodic loops: sampling and alert evaluation. Each runs on its
	// own ticker; cycles of one task never overlap.
	go sched.New(coll, cfg.Collector.Interval).Run(ctx)
	go sched.New(eval, cfg.Evaluator.Interval).Run(ctx)

	// WebSocket hub — broadcasts status to clients every stream interval.
	hub := ws.New(st, eval, calc, cfg.Series, cfg.Evaluator.Window, cfg.Server.StreamInterval)
	go hub.Run(ctx)

	// Combined HTTP server: REST API, websocket stream, self-metrics.
	httpMux := http.NewServeMux()
	httpMux.Handle("/api/", api.New(st, eval, calc, cfg.Series, cfg.Evaluator.Window))
	httpMux.Handle("/ws/stream", hub)
	httpMux.Handle("/metrics", promhttp.Handler())

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler: httpMux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("pulsewatch shutting down")
	httpSrv.Shutdown(context.Background()) //nolint:errcheck
}
