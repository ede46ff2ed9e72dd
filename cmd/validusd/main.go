// validusd serves validation over HTTP: it manages rulesets, runs the
// engine on submitted models and persists the outcomes.
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
	"time"

	amqpsink "github.com/validus/validus-go/adapters/amqp"
	kafkasink "github.com/validus/validus-go/adapters/kafka"
	"github.com/validus/validus-go/runtime"
)

var (
	configPath     = flag.String("config", "", "Config file (YAML or JSON)")
	listenAddr     = flag.String("addr", ":8080", "HTTP listen address")
	authToken      = flag.String("token", "", "Bearer token required on /v1 endpoints")
	rulesDir       = flag.String("rules-dir", "", "Ruleset directory")
	workers        = flag.Int("workers", 4, "Evaluation worker count")
	storageBackend = flag.String("storage", "memory", "Run store backend: memory, postgres or redis")
)

func main() {
	flag.Parse()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	cfg := &daemonConfig{}
	if *configPath != "" {
		loaded, err := loadDaemonConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyDaemonConfig(cfg, setFlags)

	if *rulesDir != "" {
		cfg.Rulesets.Directory = *rulesDir
	}
	if cfg.Rulesets.Directory == "" && cfg.Rulesets.Git == nil {
		return fmt.Errorf("no ruleset source configured (set -rules-dir or rulesets in the config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	sinks, err := buildSinks(cfg)
	if err != nil {
		store.Close()
		return err
	}

	manager := runtime.NewRulesetManager(&cfg.Rulesets, logger)
	vr := runtime.NewValidationRuntime(manager, store,
		runtime.WithWorkers(*workers),
		runtime.WithLogger(logger),
		runtime.WithSinks(sinks...),
	)
	defer vr.Close()

	if err := vr.Start(ctx); err != nil {
		return err
	}

	srv := newServer(vr, store, serverOptions{
		token:     *authToken,
		rateLimit: cfg.Auth.RateLimit,
		rateBurst: cfg.Auth.RateBurst,
		workers:   *workers,
		logger:    logger,
	})

	readTimeout, err := parseTimeout(cfg.Server.ReadTimeout, 30*time.Second)
	if err != nil {
		return err
	}
	writeTimeout, err := parseTimeout(cfg.Server.WriteTimeout, 60*time.Second)
	if err != nil {
		return err
	}
	shutdownTimeout, err := parseTimeout(cfg.Server.ShutdownTimeout, 10*time.Second)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         *listenAddr,
		Handler:      srv.routes(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *daemonConfig) (runtime.RunStore, error) {
	switch *storageBackend {
	case "", "memory":
		return runtime.NewInMemoryRunStore(), nil
	case "postgres":
		return runtime.NewPostgresRunStore(ctx, &cfg.Storage.Postgres)
	case "redis":
		return runtime.NewRedisRunStore(ctx, &cfg.Storage.Redis)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", *storageBackend)
	}
}

func buildSinks(cfg *daemonConfig) ([]runtime.ReportSink, error) {
	var sinks []runtime.ReportSink
	if cfg.Sinks.Kafka != nil {
		sink, err := kafkasink.NewSink(cfg.Sinks.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Sinks.AMQP != nil {
		sink, err := amqpsink.NewSink(&amqpsink.Config{
			URL:             cfg.Sinks.AMQP.URL,
			Exchange:        cfg.Sinks.AMQP.Exchange,
			ExchangeType:    cfg.Sinks.AMQP.ExchangeType,
			ExchangeDeclare: cfg.Sinks.AMQP.ExchangeDeclare,
			RoutingKey:      cfg.Sinks.AMQP.RoutingKey,
			Encoding:        cfg.Sinks.AMQP.Encoding,
		})
		if err != nil {
			return nil, fmt.Errorf("amqp sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}
