package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"gofinances/internal/amqp"
	"gofinances/internal/backend"
	"gofinances/internal/cache"
	"gofinances/internal/cli"
	"gofinances/internal/config"
	"gofinances/internal/dashboard"
	"gofinances/internal/events"
	"gofinances/internal/format"
	apphttp "gofinances/internal/http"
	"gofinances/internal/kafka"
	applog "gofinances/internal/log"
	"gofinances/internal/services"
	"gofinances/internal/storage"
	"gofinances/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *applog.Logger, cfg *config.Config) error {
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend)).CreateStore(startCtx, backendCfg)
	if err != nil {
		return err
	}

	policy, err := dashboard.ParsePolicy(cfg.InvalidRecordPolicy)
	if err != nil {
		store.Close()
		return err
	}
	registry, err := format.NewRegistry(cfg.Locale, cfg.Currency, 32, time.Hour)
	if err != nil {
		store.Close()
		return err
	}

	loader := dashboard.NewLoader(store,
		dashboard.WithKey(cfg.StorageKey),
		dashboard.WithFormatter(registry.Default()),
		dashboard.WithPolicy(policy),
		dashboard.WithTimeout(cfg.LoadTimeout),
		dashboard.WithLogger(logger.WithComponent(applog.ComponentDashboard)),
	)
	loader.Subscribe(func(st dashboard.State) {
		logger.Debug("Dashboard state published",
			applog.FieldGeneration, st.Generation,
			"status", string(st.Status),
			applog.FieldCount, len(st.Transactions))
	})
	screen := dashboard.NewScreen(loader)

	publishers, amqpClient, closers := connectEvents(logger, cfg)

	var publisher events.Publisher
	if len(publishers) > 0 {
		publisher = publishers
	}
	recorder := services.NewTransactionRecorder(store, cfg.StorageKey, publisher)

	srv := apphttp.NewServer(cfg.Addr(), screen, registry, recorder,
		apphttp.WithRateLimit(cfg.RateLimitPerMinute),
		apphttp.WithRefreshOnRecord(amqpClient == nil),
		apphttp.WithReadiness(readiness(store, cfg.StorageKey)),
		apphttp.WithLogger(logger.WithComponent(applog.ComponentHTTP)),
	)

	janitor := cache.NewJanitor(registry.Cache())
	janitor.Start(10 * time.Minute)

	cleanup := func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("HTTP server shutdown error", applog.FieldError, err)
		}
		screen.Deactivate()
		janitor.Stop()
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("Close error", applog.FieldError, err)
			}
		}
		if err := store.Close(); err != nil {
			logger.Warn("Store close error", applog.FieldError, err)
		}
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, cleanup)

	if _, err := screen.Activate(ctx); err != nil {
		logger.Warn("Initial dashboard load failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting gofinances server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			applog.FieldLocale, registry.Default().Locale(),
			applog.FieldStorageKey, cfg.StorageKey)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if amqpClient != nil {
		refresher := worker.NewRefreshWorker(amqpClient, screen)
		g.Go(func() error {
			if err := refresher.Run(gctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() == nil {
			// A sibling failed before any signal; stop the listener too.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() == nil {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			cleanup(cleanupCtx)
			cancel()
		}
		return err
	}

	cli.WaitForShutdown(ctx, done)
	return nil
}

// connectEvents dials the configured brokers. Brokers that cannot be reached
// are logged and left out; the dashboard works without them.
func connectEvents(logger *applog.Logger, cfg *config.Config) (events.Multi, *amqp.Client, []func() error) {
	var (
		publishers events.Multi
		amqpClient *amqp.Client
		closers    []func() error
	)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without change events", applog.FieldError, err)
		} else {
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
			amqpClient = client
			publishers = append(publishers, client)
			closers = append(closers, client.Close)
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		p, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Warn("Failed to initialize Kafka publisher", applog.FieldError, err)
		} else {
			logger.Info("Initialized Kafka publisher", "topic", p.Topic())
			publishers = append(publishers, p)
			closers = append(closers, p.Close)
		}
	}

	return publishers, amqpClient, closers
}

func readiness(store storage.Reader, key string) func(context.Context) error {
	return func(ctx context.Context) error {
		_, _, err := store.Get(ctx, key)
		return err
	}
}
