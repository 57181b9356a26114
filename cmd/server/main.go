package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"siret-api/internal/company"
	"siret-api/internal/company/events"
	companymetrics "siret-api/internal/company/metrics"
	"siret-api/internal/company/service"
	"siret-api/internal/company/store"
	"siret-api/internal/platform/config"
	"siret-api/internal/platform/httpserver"
	"siret-api/internal/platform/kafka"
	"siret-api/internal/platform/logger"
	"siret-api/internal/platform/metrics"
	platformmongo "siret-api/internal/platform/mongo"
	"siret-api/internal/platform/postgres"
	platformredis "siret-api/internal/platform/redis"
	httptransport "siret-api/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	companyMetrics := companymetrics.New(reg)

	infra, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.close()

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(companyMetrics),
	}
	if infra.producer != nil {
		publisher := events.NewKafkaPublisher(infra.producer, cfg.Kafka.Topic,
			events.WithLogger(log),
			events.WithMetrics(companyMetrics),
			events.WithPublishTimeout(cfg.Kafka.PublishTimeout),
		)
		infra.health["events"] = publisher.Check
		opts = append(opts, service.WithPublisher(publisher))
	}
	svc := company.NewService(infra.backend, opts...)
	if err := svc.EnsureIndexes(ctx); err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        metrics.New(reg),
		Gatherer:       reg,
		HealthChecks:   infra.health,
		RequestTimeout: cfg.Server.RequestTimeout,
		TrustedProxies: cfg.Server.TrustedProxies,
	}, company.NewHandler(svc, cfg.AccessLogFile, log))

	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting siret-api", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// infra holds the connections opened at startup.
type infra struct {
	backend  store.Backend
	producer *kgo.Client
	health   map[string]httptransport.HealthCheck
	closers  []func()
}

func (i *infra) close() {
	for j := len(i.closers) - 1; j >= 0; j-- {
		i.closers[j]()
	}
}

func buildInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (_ *infra, err error) {
	in := &infra{health: make(map[string]httptransport.HealthCheck)}
	defer func() {
		if err != nil {
			in.close()
		}
	}()

	switch cfg.Store.Driver {
	case config.DriverMemory:
		in.backend = store.NewInMemory()
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = db.Close() })
		pg := store.NewPostgres(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		in.backend = pg
		in.health["store"] = pg.Ping
	case config.DriverMongo:
		client, coll, err := platformmongo.Connect(ctx, cfg.Store)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = client.Disconnect(context.Background()) })
		in.backend = store.NewMongo(coll)
		in.health["store"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}

	if cfg.Redis.URL != "" {
		rc, err := platformredis.New(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, func() { _ = rc.Close() })
		in.backend = store.NewCached(in.backend, rc.Client,
			store.WithCacheTTL(cfg.Redis.CacheTTL),
			store.WithCacheLogger(log),
		)
		in.health["cache"] = rc.Health
	}

	if cfg.Kafka.Enabled() {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka)
		if err != nil {
			return nil, err
		}
		in.closers = append(in.closers, producer.Close)
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka); err != nil {
			return nil, err
		}
		in.producer = producer
	}
	return in, nil
}
