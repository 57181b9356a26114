// Command ingest bulk loads an establishment CSV export into the registry store.
//
//	ingest -source ./data -driver mongo
//	ingest -source s3://exports/StockEtablissement.csv -driver postgres -chunk-size 500000
//
// Flags override the INGEST_* and store settings read from the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"siret-api/internal/company/ingest"
	companymetrics "siret-api/internal/company/metrics"
	"siret-api/internal/company/store"
	"siret-api/internal/platform/config"
	"siret-api/internal/platform/logger"
	platformmongo "siret-api/internal/platform/mongo"
	"siret-api/internal/platform/postgres"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	source := fs.String("source", cfg.Ingest.Source, "CSV file, directory, glob or s3://bucket/key")
	driver := fs.String("driver", cfg.Store.Driver, "target store: postgres or mongo")
	chunkSize := fs.Int("chunk-size", cfg.Ingest.ChunkSize, "rows per write")
	expected := fs.Int("expected-chunks", cfg.Ingest.ExpectedChunks, "expected chunk count, for progress logs")
	unique := fs.Bool("unique-index", cfg.Ingest.UniqueIndex, "create the siret index as unique")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opener ingest.SourceOpener
	if strings.HasPrefix(*source, "s3://") {
		client, err := ingest.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return err
		}
		opener.S3 = client
	}
	rc, name, err := opener.Open(ctx, *source)
	if err != nil {
		return err
	}
	defer rc.Close()

	sink, closeSink, err := openSink(ctx, *driver, cfg)
	if err != nil {
		return err
	}
	defer closeSink()

	start := time.Now()
	log.Info("ingestion started", "source", name, "driver", *driver, "chunk_size", *chunkSize)
	sum, err := ingest.New(sink,
		ingest.WithChunkSize(*chunkSize),
		ingest.WithExpectedChunks(*expected),
		ingest.WithUniqueIndex(*unique),
		ingest.WithLogger(log),
		ingest.WithMetrics(companymetrics.New(prometheus.NewRegistry())),
	).Run(ctx, rc)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", name, err)
	}
	log.Info("ingestion finished",
		"rows", sum.Rows,
		"chunks", sum.Chunks,
		"ignored_columns", sum.IgnoredColumns,
		"duration", time.Since(start).String(),
	)
	return nil
}

func openSink(ctx context.Context, driver string, cfg config.Config) (ingest.Sink, func(), error) {
	switch driver {
	case config.DriverPostgres:
		if cfg.Store.DatabaseURL == "" {
			return nil, nil, fmt.Errorf("DATABASE_URL is required for the %s driver", driver)
		}
		conn, err := postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		w := store.NewPostgresBulkWriter(conn)
		if err := w.EnsureSchema(ctx); err != nil {
			_ = conn.Close(ctx)
			return nil, nil, err
		}
		return w, func() { _ = conn.Close(context.Background()) }, nil
	case config.DriverMongo:
		client, coll, err := platformmongo.Connect(ctx, cfg.Store)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMongo(coll), func() { _ = client.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported ingestion driver %q", driver)
	}
}
