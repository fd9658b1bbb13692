package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/facturacion/backend/internal/infrastructure/cache"
	"github.com/facturacion/backend/internal/infrastructure/catalogimport"
	"github.com/facturacion/backend/internal/infrastructure/config"
	"github.com/facturacion/backend/internal/infrastructure/logger"
	"github.com/facturacion/backend/internal/infrastructure/persistence"
	"github.com/facturacion/backend/internal/infrastructure/storage"
	"go.uber.org/zap"
)

func main() {
	var (
		manifestLocation string
		force            bool
		archive          bool
		timeout          time.Duration
	)
	flag.StringVar(&manifestLocation, "manifest", "", "Manifest location: a local path or s3://bucket/key")
	flag.BoolVar(&force, "force", false, "Re-import even if the same version and checksum is active")
	flag.BoolVar(&archive, "archive", false, "Copy a local dataset into object storage after import")
	flag.DurationVar(&timeout, "timeout", 10*time.Minute, "Overall import timeout")
	flag.Parse()

	if manifestLocation == "" {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var source *storage.S3DatasetSource
	if cfg.Storage.Bucket != "" {
		if source, err = storage.NewS3DatasetSource(ctx, &cfg.Storage, storage.WithLogger(log)); err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
	}
	// A nil *S3DatasetSource must not become a non-nil interface value
	var opener catalogimport.ObjectOpener
	if source != nil {
		opener = source
	}

	raw, err := catalogimport.ReadLocation(ctx, manifestLocation, opener)
	if err != nil {
		log.Fatal("Failed to read manifest", zap.Error(err))
	}
	manifest, err := catalogimport.LoadManifest(bytes.NewReader(raw))
	if err != nil {
		log.Fatal("Invalid manifest", zap.String("manifest", manifestLocation), zap.Error(err))
	}

	dataLocation := catalogimport.ResolveDataFile(manifestLocation, manifest.File)
	data, err := catalogimport.ReadLocation(ctx, dataLocation, opener)
	if err != nil {
		log.Fatal("Failed to read dataset", zap.Error(err))
	}

	log.Info("Importing reference dataset",
		zap.String("version", manifest.Version),
		zap.String("data", dataLocation),
		zap.Int("bytes", len(data)),
		zap.Bool("force", force),
	)

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel("warn"))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	histograms, redisClient, err := cache.NewHistogramCacheFactory(cfg.Redis, cfg.Catalog,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize histogram cache", zap.Error(err))
	}
	defer cache.StopHistogramCache(histograms)
	if redisClient != nil {
		defer func() {
			_ = redisClient.Close()
		}()
	}

	importer := catalogimport.NewImporter(persistence.NewGormReferenceRepository(db.DB), histograms, log)
	report, err := importer.Import(ctx, manifest, data, force)
	if err != nil {
		log.Fatal("Import failed", zap.String("version", manifest.Version), zap.Error(err))
	}

	if report.Unchanged {
		log.Info("Dataset already active, nothing to do",
			zap.String("version", report.Dataset.Version),
			zap.String("checksum", report.Dataset.Checksum),
		)
		return
	}

	log.Info("Import completed",
		zap.String("version", report.Dataset.Version),
		zap.String("previous_version", report.PreviousVersion),
		zap.Int("rows", report.Dataset.RowCount),
		zap.Int("skipped_rows", report.SkippedRows),
	)

	if archive && !strings.HasPrefix(dataLocation, storage.URIScheme) {
		if source == nil {
			log.Warn("Archive requested but object storage is not configured")
			return
		}
		if err := source.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to prepare dataset bucket", zap.Error(err))
		}
		location, err := source.Archive(ctx, manifest.Version, filepath.Base(dataLocation), data, "text/csv")
		if err != nil {
			log.Fatal("Failed to archive dataset", zap.Error(err))
		}
		log.Info("Dataset archived", zap.String("location", location))
	}
}

func printUsage() {
	fmt.Println(`Reference catalog import

Usage:
  catalog-import -manifest <location> [-force] [-archive] [-timeout 10m]

Locations are local paths or s3://bucket/key. The data file named in the
manifest is resolved relative to the manifest.

Examples:
  catalog-import -manifest ./datasets/cabys-2024.2.yaml
  catalog-import -manifest s3://reference-datasets/cabys/2024.2/manifest.yaml
  catalog-import -manifest ./datasets/cabys-2024.2.yaml -force -archive`)
}
