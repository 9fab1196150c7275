// Package bootstrap wires storage, cache and services from configuration for every binary.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"gitlab.connectwisedev.com/inventory-service/pkg/cache"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
	"gitlab.connectwisedev.com/inventory-service/pkg/database"
	"gitlab.connectwisedev.com/inventory-service/pkg/httpapi"
	"gitlab.connectwisedev.com/inventory-service/pkg/importer"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository/memory"
	"gitlab.connectwisedev.com/inventory-service/pkg/repository/postgres"
	"gitlab.connectwisedev.com/inventory-service/pkg/service"
)

// Deps is everything a binary needs once configuration is loaded.
type Deps struct {
	Store   repository.Store
	Cache   service.ProductCache
	Catalog *service.Catalog
	Ledger  *service.Ledger
	Report  *service.Report

	log     zerolog.Logger
	closers []func()
}

// Build opens storage and the optional Redis cache. A Redis that cannot be reached is logged and skipped.
func Build(ctx context.Context, cfg config.Config, log zerolog.Logger) (*Deps, error) {
	d := &Deps{log: log}

	switch cfg.StorageDriver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory storage; data is lost on exit")
		d.Store = memory.New()
	case config.DriverPostgres:
		dbClient, err := database.NewPostgresClient(ctx, cfg.Database, log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize DB client: %w", err)
		}
		d.closers = append(d.closers, dbClient.Close)
		if err := dbClient.EnsureSchema(ctx); err != nil {
			d.Close()
			return nil, err
		}
		d.Store = postgres.New(dbClient.GetDB())
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.StorageDriver)
	}

	d.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, running without product cache")
		} else {
			d.Cache = redisClient
			d.closers = append(d.closers, redisClient.Close)
		}
	}

	d.Catalog = service.NewCatalog(d.Store, d.Cache, log)
	d.Ledger = service.NewLedger(d.Store, d.Cache, log)
	d.Report = service.NewReport(d.Store)
	return d, nil
}

// App returns the HTTP application over the services.
func (d *Deps) App() *httpapi.App {
	return &httpapi.App{
		Catalog: d.Catalog,
		Ledger:  d.Ledger,
		Report:  d.Report,
		Log:     d.log,
		Ready:   d.Catalog.Ready,
	}
}

// Importer returns the CSV importer over the catalog.
func (d *Deps) Importer() *importer.Importer {
	return importer.New(d.Catalog, d.log)
}

// Close releases connections in reverse order of opening.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
