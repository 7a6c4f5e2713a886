// Package app wires the core services onto their infrastructure. The
// desktop shell embeds an App and calls the services directly; cmd/posd
// hosts one for headless runs.
package app

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/adapter/projection"
	"github.com/openpos/retail-core/internal/adapter/storage"
	"github.com/openpos/retail-core/internal/core/event"
	"github.com/openpos/retail-core/internal/core/service"
	"github.com/openpos/retail-core/internal/port"
)

type App struct {
	Bus       *event.Bus
	Cache     port.StockCache
	Inventory *service.InventoryService
	Catalog   *service.CatalogService
	Purchases *service.PurchaseService
	Sales     *service.SaleService
}

func New(db *sql.DB, rdb *redis.Client, logger *zap.Logger) *App {
	store := storage.NewMySQLStore(db)
	repos := store.Repositories()
	cache := storage.NewRedisStockCache(rdb)

	bus := event.NewBus(logger)
	projection.NewAuditLogger(logger).Register(bus)
	projection.NewStockProjector(cache, logger).Register(bus)

	inventory := service.NewInventoryService(store, repos, bus, logger)

	return &App{
		Bus:       bus,
		Cache:     cache,
		Inventory: inventory,
		Catalog:   service.NewCatalogService(store, repos, bus, logger),
		Purchases: service.NewPurchaseService(store, repos, inventory, bus, logger),
		Sales:     service.NewSaleService(store, repos, inventory, bus, logger),
	}
}
