// Package projection holds the event subscribers that keep eventually
// consistent read models in step with the authoritative ledger.
package projection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/core/event"
	"github.com/openpos/retail-core/internal/port"
)

// StockProjector mirrors stock changes into the cache so the GUI can read
// levels without touching the database.
type StockProjector struct {
	cache  port.StockCache
	logger *zap.Logger
}

func NewStockProjector(cache port.StockCache, logger *zap.Logger) *StockProjector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockProjector{cache: cache, logger: logger}
}

// Register subscribes the projector's handlers on the bus.
func (p *StockProjector) Register(bus *event.Bus) {
	bus.Subscribe(domain.EventProductStockChanged, p.onStockChanged)
	bus.Subscribe(domain.EventLowStockDetected, p.onLowStock)
	bus.Subscribe(domain.EventStockReplenished, p.onReplenished)
}

func (p *StockProjector) onStockChanged(ctx context.Context, e domain.Event) error {
	ev, ok := e.(*domain.ProductStockChanged)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e, e.EventType())
	}
	return p.cache.SetStock(ctx, ev.ProductID, ev.NewQuantity)
}

func (p *StockProjector) onLowStock(ctx context.Context, e domain.Event) error {
	ev, ok := e.(*domain.LowStockDetected)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e, e.EventType())
	}
	p.logger.Warn("product is low on stock",
		zap.String("product_id", ev.ProductID),
		zap.String("code", ev.Code),
		zap.String("quantity", ev.Quantity.String()),
		zap.String("minimum", ev.Minimum.String()),
	)
	return p.cache.MarkLowStock(ctx, ev.ProductID)
}

func (p *StockProjector) onReplenished(ctx context.Context, e domain.Event) error {
	ev, ok := e.(*domain.StockReplenished)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", e, e.EventType())
	}
	return p.cache.ClearLowStock(ctx, ev.ProductID)
}

// AuditLogger writes one structured log line per published event,
// regardless of type.
type AuditLogger struct {
	logger *zap.Logger
}

func NewAuditLogger(logger *zap.Logger) *AuditLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogger{logger: logger}
}

func (a *AuditLogger) Register(bus *event.Bus) {
	bus.SubscribeAll(a.log)
}

func (a *AuditLogger) log(_ context.Context, e domain.Event) error {
	a.logger.Info("domain event",
		zap.String("event_id", e.EventID()),
		zap.String("event_type", e.EventType()),
		zap.Time("occurred_at", e.OccurredAt()),
	)
	return nil
}
