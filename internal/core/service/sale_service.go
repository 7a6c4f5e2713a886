package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/core/event"
	"github.com/openpos/retail-core/internal/port"
)

// SaleLineInput is one checkout line: a product and the quantity sold.
type SaleLineInput struct {
	ProductID string
	Quantity  decimal.Decimal
}

// SaleService records checkouts. The sale row, its lines, and one SALE
// movement per line commit in a single transaction; if any line lacks
// stock, the whole sale is rolled back.
type SaleService struct {
	store     port.Store
	repos     port.Repositories
	inventory *InventoryService
	bus       *event.Bus
	logger    *zap.Logger
}

func NewSaleService(store port.Store, repos port.Repositories, inventory *InventoryService, bus *event.Bus, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{store: store, repos: repos, inventory: inventory, bus: bus, logger: logger}
}

func (s *SaleService) RecordSale(ctx context.Context, lines []SaleLineInput, actor string) (*domain.Sale, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: a sale needs at least one line", ErrEmptyBatch)
	}
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: sale quantity for product %s must be positive, got %s",
				ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	sale := &domain.Sale{
		ID:        uuid.NewString(),
		Actor:     actor,
		CreatedAt: time.Now(),
	}

	var pending []domain.Event
	total := decimal.Zero
	for _, line := range lines {
		product, err := s.inventory.DecreaseStockForSale(ctx, tx, line.ProductID, line.Quantity, sale.ID, actor)
		if err != nil {
			return nil, err
		}
		pending = append(pending, product.CollectEvents()...)

		sale.Lines = append(sale.Lines, &domain.SaleLine{
			ID:        uuid.NewString(),
			SaleID:    sale.ID,
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		total = total.Add(line.Quantity.Mul(product.Price))
	}
	sale.Total = total

	if err := s.repos.Sales(tx).Add(ctx, sale); err != nil {
		return nil, fmt.Errorf("create sale: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit sale %s: %w", sale.ID, err)
	}

	pending = append(pending, domain.NewSaleCompleted(sale))
	publishAll(ctx, s.bus, pending)
	return sale, nil
}
