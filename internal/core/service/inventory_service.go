package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/core/event"
	"github.com/openpos/retail-core/internal/port"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrStockNotTracked    = errors.New("product does not track stock")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrLedgerOutOfBalance = errors.New("ledger out of balance")
)

const (
	versionRetryLimit = 3
	versionRetryDelay = 25 * time.Millisecond
)

// InventoryService is the inventory ledger: the single authorized path for
// mutating a product's stock quantity. Every accepted mutation updates the
// product and appends exactly one movement row in one transaction.
type InventoryService struct {
	store  port.Store
	repos  port.Repositories
	bus    *event.Bus
	logger *zap.Logger
}

func NewInventoryService(store port.Store, repos port.Repositories, bus *event.Bus, logger *zap.Logger) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{store: store, repos: repos, bus: bus, logger: logger}
}

// AddStock increases a tracked product's quantity, recording a PURCHASE
// movement. newCost, when non-nil, overwrites the product's cost price.
func (s *InventoryService) AddStock(ctx context.Context, productID string, qty decimal.Decimal, newCost *decimal.Decimal, notes, actor string) (*domain.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrProductNotFound)
	}
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: quantity to add must be positive, got %s", ErrInvalidQuantity, qty)
	}
	return s.mutateStock(ctx, productID, qty, domain.MovementPurchase, notes, "", actor, newCost)
}

// AdjustStock applies a signed correction, recording an ADJUSTMENT
// movement. The result may not go negative.
func (s *InventoryService) AdjustStock(ctx context.Context, productID string, qty decimal.Decimal, reason, actor string) (*domain.Product, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrProductNotFound)
	}
	if qty.IsZero() {
		return nil, fmt.Errorf("%w: adjustment quantity must not be zero", ErrInvalidQuantity)
	}
	return s.mutateStock(ctx, productID, qty, domain.MovementAdjustment, reason, "", actor, nil)
}

// DecreaseStockForSale runs one stock decrement inside the caller's
// transaction, so several product mutations and the sale record commit
// together. The caller drains the product's recorded events after its own
// commit.
func (s *InventoryService) DecreaseStockForSale(ctx context.Context, tx port.Tx, productID string, qty decimal.Decimal, saleRef, actor string) (*domain.Product, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: sale quantity must be positive, got %s", ErrInvalidQuantity, qty)
	}
	return s.applyMovement(ctx, tx, productID, qty.Neg(), domain.MovementSale, "sale", saleRef, actor, nil)
}

// IncreaseStockInTx runs one stock increase inside the caller's
// transaction, recording a PURCHASE movement. Used by the purchase-order
// receiving workflow so item receipt and stock update share a transaction.
func (s *InventoryService) IncreaseStockInTx(ctx context.Context, tx port.Tx, productID string, qty decimal.Decimal, reference, notes, actor string) (*domain.Product, error) {
	if !qty.IsPositive() {
		return nil, fmt.Errorf("%w: quantity to add must be positive, got %s", ErrInvalidQuantity, qty)
	}
	return s.applyMovement(ctx, tx, productID, qty, domain.MovementPurchase, notes, reference, actor, nil)
}

// VerifyLedger checks the reconciliation invariant: the sum of all
// movement deltas for the product must equal its current quantity.
func (s *InventoryService) VerifyLedger(ctx context.Context, productID string) error {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	product, err := s.repos.Products(tx).GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return fmt.Errorf("load product %s: %w", productID, err)
	}
	sum, err := s.repos.Movements(tx).SumDeltas(ctx, productID)
	if err != nil {
		return fmt.Errorf("sum movements for %s: %w", productID, err)
	}
	if !sum.Equal(product.QuantityInStock) {
		return fmt.Errorf("%w: product %s has quantity %s but movement sum %s",
			ErrLedgerOutOfBalance, product.Code, product.QuantityInStock, sum)
	}
	return nil
}

// mutateStock owns the transaction for a standalone mutation and retries
// version conflicts with a short backoff. Events recorded on the product
// are published only after a successful commit.
func (s *InventoryService) mutateStock(ctx context.Context, productID string, delta decimal.Decimal, kind domain.MovementKind, reason, reference, actor string, newCost *decimal.Decimal) (*domain.Product, error) {
	for attempt := 0; attempt < versionRetryLimit; attempt++ {
		if attempt > 0 {
			time.Sleep(versionRetryDelay * time.Duration(attempt))
		}

		tx, err := s.store.BeginTx(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin tx: %w", err)
		}

		product, err := s.applyMovement(ctx, tx, productID, delta, kind, reason, reference, actor, newCost)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, port.ErrVersionConflict) {
				s.logger.Warn("stock mutation hit version conflict, retrying",
					zap.String("product_id", productID),
					zap.Int("attempt", attempt+1),
				)
				continue
			}
			return nil, err
		}

		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit stock mutation for %s: %w", productID, err)
		}

		publishAll(ctx, s.bus, product.CollectEvents())
		return product, nil
	}
	return nil, fmt.Errorf("stock mutation for %s: %w", productID, port.ErrVersionConflict)
}

// applyMovement is the one write path behind every ledger operation: load,
// validate tracking, compute the prospective quantity with exact decimal
// arithmetic, evaluate the negative-stock guard before any write, then
// persist the product update and the movement row. Stock-change events are
// recorded on the product aggregate, never published here.
func (s *InventoryService) applyMovement(ctx context.Context, tx port.Tx, productID string, delta decimal.Decimal, kind domain.MovementKind, reason, reference, actor string, newCost *decimal.Decimal) (*domain.Product, error) {
	products := s.repos.Products(tx)

	product, err := products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}
	if !product.TrackStock {
		return nil, fmt.Errorf("%w: %s", ErrStockNotTracked, product.Code)
	}

	wasBelow := product.BelowMinimum()
	next := product.QuantityInStock.Add(delta)
	if next.IsNegative() {
		return nil, fmt.Errorf("%w: product %s has %s in stock, change of %s would leave negative stock",
			ErrInsufficientStock, product.Code, product.QuantityInStock, delta)
	}

	product.QuantityInStock = next
	if newCost != nil {
		product.CostPrice = *newCost
	}
	product.UpdatedAt = time.Now()

	if err := products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}

	movement := &domain.Movement{
		ID:        uuid.NewString(),
		ProductID: product.ID,
		Delta:     delta,
		Kind:      kind,
		Reason:    reason,
		Reference: reference,
		Actor:     actor,
		CreatedAt: time.Now(),
	}
	if err := s.repos.Movements(tx).Add(ctx, movement); err != nil {
		return nil, fmt.Errorf("record movement for %s: %w", productID, err)
	}

	product.Record(domain.NewProductStockChanged(product, delta, kind, reference))
	if kind == domain.MovementAdjustment {
		product.Record(domain.NewInventoryAdjusted(product, delta, reason, actor))
	}
	isBelow := product.BelowMinimum()
	if !wasBelow && isBelow {
		product.Record(domain.NewLowStockDetected(product))
	}
	if wasBelow && !isBelow {
		product.Record(domain.NewStockReplenished(product))
	}

	return product, nil
}
