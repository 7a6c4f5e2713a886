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
	ErrOrderNotFound    = errors.New("purchase order not found")
	ErrOrderClosed      = errors.New("purchase order is closed")
	ErrOrderNotPending  = errors.New("purchase order is not pending")
	ErrItemNotFound     = errors.New("order item not found")
	ErrEmptyBatch       = errors.New("nothing to receive")
	ErrSupplierNotFound = errors.New("supplier not found")
)

// OrderLine describes one requested line when creating a purchase order.
type OrderLine struct {
	ProductID string
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
}

// ReceiveEntry is one delivery line of a receiving batch. Entries are
// processed in the order supplied. A nil Quantity marks an entry the GUI
// submitted without a value; it is skipped with a warning rather than
// failing the batch.
type ReceiveEntry struct {
	ItemID   string
	Quantity *decimal.Decimal
	Notes    string
}

// PurchaseService drives the supplier order lifecycle, most importantly
// the receiving state machine that applies deliveries against ordered
// quantities and derives order status.
type PurchaseService struct {
	store     port.Store
	repos     port.Repositories
	inventory *InventoryService
	bus       *event.Bus
	logger    *zap.Logger
}

func NewPurchaseService(store port.Store, repos port.Repositories, inventory *InventoryService, bus *event.Bus, logger *zap.Logger) *PurchaseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseService{store: store, repos: repos, inventory: inventory, bus: bus, logger: logger}
}

// CreateOrder registers a new PENDING order for a known supplier. Product
// code and description are denormalized onto each line at this point.
func (s *PurchaseService) CreateOrder(ctx context.Context, supplierID string, expected *time.Time, notes string, lines []OrderLine) (*domain.PurchaseOrder, error) {
	if supplierID == "" {
		return nil, fmt.Errorf("%w: supplier id is required", ErrSupplierNotFound)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: an order needs at least one line", ErrEmptyBatch)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.repos.Suppliers(tx).GetByID(ctx, supplierID); err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSupplierNotFound, supplierID)
		}
		return nil, fmt.Errorf("load supplier %s: %w", supplierID, err)
	}

	now := time.Now()
	order := &domain.PurchaseOrder{
		ID:         uuid.NewString(),
		SupplierID: supplierID,
		Status:     domain.OrderPending,
		OrderedAt:  now,
		ExpectedAt: expected,
		Notes:      notes,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	products := s.repos.Products(tx)
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return nil, fmt.Errorf("%w: ordered quantity for product %s must be positive, got %s",
				ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
		product, err := products.GetByID(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, port.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
			}
			return nil, fmt.Errorf("load product %s: %w", line.ProductID, err)
		}
		order.Items = append(order.Items, &domain.PurchaseOrderItem{
			ID:               uuid.NewString(),
			OrderID:          order.ID,
			ProductID:        product.ID,
			ProductCode:      product.Code,
			Description:      product.Description,
			QuantityOrdered:  line.Quantity,
			QuantityReceived: decimal.Zero,
			UnitCost:         line.UnitCost,
		})
	}

	if err := s.repos.Orders(tx).Add(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Record(domain.NewPurchaseOrderCreated(order))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}

	publishAll(ctx, s.bus, order.CollectEvents())
	return order, nil
}

// ReceiveItems applies one supplier delivery against an order. The entire
// batch runs in a single transaction: each entry updates the item's
// received quantity and increases product stock through the inventory
// ledger, then the order status is re-derived from the item totals. Any
// validation failure rolls back the whole batch.
func (s *PurchaseService) ReceiveItems(ctx context.Context, orderID string, entries []ReceiveEntry, notes, actor string) (*domain.PurchaseOrder, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: empty receive batch for order %s", ErrEmptyBatch, orderID)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orders := s.repos.Orders(tx)
	order, err := orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderClosed, orderID, order.Status)
	}

	var pending []domain.Event
	received := make([]domain.ReceivedItem, 0, len(entries))

	for _, entry := range entries {
		if entry.Quantity == nil {
			s.logger.Warn("receive entry has no quantity, skipping",
				zap.String("order_id", orderID),
				zap.String("item_id", entry.ItemID),
			)
			continue
		}

		item := order.Item(entry.ItemID)
		if item == nil {
			return nil, fmt.Errorf("%w: item %s is not on order %s", ErrItemNotFound, entry.ItemID, orderID)
		}

		qty := *entry.Quantity
		if !qty.IsPositive() {
			return nil, fmt.Errorf("%w: receive quantity for item %s must be positive, got %s",
				ErrInvalidQuantity, entry.ItemID, qty)
		}

		// Over-receipt guard across all partial deliveries.
		if err := item.AddReceived(qty); err != nil {
			return nil, fmt.Errorf("item %s: %w", entry.ItemID, err)
		}

		product, err := s.inventory.IncreaseStockInTx(ctx, tx, item.ProductID, qty, order.ID, receiveNotes(notes, entry.Notes), actor)
		if err != nil {
			return nil, err
		}
		pending = append(pending, product.CollectEvents()...)

		if err := orders.UpdateItem(ctx, item); err != nil {
			return nil, fmt.Errorf("update item %s: %w", entry.ItemID, err)
		}

		received = append(received, domain.ReceivedItem{
			ItemID:    item.ID,
			ProductID: item.ProductID,
			Quantity:  qty,
		})
	}

	if next := order.DeriveStatus(); next != order.Status {
		order.Status = next
		if err := orders.UpdateStatus(ctx, order.ID, next); err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}
	order.UpdatedAt = time.Now()
	order.Record(domain.NewPurchaseOrderReceived(order, received))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit receive batch for order %s: %w", orderID, err)
	}

	publishAll(ctx, s.bus, append(pending, order.CollectEvents()...))
	return order, nil
}

// CancelOrder moves a PENDING order to CANCELLED. Orders that received any
// goods, and orders already in a terminal state, cannot be cancelled.
func (s *PurchaseService) CancelOrder(ctx context.Context, orderID, reason string) (*domain.PurchaseOrder, error) {
	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	orders := s.repos.Orders(tx)
	order, err := orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}
	if order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderClosed, orderID, order.Status)
	}
	if order.Status != domain.OrderPending {
		return nil, fmt.Errorf("%w: order %s is %s", ErrOrderNotPending, orderID, order.Status)
	}

	order.Status = domain.OrderCancelled
	order.UpdatedAt = time.Now()
	if err := orders.UpdateStatus(ctx, order.ID, domain.OrderCancelled); err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	order.Record(domain.NewPurchaseOrderCancelled(order, reason))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit cancel for order %s: %w", orderID, err)
	}

	publishAll(ctx, s.bus, order.CollectEvents())
	return order, nil
}

func receiveNotes(batchNotes, entryNotes string) string {
	switch {
	case entryNotes != "":
		return entryNotes
	case batchNotes != "":
		return batchNotes
	default:
		return "purchase order receipt"
	}
}
