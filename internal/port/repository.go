package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/openpos/retail-core/internal/core/domain"
)

type ProductRepository interface {
	// GetByID retrieves a product, ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByCode retrieves a product by its catalog code, ErrNotFound if absent.
	GetByCode(ctx context.Context, code string) (*domain.Product, error)

	// Add persists a new product.
	Add(ctx context.Context, p *domain.Product) error

	// Update persists the product conditionally on its version and bumps
	// it on success; ErrVersionConflict when the stored version differs.
	Update(ctx context.Context, p *domain.Product) error
}

type MovementRepository interface {
	// Add appends one ledger row. Movements are never updated or deleted.
	Add(ctx context.Context, m *domain.Movement) error

	// ListByProduct returns a product's movements, oldest first.
	ListByProduct(ctx context.Context, productID string) ([]*domain.Movement, error)

	// SumDeltas returns the sum of all movement deltas for a product,
	// used for ledger reconciliation.
	SumDeltas(ctx context.Context, productID string) (decimal.Decimal, error)
}

type PurchaseOrderRepository interface {
	// GetByID retrieves an order with its items, ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error)

	// Add persists a new order and its items.
	Add(ctx context.Context, o *domain.PurchaseOrder) error

	// UpdateItem persists an item's received quantity conditionally on
	// its version; ErrVersionConflict when the stored version differs.
	UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error

	// UpdateStatus persists a status change.
	UpdateStatus(ctx context.Context, orderID string, status domain.PurchaseOrderStatus) error
}

type SupplierRepository interface {
	// GetByID retrieves a supplier, ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.Supplier, error)

	// Add persists a new supplier.
	Add(ctx context.Context, s *domain.Supplier) error
}

type SaleRepository interface {
	// Add persists a sale and its lines.
	Add(ctx context.Context, s *domain.Sale) error
}

// Repository factories bind a live transaction to a concrete repository
// instance, so every read and write of one operation shares that
// transaction.
type (
	ProductRepositoryFactory       func(Tx) ProductRepository
	MovementRepositoryFactory      func(Tx) MovementRepository
	PurchaseOrderRepositoryFactory func(Tx) PurchaseOrderRepository
	SupplierRepositoryFactory      func(Tx) SupplierRepository
	SaleRepositoryFactory          func(Tx) SaleRepository
)

// Repositories bundles the session-bound factories handed to the core
// services.
type Repositories struct {
	Products  ProductRepositoryFactory
	Movements MovementRepositoryFactory
	Orders    PurchaseOrderRepositoryFactory
	Suppliers SupplierRepositoryFactory
	Sales     SaleRepositoryFactory
}
