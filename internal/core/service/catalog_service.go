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
	ErrDuplicateCode = errors.New("product code already in use")
	ErrInvalidPrice  = errors.New("invalid price")
)

// CreateProductInput carries the descriptive fields of a new product.
// Stock is always created at zero; initial quantities enter through the
// inventory ledger so the movement history stays complete.
type CreateProductInput struct {
	Code        string
	Description string
	Price       decimal.Decimal
	CostPrice   decimal.Decimal
	MinStock    decimal.Decimal
	MaxStock    decimal.Decimal
	TrackStock  bool
}

// CatalogService maintains products' descriptive fields. It never touches
// QuantityInStock; that is the ledger's job.
type CatalogService struct {
	store  port.Store
	repos  port.Repositories
	bus    *event.Bus
	logger *zap.Logger
}

func NewCatalogService(store port.Store, repos port.Repositories, bus *event.Bus, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{store: store, repos: repos, bus: bus, logger: logger}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if in.Code == "" {
		return nil, fmt.Errorf("%w: product code is required", ErrDuplicateCode)
	}
	if in.Price.IsNegative() || in.CostPrice.IsNegative() {
		return nil, fmt.Errorf("%w: prices must not be negative", ErrInvalidPrice)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	products := s.repos.Products(tx)
	if _, err := products.GetByCode(ctx, in.Code); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCode, in.Code)
	} else if !errors.Is(err, port.ErrNotFound) {
		return nil, fmt.Errorf("check product code %s: %w", in.Code, err)
	}

	now := time.Now()
	product := &domain.Product{
		ID:              uuid.NewString(),
		Code:            in.Code,
		Description:     in.Description,
		Price:           in.Price,
		CostPrice:       in.CostPrice,
		QuantityInStock: decimal.Zero,
		MinStock:        in.MinStock,
		MaxStock:        in.MaxStock,
		TrackStock:      in.TrackStock,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := products.Add(ctx, product); err != nil {
		return nil, fmt.Errorf("create product %s: %w", in.Code, err)
	}
	product.Record(domain.NewProductCreated(product))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product %s: %w", in.Code, err)
	}

	publishAll(ctx, s.bus, product.CollectEvents())
	return product, nil
}

func (s *CatalogService) ChangePrice(ctx context.Context, productID string, newPrice decimal.Decimal) (*domain.Product, error) {
	if newPrice.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative, got %s", ErrInvalidPrice, newPrice)
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	products := s.repos.Products(tx)
	product, err := products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, port.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("load product %s: %w", productID, err)
	}

	oldPrice := product.Price
	if oldPrice.Equal(newPrice) {
		return product, nil
	}
	product.Price = newPrice
	product.UpdatedAt = time.Now()
	if err := products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}
	product.Record(domain.NewProductPriceChanged(product, oldPrice, newPrice))

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit price change for %s: %w", productID, err)
	}

	publishAll(ctx, s.bus, product.CollectEvents())
	return product, nil
}
