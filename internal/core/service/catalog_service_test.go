package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/core/event"
)

func newCatalogFixture(t *testing.T) (*memStore, *CatalogService, *eventCapture) {
	t.Helper()
	store := newMemStore()
	bus := event.NewBus(zap.NewNop())
	capture := &eventCapture{}
	bus.SubscribeAll(capture.handler)
	svc := NewCatalogService(store, store.Repositories(), bus, zap.NewNop())
	return store, svc, capture
}

func TestCreateProduct(t *testing.T) {
	store, svc, capture := newCatalogFixture(t)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Code:        "SKU-100",
		Description: "espresso beans 1kg",
		Price:       dec("14.90"),
		CostPrice:   dec("8.00"),
		MinStock:    dec("5"),
		MaxStock:    dec("60"),
		TrackStock:  true,
	})
	require.NoError(t, err)

	// New products always start with zero stock; quantities enter through
	// the movement ledger.
	assert.True(t, product.QuantityInStock.IsZero())
	assert.NotEmpty(t, product.ID)

	stored := store.products[product.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "SKU-100", stored.Code)

	created := capture.byType(domain.EventProductCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "SKU-100", created[0].(*domain.ProductCreated).Code)
}

func TestCreateProduct_DuplicateCode(t *testing.T) {
	store, svc, capture := newCatalogFixture(t)
	seedProduct(store, "p1", "SKU-100", "0", "0", true)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Code:  "SKU-100",
		Price: dec("1.00"),
	})
	require.ErrorIs(t, err, ErrDuplicateCode)
	assert.Len(t, store.products, 1)
	assert.Empty(t, capture.events)
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Code:  "SKU-1",
		Price: dec("-0.01"),
	})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestChangePrice(t *testing.T) {
	store, svc, capture := newCatalogFixture(t)
	seedProduct(store, "p1", "SKU-1", "0", "0", true)

	product, err := svc.ChangePrice(context.Background(), "p1", dec("12.50"))
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(dec("12.50")))
	assert.True(t, store.products["p1"].Price.Equal(dec("12.50")))

	changed := capture.byType(domain.EventProductPriceChanged)
	require.Len(t, changed, 1)
	e := changed[0].(*domain.ProductPriceChanged)
	assert.True(t, e.OldPrice.Equal(dec("9.99")))
	assert.True(t, e.NewPrice.Equal(dec("12.50")))
}

func TestChangePrice_SamePriceIsNoOp(t *testing.T) {
	store, svc, capture := newCatalogFixture(t)
	seedProduct(store, "p1", "SKU-1", "0", "0", true)

	product, err := svc.ChangePrice(context.Background(), "p1", dec("9.99"))
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(dec("9.99")))
	assert.Empty(t, capture.events)
	assert.Equal(t, 0, store.products["p1"].Version)
}

func TestChangePrice_Rejections(t *testing.T) {
	_, svc, _ := newCatalogFixture(t)

	_, err := svc.ChangePrice(context.Background(), "ghost", dec("1.00"))
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.ChangePrice(context.Background(), "ghost", dec("-1"))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}
