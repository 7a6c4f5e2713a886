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

func newSaleFixture(t *testing.T) (*memStore, *SaleService, *eventCapture) {
	t.Helper()
	store := newMemStore()
	bus := event.NewBus(zap.NewNop())
	capture := &eventCapture{}
	bus.SubscribeAll(capture.handler)
	repos := store.Repositories()
	inventory := NewInventoryService(store, repos, bus, zap.NewNop())
	svc := NewSaleService(store, repos, inventory, bus, zap.NewNop())
	return store, svc, capture
}

func TestRecordSale(t *testing.T) {
	store, svc, capture := newSaleFixture(t)
	p1 := seedProduct(store, "p1", "SKU-1", "10", "0", true)
	p1.Price = dec("4.00")
	p2 := seedProduct(store, "p2", "SKU-2", "5", "0", true)
	p2.Price = dec("1.50")

	sale, err := svc.RecordSale(context.Background(), []SaleLineInput{
		{ProductID: "p1", Quantity: dec("2")},
		{ProductID: "p2", Quantity: dec("3")},
	}, "carol")
	require.NoError(t, err)

	// Total is sum of quantity times the price at sale time.
	assert.True(t, sale.Total.Equal(dec("12.50")))
	require.Len(t, sale.Lines, 2)
	assert.True(t, sale.Lines[0].UnitPrice.Equal(dec("4.00")))
	assert.True(t, sale.Lines[1].UnitPrice.Equal(dec("1.50")))

	assert.True(t, store.products["p1"].QuantityInStock.Equal(dec("8")))
	assert.True(t, store.products["p2"].QuantityInStock.Equal(dec("2")))
	require.NotNil(t, store.sales[sale.ID])

	// One SALE movement per line, referencing the sale.
	require.Len(t, store.movements, 2)
	for _, m := range store.movements {
		assert.Equal(t, domain.MovementSale, m.Kind)
		assert.Equal(t, sale.ID, m.Reference)
		assert.True(t, m.Delta.IsNegative())
	}

	completed := capture.byType(domain.EventSaleCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, 2, completed[0].(*domain.SaleCompleted).LineCount)
	assert.Len(t, capture.byType(domain.EventProductStockChanged), 2)
}

func TestRecordSale_InsufficientStockRollsBackWholeSale(t *testing.T) {
	store, svc, capture := newSaleFixture(t)
	seedProduct(store, "p1", "SKU-1", "10", "0", true)
	seedProduct(store, "p2", "SKU-2", "1", "0", true)

	_, err := svc.RecordSale(context.Background(), []SaleLineInput{
		{ProductID: "p1", Quantity: dec("2")}, // would succeed alone
		{ProductID: "p2", Quantity: dec("5")}, // not enough stock
	}, "carol")
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The first line's decrement was rolled back with the rest.
	assert.True(t, store.products["p1"].QuantityInStock.Equal(dec("10")))
	assert.True(t, store.products["p2"].QuantityInStock.Equal(dec("1")))
	assert.Empty(t, store.movements)
	assert.Empty(t, store.sales)
	assert.Empty(t, capture.events)
}

func TestRecordSale_Rejections(t *testing.T) {
	store, svc, _ := newSaleFixture(t)
	seedProduct(store, "p1", "SKU-1", "10", "0", true)

	ctx := context.Background()

	_, err := svc.RecordSale(ctx, nil, "carol")
	assert.ErrorIs(t, err, ErrEmptyBatch)

	_, err = svc.RecordSale(ctx, []SaleLineInput{{ProductID: "p1", Quantity: dec("0")}}, "carol")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordSale(ctx, []SaleLineInput{{ProductID: "ghost", Quantity: dec("1")}}, "carol")
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.Empty(t, store.sales)
}

func TestRecordSale_LowStockEventAfterCommit(t *testing.T) {
	store, svc, capture := newSaleFixture(t)
	seedProduct(store, "p1", "SKU-1", "10", "8", true)

	_, err := svc.RecordSale(context.Background(), []SaleLineInput{
		{ProductID: "p1", Quantity: dec("4")},
	}, "carol")
	require.NoError(t, err)

	low := capture.byType(domain.EventLowStockDetected)
	require.Len(t, low, 1)
	assert.True(t, low[0].(*domain.LowStockDetected).Quantity.Equal(dec("6")))
	assert.True(t, store.products["p1"].QuantityInStock.Equal(dec("6")))
}
