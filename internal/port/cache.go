package port

import (
	"context"

	"github.com/shopspring/decimal"
)

// StockCache is the read-model side: a fast, eventually consistent view of
// stock levels maintained by event subscribers. It may lag behind the
// authoritative ledger until the update handler has run.
type StockCache interface {
	// SetStock stores the current quantity for a product.
	SetStock(ctx context.Context, productID string, qty decimal.Decimal) error

	// GetStock returns the cached quantity; ok is false on a cache miss.
	GetStock(ctx context.Context, productID string) (qty decimal.Decimal, ok bool, err error)

	// MarkLowStock adds the product to the low-stock set.
	MarkLowStock(ctx context.Context, productID string) error

	// ClearLowStock removes the product from the low-stock set.
	ClearLowStock(ctx context.Context, productID string) error

	// LowStock lists product ids currently flagged as low on stock.
	LowStock(ctx context.Context) ([]string, error)
}
