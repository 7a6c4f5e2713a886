package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the catalog entry and the owner of the authoritative stock
// quantity. QuantityInStock is only ever changed through the inventory
// ledger; descriptive fields go through the catalog service.
type Product struct {
	Recorder

	ID              string
	Code            string
	Description     string
	Price           decimal.Decimal
	CostPrice       decimal.Decimal
	QuantityInStock decimal.Decimal
	MinStock        decimal.Decimal
	MaxStock        decimal.Decimal
	TrackStock      bool
	Version         int // optimistic locking
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BelowMinimum reports whether the current stock is under the minimum
// threshold. Always false for products that do not track stock.
func (p *Product) BelowMinimum() bool {
	return p.TrackStock && p.QuantityInStock.LessThan(p.MinStock)
}
