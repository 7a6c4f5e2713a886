package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type MovementKind string

const (
	MovementPurchase   MovementKind = "PURCHASE"
	MovementSale       MovementKind = "SALE"
	MovementAdjustment MovementKind = "ADJUSTMENT"
)

// Movement is one append-only ledger row: a single signed stock change and
// its cause. Rows are never updated or deleted, and the sum of all deltas
// for a product must equal its current quantity in stock.
type Movement struct {
	ID        string
	ProductID string
	Delta     decimal.Decimal
	Kind      MovementKind
	Reason    string
	Reference string // related sale or purchase-order id, if any
	Actor     string
	CreatedAt time.Time
}
