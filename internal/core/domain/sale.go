package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale is a completed checkout. Its lines and the matching SALE movements
// are written in the same transaction, so the sale record and the stock
// decrements commit together.
type Sale struct {
	ID        string
	Total     decimal.Decimal
	Actor     string
	CreatedAt time.Time
	Lines     []*SaleLine
}

type SaleLine struct {
	ID        string
	SaleID    string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
}
