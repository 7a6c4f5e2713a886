package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrOverReceipt = errors.New("received quantity exceeds ordered quantity")

type PurchaseOrderStatus string

const (
	OrderPending           PurchaseOrderStatus = "PENDING"
	OrderPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	OrderReceived          PurchaseOrderStatus = "RECEIVED"
	OrderCancelled         PurchaseOrderStatus = "CANCELLED"
)

// Terminal reports whether the status permits no further receiving.
func (s PurchaseOrderStatus) Terminal() bool {
	return s == OrderReceived || s == OrderCancelled
}

// PurchaseOrderItem is one line of a purchase order. Product code and
// description are denormalized at order time so the line survives later
// catalog edits.
type PurchaseOrderItem struct {
	ID               string
	OrderID          string
	ProductID        string
	ProductCode      string
	Description      string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	Version          int // optimistic locking
}

// Remaining returns the quantity still to be received.
func (i *PurchaseOrderItem) Remaining() decimal.Decimal {
	return i.QuantityOrdered.Sub(i.QuantityReceived)
}

// AddReceived applies one delivery batch to the line. The cumulative
// received quantity may never exceed the ordered quantity, across any
// number of partial deliveries.
func (i *PurchaseOrderItem) AddReceived(qty decimal.Decimal) error {
	if !qty.IsPositive() {
		return fmt.Errorf("receive quantity must be positive, got %s", qty)
	}
	next := i.QuantityReceived.Add(qty)
	if next.GreaterThan(i.QuantityOrdered) {
		return fmt.Errorf("%w (Ordered: %s, Already Received: %s)",
			ErrOverReceipt, i.QuantityOrdered, i.QuantityReceived)
	}
	i.QuantityReceived = next
	return nil
}

// PurchaseOrder is the supplier order aggregate. It is created PENDING and
// only moves forward: PENDING -> PARTIALLY_RECEIVED -> RECEIVED, or
// PENDING -> CANCELLED.
type PurchaseOrder struct {
	Recorder

	ID         string
	SupplierID string
	Status     PurchaseOrderStatus
	OrderedAt  time.Time
	ExpectedAt *time.Time
	Notes      string
	Items      []*PurchaseOrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item returns the line with the given id, or nil.
func (o *PurchaseOrder) Item(itemID string) *PurchaseOrderItem {
	for _, it := range o.Items {
		if it.ID == itemID {
			return it
		}
	}
	return nil
}

// OrderedTotal sums the ordered quantity over all lines.
func (o *PurchaseOrder) OrderedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.QuantityOrdered)
	}
	return total
}

// ReceivedTotal sums the received quantity over all lines.
func (o *PurchaseOrder) ReceivedTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.QuantityReceived)
	}
	return total
}

// DeriveStatus computes the status from the aggregate item totals:
// RECEIVED when the ordered total is positive and fully covered,
// PARTIALLY_RECEIVED when some but not all of it is, and the current
// status otherwise. An order whose ordered total is zero never
// auto-transitions to RECEIVED.
func (o *PurchaseOrder) DeriveStatus() PurchaseOrderStatus {
	ordered := o.OrderedTotal()
	received := o.ReceivedTotal()
	switch {
	case ordered.IsPositive() && received.GreaterThanOrEqual(ordered):
		return OrderReceived
	case received.IsPositive() && received.LessThan(ordered):
		return OrderPartiallyReceived
	default:
		return o.Status
	}
}
