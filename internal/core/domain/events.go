package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event is an immutable fact describing something that already happened.
// Identity and occurrence time are fixed at construction.
type Event interface {
	EventID() string
	EventType() string
	OccurredAt() time.Time
}

// Event type names, used as the bus dispatch key.
const (
	EventProductCreated         = "ProductCreated"
	EventProductPriceChanged    = "ProductPriceChanged"
	EventProductStockChanged    = "ProductStockChanged"
	EventInventoryAdjusted      = "InventoryAdjusted"
	EventLowStockDetected       = "LowStockDetected"
	EventStockReplenished       = "StockReplenished"
	EventSaleCompleted          = "SaleCompleted"
	EventPurchaseOrderCreated   = "PurchaseOrderCreated"
	EventPurchaseOrderReceived  = "PurchaseOrderReceived"
	EventPurchaseOrderCancelled = "PurchaseOrderCancelled"
)

// BaseEvent carries the generated id and the occurrence timestamp shared
// by every event subtype.
type BaseEvent struct {
	ID string    `json:"event_id"`
	At time.Time `json:"occurred_at"`
}

func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.NewString(), At: time.Now().UTC()}
}

func (e BaseEvent) EventID() string       { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.At }

type ProductCreated struct {
	BaseEvent
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
}

func NewProductCreated(p *Product) *ProductCreated {
	return &ProductCreated{BaseEvent: NewBaseEvent(), ProductID: p.ID, Code: p.Code}
}

func (e *ProductCreated) EventType() string { return EventProductCreated }

type ProductPriceChanged struct {
	BaseEvent
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	OldPrice  decimal.Decimal `json:"old_price"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

func NewProductPriceChanged(p *Product, oldPrice, newPrice decimal.Decimal) *ProductPriceChanged {
	return &ProductPriceChanged{
		BaseEvent: NewBaseEvent(),
		ProductID: p.ID,
		Code:      p.Code,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
	}
}

func (e *ProductPriceChanged) EventType() string { return EventProductPriceChanged }

// ProductStockChanged is recorded for every accepted ledger mutation,
// regardless of movement kind.
type ProductStockChanged struct {
	BaseEvent
	ProductID   string          `json:"product_id"`
	Code        string          `json:"code"`
	Delta       decimal.Decimal `json:"delta"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Kind        MovementKind    `json:"kind"`
	Reference   string          `json:"reference,omitempty"`
}

func NewProductStockChanged(p *Product, delta decimal.Decimal, kind MovementKind, reference string) *ProductStockChanged {
	return &ProductStockChanged{
		BaseEvent:   NewBaseEvent(),
		ProductID:   p.ID,
		Code:        p.Code,
		Delta:       delta,
		NewQuantity: p.QuantityInStock,
		Kind:        kind,
		Reference:   reference,
	}
}

func (e *ProductStockChanged) EventType() string { return EventProductStockChanged }

type InventoryAdjusted struct {
	BaseEvent
	ProductID   string          `json:"product_id"`
	Code        string          `json:"code"`
	Delta       decimal.Decimal `json:"delta"`
	NewQuantity decimal.Decimal `json:"new_quantity"`
	Reason      string          `json:"reason"`
	Actor       string          `json:"actor"`
}

func NewInventoryAdjusted(p *Product, delta decimal.Decimal, reason, actor string) *InventoryAdjusted {
	return &InventoryAdjusted{
		BaseEvent:   NewBaseEvent(),
		ProductID:   p.ID,
		Code:        p.Code,
		Delta:       delta,
		NewQuantity: p.QuantityInStock,
		Reason:      reason,
		Actor:       actor,
	}
}

func (e *InventoryAdjusted) EventType() string { return EventInventoryAdjusted }

// LowStockDetected is recorded when a mutation takes a tracked product
// below its minimum threshold.
type LowStockDetected struct {
	BaseEvent
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Quantity  decimal.Decimal `json:"quantity"`
	Minimum   decimal.Decimal `json:"minimum"`
}

func NewLowStockDetected(p *Product) *LowStockDetected {
	return &LowStockDetected{
		BaseEvent: NewBaseEvent(),
		ProductID: p.ID,
		Code:      p.Code,
		Quantity:  p.QuantityInStock,
		Minimum:   p.MinStock,
	}
}

func (e *LowStockDetected) EventType() string { return EventLowStockDetected }

// StockReplenished is the counterpart of LowStockDetected: the quantity
// moved back to or above the minimum threshold.
type StockReplenished struct {
	BaseEvent
	ProductID string          `json:"product_id"`
	Code      string          `json:"code"`
	Quantity  decimal.Decimal `json:"quantity"`
	Minimum   decimal.Decimal `json:"minimum"`
}

func NewStockReplenished(p *Product) *StockReplenished {
	return &StockReplenished{
		BaseEvent: NewBaseEvent(),
		ProductID: p.ID,
		Code:      p.Code,
		Quantity:  p.QuantityInStock,
		Minimum:   p.MinStock,
	}
}

func (e *StockReplenished) EventType() string { return EventStockReplenished }

type SaleCompleted struct {
	BaseEvent
	SaleID    string          `json:"sale_id"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
	Actor     string          `json:"actor"`
}

func NewSaleCompleted(s *Sale) *SaleCompleted {
	return &SaleCompleted{
		BaseEvent: NewBaseEvent(),
		SaleID:    s.ID,
		Total:     s.Total,
		LineCount: len(s.Lines),
		Actor:     s.Actor,
	}
}

func (e *SaleCompleted) EventType() string { return EventSaleCompleted }

type PurchaseOrderCreated struct {
	BaseEvent
	OrderID    string `json:"order_id"`
	SupplierID string `json:"supplier_id"`
	ItemCount  int    `json:"item_count"`
}

func NewPurchaseOrderCreated(o *PurchaseOrder) *PurchaseOrderCreated {
	return &PurchaseOrderCreated{
		BaseEvent:  NewBaseEvent(),
		OrderID:    o.ID,
		SupplierID: o.SupplierID,
		ItemCount:  len(o.Items),
	}
}

func (e *PurchaseOrderCreated) EventType() string { return EventPurchaseOrderCreated }

// ReceivedItem is one line of a delivery as carried by
// PurchaseOrderReceived.
type ReceivedItem struct {
	ItemID    string          `json:"item_id"`
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

type PurchaseOrderReceived struct {
	BaseEvent
	OrderID  string              `json:"order_id"`
	Status   PurchaseOrderStatus `json:"status"`
	Received []ReceivedItem      `json:"received"`
}

func NewPurchaseOrderReceived(o *PurchaseOrder, received []ReceivedItem) *PurchaseOrderReceived {
	return &PurchaseOrderReceived{
		BaseEvent: NewBaseEvent(),
		OrderID:   o.ID,
		Status:    o.Status,
		Received:  received,
	}
}

func (e *PurchaseOrderReceived) EventType() string { return EventPurchaseOrderReceived }

type PurchaseOrderCancelled struct {
	BaseEvent
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

func NewPurchaseOrderCancelled(o *PurchaseOrder, reason string) *PurchaseOrderCancelled {
	return &PurchaseOrderCancelled{BaseEvent: NewBaseEvent(), OrderID: o.ID, Reason: reason}
}

func (e *PurchaseOrderCancelled) EventType() string { return EventPurchaseOrderCancelled }
