package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/port"
)

// memStore is an in-memory port.Store with real transaction semantics:
// writes are staged on the transaction and only applied on Commit, so the
// services' all-or-nothing behavior is observable in tests.
type memStore struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	movements []*domain.Movement
	orders    map[string]*domain.PurchaseOrder
	suppliers map[string]*domain.Supplier
	sales     map[string]*domain.Sale

	// failProductUpdates makes the next N product updates return
	// ErrVersionConflict, to exercise the retry path.
	failProductUpdates int
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[string]*domain.Product),
		orders:    make(map[string]*domain.PurchaseOrder),
		suppliers: make(map[string]*domain.Supplier),
		sales:     make(map[string]*domain.Sale),
	}
}

func (s *memStore) BeginTx(ctx context.Context) (port.Tx, error) {
	return &memTx{store: s}, nil
}

func (s *memStore) Repositories() port.Repositories {
	return port.Repositories{
		Products:  func(tx port.Tx) port.ProductRepository { return &memProductRepo{tx: tx.(*memTx)} },
		Movements: func(tx port.Tx) port.MovementRepository { return &memMovementRepo{tx: tx.(*memTx)} },
		Orders:    func(tx port.Tx) port.PurchaseOrderRepository { return &memOrderRepo{tx: tx.(*memTx)} },
		Suppliers: func(tx port.Tx) port.SupplierRepository { return &memSupplierRepo{tx: tx.(*memTx)} },
		Sales:     func(tx port.Tx) port.SaleRepository { return &memSaleRepo{tx: tx.(*memTx)} },
	}
}

type memTx struct {
	store  *memStore
	staged []func()
	done   bool
}

func (t *memTx) Commit() error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, apply := range t.staged {
		apply()
	}
	t.staged = nil
	t.done = true
	return nil
}

func (t *memTx) Rollback() error {
	if !t.done {
		t.staged = nil
	}
	return nil
}

func cloneProduct(p *domain.Product) *domain.Product {
	cp := *p
	cp.Recorder = domain.Recorder{}
	return &cp
}

func cloneOrder(o *domain.PurchaseOrder) *domain.PurchaseOrder {
	co := *o
	co.Recorder = domain.Recorder{}
	co.Items = make([]*domain.PurchaseOrderItem, len(o.Items))
	for i, it := range o.Items {
		c := *it
		co.Items[i] = &c
	}
	if o.ExpectedAt != nil {
		t := *o.ExpectedAt
		co.ExpectedAt = &t
	}
	return &co
}

type memProductRepo struct {
	tx *memTx
}

func (r *memProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	p, ok := r.tx.store.products[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (r *memProductRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	for _, p := range r.tx.store.products {
		if p.Code == code {
			return cloneProduct(p), nil
		}
	}
	return nil, port.ErrNotFound
}

func (r *memProductRepo) Add(ctx context.Context, p *domain.Product) error {
	cp := cloneProduct(p)
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.products[cp.ID] = cp
	})
	return nil
}

func (r *memProductRepo) Update(ctx context.Context, p *domain.Product) error {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	if r.tx.store.failProductUpdates > 0 {
		r.tx.store.failProductUpdates--
		return port.ErrVersionConflict
	}
	stored, ok := r.tx.store.products[p.ID]
	if !ok {
		return port.ErrNotFound
	}
	if stored.Version != p.Version {
		return port.ErrVersionConflict
	}
	p.Version++
	cp := cloneProduct(p)
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.products[cp.ID] = cp
	})
	return nil
}

type memMovementRepo struct {
	tx *memTx
}

func (r *memMovementRepo) Add(ctx context.Context, m *domain.Movement) error {
	cp := *m
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.movements = append(r.tx.store.movements, &cp)
	})
	return nil
}

func (r *memMovementRepo) ListByProduct(ctx context.Context, productID string) ([]*domain.Movement, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	var out []*domain.Movement
	for _, m := range r.tx.store.movements {
		if m.ProductID == productID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memMovementRepo) SumDeltas(ctx context.Context, productID string) (decimal.Decimal, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	sum := decimal.Zero
	for _, m := range r.tx.store.movements {
		if m.ProductID == productID {
			sum = sum.Add(m.Delta)
		}
	}
	return sum, nil
}

type memOrderRepo struct {
	tx *memTx
}

func (r *memOrderRepo) GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	o, ok := r.tx.store.orders[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *memOrderRepo) Add(ctx context.Context, o *domain.PurchaseOrder) error {
	co := cloneOrder(o)
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.orders[co.ID] = co
	})
	return nil
}

func (r *memOrderRepo) UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	order, ok := r.tx.store.orders[item.OrderID]
	if !ok {
		return port.ErrNotFound
	}
	var stored *domain.PurchaseOrderItem
	for _, it := range order.Items {
		if it.ID == item.ID {
			stored = it
			break
		}
	}
	if stored == nil {
		return port.ErrNotFound
	}
	if stored.Version != item.Version {
		return port.ErrVersionConflict
	}
	item.Version++
	c := *item
	r.tx.staged = append(r.tx.staged, func() {
		*stored = c
	})
	return nil
}

func (r *memOrderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.PurchaseOrderStatus) error {
	r.tx.staged = append(r.tx.staged, func() {
		if o, ok := r.tx.store.orders[orderID]; ok {
			o.Status = status
		}
	})
	return nil
}

type memSupplierRepo struct {
	tx *memTx
}

func (r *memSupplierRepo) GetByID(ctx context.Context, id string) (*domain.Supplier, error) {
	r.tx.store.mu.Lock()
	defer r.tx.store.mu.Unlock()
	s, ok := r.tx.store.suppliers[id]
	if !ok {
		return nil, port.ErrNotFound
	}
	c := *s
	return &c, nil
}

func (r *memSupplierRepo) Add(ctx context.Context, s *domain.Supplier) error {
	c := *s
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.suppliers[c.ID] = &c
	})
	return nil
}

type memSaleRepo struct {
	tx *memTx
}

func (r *memSaleRepo) Add(ctx context.Context, s *domain.Sale) error {
	c := *s
	c.Lines = make([]*domain.SaleLine, len(s.Lines))
	for i, line := range s.Lines {
		cl := *line
		c.Lines[i] = &cl
	}
	r.tx.staged = append(r.tx.staged, func() {
		r.tx.store.sales[c.ID] = &c
	})
	return nil
}
