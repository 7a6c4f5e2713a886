package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openpos/retail-core/internal/core/domain"
	"github.com/openpos/retail-core/internal/port"
)

// MySQLStore implements port.Store and provides the session-bound
// repository factories. All decimals are stored in DECIMAL columns and
// moved through the driver as strings.
type MySQLStore struct {
	db *sql.DB
}

func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{db: db}
}

func (s *MySQLStore) BeginTx(ctx context.Context) (port.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return &mysqlTx{tx: tx}, nil
}

// Repositories returns factories that bind a transaction to concrete
// repository instances.
func (s *MySQLStore) Repositories() port.Repositories {
	return port.Repositories{
		Products:  func(tx port.Tx) port.ProductRepository { return &productRepo{tx: sqlTx(tx)} },
		Movements: func(tx port.Tx) port.MovementRepository { return &movementRepo{tx: sqlTx(tx)} },
		Orders:    func(tx port.Tx) port.PurchaseOrderRepository { return &orderRepo{tx: sqlTx(tx)} },
		Suppliers: func(tx port.Tx) port.SupplierRepository { return &supplierRepo{tx: sqlTx(tx)} },
		Sales:     func(tx port.Tx) port.SaleRepository { return &saleRepo{tx: sqlTx(tx)} },
	}
}

type mysqlTx struct {
	tx   *sql.Tx
	done bool
}

func (t *mysqlTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return err
	}
	t.done = true
	return nil
}

func (t *mysqlTx) Rollback() error {
	if t.done {
		return nil
	}
	return t.tx.Rollback()
}

func sqlTx(tx port.Tx) *sql.Tx {
	return tx.(*mysqlTx).tx
}

func scanDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

type productRepo struct {
	tx *sql.Tx
}

const productColumns = `id, code, description, price, cost_price, quantity_in_stock,
	min_stock, max_stock, track_stock, version, created_at, updated_at`

func (r *productRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getWhere(ctx, "id = ?", id)
}

func (r *productRepo) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	return r.getWhere(ctx, "code = ?", code)
}

func (r *productRepo) getWhere(ctx context.Context, where string, arg any) (*domain.Product, error) {
	var (
		p                                 domain.Product
		price, cost, qty, minQty, maxQty string
	)
	err := r.tx.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE `+where, arg,
	).Scan(&p.ID, &p.Code, &p.Description, &price, &cost, &qty,
		&minQty, &maxQty, &p.TrackStock, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	for _, d := range []struct {
		raw string
		dst *decimal.Decimal
	}{
		{price, &p.Price}, {cost, &p.CostPrice}, {qty, &p.QuantityInStock},
		{minQty, &p.MinStock}, {maxQty, &p.MaxStock},
	} {
		v, err := scanDecimal(d.raw)
		if err != nil {
			return nil, fmt.Errorf("parse product decimal: %w", err)
		}
		*d.dst = v
	}
	return &p, nil
}

func (r *productRepo) Add(ctx context.Context, p *domain.Product) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO products (id, code, description, price, cost_price, quantity_in_stock,
			min_stock, max_stock, track_stock, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		p.ID, p.Code, p.Description, p.Price.String(), p.CostPrice.String(),
		p.QuantityInStock.String(), p.MinStock.String(), p.MaxStock.String(),
		p.TrackStock, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *productRepo) Update(ctx context.Context, p *domain.Product) error {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE products
		SET description = ?, price = ?, cost_price = ?, quantity_in_stock = ?,
			min_stock = ?, max_stock = ?, track_stock = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?`,
		p.Description, p.Price.String(), p.CostPrice.String(), p.QuantityInStock.String(),
		p.MinStock.String(), p.MaxStock.String(), p.TrackStock,
		p.UpdatedAt, p.ID, p.Version,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}
	p.Version++
	return nil
}

type movementRepo struct {
	tx *sql.Tx
}

func (r *movementRepo) Add(ctx context.Context, m *domain.Movement) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO inventory_movements (id, product_id, delta, kind, reason, reference, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProductID, m.Delta.String(), string(m.Kind), m.Reason, m.Reference, m.Actor, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movement: %w", err)
	}
	return nil
}

func (r *movementRepo) ListByProduct(ctx context.Context, productID string) ([]*domain.Movement, error) {
	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, product_id, delta, kind, reason, reference, actor, created_at
		FROM inventory_movements WHERE product_id = ? ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, fmt.Errorf("query movements: %w", err)
	}
	defer rows.Close()

	var movements []*domain.Movement
	for rows.Next() {
		var (
			m     domain.Movement
			delta string
			kind  string
		)
		if err := rows.Scan(&m.ID, &m.ProductID, &delta, &kind, &m.Reason, &m.Reference, &m.Actor, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		if m.Delta, err = scanDecimal(delta); err != nil {
			return nil, fmt.Errorf("parse movement delta: %w", err)
		}
		m.Kind = domain.MovementKind(kind)
		movements = append(movements, &m)
	}
	return movements, rows.Err()
}

func (r *movementRepo) SumDeltas(ctx context.Context, productID string) (decimal.Decimal, error) {
	var sum string
	err := r.tx.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(delta), 0) FROM inventory_movements WHERE product_id = ?`, productID,
	).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum movements: %w", err)
	}
	return scanDecimal(sum)
}

type orderRepo struct {
	tx *sql.Tx
}

func (r *orderRepo) GetByID(ctx context.Context, id string) (*domain.PurchaseOrder, error) {
	var (
		o      domain.PurchaseOrder
		status string
	)
	err := r.tx.QueryRowContext(ctx, `
		SELECT id, supplier_id, status, ordered_at, expected_at, notes, created_at, updated_at
		FROM purchase_orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.SupplierID, &status, &o.OrderedAt, &o.ExpectedAt, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	o.Status = domain.PurchaseOrderStatus(status)

	rows, err := r.tx.QueryContext(ctx, `
		SELECT id, order_id, product_id, product_code, description,
			quantity_ordered, quantity_received, unit_cost, version
		FROM purchase_order_items WHERE order_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item                     domain.PurchaseOrderItem
			ordered, received, cost string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductCode,
			&item.Description, &ordered, &received, &cost, &item.Version); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if item.QuantityOrdered, err = scanDecimal(ordered); err != nil {
			return nil, fmt.Errorf("parse ordered quantity: %w", err)
		}
		if item.QuantityReceived, err = scanDecimal(received); err != nil {
			return nil, fmt.Errorf("parse received quantity: %w", err)
		}
		if item.UnitCost, err = scanDecimal(cost); err != nil {
			return nil, fmt.Errorf("parse unit cost: %w", err)
		}
		o.Items = append(o.Items, &item)
	}
	return &o, rows.Err()
}

func (r *orderRepo) Add(ctx context.Context, o *domain.PurchaseOrder) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO purchase_orders (id, supplier_id, status, ordered_at, expected_at, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.SupplierID, string(o.Status), o.OrderedAt, o.ExpectedAt, o.Notes, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for position, item := range o.Items {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO purchase_order_items (id, order_id, product_id, product_code, description,
				quantity_ordered, quantity_received, unit_cost, version, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
			item.ID, item.OrderID, item.ProductID, item.ProductCode, item.Description,
			item.QuantityOrdered.String(), item.QuantityReceived.String(), item.UnitCost.String(), position,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepo) UpdateItem(ctx context.Context, item *domain.PurchaseOrderItem) error {
	result, err := r.tx.ExecContext(ctx, `
		UPDATE purchase_order_items
		SET quantity_received = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		item.QuantityReceived.String(), item.ID, item.Version,
	)
	if err != nil {
		return fmt.Errorf("update order item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrVersionConflict
	}
	item.Version++
	return nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.PurchaseOrderStatus) error {
	_, err := r.tx.ExecContext(ctx, `
		UPDATE purchase_orders SET status = ?, updated_at = NOW() WHERE id = ?`,
		string(status), orderID,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	return nil
}

type supplierRepo struct {
	tx *sql.Tx
}

func (r *supplierRepo) GetByID(ctx context.Context, id string) (*domain.Supplier, error) {
	var s domain.Supplier
	err := r.tx.QueryRowContext(ctx, `
		SELECT id, name, email, phone, created_at FROM suppliers WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query supplier: %w", err)
	}
	return &s, nil
}

func (r *supplierRepo) Add(ctx context.Context, s *domain.Supplier) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO suppliers (id, name, email, phone, created_at) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Email, s.Phone, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

type saleRepo struct {
	tx *sql.Tx
}

func (r *saleRepo) Add(ctx context.Context, s *domain.Sale) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO sales (id, total, actor, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.Total.String(), s.Actor, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	for _, line := range s.Lines {
		_, err := r.tx.ExecContext(ctx, `
			INSERT INTO sale_lines (id, sale_id, product_id, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			line.ID, line.SaleID, line.ProductID, line.Quantity.String(), line.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("insert sale line: %w", err)
		}
	}
	return nil
}
